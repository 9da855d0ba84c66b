package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply   string
	err     error
	panics  bool
	block   bool
	history []llm.Message
	options llm.Options
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.history = history
	s.options = llm.Apply(llm.Options{}, opts...)
	if s.panics {
		panic("decoder exploded")
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func TestComplete_SanitizesAndPassesSampling(t *testing.T) {
	p := &stubProvider{reply: "<think>checking</think>\n- Glucose 142 mg/dL"}
	c := NewClient(p, time.Second, logger.NewNopLogger())

	out, err := c.Complete(context.Background(), "sys", "user", 0.6, 2048)

	require.NoError(t, err)
	assert.Equal(t, "- Glucose 142 mg/dL", out)
	require.Len(t, p.history, 2)
	assert.Equal(t, llm.RoleSystem, p.history[0].Role)
	assert.Equal(t, "sys", p.history[0].Content)
	assert.Equal(t, "user", p.history[1].Content)
	assert.Equal(t, 0.6, p.options.Temperature)
	assert.Equal(t, 2048, p.options.MaxTokens)
	assert.Equal(t, StopSequences, p.options.Stop)
}

func TestComplete_ProviderErrorIsModelUnavailable(t *testing.T) {
	c := NewClient(&stubProvider{err: errors.New("connection refused")}, time.Second, logger.NewNopLogger())

	_, err := c.Complete(context.Background(), "s", "u", 0, 10)

	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorContains(t, err, "connection refused")
}

func TestComplete_TimeoutIsModelUnavailable(t *testing.T) {
	c := NewClient(&stubProvider{block: true}, 10*time.Millisecond, logger.NewNopLogger())

	_, err := c.Complete(context.Background(), "s", "u", 0, 10)

	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestComplete_PanicIsModelUnavailable(t *testing.T) {
	c := NewClient(&stubProvider{panics: true}, time.Second, logger.NewNopLogger())

	_, err := c.Complete(context.Background(), "s", "u", 0, 10)

	assert.ErrorIs(t, err, ErrModelUnavailable)
}

type recordingLogger struct {
	logger.ILogger
	debug []map[string]interface{}
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.debug = append(l.debug, details)
}

func TestComplete_TraceOmitsContentByDefault(t *testing.T) {
	trace := &recordingLogger{ILogger: logger.NewNopLogger()}
	c := NewClient(&stubProvider{reply: "- Glucose 142 mg/dL"}, time.Second, trace)

	_, err := c.Complete(context.Background(), "sys", "Patient glucose 142", 0, 10)
	require.NoError(t, err)

	require.Len(t, trace.debug, 1)
	assert.Equal(t, len("Patient glucose 142"), trace.debug[0]["user_chars"])
	assert.NotContains(t, trace.debug[0], "user")
	assert.NotContains(t, trace.debug[0], "raw")
}

func TestComplete_ContentTrace(t *testing.T) {
	trace := &recordingLogger{ILogger: logger.NewNopLogger()}
	c := NewClient(&stubProvider{reply: "- Glucose 142 mg/dL"}, time.Second, trace, WithContentTrace())

	_, err := c.Complete(context.Background(), "sys", "Patient glucose 142", 0, 10)
	require.NoError(t, err)

	require.Len(t, trace.debug, 1)
	assert.Equal(t, "Patient glucose 142", trace.debug[0]["user"])
	assert.Equal(t, "- Glucose 142 mg/dL", trace.debug[0]["cleaned"])
}
