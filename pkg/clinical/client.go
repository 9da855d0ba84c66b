package clinical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/pkg/llm"
	"ehr-navigator-be/pkg/sanitize"
)

// ErrModelUnavailable is returned for any transport error, timeout or
// non-success response from the model server.
var ErrModelUnavailable = errors.New("clinical model unavailable")

// StopSequences are the end-of-turn tokens of the Gemma family chat template.
var StopSequences = []string{"<end_of_turn>", "<eos>"}

// ModelClient issues a single completion with stage-specific sampling.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

type Client struct {
	provider     llm.LLMProvider
	timeout      time.Duration
	trace        logger.ILogger
	traceContent bool
}

var _ ModelClient = &Client{}

type ClientOption func(*Client)

// WithContentTrace logs prompts and completions verbatim. They contain
// patient record details, so only lengths are logged without it.
func WithContentTrace() ClientOption {
	return func(c *Client) { c.traceContent = true }
}

// NewClient wraps provider. trace should be an isolated file logger.
func NewClient(provider llm.LLMProvider, timeout time.Duration, trace logger.ILogger, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		timeout:  timeout,
		trace:    trace,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete returns the sanitized completion. Every failure is reported as
// ErrModelUnavailable; callers own the fallback.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (out string, err error) {
	defer func() {
		// A misbehaving provider must never take the pipeline down.
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: provider panic: %v", ErrModelUnavailable, r)
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	},
		llm.WithTemperature(temperature),
		llm.WithMaxTokens(maxTokens),
		llm.WithStop(StopSequences...),
	)
	if err != nil {
		c.trace.Warn("clinical", "completion failed", map[string]interface{}{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	cleaned := sanitize.Sanitize(raw)
	details := map[string]interface{}{
		"temperature":   temperature,
		"max_tokens":    maxTokens,
		"system_chars":  len(systemPrompt),
		"user_chars":    len(userPrompt),
		"raw_chars":     len(raw),
		"cleaned_chars": len(cleaned),
		"duration_ms":   time.Since(start).Milliseconds(),
	}
	if c.traceContent {
		details["system"] = systemPrompt
		details["user"] = userPrompt
		details["raw"] = raw
		details["cleaned"] = cleaned
	}
	c.trace.Debug("clinical", "completion received", details)

	return cleaned, nil
}
