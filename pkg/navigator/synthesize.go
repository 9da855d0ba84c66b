package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ehr-navigator-be/pkg/clinical"
)

func (n *Navigator) synthesize(ctx context.Context, r *run, s State) Update {
	if len(s.Facts) == 0 {
		return Update{Answer: ptr(NoRelevantDataAnswer), Reasoning: ptr("")}
	}

	joined := strings.Join(s.Facts, "\n\n")
	answer, err := n.model.Complete(ctx, synthesizeSystemPrompt,
		synthesizeUserPrompt(s.Question, joined),
		synthesizeTemperature, synthesizeMaxTokens)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("%w: empty synthesis", ErrParse)
	}
	if err != nil {
		n.metrics.fallback(StageSynthesize, fallbackReason(err))
		n.logger.Warn(logModule, "Synthesis failed, returning extracted facts", r.details("error", err.Error()))
		return Update{Answer: ptr(extractedFactsHeader + joined), Reasoning: ptr("")}
	}

	return Update{Answer: &answer, Reasoning: &joined}
}

func describeSynthesize(Update, State) string {
	return "Complete"
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, clinical.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "other"
	}
}
