package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ehr-navigator-be/pkg/fhir"
)

// identify asks the model which manifest types can answer the question.
// Any model or parse failure selects every type in the manifest.
func (n *Navigator) identify(ctx context.Context, r *run, s State) Update {
	if s.Manifest.IsEmpty() {
		return Update{RelevantTypes: ptr([]string{})}
	}

	prompt := identifyUserPrompt(s.Question, renderManifest(s.Manifest))
	raw, err := n.model.Complete(ctx, identifySystemPrompt, prompt, identifyTemperature, identifyMaxTokens)
	if err == nil {
		var selected []string
		selected, err = parseSelection(raw, s.Manifest)
		if err == nil {
			n.logger.Info(logModule, "Relevant types identified", r.details("types", selected))
			return Update{RelevantTypes: &selected}
		}
	}

	all := s.Manifest.Types()
	n.metrics.fallback(StageIdentify, fallbackReason(err))
	n.logger.Warn(logModule, "Type selection failed, using all manifest types", r.details(
		"error", err.Error(),
		"types", all,
	))
	return Update{RelevantTypes: &all}
}

// parseSelection accepts only a JSON array. String items that name a manifest
// type are kept once each, in the order the model listed them; everything
// else is dropped.
func parseSelection(raw string, manifest fhir.Manifest) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: expected a JSON array, got %q", ErrParse, preview(trimmed))
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	selected := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name, ok := item.(string)
		if !ok || !manifest.Has(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		selected = append(selected, name)
	}
	return selected, nil
}

func describeIdentify(u Update, _ State) string {
	if u.RelevantTypes == nil || len(*u.RelevantTypes) == 0 {
		return "No types selected"
	}
	return "Selected: " + strings.Join(*u.RelevantTypes, ", ")
}

func preview(s string) string {
	const limit = 80
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
