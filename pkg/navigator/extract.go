package navigator

import (
	"context"
	"fmt"
	"strings"

	"ehr-navigator-be/pkg/fhir"

	"golang.org/x/sync/errgroup"
)

type typeExtraction struct {
	facts []string
	label string
}

// retrieveExtract fetches and condenses each relevant type. Units run on a
// bounded worker group and write to their own slot, so the merged facts
// follow RelevantTypes order regardless of completion order.
func (n *Navigator) retrieveExtract(ctx context.Context, r *run, s State) Update {
	types := s.RelevantTypes
	results := make([]typeExtraction, len(types))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)
	for i, resourceType := range types {
		g.Go(func() error {
			results[i] = n.extractType(gctx, r, s, resourceType)
			return nil
		})
	}
	_ = g.Wait()

	var facts []string
	consulted := make([]string, 0, len(types))
	for _, res := range results {
		if res.label == "" {
			continue
		}
		facts = AppendFacts(facts, res.facts)
		consulted = append(consulted, res.label)
	}
	if facts == nil {
		facts = []string{}
	}

	n.logger.Info(logModule, "Facts extracted", r.details(
		"blocks", len(facts),
		"resources_consulted", consulted,
	))
	return Update{Facts: facts, ResourcesConsulted: &consulted}
}

// extractType handles one resource type. A type whose fetch fails or returns
// nothing contributes neither facts nor a consulted label.
func (n *Navigator) extractType(ctx context.Context, r *run, s State, resourceType string) typeExtraction {
	resources, err := n.store.FetchResources(ctx, s.PatientID, resourceType)
	if err != nil {
		n.recordStoreErrors(r, err)
		return typeExtraction{}
	}
	if len(resources) == 0 {
		return typeExtraction{}
	}

	lines := make([]string, len(resources))
	for i, res := range resources {
		lines[i] = fhir.SummarizeFull(res)
	}
	detail := strings.Join(lines, "\n")

	extracted, err := n.model.Complete(ctx, extractSystemPrompt,
		extractUserPrompt(s.Question, resourceType, detail),
		extractTemperature, extractMaxTokens)
	if err == nil && strings.TrimSpace(extracted) == "" {
		err = fmt.Errorf("%w: empty extraction", ErrParse)
	}
	if err != nil {
		n.metrics.fallback(StageRetrieveExtract, fallbackReason(err))
		n.logger.Warn(logModule, "Extraction failed, using raw details", r.details(
			"resource_type", resourceType,
			"error", err.Error(),
		))
		extracted = detail
	}

	return typeExtraction{
		facts: []string{fmt.Sprintf("--- %s ---\n%s", resourceType, extracted)},
		label: fmt.Sprintf("%s (%d)", resourceType, len(resources)),
	}
}

func describeRetrieveExtract(_ Update, merged State) string {
	if len(merged.Facts) == 0 {
		return "No facts extracted"
	}
	return strings.Join(merged.Facts, "\n")
}
