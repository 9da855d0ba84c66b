package navigator

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type StageName string

const (
	StageDiscover        StageName = "discover_manifest"
	StageIdentify        StageName = "identify_relevant_types"
	StageRetrieveExtract StageName = "execute_and_extract"
	StageSynthesize      StageName = "synthesize_answer"
	// StageEnd is the terminal node. It only appears on the wire when the
	// run stops right after discovery.
	StageEnd  StageName = "end"
	StageDone StageName = "done"
)

const (
	ModeBatch  = "batch"
	ModeStream = "stream"
)

type stage struct {
	name     StageName
	label    string
	run      func(ctx context.Context, r *run, s State) Update
	describe func(u Update, merged State) string
}

// next is the whole edge table. Discovery is the only conditional edge.
func next(current StageName, s State) StageName {
	switch current {
	case StageDiscover:
		if s.Manifest.IsEmpty() {
			return StageEnd
		}
		return StageIdentify
	case StageIdentify:
		return StageRetrieveExtract
	case StageRetrieveExtract:
		return StageSynthesize
	default:
		return StageEnd
	}
}

// stepFunc observes each completed stage. Returning false stops the run
// before the next stage starts.
type stepFunc func(st stage, u Update, merged State) bool

// execute walks the graph from discovery until it reaches StageEnd. It
// reports whether the walk completed.
func (n *Navigator) execute(ctx context.Context, r *run, question, patientID string, onStep stepFunc) (State, bool) {
	s := State{Question: question, PatientID: patientID}

	for current := StageDiscover; current != StageEnd; current = next(current, s) {
		st := n.stages[current]
		u := n.runStage(ctx, r, st, s)
		s = Merge(s, u)

		if onStep != nil && !onStep(st, u, s) {
			return s, false
		}
	}
	return s, true
}

func (n *Navigator) runStage(ctx context.Context, r *run, st stage, s State) Update {
	ctx, span := n.tracer.Start(ctx, "navigator."+string(st.name))
	span.SetAttributes(
		attribute.String("navigator.run_id", r.id),
		attribute.String("navigator.mode", r.mode),
	)
	defer span.End()

	start := time.Now()
	u := st.run(ctx, r, s)
	elapsed := time.Since(start)

	n.metrics.observeStage(st.name, elapsed)
	if ctx.Err() != nil {
		span.SetStatus(codes.Error, ctx.Err().Error())
	}
	n.logger.Debug(logModule, "Stage finished", r.details(
		"stage", string(st.name),
		"duration_ms", elapsed.Milliseconds(),
	))
	return u
}

type runIDKey struct{}

// ContextWithRunID sets the id logged by a Run or Stream started with ctx.
// Without it each run gets a random UUID.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func (n *Navigator) newRun(ctx context.Context, mode string) *run {
	id, _ := ctx.Value(runIDKey{}).(string)
	if id == "" {
		id = uuid.NewString()
	}
	return &run{id: id, mode: mode}
}

// Run executes the pipeline to completion and returns the final result.
func (n *Navigator) Run(ctx context.Context, question, patientID string) Result {
	start := time.Now()
	r := n.newRun(ctx, ModeBatch)
	n.logger.Info(logModule, "Navigation started", r.details("patient_id", patientID))

	final, _ := n.execute(ctx, r, question, patientID, nil)
	result := newResult(final, time.Since(start))

	n.finish(r, result)
	return result
}

// Stream executes the pipeline and yields one progress event per stage,
// an end marker when discovery finds nothing, and a final done event
// carrying the result. Breaking out of the loop stops the pipeline before
// its next stage.
func (n *Navigator) Stream(ctx context.Context, question, patientID string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		start := time.Now()
		r := n.newRun(ctx, ModeStream)
		n.logger.Info(logModule, "Navigation started", r.details("patient_id", patientID))

		final, completed := n.execute(ctx, r, question, patientID, func(st stage, u Update, merged State) bool {
			ev := Event{Step: st.name, Label: st.label, Reasoning: st.describe(u, merged)}
			if !yield(ev) {
				return false
			}
			return n.pause(ctx)
		})
		if !completed {
			n.logger.Info(logModule, "Navigation stream abandoned", r.details())
			return
		}

		if final.Manifest.IsEmpty() {
			if !yield(Event{Step: StageEnd, Label: "Stopping early", Reasoning: "No patient data, remaining stages skipped"}) {
				return
			}
		}

		result := newResult(final, time.Since(start))
		n.finish(r, result)
		yield(Event{Step: StageDone, Data: &result})
	}
}

// pause gives transports a chance to flush between events.
func (n *Navigator) pause(ctx context.Context) bool {
	if n.flushDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(n.flushDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (n *Navigator) finish(r *run, result Result) {
	n.metrics.observeRun(r.mode, result.Outcome)
	n.logger.Info(logModule, "Navigation completed", r.details(
		"outcome", result.Outcome,
		"facts_extracted", result.FactsExtracted,
		"resources_consulted", result.ResourcesConsulted,
		"processing_time_ms", result.ProcessingTimeMs,
	))
}

// Outcome classifies how a run ended.
func Outcome(s State) string {
	switch {
	case s.Manifest.IsEmpty():
		return "no_data"
	case len(s.Facts) == 0:
		return "no_relevant_data"
	default:
		return "answered"
	}
}
