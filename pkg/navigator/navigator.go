package navigator

import (
	"context"
	"errors"
	"time"

	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/pkg/clinical"
	"ehr-navigator-be/pkg/fhir"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "navigator"

// ErrParse marks model output that did not match the requested shape. It
// triggers the same fallback as clinical.ErrModelUnavailable.
var ErrParse = errors.New("model output did not conform")

// RecordStore is the navigator's view of the clinical record store.
type RecordStore interface {
	// DiscoverManifest may return a usable manifest together with a
	// non-nil error describing the resource types that could not be read.
	DiscoverManifest(ctx context.Context, patientID string) (fhir.Manifest, error)
	FetchResources(ctx context.Context, patientID, resourceType string) ([]fhir.Resource, error)
}

// Navigator runs the progressive-narrowing pipeline:
// discover -> identify -> retrieve+extract -> synthesize.
// It holds no per-run state and is safe for concurrent use.
type Navigator struct {
	store      RecordStore
	model      clinical.ModelClient
	logger     logger.ILogger
	metrics    *Metrics
	tracer     trace.Tracer
	workers    int
	flushDelay time.Duration

	stages map[StageName]stage
}

type Option func(*Navigator)

func WithLogger(l logger.ILogger) Option {
	return func(n *Navigator) {
		n.logger = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(n *Navigator) {
		n.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(n *Navigator) {
		n.tracer = t
	}
}

// WithWorkers bounds how many resource types are fetched and extracted at once.
func WithWorkers(workers int) Option {
	return func(n *Navigator) {
		if workers > 0 {
			n.workers = workers
		}
	}
}

// WithFlushDelay sets the pause between streamed stage events.
func WithFlushDelay(d time.Duration) Option {
	return func(n *Navigator) {
		if d >= 0 {
			n.flushDelay = d
		}
	}
}

func New(store RecordStore, model clinical.ModelClient, opts ...Option) *Navigator {
	n := &Navigator{
		store:      store,
		model:      model,
		logger:     logger.NewNopLogger(),
		tracer:     otel.Tracer("ehr-navigator-be/navigator"),
		workers:    4,
		flushDelay: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(n)
	}

	n.stages = map[StageName]stage{
		StageDiscover:        {name: StageDiscover, label: "Discovering patient records...", run: n.discover, describe: describeDiscover},
		StageIdentify:        {name: StageIdentify, label: "Identifying relevant data...", run: n.identify, describe: describeIdentify},
		StageRetrieveExtract: {name: StageRetrieveExtract, label: "Extracting clinical facts...", run: n.retrieveExtract, describe: describeRetrieveExtract},
		StageSynthesize:      {name: StageSynthesize, label: "Synthesizing answer...", run: n.synthesize, describe: describeSynthesize},
	}
	return n
}

// run carries per-invocation identifiers for logs and spans.
type run struct {
	id   string
	mode string
}

func (r *run) details(kv ...interface{}) map[string]interface{} {
	d := map[string]interface{}{"run_id": r.id, "mode": r.mode}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			d[k] = kv[i+1]
		}
	}
	return d
}
