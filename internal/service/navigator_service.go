package service

import (
	"context"
	"iter"
	"time"

	"ehr-navigator-be/internal/dto"
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/pkg/events"
	"ehr-navigator-be/pkg/navigator"

	"github.com/google/uuid"
)

const publishTimeout = 3 * time.Second

// Pipeline is the part of *navigator.Navigator the service drives.
type Pipeline interface {
	Run(ctx context.Context, question, patientID string) navigator.Result
	Stream(ctx context.Context, question, patientID string) iter.Seq[navigator.Event]
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type INavigatorService interface {
	Navigate(ctx context.Context, req *dto.NavigateRequest) (*dto.NavigateResponse, error)
	Stream(ctx context.Context, req *dto.NavigateRequest) iter.Seq[navigator.Event]
}

type navigatorService struct {
	pipeline  Pipeline
	publisher EventPublisher
	logger    logger.ILogger
}

// NewNavigatorService wires the pipeline. publisher may be nil when NATS is
// not configured.
func NewNavigatorService(pipeline Pipeline, publisher EventPublisher, log logger.ILogger) INavigatorService {
	return &navigatorService{
		pipeline:  pipeline,
		publisher: publisher,
		logger:    log,
	}
}

func (s *navigatorService) Navigate(ctx context.Context, req *dto.NavigateRequest) (*dto.NavigateResponse, error) {
	runID := uuid.NewString()
	ctx = navigator.ContextWithRunID(ctx, runID)

	result := s.pipeline.Run(ctx, req.Question, req.PatientID)
	s.audit(ctx, runID, navigator.ModeBatch, req.PatientID, result)

	return &dto.NavigateResponse{RunID: runID, Result: result}, nil
}

// Stream relays the pipeline events. The audit event goes out before the
// final event is handed to the caller.
func (s *navigatorService) Stream(ctx context.Context, req *dto.NavigateRequest) iter.Seq[navigator.Event] {
	return func(yield func(navigator.Event) bool) {
		runID := uuid.NewString()
		ctx := navigator.ContextWithRunID(ctx, runID)

		for ev := range s.pipeline.Stream(ctx, req.Question, req.PatientID) {
			if ev.IsFinal() && ev.Data != nil {
				s.audit(ctx, runID, navigator.ModeStream, req.PatientID, *ev.Data)
			}
			if !yield(ev) {
				return
			}
		}
	}
}

func (s *navigatorService) audit(ctx context.Context, runID, mode, patientID string, result navigator.Result) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	evt := events.NavigationCompleted{
		RunID:              runID,
		PatientID:          patientID,
		Mode:               mode,
		Outcome:            result.Outcome,
		ResourcesConsulted: result.ResourcesConsulted,
		FactsExtracted:     result.FactsExtracted,
		ProcessingTimeMs:   result.ProcessingTimeMs,
		OccurredAt:         time.Now(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("NavigatorService", "Failed to publish audit event", map[string]interface{}{
			"run_id": runID,
			"error":  err.Error(),
		})
	}
}
