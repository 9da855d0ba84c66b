package navigator

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"time"
)

// Result is the externally visible outcome of a run.
type Result struct {
	Answer             string   `json:"answer"`
	Reasoning          string   `json:"reasoning"`
	ResourcesConsulted []string `json:"resources_consulted"`
	FactsExtracted     int      `json:"facts_extracted"`
	ProcessingTimeMs   int64    `json:"processing_time_ms"`
	Outcome            string   `json:"-"`
}

func newResult(s State, elapsed time.Duration) Result {
	answer := s.Answer
	if answer == "" {
		answer = NoAnswer
	}
	consulted := s.ResourcesConsulted
	if consulted == nil {
		consulted = []string{}
	}
	return Result{
		Answer:             answer,
		Reasoning:          s.Reasoning,
		ResourcesConsulted: consulted,
		FactsExtracted:     len(s.Facts),
		ProcessingTimeMs:   elapsed.Milliseconds(),
		Outcome:            Outcome(s),
	}
}

// Event is one line of a streamed run. Progress events carry Label and
// Reasoning; the final event has Step "done" and carries Data.
type Event struct {
	Step      StageName `json:"step"`
	Label     string    `json:"label,omitempty"`
	Reasoning string    `json:"reasoning,omitempty"`
	Data      *Result   `json:"data,omitempty"`
}

func (e Event) IsFinal() bool {
	return e.Step == StageDone
}

// WriteNDJSON encodes events one JSON object per line, calling flush after
// each. A write or flush error stops the underlying run.
func WriteNDJSON(w io.Writer, events iter.Seq[Event], flush func() error) error {
	for ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", ev.Step, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
		if flush != nil {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return nil
}
