package main

import (
	"bytes"
	"testing"
	"time"

	"ehr-navigator-be/pkg/events"
	"ehr-navigator-be/pkg/navigator"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestPrintEvent_Progress(t *testing.T) {
	var buf bytes.Buffer

	printEvent(&buf, navigator.Event{
		Step:      navigator.StageRetrieveExtract,
		Label:     "Extracting clinical facts...",
		Reasoning: "--- Observation ---\n- Glucose 142 mg/dL",
	})

	assert.Equal(t,
		"[execute_and_extract] Extracting clinical facts...\n    --- Observation ---\n    - Glucose 142 mg/dL\n",
		buf.String())
}

func TestPrintEvent_Done(t *testing.T) {
	var buf bytes.Buffer

	printEvent(&buf, navigator.Event{Step: navigator.StageDone, Data: &navigator.Result{
		Answer:             "Glucose is high.",
		ResourcesConsulted: []string{"Observation (1)"},
		FactsExtracted:     1,
		ProcessingTimeMs:   42,
	}})

	assert.Contains(t, buf.String(), "Glucose is high.")
	assert.Contains(t, buf.String(), "resources: Observation (1) | facts: 1 | 42 ms")
}

func TestPrintAudit(t *testing.T) {
	var buf bytes.Buffer

	printAudit(&buf, events.Received{
		Type: events.TypeNavigationCompleted,
		Data: map[string]interface{}{
			"run_id": "r1", "patient_id": "p-1", "mode": "batch",
			"outcome": "no_data", "facts_extracted": 0.0, "processing_time_ms": 12.0,
		},
		OccurredAt: time.Date(2024, 3, 1, 8, 30, 5, 0, time.UTC),
	})

	assert.Equal(t, "08:30:05 run=r1 patient=p-1 mode=batch outcome=no_data facts=0 time=12ms\n", buf.String())
}

func TestRootCmd_RequiresFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--patient", "p-1"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.ErrorContains(t, err, "question")
}

func TestConsulted(t *testing.T) {
	assert.Equal(t, "none", consulted(nil))
	assert.Equal(t, "Observation (1), Condition (2)", consulted([]string{"Observation (1)", "Condition (2)"}))
}
