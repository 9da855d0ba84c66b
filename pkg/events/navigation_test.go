package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationCompletedPayload(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	evt := NavigationCompleted{
		RunID:              "run-1",
		PatientID:          "p-42",
		Mode:               "batch",
		Outcome:            "answered",
		ResourcesConsulted: []string{"Observation (1)"},
		FactsExtracted:     1,
		ProcessingTimeMs:   1200,
		OccurredAt:         at,
	}

	assert.Equal(t, TypeNavigationCompleted, evt.EventType())
	assert.Equal(t, at, evt.Timestamp())

	raw, err := json.Marshal(evt.Payload())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "p-42", decoded["patient_id"])
	assert.Equal(t, "2024-03-01T08:30:00Z", decoded["occurred_at"])
	assert.NotContains(t, decoded, "answer")
	assert.NotContains(t, decoded, "question")
}

func TestInt(t *testing.T) {
	local := NavigationCompleted{FactsExtracted: 3, ProcessingTimeMs: 1200}
	received := Received{Data: map[string]interface{}{"facts_extracted": 3.0, "processing_time_ms": 1200.0}}

	for _, evt := range []Event{local, received} {
		assert.Equal(t, int64(3), Int(evt, "facts_extracted"))
		assert.Equal(t, int64(1200), Int(evt, "processing_time_ms"))
		assert.Equal(t, int64(0), Int(evt, "missing"))
	}
}
