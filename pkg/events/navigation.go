package events

import "time"

// Event is anything published on the audit stream. EventType is the subject
// suffix, so navigation.completed lands on events.navigation.completed.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

const TypeNavigationCompleted = "navigation.completed"

// NavigationCompleted audits one finished run. It deliberately carries no
// question or answer text.
type NavigationCompleted struct {
	RunID              string
	PatientID          string
	Mode               string
	Outcome            string
	ResourcesConsulted []string
	FactsExtracted     int
	ProcessingTimeMs   int64
	OccurredAt         time.Time
}

func (e NavigationCompleted) EventType() string {
	return TypeNavigationCompleted
}

func (e NavigationCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"run_id":              e.RunID,
		"patient_id":          e.PatientID,
		"mode":                e.Mode,
		"outcome":             e.Outcome,
		"resources_consulted": e.ResourcesConsulted,
		"facts_extracted":     e.FactsExtracted,
		"processing_time_ms":  e.ProcessingTimeMs,
		"occurred_at":         e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

func (e NavigationCompleted) Timestamp() time.Time {
	return e.OccurredAt
}

// Received is an audit record read back off the stream. The payload keeps
// its JSON-decoded shape, so numbers arrive as float64.
type Received struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e Received) EventType() string {
	return e.Type
}

func (e Received) Payload() map[string]interface{} {
	return e.Data
}

func (e Received) Timestamp() time.Time {
	return e.OccurredAt
}

// Int reads a numeric payload field, whether it was set locally or decoded
// from JSON.
func Int(e Event, key string) int64 {
	switch v := e.Payload()[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
