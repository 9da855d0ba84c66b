package navigator

import (
	"ehr-navigator-be/pkg/fhir"
)

// State is the record threaded through one question/patient invocation.
// It is created empty, changed only through Merge, and dropped once the
// result has been returned or streamed.
type State struct {
	Question           string
	PatientID          string
	Manifest           fhir.Manifest
	RelevantTypes      []string
	Facts              []string
	ResourcesConsulted []string
	Reasoning          string
	Answer             string
}

// Update is the partial result of one stage. Nil pointers leave the field
// unchanged; Facts is always appended, never assigned.
type Update struct {
	Manifest           *fhir.Manifest
	RelevantTypes      *[]string
	Facts              []string
	ResourcesConsulted *[]string
	Reasoning          *string
	Answer             *string
}

// Merge applies u to s. Every field is overwritten when present except
// Facts, which goes through the AppendFacts reducer.
func Merge(s State, u Update) State {
	if u.Manifest != nil {
		s.Manifest = *u.Manifest
	}
	if u.RelevantTypes != nil {
		s.RelevantTypes = *u.RelevantTypes
	}
	s.Facts = AppendFacts(s.Facts, u.Facts)
	if u.ResourcesConsulted != nil {
		s.ResourcesConsulted = *u.ResourcesConsulted
	}
	if u.Reasoning != nil {
		s.Reasoning = *u.Reasoning
	}
	if u.Answer != nil {
		s.Answer = *u.Answer
	}
	return s
}

// AppendFacts concatenates incoming after existing into a fresh slice so
// merged states never share a backing array.
func AppendFacts(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	out := make([]string, 0, len(existing)+len(incoming))
	out = append(out, existing...)
	return append(out, incoming...)
}

func ptr[T any](v T) *T {
	return &v
}
