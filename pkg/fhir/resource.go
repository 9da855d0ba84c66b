package fhir

import (
	"encoding/json"
)

// Resource types scanned by the navigator, in manifest order.
const (
	TypeObservation       = "Observation"
	TypeCondition         = "Condition"
	TypeMedicationRequest = "MedicationRequest"
	TypeEncounter         = "Encounter"
	TypeDiagnosticReport  = "DiagnosticReport"
	TypeDocumentReference = "DocumentReference"
	TypeDetectedIssue     = "DetectedIssue"
)

// Catalog is the fixed set of resource types the manifest scan covers.
var Catalog = []string{
	TypeObservation,
	TypeCondition,
	TypeMedicationRequest,
	TypeEncounter,
	TypeDiagnosticReport,
	TypeDocumentReference,
	TypeDetectedIssue,
}

// Resource is the subset of FHIR R4 fields the summarizers read, flattened
// across the catalog types. Raw keeps the original JSON for unknown types.
type Resource struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	Status       string `json:"status,omitempty"`

	// Observation / Condition
	Code              *CodeableConcept  `json:"code,omitempty"`
	ValueQuantity     *Quantity         `json:"valueQuantity,omitempty"`
	Interpretation    []CodeableConcept `json:"interpretation,omitempty"`
	ReferenceRange    []ReferenceRange  `json:"referenceRange,omitempty"`
	EffectiveDateTime string            `json:"effectiveDateTime,omitempty"`
	RecordedDate      string            `json:"recordedDate,omitempty"`

	// MedicationRequest
	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	AuthoredOn                string           `json:"authoredOn,omitempty"`

	// Encounter
	ReasonCode []CodeableConcept `json:"reasonCode,omitempty"`
	Period     *Period           `json:"period,omitempty"`

	// DiagnosticReport
	Conclusion string `json:"conclusion,omitempty"`
	Issued     string `json:"issued,omitempty"`

	// DocumentReference
	Content []DocumentContent `json:"content,omitempty"`

	// DetectedIssue
	Detail   string `json:"detail,omitempty"`
	Severity string `json:"severity,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Quantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
}

type ReferenceRange struct {
	Low  *Quantity `json:"low,omitempty"`
	High *Quantity `json:"high,omitempty"`
}

type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type DocumentContent struct {
	Attachment Attachment `json:"attachment"`
}

type Attachment struct {
	ContentType string `json:"contentType,omitempty"`
	Data        string `json:"data,omitempty"` // base64
}

// Bundle is a searchset bundle as returned by GET /{type}?...
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Total        int           `json:"total,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleEntry struct {
	Resource Resource `json:"resource"`
}

func (r *Resource) UnmarshalJSON(data []byte) error {
	type plain Resource
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Resource(p)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// FirstCoding returns the first coding of c, or a zero Coding.
func (c *CodeableConcept) FirstCoding() Coding {
	if c == nil || len(c.Coding) == 0 {
		return Coding{}
	}
	return c.Coding[0]
}
