package fhir

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Resource {
	t.Helper()
	var r Resource
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

const glucoseJSON = `{
	"resourceType": "Observation",
	"id": "obs-1",
	"status": "final",
	"code": {"coding": [{"system": "http://loinc.org", "code": "2345-7", "display": "Glucose"}], "text": "Glucose [Mass/volume]"},
	"valueQuantity": {"value": 142, "unit": "mg/dL"},
	"interpretation": [{"coding": [{"code": "H"}]}],
	"referenceRange": [{"low": {"value": 70}, "high": {"value": 99.5}}],
	"effectiveDateTime": "2024-03-01T08:30:00Z"
}`

func TestSummarizeBrief(t *testing.T) {
	doc := base64.StdEncoding.EncodeToString([]byte("S: fatigue"))

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"observation", glucoseJSON, "Glucose=2345-7"},
		{
			"observation falls back to text",
			`{"resourceType":"Observation","code":{"coding":[{"code":"4548-4"}],"text":"HbA1c"}}`,
			"HbA1c=4548-4",
		},
		{"observation without display", `{"resourceType":"Observation","code":{}}`, ""},
		{
			"condition icd-10",
			`{"resourceType":"Condition","code":{"coding":[{"system":"http://snomed.info/sct","code":"44054006"},{"system":"http://hl7.org/fhir/sid/icd-10-cm","code":"E11.9","display":"Type 2 diabetes"}],"text":"T2DM"}}`,
			"Type 2 diabetes=E11.9",
		},
		{"condition text only", `{"resourceType":"Condition","code":{"text":"Hypertension"}}`, "Hypertension"},
		{
			"medication rxnorm",
			`{"resourceType":"MedicationRequest","medicationCodeableConcept":{"coding":[{"system":"http://www.nlm.nih.gov/research/umls/rxnorm","code":"6809"}],"text":"Metformin"}}`,
			"Metformin=6809",
		},
		{"medication text only", `{"resourceType":"MedicationRequest","medicationCodeableConcept":{"text":"Lisinopril"}}`, "Lisinopril"},
		{"encounter", `{"resourceType":"Encounter","status":"finished","reasonCode":[{"text":"Follow-up"}]}`, "Follow-up=finished"},
		{"encounter without reason", `{"resourceType":"Encounter","status":"finished"}`, ""},
		{
			"diagnostic report truncated",
			`{"resourceType":"DiagnosticReport","conclusion":"` + strings.Repeat("a", 150) + `"}`,
			strings.Repeat("a", 100),
		},
		{"document", `{"resourceType":"DocumentReference","content":[{"attachment":{"data":"` + doc + `"}}]}`, "SOAP Note"},
		{"detected issue", `{"resourceType":"DetectedIssue","detail":"Warfarin + Aspirin","severity":"high"}`, "Warfarin + Aspirin=high"},
		{"unknown type", `{"resourceType":"Procedure","id":"p1"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeBrief(decode(t, tt.raw)))
		})
	}
}

func TestSummarizeFull(t *testing.T) {
	doc := base64.StdEncoding.EncodeToString([]byte("S: fatigue\nA: poorly controlled T2DM"))

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"observation",
			glucoseJSON,
			"Lab [obs-1]: Glucose = 142 mg/dL [H] (ref: 70-99.5) date: 2024-03-01",
		},
		{
			"condition uses text",
			`{"resourceType":"Condition","id":"c1","code":{"text":"T2DM"},"recordedDate":"2023-01-15"}`,
			"Condition [c1]: T2DM date: 2023-01-15",
		},
		{
			"condition codings when no text",
			`{"resourceType":"Condition","id":"c2","code":{"coding":[{"system":"http://hl7.org/fhir/sid/icd-10-cm","code":"I10","display":"Hypertension"},{"system":"http://snomed.info/sct","code":"38341003","display":"HTN"}]}}`,
			"Condition [c2]: ICD-10: I10 (Hypertension); SNOMED: 38341003 (HTN) date: ",
		},
		{
			"medication with rxnorm",
			`{"resourceType":"MedicationRequest","id":"m1","medicationCodeableConcept":{"coding":[{"system":"rxnorm","code":"6809"}],"text":"Metformin 500mg"},"authoredOn":"2024-02-10T00:00:00Z"}`,
			"Medication [m1]: Metformin 500mg (RxNorm: 6809) date: 2024-02-10",
		},
		{
			"medication without rxnorm",
			`{"resourceType":"MedicationRequest","id":"m2","medicationCodeableConcept":{"text":"Aspirin"}}`,
			"Medication [m2]: Aspirin date: ",
		},
		{
			"encounter",
			`{"resourceType":"Encounter","id":"e1","status":"finished","reasonCode":[{"text":"Diabetes follow-up"}],"period":{"start":"2024-03-01T09:00:00Z"}}`,
			"Encounter [e1]: finished - Diabetes follow-up date: 2024-03-01",
		},
		{
			"diagnostic report",
			`{"resourceType":"DiagnosticReport","id":"d1","conclusion":"No acute findings","issued":"2024-01-05T10:00:00Z"}`,
			"DiagnosticReport [d1]: No acute findings date: 2024-01-05",
		},
		{
			"document decoded",
			`{"resourceType":"DocumentReference","id":"doc1","content":[{"attachment":{"data":"` + doc + `"}}]}`,
			"Document [doc1]: S: fatigue\nA: poorly controlled T2DM",
		},
		{
			"document without content",
			`{"resourceType":"DocumentReference","id":"doc2"}`,
			"Document [doc2]: (no content)",
		},
		{
			"document with bad base64",
			`{"resourceType":"DocumentReference","id":"doc3","content":[{"attachment":{"data":"%%%"}}]}`,
			"Document [doc3]: (no content)",
		},
		{
			"detected issue",
			`{"resourceType":"DetectedIssue","id":"i1","severity":"high","detail":"Warfarin + Aspirin bleeding risk"}`,
			"DetectedIssue [i1] [high]: Warfarin + Aspirin bleeding risk",
		},
		{
			"unknown type keeps raw json",
			`{"resourceType":"Procedure","id":"p1"}`,
			`Procedure [p1]: {"resourceType":"Procedure","id":"p1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeFull(decode(t, tt.raw)))
		})
	}
}

func TestTruncateIsRuneSafe(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
}
