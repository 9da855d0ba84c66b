package fhir

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	briefConclusionLimit = 100
	fullConclusionLimit  = 300
	documentTextLimit    = 400
	rawFallbackLimit     = 200
)

// SummarizeBrief renders the short "display=code" digest used in the manifest.
// An empty result means the record carries nothing worth listing.
func SummarizeBrief(r Resource) string {
	switch r.ResourceType {
	case TypeObservation:
		coding := r.Code.FirstCoding()
		display := coding.Display
		if display == "" && r.Code != nil {
			display = r.Code.Text
		}
		if display == "" {
			return ""
		}
		return display + "=" + coding.Code

	case TypeCondition:
		text := conceptText(r.Code)
		if c, ok := findCoding(r.Code, "icd-10"); ok {
			display := c.Display
			if display == "" {
				display = text
			}
			return display + "=" + c.Code
		}
		return text

	case TypeMedicationRequest:
		drug := conceptText(r.MedicationCodeableConcept)
		if c, ok := findCoding(r.MedicationCodeableConcept, "rxnorm"); ok {
			return drug + "=" + c.Code
		}
		return drug

	case TypeEncounter:
		reason := firstReason(r)
		if reason == "" {
			return ""
		}
		return reason + "=" + r.Status

	case TypeDiagnosticReport:
		return truncate(r.Conclusion, briefConclusionLimit)

	case TypeDocumentReference:
		return "SOAP Note"

	case TypeDetectedIssue:
		return r.Detail + "=" + r.Severity
	}

	return ""
}

// SummarizeFull renders one detail line per record for fact extraction:
// values, units, interpretation flags, reference ranges and dates.
func SummarizeFull(r Resource) string {
	switch r.ResourceType {
	case TypeObservation:
		coding := r.Code.FirstCoding()
		value, unit := quantity(r.ValueQuantity)
		interp := ""
		if len(r.Interpretation) > 0 {
			interp = r.Interpretation[0].FirstCoding().Code
		}
		low, high := "", ""
		if len(r.ReferenceRange) > 0 {
			low, _ = quantity(r.ReferenceRange[0].Low)
			high, _ = quantity(r.ReferenceRange[0].High)
		}
		return fmt.Sprintf("Lab [%s]: %s = %s %s [%s] (ref: %s-%s) date: %s",
			r.ID, coding.Display, value, unit, interp, low, high, datePart(r.EffectiveDateTime))

	case TypeCondition:
		var parts []string
		if r.Code != nil {
			for _, c := range r.Code.Coding {
				system := strings.ToLower(c.System)
				switch {
				case strings.Contains(system, "icd-10"):
					parts = append(parts, fmt.Sprintf("ICD-10: %s (%s)", c.Code, c.Display))
				case strings.Contains(system, "snomed"):
					parts = append(parts, fmt.Sprintf("SNOMED: %s (%s)", c.Code, c.Display))
				}
			}
		}
		text := conceptText(r.Code)
		if text == "" {
			text = strings.Join(parts, "; ")
		}
		return fmt.Sprintf("Condition [%s]: %s date: %s", r.ID, text, datePart(r.RecordedDate))

	case TypeMedicationRequest:
		line := fmt.Sprintf("Medication [%s]: %s", r.ID, conceptText(r.MedicationCodeableConcept))
		if c, ok := findCoding(r.MedicationCodeableConcept, "rxnorm"); ok && c.Code != "" {
			line += fmt.Sprintf(" (RxNorm: %s)", c.Code)
		}
		return line + " date: " + datePart(r.AuthoredOn)

	case TypeEncounter:
		start := ""
		if r.Period != nil {
			start = r.Period.Start
		}
		return fmt.Sprintf("Encounter [%s]: %s - %s date: %s", r.ID, r.Status, firstReason(r), datePart(start))

	case TypeDiagnosticReport:
		return fmt.Sprintf("DiagnosticReport [%s]: %s date: %s",
			r.ID, truncate(r.Conclusion, fullConclusionLimit), datePart(r.Issued))

	case TypeDocumentReference:
		text, ok := documentText(r)
		if !ok {
			return fmt.Sprintf("Document [%s]: (no content)", r.ID)
		}
		return fmt.Sprintf("Document [%s]: %s", r.ID, truncate(text, documentTextLimit))

	case TypeDetectedIssue:
		return fmt.Sprintf("DetectedIssue [%s] [%s]: %s", r.ID, r.Severity, r.Detail)
	}

	resourceType := r.ResourceType
	if resourceType == "" {
		resourceType = "Unknown"
	}
	return fmt.Sprintf("%s [%s]: %s", resourceType, r.ID, truncate(string(r.Raw), rawFallbackLimit))
}

func conceptText(c *CodeableConcept) string {
	if c == nil {
		return ""
	}
	return c.Text
}

// findCoding returns the first coding whose system URL mentions marker.
func findCoding(c *CodeableConcept, marker string) (Coding, bool) {
	if c == nil {
		return Coding{}, false
	}
	for _, coding := range c.Coding {
		if strings.Contains(strings.ToLower(coding.System), marker) {
			return coding, true
		}
	}
	return Coding{}, false
}

func firstReason(r Resource) string {
	if len(r.ReasonCode) == 0 {
		return ""
	}
	return r.ReasonCode[0].Text
}

func quantity(q *Quantity) (value, unit string) {
	if q == nil {
		return "", ""
	}
	if q.Value != nil {
		value = strconv.FormatFloat(*q.Value, 'f', -1, 64)
	}
	return value, q.Unit
}

func documentText(r Resource) (string, bool) {
	if len(r.Content) == 0 || r.Content[0].Attachment.Data == "" {
		return "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(r.Content[0].Attachment.Data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// datePart keeps the YYYY-MM-DD prefix of a FHIR dateTime.
func datePart(s string) string {
	return truncate(s, 10)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
