package navigator

import (
	"fmt"
	"strings"

	"ehr-navigator-be/pkg/fhir"
)

// Sampling per stage.
const (
	identifyTemperature   = 0.0
	identifyMaxTokens     = 500
	extractTemperature    = 0.6
	extractMaxTokens      = 2048
	synthesizeTemperature = 0.1
	synthesizeMaxTokens   = 2048

	manifestPreviewSize = 5
)

// Terminal answers.
const (
	NoDataAnswer         = "No clinical data found for this patient in the EHR."
	NoRelevantDataAnswer = "No relevant clinical data found to answer this question."
	NoAnswer             = "No answer generated."
	extractedFactsHeader = "**Extracted Facts:**\n\n"
)

const identifySystemPrompt = "SYSTEM INSTRUCTION: think silently if needed."

const extractSystemPrompt = "You are a concise fact extractor. Output ONLY a short bullet list. " +
	"No explanations. No reasoning. No repetition. Max 10 bullets."

const synthesizeSystemPrompt = "You are MedGemma, a clinical assistant. Answer the question directly. " +
	"Do NOT show your reasoning steps. Do NOT number your thought process. " +
	"Just give the final clinical answer using markdown formatting. " +
	"Reference specific values from the data. Be concise and organized."

func identifyUserPrompt(question, manifestText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER QUESTION: %s\n\n", question)
	fmt.Fprintf(&b, "PATIENT DATA MANIFEST:\n%s\n\n", manifestText)
	b.WriteString("You are a medical assistant analyzing a patient's FHIR data manifest to answer a user question.\n")
	b.WriteString("Based on the user question, identify the specific FHIR resource types from the manifest ")
	b.WriteString("that are most likely to contain the information needed.\n")
	b.WriteString("Output a JSON list of the relevant resource types. No other text.\n")
	b.WriteString(`Example: ["Observation", "Condition", "MedicationRequest"]`)
	return b.String()
}

func extractUserPrompt(question, resourceType, detail string) string {
	return fmt.Sprintf("USER QUESTION: %s\n\n"+
		"FHIR %s DATA:\n%s\n\n"+
		"Extract ONLY facts relevant to the question as a bullet list. "+
		"Each fact on one line starting with '- '. Include values and units. "+
		"Do NOT repeat any fact. Do NOT answer the question.",
		question, resourceType, detail)
}

func synthesizeUserPrompt(question, joinedFacts string) string {
	return fmt.Sprintf("QUESTION: %s\n\nPATIENT DATA:\n%s\n\nAnswer directly:", question, joinedFacts)
}

// renderManifest lists each type with its record count and at most five
// summaries so the prompt stays small whatever the record volume.
func renderManifest(m fhir.Manifest) string {
	lines := make([]string, 0, len(m))
	for _, e := range m {
		shown := e.Summaries
		if len(shown) > manifestPreviewSize {
			shown = shown[:manifestPreviewSize]
		}
		line := fmt.Sprintf("- %s (%d records): %s", e.ResourceType, len(e.Summaries), strings.Join(shown, ", "))
		if extra := len(e.Summaries) - manifestPreviewSize; extra > 0 {
			line += fmt.Sprintf(" ... and %d more", extra)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
