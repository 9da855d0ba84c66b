package sanitize

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRe  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	unusedBlockRe = regexp.MustCompile(`(?s)<unused\d*>.*?<unused\d*>`)
)

const (
	modelOutputHeader = "model_output\n"
	jsonFence         = "```json"
	fence             = "```"
)

// thoughtPrefixes introduce an unmarked deliberation paragraph (llama-server output).
var thoughtPrefixes = []string{"thought\n", "thought\r\n"}

// sectionMarkers mark where the answer starts after a "thought" paragraph.
var sectionMarkers = []string{
	"\n## ",
	"\n# ",
	"\n**",
	"\nBased on",
	"\nThe patient",
	"\nHere is",
	"\nClinical",
	"\n---",
}

// Sanitize returns the answer-bearing part of a raw model completion.
// It strips thinking traces and code-fence decoration and is applied until the
// text stops changing, so Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	for {
		next := StripCodeFence(StripThinking(text))
		if next == text {
			return text
		}
		text = next
	}
}

// StripThinking removes deliberation traces in every known output format.
// Unpaired markers are left untouched.
func StripThinking(text string) string {
	text = strings.TrimSpace(thinkBlockRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(unusedBlockRe.ReplaceAllString(text, ""))

	if idx := strings.Index(text, modelOutputHeader); idx >= 0 {
		text = text[idx+len(modelOutputHeader):]
	}

	if hasThoughtPrefix(text) {
		text = stripThoughtParagraph(text)
	}

	return strings.TrimSpace(text)
}

// StripCodeFence removes a markdown fence that wraps the whole text.
func StripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasSuffix(cleaned, fence) {
		return cleaned
	}
	if strings.HasPrefix(cleaned, jsonFence) && len(cleaned) >= len(jsonFence)+len(fence) {
		return strings.TrimSpace(cleaned[len(jsonFence) : len(cleaned)-len(fence)])
	}
	if strings.HasPrefix(cleaned, fence) && len(cleaned) >= 2*len(fence) {
		return strings.TrimSpace(cleaned[len(fence) : len(cleaned)-len(fence)])
	}
	return cleaned
}

func hasThoughtPrefix(text string) bool {
	for _, p := range thoughtPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

func stripThoughtParagraph(text string) string {
	first := -1
	for _, marker := range sectionMarkers {
		pos := strings.Index(text, marker)
		if pos > 0 && (first < 0 || pos < first) {
			first = pos
		}
	}
	if first > 0 {
		return strings.TrimSpace(text[first:])
	}

	// No recognizable answer heading: drop the first paragraph only.
	if _, rest, found := strings.Cut(text, "\n\n"); found {
		return rest
	}
	return text
}
