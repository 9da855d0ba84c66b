package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "clean text untouched",
			raw:  "The HbA1c is 7.2%.",
			want: "The HbA1c is 7.2%.",
		},
		{
			name: "think block",
			raw:  "<think>X</think>Y",
			want: "Y",
		},
		{
			name: "multiline think block",
			raw:  "<think>\nlet me check\nthe labs\n</think>\n\nGlucose is 142 mg/dL.",
			want: "Glucose is 142 mg/dL.",
		},
		{
			name: "unused marker block",
			raw:  "<unused94>thinking about it<unused95>Answer here",
			want: "Answer here",
		},
		{
			name: "unclosed think block left as is",
			raw:  "<think>never closed\nAnswer",
			want: "<think>never closed\nAnswer",
		},
		{
			name: "single unused marker left as is",
			raw:  "<unused94>dangling",
			want: "<unused94>dangling",
		},
		{
			name: "model_output header",
			raw:  "some deliberation\nmodel_output\nFinal answer",
			want: "Final answer",
		},
		{
			name: "thought prefix with heading",
			raw:  "thought\nX\n\n## Plan\nY",
			want: "## Plan\nY",
		},
		{
			name: "thought prefix picks earliest marker",
			raw:  "thought\nweighing options\n**Summary**\nbody\n## Details\nmore",
			want: "**Summary**\nbody\n## Details\nmore",
		},
		{
			name: "thought prefix with answer opener",
			raw:  "thought\nhmm\nBased on the labs, glucose is high.",
			want: "Based on the labs, glucose is high.",
		},
		{
			name: "thought prefix without marker drops first paragraph",
			raw:  "thought\nconsidering the question\n\nGlucose was 142.",
			want: "Glucose was 142.",
		},
		{
			name: "thought prefix without marker or paragraph",
			raw:  "thought\nonly one line",
			want: "thought\nonly one line",
		},
		{
			name: "json fence",
			raw:  "```json\n[\"Observation\"]\n```",
			want: "[\"Observation\"]",
		},
		{
			name: "plain fence",
			raw:  "```\n[\"Condition\"]\n```",
			want: "[\"Condition\"]",
		},
		{
			name: "fence only at start is kept",
			raw:  "```json\n[\"Observation\"]",
			want: "```json\n[\"Observation\"]",
		},
		{
			name: "fence inside text is kept",
			raw:  "See:\n```\ncode\n```",
			want: "See:\n```\ncode\n```",
		},
		{
			name: "bare fences do not panic",
			raw:  "````",
			want: "````",
		},
		{
			name: "think then fence",
			raw:  "<think>pick types</think>```json\n[\"Observation\", \"Condition\"]\n```",
			want: "[\"Observation\", \"Condition\"]",
		},
		{
			name: "whitespace only",
			raw:  "  \n\t ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain answer",
		"<think>a</think>b",
		"<think><think>nested</think></think>tail",
		"thought\nthought\nX\n\n## A\nB",
		"model_output\nmodel_output\nanswer",
		"```json\n```\n[1]\n```\n```",
		"```json```",
		"<unused1>x<unused2><unused3>y<unused4>z",
		"thought\r\nfirst\n\nsecond\n\nthird",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestStripCodeFenceLeavesThinking(t *testing.T) {
	assert.Equal(t, "<think>x</think>", StripCodeFence("```<think>x</think>```"))
}
