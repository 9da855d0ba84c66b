package fhir

import (
	"fmt"
	"strings"
)

// ManifestEntry lists the brief summaries of one resource type.
type ManifestEntry struct {
	ResourceType string   `json:"resource_type"`
	Summaries    []string `json:"summaries"`
}

// Manifest is the per-patient inventory of resource types that hold data,
// ordered as the catalog was scanned.
type Manifest []ManifestEntry

func (m Manifest) IsEmpty() bool {
	return len(m) == 0
}

// Types returns the resource types in manifest order.
func (m Manifest) Types() []string {
	types := make([]string, len(m))
	for i, e := range m {
		types[i] = e.ResourceType
	}
	return types
}

func (m Manifest) Has(resourceType string) bool {
	for _, e := range m {
		if e.ResourceType == resourceType {
			return true
		}
	}
	return false
}

func (m Manifest) Summaries(resourceType string) []string {
	for _, e := range m {
		if e.ResourceType == resourceType {
			return e.Summaries
		}
	}
	return nil
}

// Counts renders "Observation (3), Condition (1)".
func (m Manifest) Counts() string {
	parts := make([]string, len(m))
	for i, e := range m {
		parts[i] = fmt.Sprintf("%s (%d)", e.ResourceType, len(e.Summaries))
	}
	return strings.Join(parts, ", ")
}
