package fhir

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultManifestPageSize = 100
	DefaultFetchPageSize    = 50
)

// RecordStoreError reports a failed query for one resource type. It is never
// fatal: the type is treated as having no records.
type RecordStoreError struct {
	ResourceType string
	Err          error
}

func (e *RecordStoreError) Error() string {
	return fmt.Sprintf("record store query %s: %v", e.ResourceType, e.Err)
}

func (e *RecordStoreError) Unwrap() error {
	return e.Err
}

// Store answers the navigator's two record-store questions on top of Client.
type Store struct {
	client           *Client
	catalog          []string
	manifestPageSize int
	fetchPageSize    int
}

func NewStore(client *Client, manifestPageSize, fetchPageSize int) *Store {
	if manifestPageSize <= 0 {
		manifestPageSize = DefaultManifestPageSize
	}
	if fetchPageSize <= 0 {
		fetchPageSize = DefaultFetchPageSize
	}
	return &Store{
		client:           client,
		catalog:          Catalog,
		manifestPageSize: manifestPageSize,
		fetchPageSize:    fetchPageSize,
	}
}

// DiscoverManifest scans every catalog type for the patient. Types that fail
// are left out of the manifest and reported through the joined
// *RecordStoreError values; the manifest is valid even when err != nil.
func (s *Store) DiscoverManifest(ctx context.Context, patientID string) (Manifest, error) {
	var (
		manifest Manifest
		errs     []error
	)

	for _, resourceType := range s.catalog {
		resources, err := s.client.Search(ctx, resourceType, patientParams(patientID, resourceType, s.manifestPageSize))
		if err != nil {
			errs = append(errs, &RecordStoreError{ResourceType: resourceType, Err: err})
			continue
		}

		var summaries []string
		for _, r := range resources {
			if summary := SummarizeBrief(r); summary != "" {
				summaries = append(summaries, summary)
			}
		}
		if len(summaries) > 0 {
			manifest = append(manifest, ManifestEntry{ResourceType: resourceType, Summaries: summaries})
		}
	}

	return manifest, errors.Join(errs...)
}

// FetchResources returns up to the fetch page size of records of one type.
func (s *Store) FetchResources(ctx context.Context, patientID, resourceType string) ([]Resource, error) {
	resources, err := s.client.Search(ctx, resourceType, patientParams(patientID, resourceType, s.fetchPageSize))
	if err != nil {
		return nil, &RecordStoreError{ResourceType: resourceType, Err: err}
	}
	return resources, nil
}

// DetectedIssue links the patient through "patient"; everything else in the
// catalog uses "subject".
func patientParams(patientID, resourceType string, count int) url.Values {
	params := url.Values{}
	params.Set("_count", strconv.Itoa(count))

	ref := "Patient/" + patientID
	if resourceType == TypeDetectedIssue {
		params.Set("patient", ref)
	} else {
		params.Set("subject", ref)
	}
	return params
}
