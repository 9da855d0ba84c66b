package navigator

import (
	"context"
	"errors"

	"ehr-navigator-be/pkg/fhir"
)

// discover builds the manifest. An empty manifest also settles the answer
// and clears facts and consulted resources, since the run ends here.
func (n *Navigator) discover(ctx context.Context, r *run, s State) Update {
	manifest, err := n.store.DiscoverManifest(ctx, s.PatientID)
	if err != nil {
		n.recordStoreErrors(r, err)
	}

	if manifest.IsEmpty() {
		n.logger.Info(logModule, "No clinical data found for patient", r.details("patient_id", s.PatientID))
		return Update{
			Manifest:           ptr(fhir.Manifest{}),
			Facts:              []string{},
			ResourcesConsulted: ptr([]string{}),
			Answer:             ptr(NoDataAnswer),
		}
	}

	n.logger.Info(logModule, "Manifest discovered", r.details(
		"patient_id", s.PatientID,
		"counts", manifest.Counts(),
	))
	return Update{Manifest: &manifest}
}

func describeDiscover(_ Update, merged State) string {
	if merged.Manifest.IsEmpty() {
		return "No data found"
	}
	return "Found: " + merged.Manifest.Counts()
}

// recordStoreErrors logs each per-type failure. Store errors never reach the
// caller; the affected type is simply absent.
func (n *Navigator) recordStoreErrors(r *run, err error) {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	for _, e := range errs {
		resourceType := "unknown"
		var storeErr *fhir.RecordStoreError
		if errors.As(e, &storeErr) {
			resourceType = storeErr.ResourceType
		}
		n.metrics.recordStoreError(resourceType)
		n.logger.Warn(logModule, "Record store query failed", r.details(
			"resource_type", resourceType,
			"error", e.Error(),
		))
	}
}
