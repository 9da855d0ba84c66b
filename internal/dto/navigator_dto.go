package dto

import "ehr-navigator-be/pkg/navigator"

type NavigateRequest struct {
	Question  string `json:"question" validate:"required,max=2000"`
	PatientID string `json:"patient_id" validate:"required,max=64"`
}

// NavigateResponse is the batch result plus the id used in logs and audit events.
type NavigateResponse struct {
	RunID string `json:"run_id"`
	navigator.Result
}
