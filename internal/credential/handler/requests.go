package handler

import (
	"time"

	dErrors "zkkyc/pkg/domain-errors"
)

// IssueRequest carries the subject's raw attributes to the issuance
// endpoint. Attributes live only for the duration of the request; the
// response carries the commitment and the one-time blinding factor.
type IssueRequest struct {
	SubjectID        string    `json:"subject_id"`
	FullName         string    `json:"full_name"`
	BirthDate        time.Time `json:"birth_date"`
	Jurisdiction     string    `json:"jurisdiction"`
	DocumentID       string    `json:"document_id"`
	DocumentIssuedAt time.Time `json:"document_issued_at"`
	ExpiresAt        time.Time `json:"expires_at,omitempty"`
}

func (r *IssueRequest) Validate() error {
	if r.SubjectID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	return nil
}

// RevokeRequest names the reason for a revocation.
type RevokeRequest struct {
	Reason string `json:"reason"`
}

func (r *RevokeRequest) Validate() error {
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	return nil
}
