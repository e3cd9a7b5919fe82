// Package models holds credential records and their lifecycle states.
package models

import (
	"time"

	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
)

// Status is the computed lifecycle state of a credential. It is never
// stored: validity is recomputed on every check so expiry and revocation
// take effect immediately.
type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusRevoked    Status = "revoked"
	StatusSuperseded Status = "superseded"
)

// Credential binds a subject to an attribute commitment. The record carries
// the commitment only: raw attributes and the blinding factor are never
// persisted here, so a store breach reveals nothing about the subject.
type Credential struct {
	ID           id.CredentialID  `json:"id"`
	SubjectID    id.SubjectID     `json:"subject_id"`
	IssuerID     id.IssuerID      `json:"issuer_id"`
	Commitment   zk.Commitment    `json:"commitment"`
	IssuedAt     time.Time        `json:"issued_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Active       bool             `json:"active"`
	SupersededBy *id.CredentialID `json:"superseded_by,omitempty"`
}

// IsExpired reports whether the credential has passed its expiry at the
// given instant. Expiry is exclusive: a credential expiring exactly now is
// expired.
func (c *Credential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ComputeStatus derives the lifecycle state. Revocation dominates, then
// supersession, then expiry.
func (c *Credential) ComputeStatus(now time.Time, revoked bool) Status {
	switch {
	case revoked:
		return StatusRevoked
	case !c.Active:
		return StatusSuperseded
	case c.IsExpired(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// IssueResult is returned once at issuance. The blinding factor exists
// nowhere else on the server side of the credential store; the subject must
// keep it to generate proofs.
type IssueResult struct {
	Credential *Credential `json:"credential"`
	Blinding   zk.Blinding `json:"blinding"`
}
