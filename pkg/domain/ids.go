// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "zkkyc/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SubjectID where a CredentialID is expected.
type (
	SubjectID    uuid.UUID
	CredentialID uuid.UUID
)

// IssuerID is the issuer's public identity (address or key fingerprint), not a UUID.
type IssuerID string

// VerifierID identifies the relying party that consumes a proof. It is taken
// from the bearer principal, so it is a free-form string rather than a UUID.
type VerifierID string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSubjectID(s string) (SubjectID, error) {
	id, err := parseUUID(s, "subject ID")
	return SubjectID(id), err
}

func ParseCredentialID(s string) (CredentialID, error) {
	id, err := parseUUID(s, "credential ID")
	return CredentialID(id), err
}

func ParseIssuerID(s string) (IssuerID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "issuer ID cannot be empty")
	}
	if len(s) > 128 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "issuer ID too long")
	}
	return IssuerID(s), nil
}

// NewCredentialID generates a fresh credential identity.
func NewCredentialID() CredentialID {
	return CredentialID(uuid.New())
}

// String methods - for logging and audit records.

func (id SubjectID) String() string    { return uuid.UUID(id).String() }
func (id CredentialID) String() string { return uuid.UUID(id).String() }
func (id IssuerID) String() string     { return string(id) }
func (id VerifierID) String() string   { return string(id) }

// IsNil checks - used for service-layer validation.

func (id SubjectID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id IssuerID) IsNil() bool     { return id == "" }
func (id VerifierID) IsNil() bool   { return id == "" }

// parseUUID is the shared validation logic. Nil UUIDs are allowed here; use
// IsNil() at the service layer so store lookups can return proper "not found"
// errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
