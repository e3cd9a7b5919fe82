// Package models holds the issuer registry records.
package models

import (
	"time"

	id "zkkyc/pkg/domain"
)

// Issuer is a registry entry for a credential issuer. Entries are never
// deleted: removing an issuer clears its trust and stamps RemovedAt, so
// credentials can still be traced back to the issuer that signed them.
type Issuer struct {
	ID        id.IssuerID `json:"id"`
	Name      string      `json:"name"`
	Trusted   bool        `json:"trusted"`
	AddedAt   time.Time   `json:"added_at"`
	RemovedAt *time.Time  `json:"removed_at,omitempty"`
}

// IsTrusted reports whether the issuer is currently trusted.
func (i *Issuer) IsTrusted() bool {
	return i.Trusted && i.RemovedAt == nil
}
