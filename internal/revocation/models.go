// Package revocation keeps the append-only record of revoked credentials.
package revocation

import (
	"time"

	id "zkkyc/pkg/domain"
)

// Entry records a single revocation. Entries are append-only and carry a
// sequence number that increases monotonically across the registry; there is
// no un-revoke.
type Entry struct {
	Sequence     uint64          `json:"sequence"`
	CredentialID id.CredentialID `json:"credential_id"`
	Reason       string          `json:"reason"`
	RevokedAt    time.Time       `json:"revoked_at"`
}
