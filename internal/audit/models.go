package audit

import "time"

// Event is emitted from domain logic to capture key protocol actions. Keep it
// transport-agnostic so stores and sinks can fan out. Events never carry raw
// credential attributes; proofs are referenced by nullifier and requirement
// hash only.
type Event struct {
	Timestamp       time.Time
	Actor           string // principal that triggered the action (admin, issuer, verifier)
	Subject         string // subject or credential the action concerns
	Action          string
	Decision        string
	Reason          string
	Nullifier       string
	RequirementHash string
}

const (
	ActionIssuerAdded          = "issuer_added"
	ActionIssuerRemoved        = "issuer_removed"
	ActionCredentialRegistered = "credential_registered"
	ActionCredentialSuperseded = "credential_superseded"
	ActionCredentialRevoked    = "credential_revoked"
	ActionProofGenerated       = "proof_generated"
	ActionProofVerified        = "proof_verified"
	ActionProofRejected        = "proof_rejected"
)
