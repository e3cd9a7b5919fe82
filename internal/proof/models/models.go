// Package models holds the proof-side value objects: requirement sets and
// proof artifacts.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"zkkyc/internal/zk"
	dErrors "zkkyc/pkg/domain-errors"
)

// RequirementSet describes a verifier's predicate. It is a pure value
// object: two sets with the same normalized content hash identically, and
// the hash participates in nullifier derivation, so any change to the
// canonical encoding below is a breaking protocol change.
type RequirementSet struct {
	MinAgeYears          int      `json:"min_age_years,omitempty"`
	AllowedJurisdictions []string `json:"allowed_jurisdictions,omitempty"`
	MaxDocumentAgeYears  int      `json:"max_document_age_years,omitempty"`
}

// Normalize returns a copy with jurisdictions uppercased, deduplicated and
// sorted.
func (r RequirementSet) Normalize() RequirementSet {
	out := r
	if len(r.AllowedJurisdictions) > 0 {
		seen := make(map[string]bool, len(r.AllowedJurisdictions))
		normalized := make([]string, 0, len(r.AllowedJurisdictions))
		for _, j := range r.AllowedJurisdictions {
			j = strings.ToUpper(strings.TrimSpace(j))
			if j == "" || seen[j] {
				continue
			}
			seen[j] = true
			normalized = append(normalized, j)
		}
		sort.Strings(normalized)
		out.AllowedJurisdictions = normalized
	}
	return out
}

// Validate checks the requirement set against protocol limits.
func (r RequirementSet) Validate() error {
	if r.MinAgeYears < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "min_age_years must not be negative")
	}
	if r.MaxDocumentAgeYears < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "max_document_age_years must not be negative")
	}
	normalized := r.Normalize()
	if len(normalized.AllowedJurisdictions) > zk.MaxJurisdictions {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("at most %d allowed jurisdictions", zk.MaxJurisdictions))
	}
	// An empty set is allowed: it proves mere possession of a valid
	// credential without constraining any attribute.
	return nil
}

// Hash maps the normalized requirement set to a field element. The hash is
// a public signal and the domain-separated input to nullifier derivation.
func (r RequirementSet) Hash() zk.FieldElement {
	normalized := r.Normalize()
	canonical := fmt.Sprintf("zkkyc.requirements.v1|min_age=%d|jurisdictions=%s|max_doc_age=%d",
		normalized.MinAgeYears,
		strings.Join(normalized.AllowedJurisdictions, ","),
		normalized.MaxDocumentAgeYears,
	)
	return zk.EncodeElement(zk.HashToField([]byte(canonical)))
}

// ProofArtifact packages everything a verifier needs. Immutable once
// created. Proof bytes are opaque; the public signals are ordered and the
// verifier must treat signal content as untrusted until cross-checked
// against the artifact's own commitment, nullifier and requirement hash.
type ProofArtifact struct {
	Proof           []byte          `json:"proof"`
	PublicSignals   []string        `json:"public_signals"`
	Nullifier       zk.Nullifier    `json:"nullifier"`
	Commitment      zk.Commitment   `json:"commitment"`
	Requirements    RequirementSet  `json:"requirements"`
	RequirementHash zk.FieldElement `json:"requirement_hash"`
	GeneratedAt     time.Time       `json:"generated_at"`
}
