package zk

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	dErrors "zkkyc/pkg/domain-errors"
)

// MaxJurisdictions fixes the size of the in-circuit allowed-jurisdiction set.
// Requirement sets with more entries are rejected before proving.
const MaxJurisdictions = 8

// PublicInputs is the portion of the witness that becomes the proof's public
// signals. Nothing here may depend on a raw attribute value.
type PublicInputs struct {
	Commitment      Commitment
	Nullifier       Nullifier
	RequirementHash FieldElement

	// MinBirthDay is the latest acceptable birth day number for the age
	// requirement (prove birthDay <= MinBirthDay). MaxDay when unset.
	MinBirthDay int64

	// MinDocIssueDay is the earliest acceptable document issue day number
	// for the maximum-credential-age requirement. Zero when unset.
	MinDocIssueDay int64

	JurisdictionEnforced bool
	// AllowedJurisdictions holds ISO codes; at most MaxJurisdictions.
	AllowedJurisdictions []string
}

// PrivateInputs never leave the prover. They are the raw attribute set and the
// blinding factor.
type PrivateInputs struct {
	Attributes AttributeSet
	Blinding   Blinding
}

// CircuitInputs partitions the witness for the proving capability.
type CircuitInputs struct {
	Public  PublicInputs
	Private PrivateInputs
}

// Signals exports the public inputs as decimal field-element strings in the
// exact order the circuit declares its public variables. Verifiers rebuild
// the public witness from this sequence, so order is part of the protocol.
func (p PublicInputs) Signals() ([]string, error) {
	if len(p.AllowedJurisdictions) > MaxJurisdictions {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "too many allowed jurisdictions")
	}

	signals := make([]string, 0, 6+MaxJurisdictions)
	for _, fe := range []FieldElement{p.Commitment, p.Nullifier, p.RequirementHash} {
		dec, err := fe.Decimal()
		if err != nil {
			return nil, err
		}
		signals = append(signals, dec)
	}
	signals = append(signals,
		big.NewInt(p.MinBirthDay).String(),
		big.NewInt(p.MinDocIssueDay).String(),
	)
	if p.JurisdictionEnforced {
		signals = append(signals, "1")
	} else {
		signals = append(signals, "0")
	}
	for _, fe := range p.jurisdictionElements() {
		signals = append(signals, fe.BigInt(new(big.Int)).String())
	}
	return signals, nil
}

// jurisdictionElements maps the allowed set into field elements, padded with
// zeros up to MaxJurisdictions.
func (p PublicInputs) jurisdictionElements() [MaxJurisdictions]fr.Element {
	var out [MaxJurisdictions]fr.Element
	for i, code := range p.AllowedJurisdictions {
		if i >= MaxJurisdictions {
			break
		}
		out[i] = HashToField([]byte(code))
	}
	return out
}

// CheckInputs natively evaluates every circuit constraint against the witness.
// The prover uses it as a pre-flight so unsatisfiable witnesses fail with a
// domain error instead of an opaque constraint-system failure, and the fake
// prover uses it as its entire proving semantics.
func CheckInputs(in CircuitInputs) error {
	commitment, err := ComputeCommitment(in.Private.Attributes, in.Private.Blinding)
	if err != nil {
		return err
	}
	if commitment != in.Public.Commitment {
		return dErrors.New(dErrors.CodeInvalidProof, "commitment does not match attributes")
	}

	nullifier, err := DeriveNullifier(in.Private.Blinding, in.Public.RequirementHash)
	if err != nil {
		return err
	}
	if nullifier != in.Public.Nullifier {
		return dErrors.New(dErrors.CodeInvalidProof, "nullifier does not match derivation")
	}

	birthDay := DayNumber(in.Private.Attributes.BirthDate)
	if birthDay > in.Public.MinBirthDay {
		return dErrors.New(dErrors.CodeInvalidProof, "age requirement not satisfied")
	}

	issueDay := DayNumber(in.Private.Attributes.DocumentIssuedAt)
	if issueDay < in.Public.MinDocIssueDay {
		return dErrors.New(dErrors.CodeInvalidProof, "document age requirement not satisfied")
	}

	if in.Public.JurisdictionEnforced {
		subject := HashToField([]byte(in.Private.Attributes.Jurisdiction))
		member := false
		for _, fe := range in.Public.jurisdictionElements() {
			if fe.Equal(&subject) {
				member = true
				break
			}
		}
		if !member {
			return dErrors.New(dErrors.CodeInvalidProof, "jurisdiction requirement not satisfied")
		}
	}
	return nil
}
