package zk

import (
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// AttributeSet is the private preimage a credential commits to. The field
// order here defines the commitment layout; the circuit hashes the same
// values in the same order, so changing this struct is a breaking protocol
// change.
type AttributeSet struct {
	FullName         string
	BirthDate        time.Time
	Jurisdiction     string // ISO 3166-1 alpha-2
	DocumentID       string
	DocumentIssuedAt time.Time
}

// nullifierDomainTag separates nullifier derivation from any other use of the
// same hash. Changing it invalidates every previously derived nullifier.
var nullifierDomainTag = HashToField([]byte("zkkyc.nullifier.v1"))

// NullifierDomainTag exposes the domain separator to the circuit assignment.
func NullifierDomainTag() fr.Element {
	return nullifierDomainTag
}

// Elements encodes the attribute set into field elements in commitment order:
// Keccak-mapped name, birth day number, Keccak-mapped jurisdiction,
// Keccak-mapped document ID, document issue day number.
func (a AttributeSet) Elements() []fr.Element {
	return []fr.Element{
		HashToField([]byte(a.FullName)),
		elementFromInt64(DayNumber(a.BirthDate)),
		HashToField([]byte(a.Jurisdiction)),
		HashToField([]byte(a.DocumentID)),
		elementFromInt64(DayNumber(a.DocumentIssuedAt)),
	}
}

// ComputeCommitment binds the attribute set and blinding factor into a single
// field element: MiMC(name, birthDay, jurisdiction, documentID, issueDay, blinding).
// The blinding factor makes the commitment hiding; without it, low-entropy
// attributes could be brute-forced from the commitment alone.
func ComputeCommitment(attrs AttributeSet, blinding Blinding) (Commitment, error) {
	b, err := DecodeElement(blinding)
	if err != nil {
		return "", err
	}
	elems := append(attrs.Elements(), b)
	return EncodeElement(mimcSum(elems...)), nil
}

// DeriveNullifier computes MiMC(blinding, requirementHash, domainTag).
// It is pure: identical inputs always produce the identical nullifier, which
// lets a holder detect "I already made this exact proof" before invoking the
// prover. Inverting it to recover the blinding factor requires breaking MiMC.
func DeriveNullifier(blinding Blinding, requirementHash FieldElement) (Nullifier, error) {
	b, err := DecodeElement(blinding)
	if err != nil {
		return "", err
	}
	r, err := DecodeElement(requirementHash)
	if err != nil {
		return "", err
	}
	return EncodeElement(mimcSum(b, r, nullifierDomainTag)), nil
}

// mimcSum hashes field elements with the native MiMC, matching the in-circuit
// gadget: each element is written in its canonical byte encoding.
func mimcSum(elems ...fr.Element) fr.Element {
	h := mimc.NewMiMC()
	for _, fe := range elems {
		h.Write(fe.Marshal())
	}
	sum := new(big.Int).SetBytes(h.Sum(nil))
	sum.Mod(sum, fr.Modulus())

	var out fr.Element
	out.SetBigInt(sum)
	return out
}

func elementFromInt64(v int64) fr.Element {
	var fe fr.Element
	fe.SetBigInt(big.NewInt(v))
	return fe
}
