// Package zk provides the cryptographic primitives of the credential protocol:
// attribute encoding into the BN254 scalar field, MiMC commitments, nullifier
// derivation, and the proving capability interface with its Groth16 circuit.
//
// Everything here is deterministic by construction. The same attributes and
// blinding factor always produce the same commitment; the same secret and
// requirement hash always produce the same nullifier. Uniqueness enforcement
// lives in the nullifier ledger, not here.
package zk

import (
	"encoding/hex"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"

	dErrors "zkkyc/pkg/domain-errors"
)

// FieldElement is the hex encoding of a BN254 scalar field element
// (32 bytes, big-endian). Commitments, nullifiers, and blinding factors
// all travel in this form.
type FieldElement string

// Commitment is a binding, hiding digest of credential attributes plus a
// blinding factor.
type Commitment = FieldElement

// Nullifier is the deterministic one-way value that makes a proof consumable
// at most once.
type Nullifier = FieldElement

// Blinding is the credential's secret blinding factor. It is returned to the
// subject at issuance and never persisted by the credential store.
type Blinding = FieldElement

// dayEpoch anchors day numbers at 1900-01-01 UTC so birth dates stay
// non-negative inside the field.
const dayEpoch = -2208988800

// DayNumber converts a timestamp to whole days since 1900-01-01 UTC.
// Day granularity is all the circuit's temporal comparisons need.
func DayNumber(t time.Time) int64 {
	return (t.Unix() - dayEpoch) / 86400
}

// MaxDay is an upper bound used when a temporal requirement is absent,
// making the corresponding circuit constraint trivially satisfied.
const MaxDay = int64(1) << 35

// HashToField maps arbitrary bytes into the scalar field via Keccak256.
// String attributes are preprocessed this way before entering the MiMC
// commitment, matching the in-circuit representation exactly.
func HashToField(data []byte) fr.Element {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	sum := new(big.Int).SetBytes(h.Sum(nil))
	sum.Mod(sum, fr.Modulus())

	var fe fr.Element
	fe.SetBigInt(sum)
	return fe
}

// NewBlinding samples a uniformly random field element.
func NewBlinding() (Blinding, error) {
	var fe fr.Element
	if _, err := fe.SetRandom(); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sample blinding factor")
	}
	return EncodeElement(fe), nil
}

// EncodeElement renders a field element as 32 hex-encoded big-endian bytes.
func EncodeElement(fe fr.Element) FieldElement {
	b := fe.Bytes()
	return FieldElement(hex.EncodeToString(b[:]))
}

// DecodeElement parses a FieldElement back into field representation.
func DecodeElement(s FieldElement) (fr.Element, error) {
	var fe fr.Element
	raw, err := hex.DecodeString(string(s))
	if err != nil || len(raw) != fr.Bytes {
		return fe, dErrors.New(dErrors.CodeInvalidInput, "malformed field element")
	}
	v := new(big.Int).SetBytes(raw)
	if v.Cmp(fr.Modulus()) >= 0 {
		return fe, dErrors.New(dErrors.CodeInvalidInput, "field element out of range")
	}
	fe.SetBigInt(v)
	return fe, nil
}

// ElementFromDecimal parses a decimal public signal back into a
// FieldElement.
func ElementFromDecimal(s string) (FieldElement, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "malformed public signal")
	}
	var fe fr.Element
	fe.SetBigInt(v)
	return EncodeElement(fe), nil
}

// Decimal renders a FieldElement in the decimal form used for public signals.
func (f FieldElement) Decimal() (string, error) {
	fe, err := DecodeElement(f)
	if err != nil {
		return "", err
	}
	return fe.BigInt(new(big.Int)).String(), nil
}

// IsZero reports whether the element is empty or all zeros.
func (f FieldElement) IsZero() bool {
	if f == "" {
		return true
	}
	fe, err := DecodeElement(f)
	if err != nil {
		return false
	}
	return fe.IsZero()
}
