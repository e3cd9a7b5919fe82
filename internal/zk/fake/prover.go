// Package fake implements the proving capability without a constraint system.
//
// A proof is an HMAC over the public signals under a key held by the prover
// instance. That preserves the two properties the protocol relies on: proofs
// cannot be forged without the prover, and nothing in the proof or signals
// reveals private witness data. Constraint satisfaction is evaluated natively
// at prove time, mirroring how an unsatisfiable witness makes Groth16 proving
// fail.
package fake

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"strings"
	"sync/atomic"

	"zkkyc/internal/zk"
	dErrors "zkkyc/pkg/domain-errors"
)

// Prover is a deterministic test double for the Groth16 prover.
type Prover struct {
	key []byte

	// Call counters let tests assert pipeline ordering, e.g. that the
	// cryptographic check never runs for an already-revoked credential.
	proveCalls  atomic.Int64
	verifyCalls atomic.Int64
}

// New creates a fake prover with a random HMAC key.
func New() (*Prover, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate prover key")
	}
	return &Prover{key: key}, nil
}

// Prove checks the witness natively and emits an HMAC proof over the public signals.
func (p *Prover) Prove(ctx context.Context, inputs zk.CircuitInputs) ([]byte, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "proof generation cancelled")
	}
	p.proveCalls.Add(1)

	if err := zk.CheckInputs(inputs); err != nil {
		return nil, nil, err
	}

	signals, err := inputs.Public.Signals()
	if err != nil {
		return nil, nil, err
	}
	return p.mac(signals), signals, nil
}

// Verify recomputes the HMAC over the presented signals.
func (p *Prover) Verify(ctx context.Context, proof []byte, publicSignals []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeTimeout, "verification cancelled")
	}
	p.verifyCalls.Add(1)

	return hmac.Equal(proof, p.mac(publicSignals)), nil
}

// ProveCalls returns how many times Prove has been invoked.
func (p *Prover) ProveCalls() int64 { return p.proveCalls.Load() }

// VerifyCalls returns how many times Verify has been invoked.
func (p *Prover) VerifyCalls() int64 { return p.verifyCalls.Load() }

func (p *Prover) mac(signals []string) []byte {
	h := hmac.New(sha256.New, p.key)
	h.Write([]byte(strings.Join(signals, "|")))
	return h.Sum(nil)
}

var _ zk.Prover = (*Prover)(nil)
