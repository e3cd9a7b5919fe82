package zk

import "context"

// Prover is the opaque proving capability the protocol is built around.
// Production wires the Groth16 implementation; tests wire the fake. Both
// satisfy the same contract, so the protocol around them is testable without
// a real constraint system.
//
// Prove may be slow (seconds for Groth16). Callers must not hold ledger locks
// across it.
type Prover interface {
	// Prove generates a proof for the witness. The returned public signals
	// are decimal field-element strings in circuit declaration order.
	// Unsatisfiable witnesses fail with an invalid_proof domain error.
	Prove(ctx context.Context, inputs CircuitInputs) (proof []byte, publicSignals []string, err error)

	// Verify checks a proof against its public signals. A false return means
	// the proof is cryptographically invalid; an error means verification
	// could not be performed at all.
	Verify(ctx context.Context, proof []byte, publicSignals []string) (bool, error)
}
