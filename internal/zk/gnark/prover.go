// Package gnark implements the proving capability with Groth16 over BN254.
package gnark

import (
	"bytes"
	"context"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"zkkyc/internal/zk"
	dErrors "zkkyc/pkg/domain-errors"
)

// Prover wraps a compiled constraint system and Groth16 key pair.
// It is safe for concurrent use; proving does not mutate shared state.
type Prover struct {
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// Option configures the Prover.
type Option func(*config)

type config struct {
	provingKeyPath   string
	verifyingKeyPath string
}

// WithKeyFiles loads the Groth16 key pair from disk instead of running an
// ephemeral setup. Production must use persisted keys: an ephemeral setup
// produces proofs no other process can verify.
func WithKeyFiles(provingKeyPath, verifyingKeyPath string) Option {
	return func(c *config) {
		c.provingKeyPath = provingKeyPath
		c.verifyingKeyPath = verifyingKeyPath
	}
}

// New compiles the KYC circuit and prepares the key material.
func New(opts ...Option) (*Prover, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	cs, err := frontend.Compile(fr.Modulus(), r1cs.NewBuilder, &zk.Circuit{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "circuit compilation failed")
	}

	p := &Prover{cs: cs}
	if cfg.provingKeyPath != "" && cfg.verifyingKeyPath != "" {
		if err := p.loadKeys(cfg.provingKeyPath, cfg.verifyingKeyPath); err != nil {
			return nil, err
		}
		return p, nil
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "groth16 setup failed")
	}
	p.pk, p.vk = pk, vk
	return p, nil
}

func (p *Prover) loadKeys(pkPath, vkPath string) error {
	fpk, err := os.Open(pkPath)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to open proving key")
	}
	defer fpk.Close()

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(fpk); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read proving key")
	}

	fvk, err := os.Open(vkPath)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to open verifying key")
	}
	defer fvk.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(fvk); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read verifying key")
	}

	p.pk, p.vk = pk, vk
	return nil
}

// Prove builds the full witness and generates a Groth16 proof.
func (p *Prover) Prove(ctx context.Context, inputs zk.CircuitInputs) ([]byte, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "proof generation cancelled")
	}

	// Pre-flight the constraints natively so witness problems surface as
	// domain errors rather than opaque solver failures.
	if err := zk.CheckInputs(inputs); err != nil {
		return nil, nil, err
	}

	assignment, err := assignmentFromInputs(inputs)
	if err != nil {
		return nil, nil, err
	}
	witness, err := frontend.NewWitness(assignment, fr.Modulus())
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to construct witness")
	}

	proof, err := groth16.Prove(p.cs, p.pk, witness)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInvalidProof, "proof generation failed")
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to serialize proof")
	}

	signals, err := inputs.Public.Signals()
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), signals, nil
}

// Verify checks a serialized proof against its public signals.
func (p *Prover) Verify(ctx context.Context, proofBytes []byte, publicSignals []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeTimeout, "verification cancelled")
	}

	assignment, err := publicAssignment(publicSignals)
	if err != nil {
		return false, err
	}
	pubWitness, err := frontend.NewWitness(assignment, fr.Modulus(), frontend.PublicOnly())
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to construct public witness")
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		// Malformed bytes are an invalid proof, not an infrastructure failure.
		return false, nil
	}

	if err := groth16.Verify(proof, p.vk, pubWitness); err != nil {
		return false, nil
	}
	return true, nil
}

// assignmentFromInputs converts the witness into circuit variables.
func assignmentFromInputs(in zk.CircuitInputs) (*zk.Circuit, error) {
	commitment, err := zk.DecodeElement(in.Public.Commitment)
	if err != nil {
		return nil, err
	}
	nullifier, err := zk.DecodeElement(in.Public.Nullifier)
	if err != nil {
		return nil, err
	}
	reqHash, err := zk.DecodeElement(in.Public.RequirementHash)
	if err != nil {
		return nil, err
	}
	blinding, err := zk.DecodeElement(in.Private.Blinding)
	if err != nil {
		return nil, err
	}

	attrs := in.Private.Attributes
	name := zk.HashToField([]byte(attrs.FullName))
	jurisdiction := zk.HashToField([]byte(attrs.Jurisdiction))
	document := zk.HashToField([]byte(attrs.DocumentID))

	assignment := &zk.Circuit{
		Commitment:           commitment.BigInt(new(big.Int)),
		Nullifier:            nullifier.BigInt(new(big.Int)),
		RequirementHash:      reqHash.BigInt(new(big.Int)),
		MinBirthDay:          big.NewInt(in.Public.MinBirthDay),
		MinDocIssueDay:       big.NewInt(in.Public.MinDocIssueDay),
		JurisdictionEnforced: boolToInt(in.Public.JurisdictionEnforced),

		Name:         name.BigInt(new(big.Int)),
		BirthDay:     big.NewInt(zk.DayNumber(attrs.BirthDate)),
		Jurisdiction: jurisdiction.BigInt(new(big.Int)),
		DocumentID:   document.BigInt(new(big.Int)),
		DocIssueDay:  big.NewInt(zk.DayNumber(attrs.DocumentIssuedAt)),
		Blinding:     blinding.BigInt(new(big.Int)),
	}

	if len(in.Public.AllowedJurisdictions) > zk.MaxJurisdictions {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "too many allowed jurisdictions")
	}
	for i := 0; i < zk.MaxJurisdictions; i++ {
		if i < len(in.Public.AllowedJurisdictions) {
			fe := zk.HashToField([]byte(in.Public.AllowedJurisdictions[i]))
			assignment.AllowedJurisdictions[i] = fe.BigInt(new(big.Int))
		} else {
			assignment.AllowedJurisdictions[i] = big.NewInt(0)
		}
	}
	return assignment, nil
}

// publicAssignment rebuilds the public-only witness from exported signals.
func publicAssignment(signals []string) (*zk.Circuit, error) {
	if len(signals) != 6+zk.MaxJurisdictions {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unexpected public signal count")
	}

	values := make([]*big.Int, len(signals))
	for i, s := range signals {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok || v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "malformed public signal")
		}
		values[i] = v
	}

	assignment := &zk.Circuit{
		Commitment:           values[0],
		Nullifier:            values[1],
		RequirementHash:      values[2],
		MinBirthDay:          values[3],
		MinDocIssueDay:       values[4],
		JurisdictionEnforced: values[5],
	}
	for i := 0; i < zk.MaxJurisdictions; i++ {
		assignment.AllowedJurisdictions[i] = values[6+i]
	}
	return assignment, nil
}

func boolToInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

var _ zk.Prover = (*Prover)(nil)
