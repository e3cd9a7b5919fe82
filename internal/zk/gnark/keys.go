package gnark

import (
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"zkkyc/internal/zk"
	dErrors "zkkyc/pkg/domain-errors"
)

// GenerateKeys compiles the KYC circuit, runs the Groth16 setup, and writes
// the key pair to disk. Every party verifying proofs must hold the verifying
// key produced by the same setup as the prover's proving key.
func GenerateKeys(provingKeyPath, verifyingKeyPath string) error {
	cs, err := frontend.Compile(fr.Modulus(), r1cs.NewBuilder, &zk.Circuit{})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "circuit compilation failed")
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "groth16 setup failed")
	}

	if err := writeKey(provingKeyPath, pk.WriteTo); err != nil {
		return err
	}
	return writeKey(verifyingKeyPath, vk.WriteTo)
}

func writeKey(path string, writeTo func(w io.Writer) (int64, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create key file")
	}
	defer f.Close()

	if _, err := writeTo(f); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write key file")
	}
	return nil
}
