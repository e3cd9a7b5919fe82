package zk

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// Circuit proves that a subject's committed KYC attributes satisfy a
// verifier's requirement set without revealing any attribute.
//
// Public input ordering is part of the protocol: gnark exports public signals
// in declaration order, and PublicInputs.Signals() mirrors this exact layout.
type Circuit struct {
	// Public inputs (ordering is significant).
	Commitment           frontend.Variable                    `gnark:",public"`
	Nullifier            frontend.Variable                    `gnark:",public"`
	RequirementHash      frontend.Variable                    `gnark:",public"`
	MinBirthDay          frontend.Variable                    `gnark:",public"`
	MinDocIssueDay       frontend.Variable                    `gnark:",public"`
	JurisdictionEnforced frontend.Variable                    `gnark:",public"`
	AllowedJurisdictions [MaxJurisdictions]frontend.Variable  `gnark:",public"`

	// Private inputs.
	Name         frontend.Variable
	BirthDay     frontend.Variable
	Jurisdiction frontend.Variable
	DocumentID   frontend.Variable
	DocIssueDay  frontend.Variable
	Blinding     frontend.Variable
}

// Define encodes the protocol constraints:
//
//  1. Commitment binding: MiMC over the attribute elements and blinding factor
//     must equal the public commitment.
//  2. Nullifier derivation: MiMC(blinding, requirementHash, domainTag) must
//     equal the public nullifier.
//  3. Age: BirthDay <= MinBirthDay.
//  4. Document freshness: MinDocIssueDay <= DocIssueDay.
//  5. Jurisdiction membership: when enforced, the private jurisdiction must
//     equal one of the allowed set (product of differences vanishes).
func (c *Circuit) Define(api frontend.API) error {
	commit, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	commit.Write(c.Name, c.BirthDay, c.Jurisdiction, c.DocumentID, c.DocIssueDay, c.Blinding)
	api.AssertIsEqual(commit.Sum(), c.Commitment)

	null, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	tag := NullifierDomainTag()
	null.Write(c.Blinding, c.RequirementHash, tag.BigInt(new(big.Int)))
	api.AssertIsEqual(null.Sum(), c.Nullifier)

	api.AssertIsLessOrEqual(c.BirthDay, c.MinBirthDay)
	api.AssertIsLessOrEqual(c.MinDocIssueDay, c.DocIssueDay)

	api.AssertIsBoolean(c.JurisdictionEnforced)
	product := frontend.Variable(1)
	for i := 0; i < MaxJurisdictions; i++ {
		product = api.Mul(product, api.Sub(c.Jurisdiction, c.AllowedJurisdictions[i]))
	}
	api.AssertIsEqual(api.Mul(c.JurisdictionEnforced, product), 0)

	return nil
}
