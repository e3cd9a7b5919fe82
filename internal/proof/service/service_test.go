package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"zkkyc/internal/audit"
	credservice "zkkyc/internal/credential/service"
	credstore "zkkyc/internal/credential/store"
	issuerservice "zkkyc/internal/issuer/service"
	issuerstore "zkkyc/internal/issuer/store"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/proof/models"
	"zkkyc/internal/proof/wallet"
	"zkkyc/internal/revocation"
	"zkkyc/internal/zk"
	"zkkyc/internal/zk/fake"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
)

const trustedIssuer = id.IssuerID("issuer-acme")

type ServiceSuite struct {
	suite.Suite
	service     *Service
	credentials *credservice.Service
	prover      *fake.Prover
	auditStore  *audit.InMemoryStore
	subject     id.SubjectID
	now         time.Time
	ctx         context.Context
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auditStore = audit.NewInMemoryStore()
	auditor := audit.NewPublisher(s.auditStore)

	issuers := issuerservice.NewService(issuerstore.New(), auditor, logger)
	s.credentials = credservice.NewService(credstore.New(), issuers, revocation.NewInMemoryRegistry(), auditor, logger)
	prover, err := fake.New()
	require.NoError(s.T(), err)
	s.prover = prover
	s.service = NewService(s.credentials, wallet.NewInMemoryStore(), s.prover, auditor, logger)

	s.subject = id.SubjectID(uuid.New())
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.ctx = middleware.WithTime(context.Background(), s.now)

	_, err = issuers.Add(s.ctx, "admin-1", trustedIssuer, "ACME Identity")
	require.NoError(s.T(), err)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func testAttributes() zk.AttributeSet {
	return zk.AttributeSet{
		FullName:         "Ada Lovelace",
		BirthDate:        time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Jurisdiction:     "DE",
		DocumentID:       "L01X00T47",
		DocumentIssuedAt: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func testRequirements() models.RequirementSet {
	return models.RequirementSet{
		MinAgeYears:          18,
		AllowedJurisdictions: []string{"DE", "FR"},
		MaxDocumentAgeYears:  10,
	}
}

// issueAndDeposit issues a credential and stores the subject's proving
// secrets, mirroring what the transport layer does after issuance.
func (s *ServiceSuite) issueAndDeposit() zk.Commitment {
	result, err := s.credentials.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), time.Time{})
	require.NoError(s.T(), err)
	err = s.service.StoreSecrets(s.ctx, s.subject, testAttributes(), result.Blinding, result.Credential.Commitment)
	require.NoError(s.T(), err)
	return result.Credential.Commitment
}

func (s *ServiceSuite) TestGenerateProof() {
	commitment := s.issueAndDeposit()

	artifact, err := s.service.GenerateProof(s.ctx, s.subject, testRequirements())
	require.NoError(s.T(), err)

	assert.NotEmpty(s.T(), artifact.Proof)
	assert.Len(s.T(), artifact.PublicSignals, 6+zk.MaxJurisdictions)
	assert.Equal(s.T(), commitment, artifact.Commitment)
	assert.Equal(s.T(), testRequirements().Hash(), artifact.RequirementHash)
	assert.NotEmpty(s.T(), artifact.Nullifier)
	assert.Equal(s.T(), s.now, artifact.GeneratedAt)

	// Public signals carry the commitment and nullifier in fixed positions.
	commitmentDec, err := artifact.Commitment.Decimal()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), commitmentDec, artifact.PublicSignals[0])

	events, err := s.auditStore.ListBySubject(s.ctx, s.subject.String())
	require.NoError(s.T(), err)
	var generated int
	for _, event := range events {
		if event.Action == audit.ActionProofGenerated {
			generated++
			assert.Equal(s.T(), string(artifact.Nullifier), event.Nullifier)
			assert.Equal(s.T(), string(artifact.RequirementHash), event.RequirementHash)
		}
	}
	assert.Equal(s.T(), 1, generated)
}

func (s *ServiceSuite) TestDeriveNullifierIsPure() {
	result, err := s.credentials.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), time.Time{})
	require.NoError(s.T(), err)

	a, err := s.service.DeriveNullifier(result.Blinding, testRequirements())
	require.NoError(s.T(), err)
	b, err := s.service.DeriveNullifier(result.Blinding, testRequirements())
	require.NoError(s.T(), err)
	assert.Equal(s.T(), a, b)

	// Requirement sets that normalize identically derive the same nullifier.
	shuffled := models.RequirementSet{
		MinAgeYears:          18,
		AllowedJurisdictions: []string{"fr", "DE", "FR"},
		MaxDocumentAgeYears:  10,
	}
	c, err := s.service.DeriveNullifier(result.Blinding, shuffled)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), a, c)

	other := testRequirements()
	other.MinAgeYears = 21
	d, err := s.service.DeriveNullifier(result.Blinding, other)
	require.NoError(s.T(), err)
	assert.NotEqual(s.T(), a, d)
}

func (s *ServiceSuite) TestGenerateProofMatchesDerivedNullifier() {
	result, err := s.credentials.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), time.Time{})
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.service.StoreSecrets(s.ctx, s.subject, testAttributes(), result.Blinding, result.Credential.Commitment))

	expected, err := s.service.DeriveNullifier(result.Blinding, testRequirements())
	require.NoError(s.T(), err)

	artifact, err := s.service.GenerateProof(s.ctx, s.subject, testRequirements())
	require.NoError(s.T(), err)
	assert.Equal(s.T(), expected, artifact.Nullifier)
}

func (s *ServiceSuite) TestGenerateProofRevokedCredential() {
	s.issueAndDeposit()
	_, err := s.credentials.Revoke(s.ctx, "admin-1", s.subject, "compromised")
	require.NoError(s.T(), err)

	_, err = s.service.GenerateProof(s.ctx, s.subject, testRequirements())
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	assert.Equal(s.T(), int64(0), s.prover.ProveCalls(), "prover must not run for an invalid credential")
}

func (s *ServiceSuite) TestGenerateProofExpiredCredential() {
	result, err := s.credentials.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), s.now.Add(time.Hour))
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.service.StoreSecrets(s.ctx, s.subject, testAttributes(), result.Blinding, result.Credential.Commitment))

	later := middleware.WithTime(context.Background(), s.now.Add(2*time.Hour))
	_, err = s.service.GenerateProof(later, s.subject, testRequirements())
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
}

func (s *ServiceSuite) TestGenerateProofUnknownSubject() {
	_, err := s.service.GenerateProof(s.ctx, s.subject, testRequirements())
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGenerateProofStaleSecrets() {
	s.issueAndDeposit()

	// Reissue without depositing the new secrets: the wallet still holds
	// material for the superseded credential.
	_, err := s.credentials.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), time.Time{})
	require.NoError(s.T(), err)

	_, err = s.service.GenerateProof(s.ctx, s.subject, testRequirements())
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
}

func (s *ServiceSuite) TestGenerateProofUnsatisfiedRequirements() {
	s.issueAndDeposit()

	reqs := testRequirements()
	reqs.AllowedJurisdictions = []string{"US"}
	_, err := s.service.GenerateProof(s.ctx, s.subject, reqs)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidProof))
}

func (s *ServiceSuite) TestGenerateProofInvalidRequirements() {
	s.issueAndDeposit()

	_, err := s.service.GenerateProof(s.ctx, s.subject, models.RequirementSet{MinAgeYears: -1})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))

	tooMany := models.RequirementSet{AllowedJurisdictions: []string{"AA", "BB", "CC", "DD", "EE", "FF", "GG", "HH", "II"}}
	_, err = s.service.GenerateProof(s.ctx, s.subject, tooMany)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
