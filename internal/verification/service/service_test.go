package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"zkkyc/internal/audit"
	credmodels "zkkyc/internal/credential/models"
	"zkkyc/internal/nullifier"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/verification/service/mocks"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
)

const verifierID = id.VerifierID("verifier-exchange")

type ServiceSuite struct {
	suite.Suite
	ctrl            *gomock.Controller
	mockCredentials *mocks.MockCredentialChecker
	mockVerifier    *mocks.MockProofVerifier
	ledger          *nullifier.InMemoryLedger
	auditStore      *audit.InMemoryStore
	service         *Service
	now             time.Time
	ctx             context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockCredentials = mocks.NewMockCredentialChecker(s.ctrl)
	s.mockVerifier = mocks.NewMockProofVerifier(s.ctrl)
	s.ledger = nullifier.NewInMemoryLedger()
	s.auditStore = audit.NewInMemoryStore()
	s.service = NewService(
		s.mockCredentials,
		s.ledger,
		s.mockVerifier,
		audit.NewPublisher(s.auditStore),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.ctx = middleware.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// testRequest builds a well-formed submission whose signals agree with the
// claimed commitment and nullifier.
func testRequest(t *testing.T) (Request, *credmodels.Credential) {
	t.Helper()

	commitment := zk.EncodeElement(zk.HashToField([]byte("commitment-seed")))
	null := zk.EncodeElement(zk.HashToField([]byte("nullifier-seed")))
	reqHash := zk.EncodeElement(zk.HashToField([]byte("requirements-seed")))

	commitmentDec, err := commitment.Decimal()
	require.NoError(t, err)
	nullifierDec, err := null.Decimal()
	require.NoError(t, err)
	reqHashDec, err := reqHash.Decimal()
	require.NoError(t, err)

	signals := make([]string, 6+zk.MaxJurisdictions)
	signals[0] = commitmentDec
	signals[1] = nullifierDec
	signals[2] = reqHashDec
	for i := 3; i < len(signals); i++ {
		signals[i] = "0"
	}

	credential := &credmodels.Credential{
		ID:         id.NewCredentialID(),
		SubjectID:  id.SubjectID(uuid.New()),
		IssuerID:   "issuer-acme",
		Commitment: commitment,
		Active:     true,
	}
	return Request{
		Proof:         []byte("opaque-proof-bytes"),
		PublicSignals: signals,
		Nullifier:     null,
		Commitment:    commitment,
	}, credential
}

func (s *ServiceSuite) TestVerifySuccess() {
	req, credential := testRequest(s.T())

	s.mockCredentials.EXPECT().GetByCommitment(gomock.Any(), req.Commitment).Return(credential, nil)
	s.mockCredentials.EXPECT().IsValid(gomock.Any(), credential).Return(true, nil)
	s.mockVerifier.EXPECT().Verify(gomock.Any(), req.Proof, req.PublicSignals).Return(true, nil)

	result, err := s.service.Verify(s.ctx, verifierID, req)
	require.NoError(s.T(), err)
	assert.True(s.T(), result.Verified)
	assert.Equal(s.T(), verifierID, result.VerifierID)
	assert.Equal(s.T(), s.now, result.VerifiedAt)
	assert.Equal(s.T(), req.Nullifier, result.Nullifier)

	entry, err := s.ledger.Get(s.ctx, req.Nullifier)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), entry)
	assert.Equal(s.T(), verifierID, entry.VerifierID)

	events, err := s.auditStore.ListBySubject(s.ctx, credential.SubjectID.String())
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), audit.ActionProofVerified, events[0].Action)
}

func (s *ServiceSuite) TestVerifyMissingVerifierIdentity() {
	req, _ := testRequest(s.T())
	_, err := s.service.Verify(s.ctx, "", req)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestVerifyInvalidCredentialSkipsCrypto() {
	req, credential := testRequest(s.T())

	s.mockCredentials.EXPECT().GetByCommitment(gomock.Any(), req.Commitment).Return(credential, nil)
	s.mockCredentials.EXPECT().IsValid(gomock.Any(), credential).Return(false, nil)
	// No Verify expectation: the pipeline must stop before cryptographic work.

	_, err := s.service.Verify(s.ctx, verifierID, req)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeCredentialInvalid))

	seen, err := s.ledger.Has(s.ctx, req.Nullifier)
	require.NoError(s.T(), err)
	assert.False(s.T(), seen, "a failed verification must not consume the nullifier")
}

func (s *ServiceSuite) TestVerifyUnknownCommitment() {
	req, _ := testRequest(s.T())

	s.mockCredentials.EXPECT().GetByCommitment(gomock.Any(), req.Commitment).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "no credential for commitment"))

	_, err := s.service.Verify(s.ctx, verifierID, req)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestVerifyReplayPreCheck() {
	req, credential := testRequest(s.T())

	_, _, err := s.ledger.PutIfAbsent(s.ctx, nullifier.Entry{
		Nullifier:  req.Nullifier,
		ConsumedAt: s.now.Add(-time.Hour),
		VerifierID: "verifier-earlier",
	})
	require.NoError(s.T(), err)

	s.mockCredentials.EXPECT().GetByCommitment(gomock.Any(), req.Commitment).Return(credential, nil)
	s.mockCredentials.EXPECT().IsValid(gomock.Any(), credential).Return(true, nil)
	// No Verify expectation: replay is detected before cryptographic work.

	_, err = s.service.Verify(s.ctx, verifierID, req)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeProofReplay))

	entry, err := s.ledger.Get(s.ctx, req.Nullifier)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "verifier-earlier", string(entry.VerifierID), "original consumption must be preserved")
}

func (s *ServiceSuite) TestVerifyCryptoFailure() {
	req, credential := testRequest(s.T())

	s.mockCredentials.EXPECT().GetByCommitment(gomock.Any(), req.Commitment).Return(credential, nil)
	s.mockCredentials.EXPECT().IsValid(gomock.Any(), credential).Return(true, nil)
	s.mockVerifier.EXPECT().Verify(gomock.Any(), req.Proof, req.PublicSignals).Return(false, nil)

	_, err := s.service.Verify(s.ctx, verifierID, req)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidProof))

	seen, err := s.ledger.Has(s.ctx, req.Nullifier)
	require.NoError(s.T(), err)
	assert.False(s.T(), seen, "an invalid proof must never burn the nullifier")

	events, err := s.auditStore.ListBySubject(s.ctx, string(req.Commitment))
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), audit.ActionProofRejected, events[0].Action)
	assert.Equal(s.T(), string(dErrors.CodeInvalidProof), events[0].Reason)
}

func (s *ServiceSuite) TestVerifyCapabilityError() {
	req, credential := testRequest(s.T())

	s.mockCredentials.EXPECT().GetByCommitment(gomock.Any(), req.Commitment).Return(credential, nil)
	s.mockCredentials.EXPECT().IsValid(gomock.Any(), credential).Return(true, nil)
	s.mockVerifier.EXPECT().Verify(gomock.Any(), req.Proof, req.PublicSignals).
		Return(false, errors.New("backend unreachable"))

	_, err := s.service.Verify(s.ctx, verifierID, req)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestVerifyTamperedSignals() {
	s.T().Run("commitment mismatch", func(t *testing.T) {
		req, _ := testRequest(t)
		req.Commitment = zk.EncodeElement(zk.HashToField([]byte("some-other-commitment")))
		_, err := s.service.Verify(s.ctx, verifierID, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidProof))
	})

	s.T().Run("nullifier mismatch", func(t *testing.T) {
		req, _ := testRequest(t)
		req.Nullifier = zk.EncodeElement(zk.HashToField([]byte("some-other-nullifier")))
		_, err := s.service.Verify(s.ctx, verifierID, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidProof))
	})

	s.T().Run("truncated signals", func(t *testing.T) {
		req, _ := testRequest(t)
		req.PublicSignals = req.PublicSignals[:4]
		_, err := s.service.Verify(s.ctx, verifierID, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.T().Run("empty proof", func(t *testing.T) {
		req, _ := testRequest(t)
		req.Proof = nil
		_, err := s.service.Verify(s.ctx, verifierID, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
