package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"zkkyc/internal/audit"
	"zkkyc/internal/credential/models"
	"zkkyc/internal/credential/store"
	issuerservice "zkkyc/internal/issuer/service"
	issuerstore "zkkyc/internal/issuer/store"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/revocation"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
)

const trustedIssuer = id.IssuerID("issuer-acme")

type ServiceSuite struct {
	suite.Suite
	service    *Service
	issuers    *issuerservice.Service
	registry   *revocation.InMemoryRegistry
	auditStore *audit.InMemoryStore
	subject    id.SubjectID
	now        time.Time
	ctx        context.Context
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auditStore = audit.NewInMemoryStore()
	auditor := audit.NewPublisher(s.auditStore)

	s.issuers = issuerservice.NewService(issuerstore.New(), auditor, logger)
	s.registry = revocation.NewInMemoryRegistry()
	s.service = NewService(store.New(), s.issuers, s.registry, auditor, logger)

	s.subject = id.SubjectID(uuid.New())
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.ctx = middleware.WithTime(context.Background(), s.now)

	_, err := s.issuers.Add(s.ctx, "admin-1", trustedIssuer, "ACME Identity")
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

func (s *ServiceSuite) issue() *models.IssueResult {
	result, err := s.service.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), time.Time{})
	require.NoError(s.T(), err)
	return result
}

func (s *ServiceSuite) TestIssue() {
	result := s.issue()

	cred := result.Credential
	assert.True(s.T(), cred.Active)
	assert.Equal(s.T(), s.subject, cred.SubjectID)
	assert.Equal(s.T(), trustedIssuer, cred.IssuerID)
	assert.NotEmpty(s.T(), cred.Commitment)
	assert.NotEmpty(s.T(), result.Blinding)
	assert.Equal(s.T(), s.now, cred.IssuedAt)
	assert.Equal(s.T(), s.now.Add(365*24*time.Hour), cred.ExpiresAt, "default TTL applies when no expiry given")

	// The stored record carries the commitment only.
	stored, err := s.service.Get(s.ctx, s.subject)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), cred.Commitment, stored.Commitment)

	events, err := s.auditStore.ListBySubject(s.ctx, s.subject.String())
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), audit.ActionCredentialRegistered, events[0].Action)
}

func (s *ServiceSuite) TestIssueUntrustedIssuer() {
	_, err := s.service.Issue(s.ctx, "issuer-shady", s.subject, testAttributes(), time.Time{})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUntrustedIssuer))
}

func (s *ServiceSuite) TestIssueAfterIssuerRemoval() {
	_, err := s.issuers.Remove(s.ctx, "admin-1", trustedIssuer)
	require.NoError(s.T(), err)

	// Trust is checked at call time, not cached from a previous issuance.
	_, err = s.service.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), time.Time{})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUntrustedIssuer))
}

func (s *ServiceSuite) TestIssueRejectsPastExpiry() {
	_, err := s.service.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), s.now.Add(-time.Hour))
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidExpiry))

	_, err = s.service.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), s.now)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidExpiry), "expiry equal to now is invalid")
}

func (s *ServiceSuite) TestIssueRejectsIncompleteAttributes() {
	attrs := testAttributes()
	attrs.DocumentID = ""
	_, err := s.service.Issue(s.ctx, trustedIssuer, s.subject, attrs, time.Time{})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestReissueSupersedes() {
	first := s.issue()
	second := s.issue()

	assert.NotEqual(s.T(), first.Credential.Commitment, second.Credential.Commitment,
		"identical attributes must still produce distinct commitments")
	assert.NotEqual(s.T(), first.Blinding, second.Blinding)

	active, err := s.service.Get(s.ctx, s.subject)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), second.Credential.ID, active.ID)

	status, prior, err := s.service.Status(s.ctx, s.subject)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusActive, status)
	assert.Equal(s.T(), second.Credential.ID, prior.ID)

	events, err := s.auditStore.ListBySubject(s.ctx, s.subject.String())
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 3)
	assert.Equal(s.T(), audit.ActionCredentialSuperseded, events[1].Action)
}

func (s *ServiceSuite) TestRevokeIsIdempotent() {
	s.issue()

	entry, err := s.service.Revoke(s.ctx, "admin-1", s.subject, "document invalidated")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), entry)

	again, err := s.service.Revoke(s.ctx, "admin-1", s.subject, "second attempt")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), entry.Sequence, again.Sequence)
	assert.Equal(s.T(), "document invalidated", again.Reason)

	entries, err := s.registry.List(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), entries, 1)

	events, err := s.auditStore.ListBySubject(s.ctx, s.subject.String())
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 2, "issue + one revoke event")
	assert.Equal(s.T(), audit.ActionCredentialRevoked, events[1].Action)
}

func (s *ServiceSuite) TestRevokeWithoutCredential() {
	_, err := s.service.Revoke(s.ctx, "admin-1", s.subject, "nothing there")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestValidityRecomputedPerCall() {
	result := s.issue()

	valid, err := s.service.IsValid(s.ctx, result.Credential)
	require.NoError(s.T(), err)
	assert.True(s.T(), valid)

	_, err = s.service.Revoke(s.ctx, "admin-1", s.subject, "compromised")
	require.NoError(s.T(), err)

	valid, err = s.service.IsValid(s.ctx, result.Credential)
	require.NoError(s.T(), err)
	assert.False(s.T(), valid, "revocation must take effect on the next check")

	status, _, err := s.service.Status(s.ctx, s.subject)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusRevoked, status)
}

func (s *ServiceSuite) TestValidityExpires() {
	result, err := s.service.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), s.now.Add(24*time.Hour))
	require.NoError(s.T(), err)

	valid, err := s.service.IsValid(s.ctx, result.Credential)
	require.NoError(s.T(), err)
	assert.True(s.T(), valid)

	later := middleware.WithTime(context.Background(), s.now.Add(25*time.Hour))
	valid, err = s.service.IsValid(later, result.Credential)
	require.NoError(s.T(), err)
	assert.False(s.T(), valid)

	status, _, err := s.service.Status(later, s.subject)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusExpired, status)
}

func (s *ServiceSuite) TestHasValidCredential() {
	has, err := s.service.HasValidCredential(s.ctx, s.subject)
	require.NoError(s.T(), err)
	assert.False(s.T(), has)

	s.issue()

	has, err = s.service.HasValidCredential(s.ctx, s.subject)
	require.NoError(s.T(), err)
	assert.True(s.T(), has)
}

func (s *ServiceSuite) TestConcurrentReissueKeepsOneActive() {
	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			_, err := s.service.Issue(s.ctx, trustedIssuer, s.subject, testAttributes(), time.Time{})
			assert.NoError(s.T(), err)
		})
	}
	wg.Wait()

	all, err := s.service.History(s.ctx, s.subject)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 16)

	active := 0
	for _, cred := range all {
		if cred.Active {
			active++
		}
	}
	assert.Equal(s.T(), 1, active, "per-subject serialization must leave exactly one active credential")
}
