package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"zkkyc/internal/audit"
	"zkkyc/internal/issuer/store"
	"zkkyc/internal/platform/middleware"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	service    *Service
	auditStore *audit.InMemoryStore
	now        time.Time
	ctx        context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.auditStore = audit.NewInMemoryStore()
	s.service = NewService(
		store.New(),
		audit.NewPublisher(s.auditStore),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.ctx = middleware.WithTime(context.Background(), s.now)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestAddAndTrust() {
	issuer, err := s.service.Add(s.ctx, "admin-1", id.IssuerID("issuer-acme"), "ACME Identity")
	require.NoError(s.T(), err)
	assert.True(s.T(), issuer.Trusted)
	assert.Equal(s.T(), s.now, issuer.AddedAt)

	trusted, err := s.service.IsTrusted(s.ctx, "issuer-acme")
	require.NoError(s.T(), err)
	assert.True(s.T(), trusted)

	events, err := s.auditStore.ListBySubject(s.ctx, "issuer-acme")
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), audit.ActionIssuerAdded, events[0].Action)
}

func (s *ServiceSuite) TestAddIsIdempotent() {
	_, err := s.service.Add(s.ctx, "admin-1", "issuer-acme", "ACME Identity")
	require.NoError(s.T(), err)
	_, err = s.service.Add(s.ctx, "admin-1", "issuer-acme", "ACME Identity")
	require.NoError(s.T(), err)

	events, err := s.auditStore.ListBySubject(s.ctx, "issuer-acme")
	require.NoError(s.T(), err)
	assert.Len(s.T(), events, 1, "repeated add must not emit a second audit event")
}

func (s *ServiceSuite) TestAddRejectsEmptyID() {
	_, err := s.service.Add(s.ctx, "admin-1", "", "nameless")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestRemoveKeepsRecord() {
	_, err := s.service.Add(s.ctx, "admin-1", "issuer-acme", "ACME Identity")
	require.NoError(s.T(), err)

	removed, err := s.service.Remove(s.ctx, "admin-1", "issuer-acme")
	require.NoError(s.T(), err)
	assert.False(s.T(), removed.Trusted)
	require.NotNil(s.T(), removed.RemovedAt)
	assert.Equal(s.T(), s.now, *removed.RemovedAt)

	// Record survives removal so old credentials stay attributable.
	got, err := s.service.Get(s.ctx, "issuer-acme")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ACME Identity", got.Name)

	trusted, err := s.service.IsTrusted(s.ctx, "issuer-acme")
	require.NoError(s.T(), err)
	assert.False(s.T(), trusted)
}

func (s *ServiceSuite) TestRemoveIsIdempotent() {
	_, err := s.service.Add(s.ctx, "admin-1", "issuer-acme", "ACME Identity")
	require.NoError(s.T(), err)
	_, err = s.service.Remove(s.ctx, "admin-1", "issuer-acme")
	require.NoError(s.T(), err)
	_, err = s.service.Remove(s.ctx, "admin-1", "issuer-acme")
	require.NoError(s.T(), err)

	events, err := s.auditStore.ListBySubject(s.ctx, "issuer-acme")
	require.NoError(s.T(), err)
	assert.Len(s.T(), events, 2, "add + one remove; the second remove is a no-op")
}

func (s *ServiceSuite) TestRemoveUnknownIssuer() {
	_, err := s.service.Remove(s.ctx, "admin-1", "issuer-ghost")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestReAddRestoresTrust() {
	_, err := s.service.Add(s.ctx, "admin-1", "issuer-acme", "ACME Identity")
	require.NoError(s.T(), err)
	_, err = s.service.Remove(s.ctx, "admin-1", "issuer-acme")
	require.NoError(s.T(), err)

	later := middleware.WithTime(context.Background(), s.now.Add(time.Hour))
	issuer, err := s.service.Add(later, "admin-2", "issuer-acme", "")
	require.NoError(s.T(), err)
	assert.True(s.T(), issuer.Trusted)
	assert.Nil(s.T(), issuer.RemovedAt)
	assert.Equal(s.T(), "ACME Identity", issuer.Name, "name carried over from the removed record")

	trusted, err := s.service.IsTrusted(s.ctx, "issuer-acme")
	require.NoError(s.T(), err)
	assert.True(s.T(), trusted)
}

func (s *ServiceSuite) TestIsTrustedUnknownIssuer() {
	trusted, err := s.service.IsTrusted(s.ctx, "issuer-ghost")
	require.NoError(s.T(), err)
	assert.False(s.T(), trusted)
}

func (s *ServiceSuite) TestListIncludesRemoved() {
	_, err := s.service.Add(s.ctx, "admin-1", "issuer-a", "A")
	require.NoError(s.T(), err)
	_, err = s.service.Add(s.ctx, "admin-1", "issuer-b", "B")
	require.NoError(s.T(), err)
	_, err = s.service.Remove(s.ctx, "admin-1", "issuer-a")
	require.NoError(s.T(), err)

	issuers, err := s.service.List(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), issuers, 2)
}
