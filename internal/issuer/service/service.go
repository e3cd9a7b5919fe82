// Package service implements the trusted issuer registry.
package service

import (
	"context"
	"errors"
	"log/slog"

	"zkkyc/internal/audit"
	"zkkyc/internal/issuer/models"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/sentinel"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
)

// Store defines the persistence interface for issuer records.
// Error Contract:
// - Find returns sentinel.ErrNotFound when the issuer is not registered
type Store interface {
	Save(ctx context.Context, issuer *models.Issuer) error
	Find(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
}

type Option func(*Service)

// Service maintains the set of issuers whose credentials the protocol
// accepts. Trust is evaluated at call time; removing an issuer keeps the
// record so existing credentials remain attributable.
type Service struct {
	store   Store
	auditor *audit.Publisher
	logger  *slog.Logger
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{store: store, auditor: auditor, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// Add registers an issuer as trusted, or restores trust for a previously
// removed one. Adding an already trusted issuer is a no-op.
func (s *Service) Add(ctx context.Context, actor string, issuerID id.IssuerID, name string) (*models.Issuer, error) {
	if issuerID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "issuer id must not be empty")
	}

	now := middleware.Now(ctx)
	existing, err := s.store.Find(ctx, issuerID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer")
	}
	if existing != nil && existing.IsTrusted() {
		return existing, nil
	}

	issuer := &models.Issuer{
		ID:      issuerID,
		Name:    name,
		Trusted: true,
		AddedAt: now,
	}
	if existing != nil && name == "" {
		issuer.Name = existing.Name
	}
	if err := s.store.Save(ctx, issuer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save issuer")
	}

	s.emitAudit(ctx, audit.Event{
		Timestamp: now,
		Actor:     actor,
		Subject:   issuerID.String(),
		Action:    audit.ActionIssuerAdded,
		Decision:  "trusted",
	})
	s.logger.InfoContext(ctx, "issuer added", "issuer_id", issuerID)
	return issuer, nil
}

// Remove clears trust for an issuer. The record is kept with RemovedAt set.
// Removing an unknown issuer returns NotFound; removing an already removed
// issuer is a no-op.
func (s *Service) Remove(ctx context.Context, actor string, issuerID id.IssuerID) (*models.Issuer, error) {
	now := middleware.Now(ctx)
	issuer, err := s.store.Find(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "issuer not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer")
	}
	if !issuer.IsTrusted() {
		return issuer, nil
	}

	issuer.Trusted = false
	issuer.RemovedAt = &now
	if err := s.store.Save(ctx, issuer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save issuer")
	}

	s.emitAudit(ctx, audit.Event{
		Timestamp: now,
		Actor:     actor,
		Subject:   issuerID.String(),
		Action:    audit.ActionIssuerRemoved,
		Decision:  "untrusted",
	})
	s.logger.InfoContext(ctx, "issuer removed", "issuer_id", issuerID)
	return issuer, nil
}

// Get returns the registry record for an issuer, trusted or not.
func (s *Service) Get(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	issuer, err := s.store.Find(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "issuer not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer")
	}
	return issuer, nil
}

// List returns every registered issuer, including removed ones.
func (s *Service) List(ctx context.Context) ([]*models.Issuer, error) {
	issuers, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuers")
	}
	return issuers, nil
}

// IsTrusted reports whether the issuer is currently trusted. Unknown issuers
// are simply untrusted, not an error.
func (s *Service) IsTrusted(ctx context.Context, issuerID id.IssuerID) (bool, error) {
	issuer, err := s.store.Find(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer")
	}
	return issuer.IsTrusted(), nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
