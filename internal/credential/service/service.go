// Package service implements the credential lifecycle: issuance,
// supersession, revocation and validity checks.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"zkkyc/internal/audit"
	"zkkyc/internal/credential/metrics"
	"zkkyc/internal/credential/models"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/revocation"
	"zkkyc/internal/sentinel"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
	psync "zkkyc/pkg/platform/sync"
)

// Store defines the persistence interface for credential records.
// Error Contract:
// - Find* return sentinel.ErrNotFound when no matching credential exists
type Store interface {
	Save(ctx context.Context, credential *models.Credential) error
	Update(ctx context.Context, credential *models.Credential) error
	FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error)
	FindActiveBySubject(ctx context.Context, subjectID id.SubjectID) (*models.Credential, error)
	FindByCommitment(ctx context.Context, commitment zk.Commitment) (*models.Credential, error)
	ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]*models.Credential, error)
}

// TrustChecker answers whether an issuer is currently trusted. Trust is
// evaluated at issuance time, never cached on the credential.
type TrustChecker interface {
	IsTrusted(ctx context.Context, issuerID id.IssuerID) (bool, error)
}

type Option func(*Service)

const defaultCredentialTTL = 365 * 24 * time.Hour

// Service owns credential state transitions. All writes for a subject are
// serialized through a sharded mutex so reissue and revoke cannot interleave.
type Service struct {
	store       Store
	trust       TrustChecker
	revocations revocation.Registry
	auditor     *audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	locks       *psync.ShardedMutex
	ttl         time.Duration
}

func NewService(store Store, trust TrustChecker, revocations revocation.Registry, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:       store,
		trust:       trust,
		revocations: revocations,
		auditor:     auditor,
		logger:      logger,
		locks:       psync.NewShardedMutex(),
		ttl:         defaultCredentialTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCredentialTTL configures the default lifetime applied when an issue
// request carries no explicit expiry.
func WithCredentialTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// Issue creates a credential for the subject. The issuer must be trusted at
// call time. A fresh blinding factor is drawn per issuance and returned to
// the caller exactly once; only the commitment is stored. Any previously
// active credential for the subject is superseded.
func (s *Service) Issue(ctx context.Context, issuerID id.IssuerID, subjectID id.SubjectID, attrs zk.AttributeSet, expiresAt time.Time) (*models.IssueResult, error) {
	if issuerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing issuer identity")
	}
	if subjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "missing subject id")
	}
	if err := validateAttributes(attrs); err != nil {
		return nil, err
	}

	trusted, err := s.trust.IsTrusted(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	if !trusted {
		return nil, dErrors.New(dErrors.CodeUntrustedIssuer, "issuer is not trusted")
	}

	now := middleware.Now(ctx)
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.ttl)
	}
	if !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidExpiry, "expiry must be in the future")
	}

	blinding, err := zk.NewBlinding()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to draw blinding factor")
	}
	commitment, err := zk.ComputeCommitment(attrs, blinding)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute commitment")
	}

	subjectKey := subjectID.String()
	s.locks.Lock(subjectKey)
	defer s.locks.Unlock(subjectKey)

	credential := &models.Credential{
		ID:         id.NewCredentialID(),
		SubjectID:  subjectID,
		IssuerID:   issuerID,
		Commitment: commitment,
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
		Active:     true,
	}

	prior, err := s.store.FindActiveBySubject(ctx, subjectID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read prior credential")
	}
	if prior != nil {
		prior.Active = false
		prior.SupersededBy = &credential.ID
		if err := s.store.Update(ctx, prior); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to supersede prior credential")
		}
		s.emitAudit(ctx, audit.Event{
			Timestamp: now,
			Actor:     issuerID.String(),
			Subject:   subjectID.String(),
			Action:    audit.ActionCredentialSuperseded,
			Reason:    "reissued",
		})
		if s.metrics != nil {
			s.metrics.IncrementSuperseded()
		}
	}

	if err := s.store.Save(ctx, credential); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save credential")
	}

	s.emitAudit(ctx, audit.Event{
		Timestamp: now,
		Actor:     issuerID.String(),
		Subject:   subjectID.String(),
		Action:    audit.ActionCredentialRegistered,
	})
	if s.metrics != nil {
		s.metrics.IncrementIssued(issuerID.String())
	}
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", credential.ID,
		"issuer_id", issuerID,
	)

	return &models.IssueResult{Credential: credential, Blinding: blinding}, nil
}

// Get returns the subject's active credential.
func (s *Service) Get(ctx context.Context, subjectID id.SubjectID) (*models.Credential, error) {
	credential, err := s.store.FindActiveBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active credential for subject")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}
	return credential, nil
}

// GetByCommitment looks a credential up by its attribute commitment.
func (s *Service) GetByCommitment(ctx context.Context, commitment zk.Commitment) (*models.Credential, error) {
	credential, err := s.store.FindByCommitment(ctx, commitment)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no credential for commitment")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}
	return credential, nil
}

// Revoke revokes the subject's current credential. The revocation registry
// keeps the authoritative record; revoking an already revoked credential is
// a no-op that returns the existing entry.
func (s *Service) Revoke(ctx context.Context, actor string, subjectID id.SubjectID, reason string) (*revocation.Entry, error) {
	subjectKey := subjectID.String()
	s.locks.Lock(subjectKey)
	defer s.locks.Unlock(subjectKey)

	credential, err := s.store.FindActiveBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active credential for subject")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}

	now := middleware.Now(ctx)
	alreadyRevoked, err := s.revocations.IsRevoked(ctx, credential.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read revocation state")
	}

	entry, err := s.revocations.Revoke(ctx, credential.ID, reason, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}

	if !alreadyRevoked {
		s.emitAudit(ctx, audit.Event{
			Timestamp: now,
			Actor:     actor,
			Subject:   subjectID.String(),
			Action:    audit.ActionCredentialRevoked,
			Reason:    reason,
		})
		if s.metrics != nil {
			s.metrics.IncrementRevoked()
		}
		s.logger.InfoContext(ctx, "credential revoked",
			"credential_id", credential.ID,
			"actor", actor,
		)
	}
	return entry, nil
}

// IsValid recomputes credential validity: active, unexpired and unrevoked.
// The result is never cached; revocation applies retroactively to any proof
// not yet verified.
func (s *Service) IsValid(ctx context.Context, credential *models.Credential) (bool, error) {
	if credential == nil {
		return false, nil
	}

	now := middleware.Now(ctx)
	revoked, err := s.revocations.IsRevoked(ctx, credential.ID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read revocation state")
	}

	valid := credential.Active && !credential.IsExpired(now) && !revoked
	if s.metrics != nil {
		outcome := "valid"
		if !valid {
			outcome = string(credential.ComputeStatus(now, revoked))
		}
		s.metrics.IncrementValidityCheck(outcome)
	}
	return valid, nil
}

// Status reports the lifecycle state of the subject's latest credential.
func (s *Service) Status(ctx context.Context, subjectID id.SubjectID) (models.Status, *models.Credential, error) {
	credential, err := s.store.FindActiveBySubject(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
		}
		// Fall back to the most recent superseded credential, if any.
		all, listErr := s.store.ListBySubject(ctx, subjectID)
		if listErr != nil {
			return "", nil, dErrors.Wrap(listErr, dErrors.CodeInternal, "failed to list credentials")
		}
		if len(all) == 0 {
			return "", nil, dErrors.New(dErrors.CodeNotFound, "no credential for subject")
		}
		credential = all[len(all)-1]
	}

	revoked, err := s.revocations.IsRevoked(ctx, credential.ID)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read revocation state")
	}
	return credential.ComputeStatus(middleware.Now(ctx), revoked), credential, nil
}

// History returns every credential ever issued to the subject, oldest first.
func (s *Service) History(ctx context.Context, subjectID id.SubjectID) ([]*models.Credential, error) {
	all, err := s.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return all, nil
}

// HasValidCredential reports whether the subject currently holds a valid
// credential.
func (s *Service) HasValidCredential(ctx context.Context, subjectID id.SubjectID) (bool, error) {
	credential, err := s.store.FindActiveBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}
	return s.IsValid(ctx, credential)
}

func validateAttributes(attrs zk.AttributeSet) error {
	switch {
	case attrs.FullName == "":
		return dErrors.New(dErrors.CodeInvalidInput, "full name must not be empty")
	case attrs.Jurisdiction == "":
		return dErrors.New(dErrors.CodeInvalidInput, "jurisdiction must not be empty")
	case attrs.DocumentID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "document id must not be empty")
	case attrs.BirthDate.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "birth date must be set")
	case attrs.DocumentIssuedAt.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "document issue date must be set")
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
