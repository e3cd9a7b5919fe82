// Package service prepares circuit inputs and generates proof artifacts.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"zkkyc/internal/audit"
	credmodels "zkkyc/internal/credential/models"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/proof/metrics"
	"zkkyc/internal/proof/models"
	"zkkyc/internal/proof/wallet"
	"zkkyc/internal/sentinel"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
	"zkkyc/pkg/platform/tracer"
)

// CredentialReader is the read-only slice of the credential service the
// prover needs. Proof generation never mutates credential state.
type CredentialReader interface {
	Get(ctx context.Context, subjectID id.SubjectID) (*credmodels.Credential, error)
	IsValid(ctx context.Context, credential *credmodels.Credential) (bool, error)
}

type Option func(*Service)

// Service turns a credential plus a requirement set into a proof artifact.
// The heavy proving call is deduplicated per nullifier: identical concurrent
// requests share one prover invocation.
type Service struct {
	credentials CredentialReader
	secrets     wallet.Store
	prover      zk.Prover
	auditor     *audit.Publisher
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger
	group       singleflight.Group
}

func NewService(credentials CredentialReader, secrets wallet.Store, prover zk.Prover, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		credentials: credentials,
		secrets:     secrets,
		prover:      prover,
		auditor:     auditor,
		tracer:      tracer.NewNoop(),
		logger:      logger,
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

// WithTracer sets the tracer used around prover calls.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// StoreSecrets deposits a subject's proving material after issuance.
func (s *Service) StoreSecrets(ctx context.Context, subjectID id.SubjectID, attrs zk.AttributeSet, blinding zk.Blinding, commitment zk.Commitment) error {
	if err := s.secrets.Put(ctx, subjectID, wallet.Secrets{
		Attributes: attrs,
		Blinding:   blinding,
		Commitment: commitment,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proving secrets")
	}
	return nil
}

// DeriveNullifier is pure and deterministic: the same (blinding,
// requirement set) pair always yields the same nullifier. Callers can use
// it to detect "I already made this exact proof" without invoking the
// prover.
func (s *Service) DeriveNullifier(blinding zk.Blinding, requirements models.RequirementSet) (zk.Nullifier, error) {
	return zk.DeriveNullifier(blinding, requirements.Hash())
}

// PrepareInputs partitions data into the private witness (attributes,
// blinding factor) and the public signals (commitment, nullifier,
// requirement thresholds). The private portion never appears in any output.
func (s *Service) PrepareInputs(ctx context.Context, credential *credmodels.Credential, secrets wallet.Secrets, requirements models.RequirementSet) (zk.CircuitInputs, error) {
	normalized := requirements.Normalize()
	reqHash := normalized.Hash()
	nullifier, err := zk.DeriveNullifier(secrets.Blinding, reqHash)
	if err != nil {
		return zk.CircuitInputs{}, err
	}

	now := middleware.Now(ctx)
	minBirthDay := zk.MaxDay
	if normalized.MinAgeYears > 0 {
		minBirthDay = zk.DayNumber(now.AddDate(-normalized.MinAgeYears, 0, 0))
	}
	var minDocIssueDay int64
	if normalized.MaxDocumentAgeYears > 0 {
		minDocIssueDay = zk.DayNumber(now.AddDate(-normalized.MaxDocumentAgeYears, 0, 0))
	}

	return zk.CircuitInputs{
		Public: zk.PublicInputs{
			Commitment:           credential.Commitment,
			Nullifier:            nullifier,
			RequirementHash:      reqHash,
			MinBirthDay:          minBirthDay,
			MinDocIssueDay:       minDocIssueDay,
			JurisdictionEnforced: len(normalized.AllowedJurisdictions) > 0,
			AllowedJurisdictions: normalized.AllowedJurisdictions,
		},
		Private: zk.PrivateInputs{
			Attributes: secrets.Attributes,
			Blinding:   secrets.Blinding,
		},
	}, nil
}

// GenerateProof produces a proof that the subject's credential satisfies
// the requirement set. Fails with CredentialInvalid when the credential is
// expired, revoked or superseded at call time. Proving has no side effect
// on replay state: nullifiers are only recorded at verification.
func (s *Service) GenerateProof(ctx context.Context, subjectID id.SubjectID, requirements models.RequirementSet) (*models.ProofArtifact, error) {
	artifact, err := s.generateProof(ctx, subjectID, requirements)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementFailure(string(dErrors.CodeOf(err)))
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementGenerated()
	}
	return artifact, nil
}

func (s *Service) generateProof(ctx context.Context, subjectID id.SubjectID, requirements models.RequirementSet) (*models.ProofArtifact, error) {
	if err := requirements.Validate(); err != nil {
		return nil, err
	}
	normalized := requirements.Normalize()

	credential, err := s.credentials.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	valid, err := s.credentials.IsValid(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, dErrors.New(dErrors.CodeCredentialInvalid, "credential is not valid at proving time")
	}

	secrets, err := s.secrets.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no proving secrets for subject")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read proving secrets")
	}
	if secrets.Commitment != credential.Commitment {
		// Stale wallet entry from before a reissuance.
		return nil, dErrors.New(dErrors.CodeCredentialInvalid, "proving secrets do not match the active credential")
	}

	inputs, err := s.PrepareInputs(ctx, credential, *secrets, normalized)
	if err != nil {
		return nil, err
	}
	reqHash := normalized.Hash()
	nullifier := inputs.Public.Nullifier

	// Identical concurrent requests collapse into one prover call; the
	// prover may run for seconds and holds no lock anywhere.
	result, err, _ := s.group.Do(string(nullifier), func() (any, error) {
		spanCtx, span := s.tracer.Start(ctx, tracer.SpanProve,
			tracer.String(tracer.AttrNullifier, string(nullifier)),
			tracer.String(tracer.AttrRequirementHash, string(reqHash)),
		)
		start := time.Now()
		proof, signals, proveErr := s.prover.Prove(spanCtx, inputs)
		if s.metrics != nil {
			s.metrics.ObserveProveLatency(time.Since(start).Seconds())
		}
		span.End(proveErr)
		if proveErr != nil {
			return nil, proveErr
		}
		return &models.ProofArtifact{
			Proof:           proof,
			PublicSignals:   signals,
			Nullifier:       nullifier,
			Commitment:      credential.Commitment,
			Requirements:    normalized,
			RequirementHash: reqHash,
			GeneratedAt:     middleware.Now(ctx),
		}, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "proof generation failed",
			"nullifier", nullifier,
			"requirement_hash", reqHash,
			"error", err,
		)
		return nil, err
	}
	artifact := result.(*models.ProofArtifact)

	s.emitAudit(ctx, audit.Event{
		Timestamp:       middleware.Now(ctx),
		Actor:           subjectID.String(),
		Subject:         subjectID.String(),
		Action:          audit.ActionProofGenerated,
		Nullifier:       string(nullifier),
		RequirementHash: string(reqHash),
	})
	s.logger.InfoContext(ctx, "proof generated",
		"nullifier", nullifier,
		"requirement_hash", reqHash,
	)
	return artifact, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
