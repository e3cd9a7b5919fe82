// Package service implements the verification pipeline: the state machine
// that consumes a proof at most once.
package service

import (
	"context"
	"log/slog"
	"time"

	"zkkyc/internal/audit"
	credmodels "zkkyc/internal/credential/models"
	"zkkyc/internal/nullifier"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/verification/metrics"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
	"zkkyc/pkg/platform/tracer"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CredentialChecker,ProofVerifier

// CredentialChecker is the slice of the credential service the pipeline
// consults before doing any cryptographic work.
type CredentialChecker interface {
	GetByCommitment(ctx context.Context, commitment zk.Commitment) (*credmodels.Credential, error)
	IsValid(ctx context.Context, credential *credmodels.Credential) (bool, error)
}

// ProofVerifier is the external cryptographic verify capability.
type ProofVerifier interface {
	Verify(ctx context.Context, proof []byte, publicSignals []string) (bool, error)
}

// Request is a proof submission. The prover is untrusted: every field is
// cross-checked against the public signals before anything is believed.
type Request struct {
	Proof         []byte
	PublicSignals []string
	Nullifier     zk.Nullifier
	Commitment    zk.Commitment
}

// Result is the verification record returned on success.
type Result struct {
	Verified        bool            `json:"verified"`
	VerifierID      id.VerifierID   `json:"verifier_id"`
	VerifiedAt      time.Time       `json:"verified_at"`
	Nullifier       zk.Nullifier    `json:"nullifier"`
	RequirementHash zk.FieldElement `json:"requirement_hash"`
}

type Option func(*Service)

// Service runs the ordered pipeline: credential validity, replay pre-check,
// cryptographic verify, atomic nullifier commit. The ledger insert is the
// authoritative replay decision; losing that race is ProofReplay, never an
// internal error and never success.
type Service struct {
	credentials CredentialChecker
	ledger      nullifier.Ledger
	verifier    ProofVerifier
	auditor     *audit.Publisher
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger
}

func NewService(credentials CredentialChecker, ledger nullifier.Ledger, verifier ProofVerifier, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		credentials: credentials,
		ledger:      ledger,
		verifier:    verifier,
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

// WithTracer sets the tracer for pipeline spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// Verify runs the pipeline for one proof on behalf of a verifier.
func (s *Service) Verify(ctx context.Context, verifierID id.VerifierID, req Request) (result *Result, err error) {
	if verifierID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing verifier identity")
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrVerifier, verifierID.String()),
		tracer.String(tracer.AttrNullifier, string(req.Nullifier)),
	)
	defer func() {
		span.End(err)
		if s.metrics != nil {
			s.metrics.ObserveVerifyLatency(time.Since(start).Seconds())
			outcome := "verified"
			if err != nil {
				outcome = string(dErrors.CodeOf(err))
			}
			s.metrics.IncrementVerification(outcome)
		}
		if err != nil {
			s.reject(ctx, verifierID, req, err)
		}
	}()

	reqHash, err := s.checkSignals(req)
	if err != nil {
		return nil, err
	}

	// Step 1: the credential behind the commitment must be valid right
	// now. A cryptographically sound proof over a revoked credential is
	// still rejected; revocation acts retroactively.
	credCtx, credSpan := s.tracer.Start(ctx, tracer.SpanCredentialCheck)
	credential, err := s.credentials.GetByCommitment(credCtx, req.Commitment)
	if err == nil {
		var valid bool
		valid, err = s.credentials.IsValid(credCtx, credential)
		if err == nil && !valid {
			err = dErrors.New(dErrors.CodeCredentialInvalid, "credential is not valid")
		}
	}
	credSpan.End(err)
	if err != nil {
		return nil, err
	}

	// Step 2: advisory replay pre-check. Cheap, avoids burning CPU on a
	// proof that is already doomed; the authoritative decision is step 4.
	replayCtx, replaySpan := s.tracer.Start(ctx, tracer.SpanReplayCheck)
	seen, err := s.ledger.Has(replayCtx, req.Nullifier)
	replaySpan.End(err)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read nullifier ledger")
	}
	if seen {
		if s.metrics != nil {
			s.metrics.IncrementReplayRejected()
		}
		return nil, dErrors.New(dErrors.CodeProofReplay, "nullifier already consumed")
	}

	// Step 3: cryptographic verification. Runs without any ledger lock.
	cryptoCtx, cryptoSpan := s.tracer.Start(ctx, tracer.SpanCryptoVerify)
	ok, err := s.verifier.Verify(cryptoCtx, req.Proof, req.PublicSignals)
	cryptoSpan.End(err)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verify capability failed")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidProof, "cryptographic verification failed")
	}

	// Step 4: atomic commit. Insertion only after the proof is known good,
	// so a failed submission can never burn someone else's nullifier.
	now := middleware.Now(ctx)
	commitCtx, commitSpan := s.tracer.Start(ctx, tracer.SpanLedgerCommit)
	inserted, _, err := s.ledger.PutIfAbsent(commitCtx, nullifier.Entry{
		Nullifier:  req.Nullifier,
		ConsumedAt: now,
		VerifierID: verifierID,
	})
	commitSpan.End(err)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit nullifier")
	}
	if !inserted {
		// Lost the race to a concurrent verification of the same proof.
		if s.metrics != nil {
			s.metrics.IncrementReplayRejected()
		}
		return nil, dErrors.New(dErrors.CodeProofReplay, "nullifier already consumed")
	}
	if s.metrics != nil {
		s.metrics.IncrementNullifiersConsumed()
	}

	result = &Result{
		Verified:        true,
		VerifierID:      verifierID,
		VerifiedAt:      now,
		Nullifier:       req.Nullifier,
		RequirementHash: reqHash,
	}
	span.SetAttributes(tracer.String(tracer.AttrOutcome, "verified"))

	s.emitAudit(ctx, audit.Event{
		Timestamp:       now,
		Actor:           verifierID.String(),
		Subject:         credential.SubjectID.String(),
		Action:          audit.ActionProofVerified,
		Decision:        "verified",
		Nullifier:       string(req.Nullifier),
		RequirementHash: string(reqHash),
	})
	s.logger.InfoContext(ctx, "proof verified",
		"verifier_id", verifierID,
		"nullifier", req.Nullifier,
		"requirement_hash", reqHash,
	)
	return result, nil
}

// checkSignals validates the submission shape and cross-checks the
// artifact's claimed nullifier and commitment against the public signals.
// A prover that lies about either gets InvalidProof before any state is
// touched. Returns the requirement hash carried in the signals.
func (s *Service) checkSignals(req Request) (zk.FieldElement, error) {
	if len(req.Proof) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "proof must not be empty")
	}
	if len(req.PublicSignals) != 6+zk.MaxJurisdictions {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unexpected public signal count")
	}
	if req.Nullifier.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "nullifier must not be empty")
	}

	commitmentDec, err := req.Commitment.Decimal()
	if err != nil {
		return "", err
	}
	nullifierDec, err := req.Nullifier.Decimal()
	if err != nil {
		return "", err
	}
	if req.PublicSignals[0] != commitmentDec {
		return "", dErrors.New(dErrors.CodeInvalidProof, "commitment does not match public signals")
	}
	if req.PublicSignals[1] != nullifierDec {
		return "", dErrors.New(dErrors.CodeInvalidProof, "nullifier does not match public signals")
	}

	reqHash, err := zk.ElementFromDecimal(req.PublicSignals[2])
	if err != nil {
		return "", err
	}
	return reqHash, nil
}

// reject logs and audits a failed verification with enough context for
// audit without exposing any private attribute.
func (s *Service) reject(ctx context.Context, verifierID id.VerifierID, req Request, cause error) {
	code := dErrors.CodeOf(cause)
	s.emitAudit(ctx, audit.Event{
		Timestamp: middleware.Now(ctx),
		Actor:     verifierID.String(),
		Subject:   string(req.Commitment),
		Action:    audit.ActionProofRejected,
		Decision:  "rejected",
		Reason:    string(code),
		Nullifier: string(req.Nullifier),
	})
	s.logger.WarnContext(ctx, "proof rejected",
		"verifier_id", verifierID,
		"nullifier", req.Nullifier,
		"code", code,
	)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
