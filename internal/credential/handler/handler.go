// Package handler exposes the credential lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zkkyc/internal/credential/metrics"
	"zkkyc/internal/credential/models"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/platform/token"
	"zkkyc/internal/revocation"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
	"zkkyc/pkg/platform/httputil"
)

// Service defines the credential operations the transport needs.
type Service interface {
	Issue(ctx context.Context, issuerID id.IssuerID, subjectID id.SubjectID, attrs zk.AttributeSet, expiresAt time.Time) (*models.IssueResult, error)
	Get(ctx context.Context, subjectID id.SubjectID) (*models.Credential, error)
	Status(ctx context.Context, subjectID id.SubjectID) (models.Status, *models.Credential, error)
	HasValidCredential(ctx context.Context, subjectID id.SubjectID) (bool, error)
	Revoke(ctx context.Context, actor string, subjectID id.SubjectID, reason string) (*revocation.Entry, error)
}

// SecretDepositor receives the subject's proving material after issuance.
// Wired to the proof service so delegated proving works out of the box;
// a nil depositor means subjects keep their blinding factor client-side.
type SecretDepositor interface {
	StoreSecrets(ctx context.Context, subjectID id.SubjectID, attrs zk.AttributeSet, blinding zk.Blinding, commitment zk.Commitment) error
}

// Handler handles credential endpoints.
type Handler struct {
	logger      *slog.Logger
	credentials Service
	secrets     SecretDepositor
	metrics     *metrics.Metrics
}

// New creates a credential Handler.
func New(credentials Service, secrets SecretDepositor, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, credentials: credentials, secrets: secrets, metrics: m}
}

// Register registers the credential routes. Issuance requires the issuer
// role; revocation is allowed for admins and the owning issuer.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequireRole(token.RoleIssuer)).Post("/credentials", h.handleIssue)
	r.Get("/credentials/{subject}/status", h.handleStatus)
	r.With(middleware.RequireRole(token.RoleIssuer)).Post("/credentials/{subject}/revoke", h.handleRevoke)
}

type issueResponse struct {
	Credential *models.Credential `json:"credential"`
	Blinding   zk.Blinding        `json:"blinding"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.ObserveIssueLatency(time.Since(start).Seconds())
		}
	}()

	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing issuer identity"))
		return
	}

	req, ok := httputil.DecodeAndValidate[IssueRequest](w, r, h.logger)
	if !ok {
		return
	}
	subjectID, err := id.ParseSubjectID(req.SubjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	attrs := zk.AttributeSet{
		FullName:         req.FullName,
		BirthDate:        req.BirthDate,
		Jurisdiction:     req.Jurisdiction,
		DocumentID:       req.DocumentID,
		DocumentIssuedAt: req.DocumentIssuedAt,
	}
	result, err := h.credentials.Issue(ctx, id.IssuerID(principal.ID), subjectID, attrs, req.ExpiresAt)
	if err != nil {
		h.logger.WarnContext(ctx, "credential issuance failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if h.secrets != nil {
		if err := h.secrets.StoreSecrets(ctx, subjectID, attrs, result.Blinding, result.Credential.Commitment); err != nil {
			h.logger.ErrorContext(ctx, "failed to deposit proving secrets", "error", err)
			httputil.WriteError(w, err)
			return
		}
	}

	httputil.WriteJSON(w, http.StatusCreated, issueResponse{
		Credential: result.Credential,
		Blinding:   result.Blinding,
	})
}

type statusResponse struct {
	SubjectID          string             `json:"subject_id"`
	Status             models.Status      `json:"status,omitempty"`
	HasValidCredential bool               `json:"has_valid_credential"`
	Credential         *models.Credential `json:"credential,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subject"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, credential, err := h.credentials.Status(ctx, subjectID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusOK, statusResponse{
				SubjectID:          subjectID.String(),
				HasValidCredential: false,
			})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		SubjectID:          subjectID.String(),
		Status:             status,
		HasValidCredential: status == models.StatusActive,
		Credential:         credential,
	})
}

type revokeResponse struct {
	CredentialID string    `json:"credential_id"`
	Sequence     uint64    `json:"sequence"`
	Reason       string    `json:"reason"`
	RevokedAt    time.Time `json:"revoked_at"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing identity"))
		return
	}

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subject"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndValidate[RevokeRequest](w, r, h.logger)
	if !ok {
		return
	}

	// Only the issuer that registered the credential (or an admin) may
	// revoke it.
	if principal.Role != token.RoleAdmin {
		credential, err := h.credentials.Get(ctx, subjectID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if string(credential.IssuerID) != principal.ID {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "credential was registered by a different issuer"))
			return
		}
	}

	entry, err := h.credentials.Revoke(ctx, principal.ID, subjectID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "credential revocation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, revokeResponse{
		CredentialID: entry.CredentialID.String(),
		Sequence:     entry.Sequence,
		Reason:       entry.Reason,
		RevokedAt:    entry.RevokedAt,
	})
}
