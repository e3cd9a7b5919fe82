// Package handler exposes proof verification over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/platform/token"
	"zkkyc/internal/verification/service"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
	"zkkyc/pkg/platform/httputil"
)

// Verifier defines the verification operation the transport needs.
type Verifier interface {
	Verify(ctx context.Context, verifierID id.VerifierID, req service.Request) (*service.Result, error)
}

// Handler handles proof verification endpoints.
type Handler struct {
	logger       *slog.Logger
	verification Verifier
}

// New creates a verification Handler.
func New(verification Verifier, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, verification: verification}
}

// Register registers the verification routes. Callers need the verifier role;
// the verifier identity recorded in the ledger comes from the bearer token.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequireRole(token.RoleVerifier)).Post("/proofs/verify", h.handleVerify)
}

// VerifyRequest is a proof submission.
type VerifyRequest struct {
	Proof         []byte        `json:"proof"`
	PublicSignals []string      `json:"public_signals"`
	Nullifier     zk.Nullifier  `json:"nullifier"`
	Commitment    zk.Commitment `json:"commitment"`
}

func (r *VerifyRequest) Validate() error {
	if len(r.Proof) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "proof is required")
	}
	if len(r.PublicSignals) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "public_signals are required")
	}
	if r.Nullifier == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "nullifier is required")
	}
	if r.Commitment == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "commitment is required")
	}
	return nil
}

type verifyResponse struct {
	Verified        bool            `json:"verified"`
	Reason          string          `json:"reason,omitempty"`
	VerifierID      string          `json:"verifier_id,omitempty"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty"`
	Nullifier       zk.Nullifier    `json:"nullifier,omitempty"`
	RequirementHash zk.FieldElement `json:"requirement_hash,omitempty"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing verifier identity"))
		return
	}

	req, ok := httputil.DecodeAndValidate[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.verification.Verify(ctx, id.VerifierID(principal.ID), service.Request{
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
		Nullifier:     req.Nullifier,
		Commitment:    req.Commitment,
	})
	if err != nil {
		code := dErrors.CodeOf(err)
		switch code {
		case dErrors.CodeProofReplay, dErrors.CodeInvalidProof, dErrors.CodeCredentialInvalid, dErrors.CodeNotFound:
			// Protocol rejections keep the {verified, reason} contract;
			// the status code still signals the category.
			httputil.WriteJSON(w, httputil.DomainCodeToHTTPStatus(code), verifyResponse{
				Verified: false,
				Reason:   string(code),
			})
		default:
			h.logger.ErrorContext(ctx, "verification failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		Verified:        true,
		VerifierID:      result.VerifierID.String(),
		VerifiedAt:      &result.VerifiedAt,
		Nullifier:       result.Nullifier,
		RequirementHash: result.RequirementHash,
	})
}
