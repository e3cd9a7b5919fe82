// Package handler exposes delegated proof generation over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/proof/models"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
	"zkkyc/pkg/platform/httputil"
)

// Service defines the proof operations the transport needs.
type Service interface {
	GenerateProof(ctx context.Context, subjectID id.SubjectID, requirements models.RequirementSet) (*models.ProofArtifact, error)
}

// Handler handles proof generation endpoints.
type Handler struct {
	logger *slog.Logger
	proofs Service
}

// New creates a proof Handler.
func New(proofs Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, proofs: proofs}
}

// Register registers the proof routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proofs/generate", h.handleGenerate)
}

// GenerateRequest asks for a proof over the subject's active credential.
type GenerateRequest struct {
	SubjectID    string                `json:"subject_id"`
	Requirements models.RequirementSet `json:"requirements"`
}

func (r *GenerateRequest) Validate() error {
	if r.SubjectID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	return r.Requirements.Validate()
}

type generateResponse struct {
	Proof           []byte          `json:"proof"`
	PublicSignals   []string        `json:"public_signals"`
	Nullifier       zk.Nullifier    `json:"nullifier"`
	Commitment      zk.Commitment   `json:"commitment"`
	RequirementHash zk.FieldElement `json:"requirement_hash"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[GenerateRequest](w, r, h.logger)
	if !ok {
		return
	}
	subjectID, err := id.ParseSubjectID(req.SubjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	artifact, err := h.proofs.GenerateProof(ctx, subjectID, req.Requirements)
	if err != nil {
		h.logger.WarnContext(ctx, "proof generation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, generateResponse{
		Proof:           artifact.Proof,
		PublicSignals:   artifact.PublicSignals,
		Nullifier:       artifact.Nullifier,
		Commitment:      artifact.Commitment,
		RequirementHash: artifact.RequirementHash,
	})
}
