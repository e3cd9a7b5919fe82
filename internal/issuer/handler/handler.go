// Package handler exposes the issuer registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zkkyc/internal/issuer/models"
	"zkkyc/internal/platform/middleware"
	id "zkkyc/pkg/domain"
	dErrors "zkkyc/pkg/domain-errors"
	"zkkyc/pkg/platform/httputil"
)

// Service defines the registry operations the transport needs.
type Service interface {
	Add(ctx context.Context, actor string, issuerID id.IssuerID, name string) (*models.Issuer, error)
	Remove(ctx context.Context, actor string, issuerID id.IssuerID) (*models.Issuer, error)
	Get(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
}

// Handler handles issuer registry endpoints.
type Handler struct {
	logger  *slog.Logger
	issuers Service
}

// New creates an issuer Handler.
func New(issuers Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, issuers: issuers}
}

// RegisterAdmin registers the admin-only write routes. The router must gate
// these behind the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/issuers", h.handleAdd)
	r.Delete("/admin/issuers/{id}", h.handleRemove)
}

// Register registers the public read routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/issuers", h.handleList)
	r.Get("/issuers/{id}", h.handleGet)
}

// AddRequest registers an issuer as trusted.
type AddRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r *AddRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	return nil
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[AddRequest](w, r, h.logger)
	if !ok {
		return
	}

	issuer, err := h.issuers.Add(ctx, actorFromContext(ctx), id.IssuerID(req.ID), req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to add issuer",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issuer)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer, err := h.issuers.Remove(ctx, actorFromContext(ctx), id.IssuerID(chi.URLParam(r, "id")))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to remove issuer",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issuer)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	issuer, err := h.issuers.Get(r.Context(), id.IssuerID(chi.URLParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issuer)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	issuers, err := h.issuers.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issuers)
}

func actorFromContext(ctx context.Context) string {
	if principal := middleware.GetPrincipal(ctx); principal != nil {
		return principal.ID
	}
	return "admin"
}
