package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	earnermodels "attestry/internal/earner/models"
	"attestry/internal/platform/middleware"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
)

// EarnerService defines earner registration and self-service operations.
type EarnerService interface {
	Register(ctx context.Context, hash domain.ContentHash) (*earnermodels.Record, error)
	UpdateInfo(ctx context.Context, hash domain.ContentHash) (*earnermodels.Record, error)
}

// EarnerHandler exposes earner self-registration and profile updates. Both
// routes act on the authenticated caller; there is no admin surface here.
type EarnerHandler struct {
	earners   EarnerService
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func NewEarnerHandler(earners EarnerService, logger *slog.Logger, validator middleware.TokenValidator) *EarnerHandler {
	return &EarnerHandler{
		earners:   earners,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the earner routes. The routes are registered flat so the
// public GET /earners/{id} info route can share the prefix.
func (h *EarnerHandler) Register(r chi.Router) {
	auth := middleware.RequireAuth(h.validator, h.logger)
	r.With(auth).Post("/earners", h.handleRegister)
	r.With(auth).Put("/earners/me", h.handleUpdateInfo)
}

type earnerRequest struct {
	ContentHash string `json:"content_hash"`
}

func (h *EarnerHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req earnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hash, err := domain.ParseContentHash(req.ContentHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.earners.Register(ctx, hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *EarnerHandler) handleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req earnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hash, err := domain.ParseContentHash(req.ContentHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.earners.UpdateInfo(ctx, hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}
