package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	issuermodels "attestry/internal/issuer/models"
	"attestry/internal/platform/middleware"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
	"attestry/pkg/requestcontext"
)

// IssuerService defines the issuer-directory operations the admin API exposes.
type IssuerService interface {
	CreateIssuer(ctx context.Context, identity domain.IdentityID, hash domain.ContentHash) (*issuermodels.Record, error)
	RemoveIssuer(ctx context.Context, identity domain.IdentityID) error
	UpdateIssuer(ctx context.Context, identity domain.IdentityID, hash domain.ContentHash) (*issuermodels.Record, error)
	ListIssuers(ctx context.Context) ([]domain.IdentityID, error)
}

// IssuerHandler exposes issuer management under /admin/issuers.
type IssuerHandler struct {
	issuers        IssuerService
	logger         *slog.Logger
	validator      middleware.TokenValidator
	adminTokenHash string
}

func NewIssuerHandler(issuers IssuerService, logger *slog.Logger, validator middleware.TokenValidator, adminTokenHash string) *IssuerHandler {
	return &IssuerHandler{
		issuers:        issuers,
		logger:         logger,
		validator:      validator,
		adminTokenHash: adminTokenHash,
	}
}

// Register mounts the admin issuer routes.
func (h *IssuerHandler) Register(r chi.Router) {
	r.Route("/admin/issuers", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Use(middleware.RequireAdminToken(h.adminTokenHash, h.logger))
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleRemove)
	})
}

type createIssuerRequest struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
}

type updateIssuerRequest struct {
	ContentHash string `json:"content_hash"`
}

func (h *IssuerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	id, err := domain.ParseIdentityID(req.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := domain.ParseContentHash(req.ContentHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.issuers.CreateIssuer(ctx, id, hash)
	if err != nil {
		h.logger.WarnContext(ctx, "create issuer failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *IssuerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.issuers.ListIssuers(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"issuers": out})
}

func (h *IssuerHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hash, err := domain.ParseContentHash(req.ContentHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.issuers.UpdateIssuer(ctx, id, hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *IssuerHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.issuers.RemoveIssuer(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "remove issuer failed",
			"request_id", requestcontext.RequestID(ctx),
			"issuer_id", id.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
