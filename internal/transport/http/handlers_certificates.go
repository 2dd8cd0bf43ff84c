package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	issuanceservice "attestry/internal/issuance/service"
	"attestry/internal/platform/middleware"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
	"attestry/pkg/requestcontext"
)

// CertificateService defines the certificate lifecycle operations.
type CertificateService interface {
	Issue(ctx context.Context, recipient domain.IdentityID, hash domain.ContentHash) (domain.CertificateID, error)
	Revoke(ctx context.Context, id domain.CertificateID, reason string) error
	Transfer(ctx context.Context, id domain.CertificateID, to domain.IdentityID) error
	ListIssued(ctx context.Context) ([]domain.CertificateID, error)
	OwnedCertificates(ctx context.Context) ([]issuanceservice.Certificate, error)
	OwnerOf(ctx context.Context, id domain.CertificateID) (domain.IdentityID, error)
}

// CertificateHandler exposes the certificate lifecycle under /certificates.
type CertificateHandler struct {
	certificates CertificateService
	logger       *slog.Logger
	validator    middleware.TokenValidator
}

func NewCertificateHandler(certificates CertificateService, logger *slog.Logger, validator middleware.TokenValidator) *CertificateHandler {
	return &CertificateHandler{
		certificates: certificates,
		logger:       logger,
		validator:    validator,
	}
}

// Register mounts the certificate routes.
func (h *CertificateHandler) Register(r chi.Router) {
	r.Route("/certificates", func(r chi.Router) {
		r.Get("/{id}/owner", h.handleOwner)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Post("/", h.handleIssue)
			r.Get("/issued", h.handleListIssued)
			r.Delete("/{id}", h.handleRevoke)
			r.Post("/{id}/transfer", h.handleTransfer)
		})
	})
	r.Route("/me/certificates", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/", h.handleOwned)
	})
}

type issueRequest struct {
	Recipient   string `json:"recipient"`
	ContentHash string `json:"content_hash"`
}

type issueResponse struct {
	ID string `json:"id"`
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

type transferRequest struct {
	To string `json:"to"`
}

type ownerResponse struct {
	ID    string `json:"id"`
	Owner string `json:"owner,omitempty"`
}

func (h *CertificateHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	recipient, err := domain.ParseIdentityID(req.Recipient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := domain.ParseContentHash(req.ContentHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, err := h.certificates.Issue(ctx, recipient, hash)
	if err != nil {
		h.logger.WarnContext(ctx, "issue certificate failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issueResponse{ID: id.String()})
}

func (h *CertificateHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req revokeRequest
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.certificates.Revoke(ctx, id, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CertificateHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	to, err := domain.ParseIdentityID(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.certificates.Transfer(ctx, id, to); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CertificateHandler) handleListIssued(w http.ResponseWriter, r *http.Request) {
	ids, err := h.certificates.ListIssued(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"certificates": out})
}

func (h *CertificateHandler) handleOwned(w http.ResponseWriter, r *http.Request) {
	owned, err := h.certificates.OwnedCertificates(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]issuanceservice.Certificate{"certificates": owned})
}

func (h *CertificateHandler) handleOwner(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	owner, err := h.certificates.OwnerOf(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := ownerResponse{ID: id.String()}
	if !owner.IsZero() {
		resp.Owner = owner.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
