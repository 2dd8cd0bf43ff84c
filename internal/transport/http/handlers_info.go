package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attestry/pkg/domain"
	"attestry/pkg/platform/httputil"
)

// IssuerInfoReader resolves issuer profile pointers.
type IssuerInfoReader interface {
	GetIssuerInfo(ctx context.Context, identity domain.IdentityID) (domain.ContentHash, error)
}

// EarnerInfoReader resolves earner profile pointers.
type EarnerInfoReader interface {
	GetEarnerInfo(ctx context.Context, identity domain.IdentityID) (domain.ContentHash, error)
}

// RoleReader resolves the dominant role of an identity.
type RoleReader interface {
	RoleOf(ctx context.Context, identity domain.IdentityID) (domain.Role, error)
}

// InfoHandler exposes the unrestricted read surface: issuer and earner
// pointers plus role lookups need no authentication.
type InfoHandler struct {
	issuers IssuerInfoReader
	earners EarnerInfoReader
	roles   RoleReader
}

func NewInfoHandler(issuers IssuerInfoReader, earners EarnerInfoReader, roles RoleReader) *InfoHandler {
	return &InfoHandler{issuers: issuers, earners: earners, roles: roles}
}

// Register mounts the public read routes.
func (h *InfoHandler) Register(r chi.Router) {
	r.Get("/issuers/{id}", h.handleIssuerInfo)
	r.Get("/earners/{id}", h.handleEarnerInfo)
	r.Get("/identities/{id}/role", h.handleRole)
}

type infoResponse struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
}

type roleResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (h *InfoHandler) handleIssuerInfo(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := h.issuers.GetIssuerInfo(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, infoResponse{ID: id.String(), ContentHash: hash.String()})
}

func (h *InfoHandler) handleEarnerInfo(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := h.earners.GetEarnerInfo(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, infoResponse{ID: id.String(), ContentHash: hash.String()})
}

func (h *InfoHandler) handleRole(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := h.roles.RoleOf(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roleResponse{ID: id.String(), Role: role.String()})
}
