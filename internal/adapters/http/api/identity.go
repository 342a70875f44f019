package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/pitwall/internal/domain/identity"
	"github.com/okian/pitwall/internal/domain/roster"
)

// IdentityDependencies defines what the identity endpoints need.
type IdentityDependencies interface {
	ResolveIdentity(ctx context.Context, name, upstreamID string) (roster.Driver, identity.Strategy)
	Roster(ctx context.Context) *roster.Roster
}

// IdentityHandler handles identity and roster requests.
type IdentityHandler struct {
	deps IdentityDependencies
}

// NewIdentityHandler creates a new identity handler.
func NewIdentityHandler(deps IdentityDependencies) *IdentityHandler {
	return &IdentityHandler{deps: deps}
}

type resolveResponse struct {
	Driver   roster.Driver     `json:"driver"`
	Strategy identity.Strategy `json:"strategy"`
}

type rosterResponse struct {
	Version string          `json:"version"`
	Drivers []roster.Driver `json:"drivers"`
}

// HandleResolve handles GET /resolve?name=...&upstream_id=... requests.
func (h *IdentityHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve"
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	upstreamID := strings.TrimSpace(r.URL.Query().Get("upstream_id"))
	if name == "" && upstreamID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	d, strategy := h.deps.ResolveIdentity(r.Context(), name, upstreamID)
	if !strategy.Resolved() {
		writeError(w, http.StatusNotFound, "unresolved", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Driver: d, Strategy: strategy})
}

// HandleRoster handles GET /roster requests.
func (h *IdentityHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	ros := h.deps.Roster(r.Context())
	writeJSON(w, http.StatusOK, rosterResponse{Version: ros.Version(), Drivers: ros.Drivers()})
}
