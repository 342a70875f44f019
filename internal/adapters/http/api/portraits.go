package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Portrait is the URL a consumer should load for a driver.
type Portrait struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder"`
}

// PortraitDependencies defines what the portrait endpoints need.
type PortraitDependencies interface {
	Portrait(ctx context.Context, id string) Portrait
	ReportPortraitFailure(ctx context.Context, id, url string) Portrait
	ForgetPortrait(ctx context.Context, id string)
	ClearPortraits(ctx context.Context)
}

// PortraitHandler handles portrait requests.
type PortraitHandler struct {
	deps PortraitDependencies
}

// NewPortraitHandler creates a new portrait handler.
func NewPortraitHandler(deps PortraitDependencies) *PortraitHandler {
	return &PortraitHandler{deps: deps}
}

type failureRequest struct {
	URL string `json:"url"`
}

// HandleGet handles GET /portraits/{id} requests.
func (h *PortraitHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Portrait(r.Context(), r.PathValue("id")))
}

// HandleFailure handles POST /portraits/{id}/failures requests.
func (h *PortraitHandler) HandleFailure(w http.ResponseWriter, r *http.Request) {
	const op = "api.portrait_failure"
	var req failureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ReportPortraitFailure(r.Context(), r.PathValue("id"), req.URL))
}

// HandleForget handles DELETE /portraits/{id} requests.
func (h *PortraitHandler) HandleForget(w http.ResponseWriter, r *http.Request) {
	h.deps.ForgetPortrait(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear handles DELETE /portraits requests.
func (h *PortraitHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.deps.ClearPortraits(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
