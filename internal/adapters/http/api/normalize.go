package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
)

const maxPayloadBytes = 8 << 20

// sortDisplay is the ?sort= value that orders entries for display.
const sortDisplay = "display"

// NormalizeDependencies defines what the normalize endpoint needs.
type NormalizeDependencies interface {
	Normalize(ctx context.Context, payload []byte) ([]model.Entry, normalize.Report, error)
	SortForDisplay(entries []model.Entry) []model.Entry
}

// NormalizeHandler handles normalization requests.
type NormalizeHandler struct {
	deps NormalizeDependencies
}

// NewNormalizeHandler creates a new normalize handler.
func NewNormalizeHandler(deps NormalizeDependencies) *NormalizeHandler {
	return &NormalizeHandler{deps: deps}
}

type normalizeResponse struct {
	Entries []model.Entry    `json:"entries"`
	Report  normalize.Report `json:"report"`
}

// HandleNormalize handles POST /normalize requests.
func (h *NormalizeHandler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	const op = "api.normalize"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, report, err := h.deps.Normalize(r.Context(), body)
	if err != nil {
		if errors.Is(err, normalize.ErrMalformedPayload) {
			writeError(w, http.StatusBadRequest, "malformed_payload", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if r.URL.Query().Get("sort") == sortDisplay {
		entries = h.deps.SortForDisplay(entries)
	}
	writeJSON(w, http.StatusOK, normalizeResponse{Entries: entries, Report: report})
}
