package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/domain/model"
)

// RefreshTicket acknowledges a refresh request.
type RefreshTicket struct {
	JobID string
	// Duplicate is set when a refresh of the same feed was already in flight.
	Duplicate bool
}

// RefreshDependencies defines what the refresh endpoint needs.
type RefreshDependencies interface {
	// EnqueueRefresh schedules a refresh. Returns queue.ErrQueueFull on
	// backpressure and queue.ErrQueueClosed during shutdown.
	EnqueueRefresh(ctx context.Context, key model.FeedKey) (RefreshTicket, error)
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// refreshRequest mirrors the OpenAPI schema for POST /refresh.
type refreshRequest struct {
	Kind    model.FeedKind `json:"kind"`
	Season  int            `json:"season"`
	Round   int            `json:"round"`
	Circuit string         `json:"circuit"`
}

func (req refreshRequest) key() model.FeedKey {
	if req.Kind == model.FeedPredictions {
		return model.PredictionsKey(req.Circuit)
	}
	return model.FeedKey{Kind: req.Kind, Season: req.Season, Round: req.Round}
}

type refreshResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandleRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	key := req.key()
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ticket, err := h.deps.EnqueueRefresh(r.Context(), key)
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	case errors.Is(err, queue.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	status := "accepted"
	if ticket.Duplicate {
		status = "duplicate"
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: status, JobID: ticket.JobID, Duplicate: ticket.Duplicate})
}
