package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/model"
)

// FeedDependencies defines what the stored-feed endpoints need.
type FeedDependencies interface {
	Feed(ctx context.Context, key model.FeedKey) (repository.Snapshot, error)
	SortForDisplay(entries []model.Entry) []model.Entry
}

// FeedHandler serves the current canonical list of a feed.
type FeedHandler struct {
	deps FeedDependencies
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(deps FeedDependencies) *FeedHandler {
	return &FeedHandler{deps: deps}
}

// HandleResults handles GET /results/{season}/{round} requests.
func (h *FeedHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.results"
	season, err := strconv.Atoi(r.PathValue("season"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	round, err := strconv.Atoi(r.PathValue("round"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.serve(w, r, op, model.ResultsKey(season, round))
}

// HandlePredictions handles GET /predictions/{circuit} requests.
func (h *FeedHandler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.predictions", model.PredictionsKey(r.PathValue("circuit")))
}

func (h *FeedHandler) serve(w http.ResponseWriter, r *http.Request, op string, key model.FeedKey) {
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.deps.Feed(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		if errors.Is(err, repository.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if r.URL.Query().Get("sort") == sortDisplay {
		snap.Entries = h.deps.SortForDisplay(snap.Entries)
	}
	writeJSON(w, http.StatusOK, snap)
}
