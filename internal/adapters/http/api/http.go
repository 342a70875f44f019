// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	NormalizeDependencies
	IdentityDependencies
	PortraitDependencies
	FeedDependencies
	RefreshDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	normalizeHandler *NormalizeHandler
	identityHandler  *IdentityHandler
	portraitHandler  *PortraitHandler
	feedHandler      *FeedHandler
	refreshHandler   *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		normalizeHandler: NewNormalizeHandler(deps),
		identityHandler:  NewIdentityHandler(deps),
		portraitHandler:  NewPortraitHandler(deps),
		feedHandler:      NewFeedHandler(deps),
		refreshHandler:   NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /normalize", MetricsMiddleware(s.normalizeHandler.HandleNormalize, "normalize"))
	mux.HandleFunc("GET /resolve", MetricsMiddleware(s.identityHandler.HandleResolve, "resolve"))
	mux.HandleFunc("GET /roster", MetricsMiddleware(s.identityHandler.HandleRoster, "roster"))

	mux.HandleFunc("GET /portraits/{id}", MetricsMiddleware(s.portraitHandler.HandleGet, "portraits"))
	mux.HandleFunc("POST /portraits/{id}/failures", MetricsMiddleware(s.portraitHandler.HandleFailure, "portrait_failures"))
	mux.HandleFunc("DELETE /portraits/{id}", MetricsMiddleware(s.portraitHandler.HandleForget, "portraits"))
	mux.HandleFunc("DELETE /portraits", MetricsMiddleware(s.portraitHandler.HandleClear, "portraits"))

	mux.HandleFunc("GET /results/{season}/{round}", MetricsMiddleware(s.feedHandler.HandleResults, "results"))
	mux.HandleFunc("GET /predictions/{circuit}", MetricsMiddleware(s.feedHandler.HandlePredictions, "predictions"))
	mux.HandleFunc("POST /refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
