// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/profrate/internal/domain/model"
	"github.com/okian/profrate/internal/domain/types"
	"github.com/okian/profrate/pkg/logger"
)

// Version is reported by GET /version. It is overridden at link time.
var Version = "0.0.1"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GraphQLToken(ctx context.Context) (string, error)
	ProfessorOverview(ctx context.Context, name string) (model.Professor, error)
	ProfessorComments(ctx context.Context, name, course string) []model.Rating
	SearchProfessors(ctx context.Context, name string) ([]model.Professor, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	versionHandler   *VersionHandler
	professorHandler *ProfessorHandler
	tokenHandler     *TokenHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		versionHandler:   NewVersionHandler(Version),
		professorHandler: NewProfessorHandler(deps, log),
		tokenHandler:     NewTokenHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /version", MetricsMiddleware(s.versionHandler.HandleVersion, "version"))
	mux.HandleFunc("GET /internal/rmp_graphql_token", MetricsMiddleware(s.tokenHandler.HandleToken, "token"))

	// /r0/professor/search/{name} overlaps /r0/professor/{name}/overview, so
	// two-segment professor routes share one pattern and dispatch by segment.
	mux.HandleFunc("GET /r0/professor/{first}/{second}", s.professorHandler.Dispatch)
	mux.HandleFunc("GET /r0/professor/{name}/course/{course}/comments",
		MetricsMiddleware(s.professorHandler.HandleCourseComments, "course_comments"))
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

// writeUpstreamError writes the review-site error payload. The body is the
// same for every failure; the status tells not-found from upstream trouble.
func writeUpstreamError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, types.UpstreamError)
}
