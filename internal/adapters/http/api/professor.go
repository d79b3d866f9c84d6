package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/profrate/internal/domain/types"
	"github.com/okian/profrate/pkg/logger"
)

// ProfessorHandler serves the /r0/professor routes.
type ProfessorHandler struct {
	deps   Dependencies
	logger logger.Logger

	search   http.HandlerFunc
	overview http.HandlerFunc
	comments http.HandlerFunc
}

// NewProfessorHandler creates a new professor handler.
func NewProfessorHandler(deps Dependencies, log logger.Logger) *ProfessorHandler {
	h := &ProfessorHandler{deps: deps, logger: log}
	h.search = MetricsMiddleware(h.HandleSearch, "search")
	h.overview = MetricsMiddleware(h.HandleOverview, "overview")
	h.comments = MetricsMiddleware(h.HandleComments, "comments")
	return h
}

// Dispatch routes GET /r0/professor/{first}/{second}:
//
//	search/{name}    -> HandleSearch
//	{name}/overview  -> HandleOverview
//	{name}/comments  -> HandleComments
func (h *ProfessorHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "search":
		r.SetPathValue("name", second)
		h.search(w, r)
	case second == "overview":
		r.SetPathValue("name", first)
		h.overview(w, r)
	case second == "comments":
		r.SetPathValue("name", first)
		h.comments(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", nil)
	}
}

// HandleSearch handles GET /r0/professor/search/{name}.
func (h *ProfessorHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	name, ok := h.name(w, r)
	if !ok {
		return
	}
	ps, err := h.deps.SearchProfessors(r.Context(), name)
	if err != nil {
		h.logger.Warn(r.Context(), "professor search failed", logger.String("name", name), logger.Error(err))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewCandidates(ps))
}

// HandleOverview handles GET /r0/professor/{name}/overview.
func (h *ProfessorHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	name, ok := h.name(w, r)
	if !ok {
		return
	}
	p, err := h.deps.ProfessorOverview(r.Context(), name)
	if err != nil {
		h.logger.Warn(r.Context(), "professor overview failed", logger.String("name", name), logger.Error(err))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewOverview(p))
}

// HandleComments handles GET /r0/professor/{name}/comments.
func (h *ProfessorHandler) HandleComments(w http.ResponseWriter, r *http.Request) {
	h.writeComments(r.Context(), w, r.PathValue("name"), "")
}

// HandleCourseComments handles GET /r0/professor/{name}/course/{course}/comments.
func (h *ProfessorHandler) HandleCourseComments(w http.ResponseWriter, r *http.Request) {
	h.writeComments(r.Context(), w, r.PathValue("name"), r.PathValue("course"))
}

// writeComments always answers 200; an upstream failure reads as no comments.
func (h *ProfessorHandler) writeComments(ctx context.Context, w http.ResponseWriter, name, course string) {
	if strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusOK, types.NewComments(nil))
		return
	}
	writeJSON(w, http.StatusOK, types.NewComments(h.deps.ProfessorComments(ctx, name, course)))
}

func (h *ProfessorHandler) name(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return "", false
	}
	return name, true
}
