package api

import (
	"net/http"

	"github.com/okian/profrate/internal/domain/types"
	"github.com/okian/profrate/pkg/logger"
)

// TokenHandler exposes the cached review-site GraphQL token.
type TokenHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(deps Dependencies, log logger.Logger) *TokenHandler {
	return &TokenHandler{deps: deps, logger: log}
}

// HandleToken handles GET /internal/rmp_graphql_token.
func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.deps.GraphQLToken(r.Context())
	if err != nil {
		h.logger.Warn(r.Context(), "graphql token unavailable", logger.Error(err))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Token{Token: token})
}
