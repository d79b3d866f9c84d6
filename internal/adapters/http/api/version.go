package api

import (
	"net/http"

	"github.com/okian/profrate/internal/domain/types"
)

// VersionHandler reports the build version.
type VersionHandler struct {
	version string
}

// NewVersionHandler creates a new version handler.
func NewVersionHandler(version string) *VersionHandler {
	return &VersionHandler{version: version}
}

// HandleVersion handles GET /version.
func (h *VersionHandler) HandleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.Version{Version: h.version})
}
