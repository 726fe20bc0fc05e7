package handler

import (
	"net/http"

	"github.com/timetrack/timeentries/internal/handler/dto"
)

// ConfigHandler serves the configuration document browser clients load at startup.
type ConfigHandler struct {
	apiEndpoint string
}

// NewConfigHandler creates a new ConfigHandler. With an empty endpoint the
// handler is disabled and /config is routed like any entry id.
func NewConfigHandler(apiEndpoint string) *ConfigHandler {
	return &ConfigHandler{apiEndpoint: apiEndpoint}
}

// Enabled reports whether a document is configured.
func (h *ConfigHandler) Enabled() bool {
	return h != nil && h.apiEndpoint != ""
}

// Get handles GET /config requests.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ConfigResponse{APIEndpoint: h.apiEndpoint})
}
