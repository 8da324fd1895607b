package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
)

// ResetFunc restores the fixture data
type ResetFunc func(ctx context.Context) error

// SystemHandler serves health, version and test-control routes
type SystemHandler struct {
	reset  ResetFunc
	logger arbor.ILogger
}

// NewSystemHandler creates a system handler
func NewSystemHandler(reset ResetFunc, logger arbor.ILogger) *SystemHandler {
	return &SystemHandler{reset: reset, logger: logger}
}

// HealthHandler handles GET /health
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionHandler handles GET /version
func (h *SystemHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, common.CurrentBuild())
}

// ResetHandler handles POST /__mock/reset
func (h *SystemHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Fixture reset failed")
		WriteInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
