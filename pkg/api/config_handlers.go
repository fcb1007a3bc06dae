// Configuration endpoints. The web client loads the relay address and poll
// interval from GET /api/config at session start; POST merges a partial
// document into the running config and persists it.
package api

import (
	"io"
	"net/http"

	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/logger"
)

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.currentConfig())

	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read body"})
			return
		}

		merged, err := s.currentConfig().Merge(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		if s.configPath != "" {
			if err := config.SaveConfig(s.configPath, merged); err != nil {
				logger.ErrorCF("api", "Failed to persist config", map[string]any{
					"path":  s.configPath,
					"error": err.Error(),
				})
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "failed to persist config",
				})
				return
			}
		}

		s.mu.Lock()
		s.config = merged
		s.mu.Unlock()

		logger.InfoC("api", "Configuration updated")
		writeJSON(w, http.StatusOK, merged)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "unsupported method"})
	}
}
