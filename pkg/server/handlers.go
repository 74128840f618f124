package server

import (
	"context"
	"net/http"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/httpx"
	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/stream"
)

// HandleHealth returns service health status
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(startTime).String(),
	})
}

// StatsResponse aggregates store, hub and session counters.
type StatsResponse struct {
	Storage  *storage.Stats  `json:"storage"`
	Hub      stream.HubStats `json:"hub"`
	Sessions int             `json:"sessions"`
}

// HandleStats returns engine statistics
func (e *Engine) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.IngestStatsTimeout)
	defer cancel()

	stats, err := e.Store.Stats(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, StatsResponse{
		Storage:  stats,
		Hub:      e.Hub.Stats(),
		Sessions: e.Sessions.Count(),
	})
}
