package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/httpx"
	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Handler exposes the ingestion pipeline over HTTP
type Handler struct {
	pipeline *Pipeline
}

// NewHandler creates a new ingest handler
func NewHandler(pipeline *Pipeline) *Handler {
	return &Handler{pipeline: pipeline}
}

// IngestRequest represents the request payload
type IngestRequest struct {
	Samples []telemetry.Sample `json:"samples"`
}

// IngestResponse represents the response payload
type IngestResponse struct {
	Status  string  `json:"status"`
	Summary Summary `json:"summary"`
	Message string  `json:"message,omitempty"`
}

// HandleIngest handles the /v1/ingest endpoint
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.IngestTimeout)
	defer cancel()

	summary, err := h.pipeline.Ingest(ctx, req.Samples)
	if err != nil {
		var invalid *InvalidSampleError
		switch {
		case errors.As(err, &invalid):
			httpx.RespondJSON(w, http.StatusBadRequest, IngestResponse{
				Status:  "rejected",
				Summary: summary,
				Message: invalid.Error(),
			})
		case errors.Is(err, storage.ErrUnavailable):
			httpx.RespondJSON(w, http.StatusServiceUnavailable, IngestResponse{
				Status:  "partial",
				Summary: summary,
				Message: err.Error(),
			})
		default:
			httpx.RespondError(w, http.StatusInternalServerError, err)
		}
		return
	}

	httpx.RespondJSON(w, http.StatusOK, IngestResponse{
		Status:  "success",
		Summary: summary,
	})
}
