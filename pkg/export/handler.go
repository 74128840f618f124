package export

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/httpx"
	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Handler handles export HTTP endpoints
type Handler struct {
	exporter *Exporter
}

// NewHandler creates a new export handler
func NewHandler(store storage.Store) *Handler {
	return &Handler{exporter: NewExporter(store)}
}

// HandleExport handles GET /v1/export
// Query params:
//   - object: object identifier "namespace:key" (required)
//   - format: "json" or "csv" (default: json)
//   - start, end: RFC3339 timestamps (default: last 24h)
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	id, err := telemetry.ParseIdentifier(params.Get("object"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	format := params.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		httpx.RespondErrorString(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	now := time.Now()
	start, end := now.Add(-config.DefaultExportWindow), now
	if raw := params.Get("start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
			return
		}
	}
	if raw := params.Get("end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid end: %w", err))
			return
		}
	}
	if end.Sub(start) > config.MaxExportWindow {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			fmt.Sprintf("export window exceeds maximum of %v", config.MaxExportWindow))
		return
	}

	opts := Options{ObjectID: id, Start: start, End: end, Format: format}
	filename := fmt.Sprintf("telemetry-%s-%s.%s", id.Namespace, id.Key, format)

	var result *Result
	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		result, err = h.exporter.ToJSON(r.Context(), w, opts)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		result, err = h.exporter.ToCSV(r.Context(), w, opts)
	}
	if err != nil {
		// Headers are gone by now; all we can do is log.
		log.Printf("Export failed for %s: %v", id, err)
		return
	}

	log.Printf("Exported %d sample(s) for %s as %s", result.SamplesExported, id, format)
}
