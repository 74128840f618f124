package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/decimate"
	"github.com/QuinntyneBrown/openmct/pkg/httpx"
	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Handler exposes the query executor over HTTP
type Handler struct {
	executor *Executor
}

// NewHandler creates a new query handler
func NewHandler(store storage.Store) *Handler {
	return &Handler{executor: NewExecutor(store)}
}

// HandleQuery handles GET /v1/query
// Query params:
//   - object: object identifier, "namespace:key" (required)
//   - start, end: RFC3339 timestamps (default: last hour)
//   - strategy: all | latest | minmax | fixedsize (default: all)
//   - size: bucket count / target point count (default from config)
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	id, err := telemetry.ParseIdentifier(params.Get("object"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	strategy, err := decimate.ParseStrategy(params.Get("strategy"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	start, err := parseTime(params.Get("start"), now.Add(-config.QueryDefaultWindow))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
		return
	}
	end, err := parseTime(params.Get("end"), now)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid end: %w", err))
		return
	}

	sizeHint := config.QueryDefaultSizeHint
	if raw := params.Get("size"); raw != "" {
		sizeHint, err = strconv.Atoi(raw)
		if err != nil || sizeHint < 1 {
			httpx.RespondErrorString(w, http.StatusBadRequest, fmt.Sprintf("invalid size %q", raw))
			return
		}
		if sizeHint > config.QueryMaxSizeHint {
			sizeHint = config.QueryMaxSizeHint
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.QueryTimeout)
	defer cancel()

	result, err := h.executor.Execute(ctx, Spec{
		ObjectID: id,
		Start:    start,
		End:      end,
		Strategy: strategy,
		SizeHint: sizeHint,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRange):
			httpx.RespondError(w, http.StatusBadRequest, err)
		case errors.Is(err, decimate.ErrEmptyRange):
			httpx.RespondError(w, http.StatusNotFound, err)
		case errors.Is(err, storage.ErrUnavailable):
			httpx.RespondError(w, http.StatusServiceUnavailable, err)
		default:
			httpx.RespondError(w, http.StatusInternalServerError, err)
		}
		return
	}

	httpx.RespondJSON(w, http.StatusOK, result)
}

// parseTime accepts RFC3339 or unix milliseconds, falling back to def
// when empty.
func parseTime(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC3339 or unix millis, got %q", raw)
	}
	return time.UnixMilli(millis), nil
}
