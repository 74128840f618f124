package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/decimate"
	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// ErrInvalidRange is returned when a query's start is after its end.
// Caller error, no retry.
var ErrInvalidRange = errors.New("invalid range: start after end")

// Spec describes one historical request. It is consumed once and never
// mutated.
type Spec struct {
	ObjectID telemetry.ObjectIdentifier
	Start    time.Time
	End      time.Time
	Strategy decimate.Strategy
	SizeHint int
}

// Result is an ordered, finite point sequence plus result metadata. A
// query either returns a complete Result or a typed error, never a
// partial result silently missing samples.
type Result struct {
	Points   []telemetry.Point `json:"points"`
	Count    int               `json:"count"`
	Strategy decimate.Strategy `json:"strategy"`
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
}

// Executor answers range queries against the sample store with
// deterministic decimation.
type Executor struct {
	store storage.Store
}

// NewExecutor creates a query executor
func NewExecutor(store storage.Store) *Executor {
	return &Executor{store: store}
}

// Execute runs one query. Errors: ErrInvalidRange (start > end),
// decimate.ErrEmptyRange (Latest over no data), storage.ErrUnavailable
// (transient store failure, wrapped verbatim).
func (e *Executor) Execute(ctx context.Context, spec Spec) (*Result, error) {
	if err := spec.ObjectID.Validate(); err != nil {
		return nil, err
	}
	if spec.Start.After(spec.End) {
		return nil, ErrInvalidRange
	}

	samples, err := e.store.Range(ctx, spec.ObjectID, spec.Start, spec.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	reduced, err := decimate.Decimate(samples, spec.Strategy, spec.SizeHint)
	if err != nil {
		return nil, err
	}

	points := make([]telemetry.Point, len(reduced))
	for i, s := range reduced {
		points[i] = s.Point()
	}

	return &Result{
		Points:   points,
		Count:    len(points),
		Strategy: spec.Strategy,
		Start:    spec.Start,
		End:      spec.End,
	}, nil
}
