package ingest

import (
	"context"
	"fmt"

	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/stream"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// MaxSamplesPerBatch bounds a single ingest call.
const MaxSamplesPerBatch = 1000

// InvalidSampleError rejects a whole batch, identifying the offending
// entry. Nothing from the batch is stored or published.
type InvalidSampleError struct {
	Index  int
	Reason string
}

func (e *InvalidSampleError) Error() string {
	return fmt.Sprintf("invalid sample at index %d: %s", e.Index, e.Reason)
}

// Summary reports the outcome of an ingest call.
type Summary struct {
	// Accepted is how many samples were durably committed. On success
	// it equals the batch size; on a store failure partway it is the
	// count committed before the failure.
	Accepted int `json:"accepted"`

	// RejectedAtIndex is set when validation rejected the batch.
	RejectedAtIndex *int `json:"rejected_at_index,omitempty"`
}

// Pipeline validates incoming batches, writes them to the store, then
// publishes them to the broadcast hub. Store-then-publish order is what
// makes a live sample always retrievable by a subsequent historical
// query.
type Pipeline struct {
	store storage.Store
	hub   *stream.Hub
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(store storage.Store, hub *stream.Hub) *Pipeline {
	return &Pipeline{store: store, hub: hub}
}

// Ingest processes one ordered batch atomically: any malformed entry
// rejects the whole batch before anything touches the store. On success
// every sample is appended in order and then published in the same order.
// If the store fails partway, samples from the failed point on are not
// published and the summary reports the committed count.
func (p *Pipeline) Ingest(ctx context.Context, batch []telemetry.Sample) (Summary, error) {
	if len(batch) > MaxSamplesPerBatch {
		idx := MaxSamplesPerBatch
		return Summary{RejectedAtIndex: &idx},
			&InvalidSampleError{Index: idx, Reason: fmt.Sprintf("batch exceeds %d samples", MaxSamplesPerBatch)}
	}

	// Validate everything before storing anything.
	for i, sample := range batch {
		if err := validateSample(sample); err != nil {
			idx := i
			return Summary{RejectedAtIndex: &idx}, &InvalidSampleError{Index: i, Reason: err.Error()}
		}
	}

	// Append one sample at a time so a failure has a well-defined
	// committed prefix.
	committed := 0
	var appendErr error
	for _, sample := range batch {
		if err := p.store.Append(ctx, sample); err != nil {
			appendErr = fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
			break
		}
		committed++
	}

	// Publish only what was committed, in original batch order.
	for _, sample := range batch[:committed] {
		p.hub.Publish(sample)
	}

	return Summary{Accepted: committed}, appendErr
}

// validateSample checks identifier shape and, when metadata declares a
// type, that the value kind matches it. Without a declared type any
// scalar is accepted.
func validateSample(s telemetry.Sample) error {
	if err := s.ObjectID.Validate(); err != nil {
		return err
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("sample has no timestamp")
	}

	switch s.Value.Kind {
	case telemetry.KindFloat, telemetry.KindString, telemetry.KindBool:
	default:
		return fmt.Errorf("sample value has unknown kind %q", s.Value.Kind)
	}

	if declared, ok := s.Metadata["type"]; ok {
		if telemetry.ValueKind(declared) != s.Value.Kind {
			return fmt.Errorf("value kind %q does not match declared type %q", s.Value.Kind, declared)
		}
	}
	return nil
}
