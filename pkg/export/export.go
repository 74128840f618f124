package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Exporter dumps one object's full-fidelity sample range to a writer.
type Exporter struct {
	store storage.Store
}

// NewExporter creates a new exporter
func NewExporter(store storage.Store) *Exporter {
	return &Exporter{store: store}
}

// Options configures one export
type Options struct {
	ObjectID telemetry.ObjectIdentifier
	Start    time.Time
	End      time.Time

	// Format: "json" or "csv"
	Format string
}

// Result contains stats about the export
type Result struct {
	SamplesExported int       `json:"samples_exported"`
	TimeRange       string    `json:"time_range"`
	Format          string    `json:"format"`
	ExportedAt      time.Time `json:"exported_at"`
}

// ToJSON writes the range as JSON with an export metadata envelope.
func (e *Exporter) ToJSON(ctx context.Context, w io.Writer, opts Options) (*Result, error) {
	samples, err := e.store.Range(ctx, opts.ObjectID, opts.Start, opts.End)
	if err != nil {
		return nil, fmt.Errorf("failed to read range: %w", err)
	}

	payload := struct {
		Metadata struct {
			Object     string    `json:"object"`
			ExportedAt time.Time `json:"exported_at"`
			StartTime  time.Time `json:"start_time"`
			EndTime    time.Time `json:"end_time"`
			Count      int       `json:"count"`
		} `json:"metadata"`
		Samples []telemetry.Sample `json:"samples"`
	}{Samples: samples}

	payload.Metadata.Object = opts.ObjectID.String()
	payload.Metadata.ExportedAt = time.Now()
	payload.Metadata.StartTime = opts.Start
	payload.Metadata.EndTime = opts.End
	payload.Metadata.Count = len(samples)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	return e.result(len(samples), opts, "json"), nil
}

// ToCSV writes the range as object,timestamp,kind,value rows.
func (e *Exporter) ToCSV(ctx context.Context, w io.Writer, opts Options) (*Result, error) {
	samples, err := e.store.Range(ctx, opts.ObjectID, opts.Start, opts.End)
	if err != nil {
		return nil, fmt.Errorf("failed to read range: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"object", "timestamp", "kind", "value"}); err != nil {
		return nil, err
	}
	for _, s := range samples {
		row := []string{
			s.ObjectID.String(),
			strconv.FormatInt(s.Timestamp.UnixMilli(), 10),
			string(s.Value.Kind),
			s.Value.String(),
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}

	return e.result(len(samples), opts, "csv"), nil
}

func (e *Exporter) result(count int, opts Options, format string) *Result {
	return &Result{
		SamplesExported: count,
		TimeRange:       fmt.Sprintf("%s to %s", opts.Start.Format(time.RFC3339), opts.End.Format(time.RFC3339)),
		Format:          format,
		ExportedAt:      time.Now(),
	}
}
