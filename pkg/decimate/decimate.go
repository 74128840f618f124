// Package decimate reduces ordered sample sequences to bounded point
// counts. Every strategy is a pure function of its input, so results are
// deterministic and safe for callers to cache.
package decimate

import (
	"errors"
	"fmt"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Strategy selects how a raw sequence is reduced
type Strategy string

const (
	// All passes the sequence through unchanged; used for small ranges
	// and export.
	All Strategy = "all"

	// Latest keeps only the single most recent sample.
	Latest Strategy = "latest"

	// MinMax partitions the sequence's time span into equal-width
	// buckets and keeps each non-empty bucket's min and max sample,
	// preserving visual extremes under aggressive downsampling.
	MinMax Strategy = "minmax"

	// FixedSize keeps every ceil(count/n)-th sample plus the first and
	// last, bounding output to about n points.
	FixedSize Strategy = "fixedsize"
)

// ErrEmptyRange is returned by Latest when the sequence has no samples.
var ErrEmptyRange = errors.New("no samples in range")

// ParseStrategy converts the wire form of a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case All, Latest, MinMax, FixedSize:
		return Strategy(s), nil
	case "":
		return All, nil
	default:
		return "", fmt.Errorf("unknown decimation strategy %q", s)
	}
}

// Decimate reduces samples per the strategy. The input must be sorted
// ascending by timestamp (the store contract guarantees this). sizeHint is
// the bucket count for MinMax and the target point count for FixedSize;
// values below 1 are treated as 1.
func Decimate(samples []telemetry.Sample, strategy Strategy, sizeHint int) ([]telemetry.Sample, error) {
	if sizeHint < 1 {
		sizeHint = 1
	}

	switch strategy {
	case All:
		return samples, nil
	case Latest:
		return latest(samples)
	case MinMax:
		return minMax(samples, sizeHint), nil
	case FixedSize:
		return fixedSize(samples, sizeHint), nil
	default:
		return nil, fmt.Errorf("unknown decimation strategy %q", strategy)
	}
}

func latest(samples []telemetry.Sample) ([]telemetry.Sample, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyRange
	}
	return samples[len(samples)-1:], nil
}

func minMax(samples []telemetry.Sample, buckets int) []telemetry.Sample {
	if len(samples) <= 2 {
		return samples
	}

	first := samples[0].Timestamp
	last := samples[len(samples)-1].Timestamp
	span := last.Sub(first)
	if span <= 0 {
		// All samples share one timestamp-width bucket
		buckets = 1
	}

	width := span / time.Duration(buckets)

	out := make([]telemetry.Sample, 0, 2*buckets)
	i := 0
	for b := 0; b < buckets && i < len(samples); b++ {
		bucketEnd := first.Add(width * time.Duration(b+1))
		if b == buckets-1 {
			// Last bucket absorbs rounding remainder
			bucketEnd = last
		}

		lo, hi := i, i
		j := i
		for ; j < len(samples); j++ {
			if b < buckets-1 && samples[j].Timestamp.After(bucketEnd) {
				break
			}
			if numeric(samples[j]) < numeric(samples[lo]) {
				lo = j
			}
			if numeric(samples[j]) > numeric(samples[hi]) {
				hi = j
			}
		}
		if j == i {
			continue // empty bucket emits nothing
		}

		// Emit min and max in chronological order; a single extreme is
		// emitted once.
		a, z := lo, hi
		if a > z {
			a, z = z, a
		}
		out = append(out, samples[a])
		if z != a {
			out = append(out, samples[z])
		}
		i = j
	}
	return out
}

// numeric orders samples inside a MinMax bucket. Non-numeric values
// compare as zero, so extremes are only meaningful for float telemetry,
// which is what charts downsample.
func numeric(s telemetry.Sample) float64 {
	if s.Value.Kind == telemetry.KindFloat {
		return s.Value.Float
	}
	return 0
}

func fixedSize(samples []telemetry.Sample, n int) []telemetry.Sample {
	if len(samples) <= n || len(samples) <= 2 {
		return samples
	}

	stride := (len(samples) + n - 1) / n // ceil(count/n)

	out := make([]telemetry.Sample, 0, n+2)
	for i := 0; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	// Range boundaries are always kept
	if last := samples[len(samples)-1]; !out[len(out)-1].Timestamp.Equal(last.Timestamp) {
		out = append(out, last)
	}
	return out
}
