package stream

import (
	"errors"
	"time"
)

// DefaultMaxWindow is the widest query window the source-query API accepts.
const DefaultMaxWindow = 12 * time.Hour

var (
	// ErrInvalidRange indicates a time range whose start is after its end.
	ErrInvalidRange = errors.New("time range start is after end")

	// ErrInvalidMaxWindow indicates a non-positive maximum window size.
	ErrInvalidMaxWindow = errors.New("max window must be positive")
)

// TimeRange is an ordered pair of instants with Start <= End.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// SplitWindows slices tr into contiguous, non-overlapping windows no wider
// than maxWindow. A range that already fits is returned unchanged as a
// single window; otherwise maxWindow-sized prefixes are cut off the front
// and the final window carries the remainder. The windows' union
// reconstructs tr exactly.
func SplitWindows(tr TimeRange, maxWindow time.Duration) ([]TimeRange, error) {
	if maxWindow <= 0 {
		return nil, ErrInvalidMaxWindow
	}
	if tr.Start.After(tr.End) {
		return nil, ErrInvalidRange
	}
	if tr.Duration() <= maxWindow {
		return []TimeRange{tr}, nil
	}

	var windows []TimeRange
	start := tr.Start
	for tr.End.Sub(start) > maxWindow {
		end := start.Add(maxWindow)
		windows = append(windows, TimeRange{Start: start, End: end})
		start = end
	}
	return append(windows, TimeRange{Start: start, End: tr.End}), nil
}
