// Package interval defines the closed-open time interval used across the
// occupancy pipeline.
package interval

import (
	"errors"
	"fmt"
	"time"
)

// ErrInverted indicates an interval whose end precedes its start.
var ErrInverted = errors.New("interval: end precedes start")

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New constructs an interval, rejecting end < start. Zero-length intervals
// are valid and represent instant events.
func New(start, end time.Time) (Interval, error) {
	if end.Before(start) {
		return Interval{}, fmt.Errorf("%w: %s < %s", ErrInverted, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Of builds an interval starting at start and lasting d.
func Of(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two half-open intervals share at least one
// point. Touching intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Within reports whether iv lies inside the closed window [from, till].
func (iv Interval) Within(from, till time.Time) bool {
	return !iv.Start.Before(from) && !iv.End.After(till)
}

// Equal compares both bounds with time.Time.Equal, ignoring location.
func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// Compare orders intervals by start, then by end.
func Compare(a, b Interval) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return a.End.Compare(b.End)
}

// Later returns the later of two instants.
func Later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
