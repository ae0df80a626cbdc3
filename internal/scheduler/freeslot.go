// Package scheduler answers availability questions over occupied timelines.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/stream"
)

// ErrInvalidDuration indicates a non-positive slot duration.
var ErrInvalidDuration = errors.New("scheduler: invalid duration")

// FindFirstFreeSlot returns the earliest interval of the given duration that
// starts at or after reference and overlaps none of the occupied intervals
// of any timeline. Timelines must be ascending by start and may be
// infinite; only as many intervals are pulled as needed to find the gap.
//
// Time is treated as unbounded, so valid input always yields a slot. A
// timeline that covers every instant after reference is the one input on
// which this never returns; callers cut such timelines with stream.TakeWhile.
func FindFirstFreeSlot(timelines []stream.Stream[interval.Interval], duration time.Duration, reference time.Time) (interval.Interval, error) {
	if duration <= 0 {
		return interval.Interval{}, fmt.Errorf("%w: %s", ErrInvalidDuration, duration)
	}

	occupied := stream.Union(stream.MergeIntervals(timelines...))

	first, ok := occupied.Next()
	if !ok || !reference.Add(duration).After(first.Start) {
		return interval.Of(reference, duration), nil
	}

	prevEnd := first.End
	for next, ok := occupied.Next(); ok; next, ok = occupied.Next() {
		candidate := interval.Later(prevEnd, reference)
		if !candidate.Add(duration).After(next.Start) {
			return interval.Of(candidate, duration), nil
		}
		prevEnd = next.End
	}
	return interval.Of(interval.Later(prevEnd, reference), duration), nil
}
