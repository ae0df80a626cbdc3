// Package timeline turns calendar events into occupied-interval streams.
package timeline

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/recurrence"
	"github.com/example/occupancy-scheduler/internal/stream"
)

var (
	// ErrInvalidEvent indicates an event whose end precedes its start.
	ErrInvalidEvent = errors.New("timeline: invalid event")
	// ErrNotFound is returned when a participant or event is unknown.
	ErrNotFound = errors.New("timeline: not found")
	// ErrDuplicate is returned when an identifier is registered twice.
	ErrDuplicate = errors.New("timeline: duplicate")
)

// Event is a calendar entry. A recurring event occupies the intervals of
// its rules; its own Start/End only fix the length of every occurrence.
type Event struct {
	ID        string
	Title     string
	OwnerID   string
	Start     time.Time
	End       time.Time
	Recurring bool
	Rules     []recurrence.Spec
}

// Duration returns the length of every occurrence of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Instances returns the event's occupied intervals in ascending order. A
// non-recurring event yields exactly its own interval. Rule specs are
// validated here so a bad rule is reported before anything is consumed.
func (e Event) Instances() (stream.Stream[interval.Interval], error) {
	if e.End.Before(e.Start) {
		return nil, fmt.Errorf("%w: event %q ends before it starts", ErrInvalidEvent, e.ID)
	}
	if !e.Recurring {
		return stream.Of(interval.Interval{Start: e.Start, End: e.End}), nil
	}

	sources := make([]stream.Stream[interval.Interval], 0, len(e.Rules))
	for _, spec := range e.Rules {
		spec.AnchorDuration = e.Duration()
		rule, err := recurrence.New(spec)
		if err != nil {
			return nil, fmt.Errorf("timeline: event %q: %w", e.ID, err)
		}
		sources = append(sources, rule.Occurrences())
	}
	return stream.MergeIntervals(sources...), nil
}

// Occupied merges the instances of all events into one ascending timeline.
// Overlapping instances are kept; apply stream.Union for a disjoint cover.
func Occupied(events []Event) (stream.Stream[interval.Interval], error) {
	sources := make([]stream.Stream[interval.Interval], 0, len(events))
	for _, event := range events {
		instances, err := event.Instances()
		if err != nil {
			return nil, err
		}
		sources = append(sources, instances)
	}
	return stream.MergeIntervals(sources...), nil
}

// Instance is one occurrence of an event.
type Instance struct {
	Interval interval.Interval
	Event    Event
}

// Between lists the occurrences lying entirely inside [from, till], ordered
// by interval. Each event's stream is abandoned at its first occurrence
// starting after till, so unbounded events are safe.
func Between(events []Event, from, till time.Time) ([]Instance, error) {
	if till.Before(from) {
		return nil, fmt.Errorf("%w: window ends before it starts", interval.ErrInverted)
	}

	var out []Instance
	for _, event := range events {
		instances, err := event.Instances()
		if err != nil {
			return nil, err
		}
		for iv, ok := instances.Next(); ok; iv, ok = instances.Next() {
			if iv.Start.After(till) {
				break
			}
			if iv.Within(from, till) {
				out = append(out, Instance{Interval: iv, Event: event})
			}
		}
	}

	slices.SortStableFunc(out, func(a, b Instance) int {
		return interval.Compare(a.Interval, b.Interval)
	})
	return out, nil
}
