// Package recurrence expands fixed-step repetition rules into lazy interval
// sequences.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/stream"
)

// ErrInvalidRecurrenceSpec indicates a spec that cannot produce an ascending sequence.
var ErrInvalidRecurrenceSpec = errors.New("recurrence: invalid recurrence spec")

// Spec describes a fixed-step repetition of an anchor interval.
//
// The k-th occurrence is [AnchorStart + k*Step, AnchorStart + k*Step + AnchorDuration)
// for k = 0, 1, 2, ... and continues while Bound is absent or the occurrence
// ends no later than Bound. An absent Bound makes the sequence infinite.
type Spec struct {
	AnchorStart    time.Time
	AnchorDuration time.Duration
	Step           time.Duration
	Bound          mo.Option[time.Time]
}

// Validate reports whether the spec satisfies the construction invariants.
func (s Spec) Validate() error {
	if s.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %s", ErrInvalidRecurrenceSpec, s.Step)
	}
	if s.AnchorDuration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %s", ErrInvalidRecurrenceSpec, s.AnchorDuration)
	}
	if bound, ok := s.Bound.Get(); ok && bound.Before(s.AnchorStart) {
		return fmt.Errorf("%w: bound %s precedes anchor %s", ErrInvalidRecurrenceSpec,
			bound.Format(time.RFC3339), s.AnchorStart.Format(time.RFC3339))
	}
	return nil
}

func (s Spec) String() string {
	if bound, ok := s.Bound.Get(); ok {
		return fmt.Sprintf("repeat start=%s every=%s until=%s", s.AnchorStart.Format(time.RFC3339), s.Step, bound.Format(time.RFC3339))
	}
	return fmt.Sprintf("repeat start=%s every=%s", s.AnchorStart.Format(time.RFC3339), s.Step)
}

// Rule is a validated Spec that can be expanded any number of times.
type Rule struct {
	spec Spec
}

// New validates spec and returns a Rule. Invalid specs are rejected here,
// never while a sequence is being consumed.
func New(spec Spec) (*Rule, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Rule{spec: spec}, nil
}

// Occurrences returns a fresh lazy stream of the rule's intervals, starting
// from the anchor every time it is called.
func (r *Rule) Occurrences() stream.Stream[interval.Interval] {
	return &cursor{
		next:     r.spec.AnchorStart,
		duration: r.spec.AnchorDuration,
		step:     r.spec.Step,
		bound:    r.spec.Bound,
	}
}

// cursor holds the next candidate start; nothing else is retained between pulls.
type cursor struct {
	next     time.Time
	duration time.Duration
	step     time.Duration
	bound    mo.Option[time.Time]
	done     bool
}

func (c *cursor) Next() (interval.Interval, bool) {
	if c.done {
		return interval.Interval{}, false
	}
	end := c.next.Add(c.duration)
	if bound, ok := c.bound.Get(); ok && end.After(bound) {
		c.done = true
		return interval.Interval{}, false
	}
	out := interval.Interval{Start: c.next, End: end}
	c.next = c.next.Add(c.step)
	return out, true
}
