package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/samber/mo"

	"github.com/example/occupancy-scheduler/internal/recurrence"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

var (
	participantCounter uint64
	eventCounter       uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// -------------------------- Participant fixtures --------------------------

// NewParticipant returns a deterministic participant with a sequential id.
func NewParticipant() timeline.Participant {
	idx := atomic.AddUint64(&participantCounter, 1)
	return timeline.Participant{
		ID:   fmt.Sprintf("participant-%03d", idx),
		Name: fmt.Sprintf("Participant %03d", idx),
	}
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture is a deterministic event that can be materialised for
// timeline, scheduler or application tests.
type EventFixture struct {
	ID      string
	Title   string
	OwnerID string
	Start   time.Time
	End     time.Time
	Rules   []recurrence.Spec
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a one hour, non-recurring event starting at
// ReferenceTime, with optional overrides.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:    fmt.Sprintf("event-%03d", idx),
		Title: fmt.Sprintf("Event %03d", idx),
		Start: referenceTime,
		End:   referenceTime.Add(time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventOwner sets the owning participant.
func WithEventOwner(ownerID string) EventOption {
	return func(f *EventFixture) {
		f.OwnerID = ownerID
	}
}

// WithEventWindow sets the start and end of the event.
func WithEventWindow(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = end
	}
}

// WithDailyRepeat repeats the event every day from its start, so it must follow
// WithEventWindow. A zero until leaves the repetition unbounded.
func WithDailyRepeat(until time.Time) EventOption {
	return func(f *EventFixture) {
		f.Rules = append(f.Rules, recurrence.Daily(f.Start, f.End.Sub(f.Start), boundOf(until)))
	}
}

// WithWeeklyRepeat is WithDailyRepeat with a one week step.
func WithWeeklyRepeat(until time.Time) EventOption {
	return func(f *EventFixture) {
		f.Rules = append(f.Rules, recurrence.Weekly(f.Start, f.End.Sub(f.Start), boundOf(until)))
	}
}

// WithRule adds an arbitrary repetition rule.
func WithRule(spec recurrence.Spec) EventOption {
	return func(f *EventFixture) {
		f.Rules = append(f.Rules, spec)
	}
}

// Event returns the fixture as a timeline.Event. Fixtures with rules are
// recurring.
func (f EventFixture) Event() timeline.Event {
	rules := make([]recurrence.Spec, len(f.Rules))
	copy(rules, f.Rules)
	return timeline.Event{
		ID:        f.ID,
		Title:     f.Title,
		OwnerID:   f.OwnerID,
		Start:     f.Start,
		End:       f.End,
		Recurring: len(rules) > 0,
		Rules:     rules,
	}
}

func boundOf(until time.Time) mo.Option[time.Time] {
	if until.IsZero() {
		return mo.None[time.Time]()
	}
	return mo.Some(until)
}
