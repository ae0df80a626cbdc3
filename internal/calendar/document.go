// Package calendar reads calendar documents into an in-memory timeline.Calendar.
//
// A document is YAML:
//
//	participants:
//	  - id: alice
//	    name: Alice
//	events:
//	  - id: review
//	    title: Design review
//	    owner: alice
//	    start: 2024-03-04T15:00:00+09:00
//	    end: 2024-03-04T16:30:00+09:00
//	    repeat:
//	      - rrule: FREQ=WEEKLY;COUNT=4
//	      - preset: daily
//	        until: 2024-03-31T00:00:00+09:00
//	      - every: 48h
//	        from: 2024-03-05T15:00:00+09:00
//	invites:
//	  - event: review
//	    participant: bob
//	    status: accepted
//
// Each repeat entry sets exactly one of rrule, preset or every. For preset and
// every entries, until is the latest instant an occurrence may end and from
// overrides the anchor, which defaults to the event start.
package calendar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"gopkg.in/yaml.v3"

	"github.com/example/occupancy-scheduler/internal/recurrence"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

// ErrInvalidDocument indicates a calendar document that cannot be loaded.
var ErrInvalidDocument = errors.New("calendar: invalid document")

// Document is the YAML shape of a calendar file.
type Document struct {
	Participants []ParticipantDoc `yaml:"participants"`
	Events       []EventDoc       `yaml:"events"`
	Invites      []InviteDoc      `yaml:"invites"`
}

// ParticipantDoc describes one participant.
type ParticipantDoc struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// EventDoc describes one event and its repetitions.
type EventDoc struct {
	ID     string      `yaml:"id"`
	Title  string      `yaml:"title"`
	Owner  string      `yaml:"owner"`
	Start  string      `yaml:"start"`
	End    string      `yaml:"end"`
	Repeat []RepeatDoc `yaml:"repeat"`
}

// RepeatDoc describes one repetition rule of an event.
type RepeatDoc struct {
	RRule  string `yaml:"rrule"`
	Preset string `yaml:"preset"`
	Every  string `yaml:"every"`
	From   string `yaml:"from"`
	Until  string `yaml:"until"`
}

// InviteDoc links a participant to an event.
type InviteDoc struct {
	Event       string `yaml:"event"`
	Participant string `yaml:"participant"`
	Status      string `yaml:"status"`
}

// Option configures document loading.
type Option func(*loader)

// WithIDGenerator overrides how ids are assigned to events without one.
func WithIDGenerator(next func() string) Option {
	return func(l *loader) {
		if next != nil {
			l.newID = next
		}
	}
}

type loader struct {
	newID func() string
}

// Load reads the calendar document at path.
func Load(path string, opts ...Option) (*timeline.Calendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("calendar: open %s: %w", path, err)
	}
	defer f.Close()

	cal, err := Decode(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cal, nil
}

// Decode parses a calendar document from r. Unknown keys are rejected.
func Decode(r io.Reader, opts ...Option) (*timeline.Calendar, error) {
	l := &loader{newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}

	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return l.build(doc)
}

func (l *loader) build(doc Document) (*timeline.Calendar, error) {
	cal := timeline.NewCalendar()

	for i, p := range doc.Participants {
		if err := cal.AddParticipant(timeline.Participant{ID: strings.TrimSpace(p.ID), Name: p.Name}); err != nil {
			return nil, fmt.Errorf("%w: participants[%d]: %w", ErrInvalidDocument, i, err)
		}
	}

	for i, e := range doc.Events {
		event, err := l.event(e)
		if err != nil {
			return nil, fmt.Errorf("%w: events[%d]: %w", ErrInvalidDocument, i, err)
		}
		if err := cal.AddEvent(event); err != nil {
			return nil, fmt.Errorf("%w: events[%d]: %w", ErrInvalidDocument, i, err)
		}
	}

	for i, inv := range doc.Invites {
		err := cal.AddInvite(timeline.Invite{
			EventID:       strings.TrimSpace(inv.Event),
			ParticipantID: strings.TrimSpace(inv.Participant),
			Status:        timeline.InviteStatus(strings.ToLower(strings.TrimSpace(inv.Status))),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: invites[%d]: %w", ErrInvalidDocument, i, err)
		}
	}
	return cal, nil
}

func (l *loader) event(doc EventDoc) (timeline.Event, error) {
	start, err := parseTime("start", doc.Start)
	if err != nil {
		return timeline.Event{}, err
	}
	end, err := parseTime("end", doc.End)
	if err != nil {
		return timeline.Event{}, err
	}
	if end.Before(start) {
		return timeline.Event{}, fmt.Errorf("end %s precedes start %s", doc.End, doc.Start)
	}

	id := strings.TrimSpace(doc.ID)
	if id == "" {
		id = l.newID()
	}

	event := timeline.Event{
		ID:        id,
		Title:     doc.Title,
		OwnerID:   strings.TrimSpace(doc.Owner),
		Start:     start,
		End:       end,
		Recurring: len(doc.Repeat) > 0,
	}
	for j, r := range doc.Repeat {
		spec, err := repeatSpec(r, start, end.Sub(start))
		if err != nil {
			return timeline.Event{}, fmt.Errorf("repeat[%d]: %w", j, err)
		}
		event.Rules = append(event.Rules, spec)
	}
	return event, nil
}

func repeatSpec(doc RepeatDoc, start time.Time, duration time.Duration) (recurrence.Spec, error) {
	doc.RRule = strings.TrimSpace(doc.RRule)
	doc.Preset = strings.TrimSpace(doc.Preset)
	doc.Every = strings.TrimSpace(doc.Every)

	set := 0
	for _, v := range []string{doc.RRule, doc.Preset, doc.Every} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return recurrence.Spec{}, errors.New("exactly one of rrule, preset or every is required")
	}

	if doc.RRule != "" {
		if doc.From != "" || doc.Until != "" {
			return recurrence.Spec{}, errors.New("from and until are expressed inside rrule")
		}
		return recurrence.ParseRRule(start, duration, doc.RRule)
	}

	anchor := start
	if doc.From != "" {
		from, err := parseTime("from", doc.From)
		if err != nil {
			return recurrence.Spec{}, err
		}
		anchor = from
	}
	bound := mo.None[time.Time]()
	if doc.Until != "" {
		until, err := parseTime("until", doc.Until)
		if err != nil {
			return recurrence.Spec{}, err
		}
		bound = mo.Some(until)
	}

	var spec recurrence.Spec
	if doc.Preset != "" {
		freq, err := recurrence.ParseFrequency(doc.Preset)
		if err != nil {
			return recurrence.Spec{}, fmt.Errorf("preset %q: %w", doc.Preset, err)
		}
		spec, err = recurrence.Preset(freq, anchor, duration, bound)
		if err != nil {
			return recurrence.Spec{}, err
		}
	} else {
		step, err := time.ParseDuration(doc.Every)
		if err != nil {
			return recurrence.Spec{}, fmt.Errorf("every %q: %w", doc.Every, err)
		}
		spec = recurrence.Spec{AnchorStart: anchor, AnchorDuration: duration, Step: step, Bound: bound}
	}

	if err := spec.Validate(); err != nil {
		return recurrence.Spec{}, err
	}
	return spec, nil
}

func parseTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is not RFC 3339: %w", field, value, err)
	}
	return t, nil
}
