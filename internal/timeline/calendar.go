package timeline

import (
	"context"
	"fmt"
	"sync"
)

// InviteStatus tracks a participant's answer to an invitation.
type InviteStatus string

const (
	// InvitePending is the initial invitation state.
	InvitePending InviteStatus = "pending"
	// InviteAccepted marks the event as part of the invitee's commitments.
	InviteAccepted InviteStatus = "accepted"
	// InviteRejected excludes the event from the invitee's commitments.
	InviteRejected InviteStatus = "rejected"
)

// Participant is a calendar member whose time can be occupied.
type Participant struct {
	ID   string
	Name string
}

// Invite links a participant to an event owned by someone else.
type Invite struct {
	EventID       string
	ParticipantID string
	Status        InviteStatus
}

// Calendar is a read-mostly, in-memory directory of participants, events
// and invitations. It answers which events are relevant to a participant and
// is safe for concurrent readers.
type Calendar struct {
	mu           sync.RWMutex
	participants map[string]Participant
	order        []string
	events       []Event
	eventIndex   map[string]int
	invites      []Invite
}

// NewCalendar returns an empty calendar.
func NewCalendar() *Calendar {
	return &Calendar{
		participants: make(map[string]Participant),
		eventIndex:   make(map[string]int),
	}
}

// AddParticipant registers a participant.
func (c *Calendar) AddParticipant(p Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.ID == "" {
		return fmt.Errorf("timeline: participant id is required")
	}
	if _, ok := c.participants[p.ID]; ok {
		return fmt.Errorf("%w: participant %q", ErrDuplicate, p.ID)
	}
	c.participants[p.ID] = p
	c.order = append(c.order, p.ID)
	return nil
}

// AddEvent registers an event. Its owner must already be a participant.
func (c *Calendar) AddEvent(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.ID == "" {
		return fmt.Errorf("timeline: event id is required")
	}
	if _, ok := c.eventIndex[e.ID]; ok {
		return fmt.Errorf("%w: event %q", ErrDuplicate, e.ID)
	}
	if _, ok := c.participants[e.OwnerID]; !ok {
		return fmt.Errorf("%w: owner %q of event %q", ErrNotFound, e.OwnerID, e.ID)
	}
	if e.End.Before(e.Start) {
		return fmt.Errorf("%w: event %q ends before it starts", ErrInvalidEvent, e.ID)
	}
	c.eventIndex[e.ID] = len(c.events)
	c.events = append(c.events, e)
	return nil
}

// AddInvite records an invitation. Pending is assumed when Status is empty.
// Re-inviting the same participant replaces the previous status.
func (c *Calendar) AddInvite(inv Invite) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.eventIndex[inv.EventID]; !ok {
		return fmt.Errorf("%w: event %q", ErrNotFound, inv.EventID)
	}
	if _, ok := c.participants[inv.ParticipantID]; !ok {
		return fmt.Errorf("%w: participant %q", ErrNotFound, inv.ParticipantID)
	}
	switch inv.Status {
	case "":
		inv.Status = InvitePending
	case InvitePending, InviteAccepted, InviteRejected:
	default:
		return fmt.Errorf("timeline: unknown invite status %q", inv.Status)
	}

	for i, existing := range c.invites {
		if existing.EventID == inv.EventID && existing.ParticipantID == inv.ParticipantID {
			c.invites[i] = inv
			return nil
		}
	}
	c.invites = append(c.invites, inv)
	return nil
}

// Participant looks up a participant by id.
func (c *Calendar) Participant(id string) (Participant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.participants[id]
	return p, ok
}

// Participants returns all participants in registration order.
func (c *Calendar) Participants() []Participant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Participant, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.participants[id])
	}
	return out
}

// EventsFor returns the events that occupy a participant's time: the events
// they own followed by the events whose invitation they accepted.
func (c *Calendar) EventsFor(ctx context.Context, participantID string) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.participants[participantID]; !ok {
		return nil, fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}

	var out []Event
	for _, event := range c.events {
		if event.OwnerID == participantID {
			out = append(out, event)
		}
	}
	for _, inv := range c.invites {
		if inv.ParticipantID != participantID || inv.Status != InviteAccepted {
			continue
		}
		out = append(out, c.events[c.eventIndex[inv.EventID]])
	}
	return out, nil
}

// InvitesFor returns a participant's invitations with the given status.
func (c *Calendar) InvitesFor(participantID string, status InviteStatus) []Invite {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Invite
	for _, inv := range c.invites {
		if inv.ParticipantID == participantID && inv.Status == status {
			out = append(out, inv)
		}
	}
	return out
}
