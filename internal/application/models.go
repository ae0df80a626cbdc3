package application

import (
	"time"

	"github.com/example/occupancy-scheduler/internal/interval"
)

// FreeSlotParams describes a request for the first common free slot.
type FreeSlotParams struct {
	ParticipantIDs []string
	Duration       time.Duration
	// NotBefore is the earliest acceptable slot start. The service clock is
	// used when it is zero.
	NotBefore time.Time
}

// TimetableParams selects a participant's occurrences inside [From, Till].
type TimetableParams struct {
	ParticipantID string
	From          time.Time
	Till          time.Time
}

// TimetableEntry is one occurrence of an event in a participant's timetable.
type TimetableEntry struct {
	EventID  string
	Title    string
	OwnerID  string
	Interval interval.Interval
}

// ConflictParams describes a candidate slot to check against participants.
type ConflictParams struct {
	ParticipantIDs []string
	Candidate      interval.Interval
}

// ConflictWarning describes a participant commitment overlapping a candidate.
type ConflictWarning struct {
	ParticipantID string
	Occupied      interval.Interval
}
