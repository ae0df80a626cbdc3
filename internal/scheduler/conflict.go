package scheduler

import (
	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/stream"
)

// ParticipantTimeline pairs a participant with their occupied timeline.
type ParticipantTimeline struct {
	ParticipantID string
	Occupied      stream.Stream[interval.Interval]
}

// Conflict reports a participant's busy block overlapping a candidate slot.
type Conflict struct {
	ParticipantID string
	Occupied      interval.Interval
}

// DetectConflicts lists, per participant and in participant order, the
// disjoint busy blocks that overlap candidate. Each timeline is read only up
// to its first interval starting at or after candidate.End, so unbounded
// timelines are safe. Touching blocks do not conflict.
func DetectConflicts(timelines []ParticipantTimeline, candidate interval.Interval) []Conflict {
	var conflicts []Conflict
	for _, tl := range timelines {
		if tl.Occupied == nil {
			continue
		}
		relevant := stream.TakeWhile(tl.Occupied, func(iv interval.Interval) bool {
			return iv.Start.Before(candidate.End)
		})
		for block := range stream.All(stream.Union(relevant)) {
			if block.Overlaps(candidate) {
				conflicts = append(conflicts, Conflict{ParticipantID: tl.ParticipantID, Occupied: block})
			}
		}
	}
	return conflicts
}
