package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/scheduler"
	"github.com/example/occupancy-scheduler/internal/stream"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

const defaultFetchConcurrency = 4

// EventSource supplies the events that occupy a participant's time. Unknown
// participants are reported with an error wrapping timeline.ErrNotFound.
type EventSource interface {
	EventsFor(ctx context.Context, participantID string) ([]timeline.Event, error)
}

// AvailabilityService answers free-slot, timetable and conflict queries.
type AvailabilityService struct {
	events      EventSource
	now         func() time.Time
	logger      *slog.Logger
	horizon     time.Duration
	concurrency int
}

// AvailabilityOption configures optional service behaviour.
type AvailabilityOption func(*AvailabilityService)

// WithSearchHorizon bounds free-slot searches to reference+horizon. Zero
// disables the bound.
func WithSearchHorizon(horizon time.Duration) AvailabilityOption {
	return func(s *AvailabilityService) {
		s.horizon = horizon
	}
}

// WithFetchConcurrency limits how many participants are fetched at once.
func WithFetchConcurrency(n int) AvailabilityOption {
	return func(s *AvailabilityService) {
		s.concurrency = n
	}
}

// NewAvailabilityService wires dependencies for availability queries.
func NewAvailabilityService(events EventSource, now func() time.Time, opts ...AvailabilityOption) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(events, now, nil, opts...)
}

// NewAvailabilityServiceWithLogger constructs an AvailabilityService with a specified logger.
func NewAvailabilityServiceWithLogger(events EventSource, now func() time.Time, logger *slog.Logger, opts ...AvailabilityOption) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	s := &AvailabilityService{
		events:      events,
		now:         now,
		logger:      defaultLogger(logger),
		concurrency: defaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultFetchConcurrency
	}
	if s.horizon < 0 {
		s.horizon = 0
	}
	return s
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// FirstFreeSlot returns the earliest slot of the requested duration in
// which none of the participants is occupied.
func (s *AvailabilityService) FirstFreeSlot(ctx context.Context, params FreeSlotParams) (slot interval.Interval, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	ids := uniqueStrings(params.ParticipantIDs)
	logger := s.loggerWith(ctx, "FirstFreeSlot",
		"participant_count", len(ids),
		"duration", params.Duration.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "free slot search failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("slot_start", slot.Start, "slot_end", slot.End).InfoContext(ctx, "free slot found")
	}()

	vErr := &ValidationError{}
	validateParticipants(params.ParticipantIDs, vErr)
	if params.Duration <= 0 {
		vErr.add("duration", "duration must be positive")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var perParticipant [][]timeline.Event
	perParticipant, err = s.fetchEvents(ctx, ids)
	if err != nil {
		return
	}

	reference := params.NotBefore
	if reference.IsZero() {
		reference = s.now()
	}

	var timelines []stream.Stream[interval.Interval]
	timelines, err = occupiedTimelines(perParticipant)
	if err != nil {
		return
	}

	if s.horizon == 0 {
		slot, err = scheduler.FindFirstFreeSlot(timelines, params.Duration, reference)
		return
	}

	limit := reference.Add(s.horizon)
	for i, tl := range timelines {
		timelines[i] = stream.TakeWhile(tl, func(iv interval.Interval) bool {
			return iv.Start.Before(limit)
		})
	}
	slot, err = scheduler.FindFirstFreeSlot(timelines, params.Duration, reference)
	if err != nil {
		return
	}
	if slot.End.After(limit) {
		err = fmt.Errorf("%w: %s after %s", ErrNoSlotWithinHorizon, s.horizon, reference.Format(time.RFC3339))
		slot = interval.Interval{}
	}
	return
}

// Timetable lists a participant's occurrences that lie entirely inside the
// requested window, ordered by start.
func (s *AvailabilityService) Timetable(ctx context.Context, params TimetableParams) (entries []TimetableEntry, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Timetable", "participant_id", params.ParticipantID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build timetable", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_count", len(entries)).InfoContext(ctx, "timetable built")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.ParticipantID) == "" {
		vErr.add("participant_id", "participant is required")
	}
	vErr.merge(validateWindow(params.From, params.Till, "from", "till"))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var perParticipant [][]timeline.Event
	perParticipant, err = s.fetchEvents(ctx, []string{strings.TrimSpace(params.ParticipantID)})
	if err != nil {
		return
	}

	var instances []timeline.Instance
	instances, err = timeline.Between(perParticipant[0], params.From, params.Till)
	if err != nil {
		return
	}

	entries = make([]TimetableEntry, 0, len(instances))
	for _, instance := range instances {
		entries = append(entries, TimetableEntry{
			EventID:  instance.Event.ID,
			Title:    instance.Event.Title,
			OwnerID:  instance.Event.OwnerID,
			Interval: instance.Interval,
		})
	}
	return
}

// Conflicts reports every participant commitment overlapping the candidate.
func (s *AvailabilityService) Conflicts(ctx context.Context, params ConflictParams) (warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	ids := uniqueStrings(params.ParticipantIDs)
	logger := s.loggerWith(ctx, "Conflicts",
		"participant_count", len(ids),
		"candidate_start", params.Candidate.Start,
		"candidate_end", params.Candidate.End,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "conflict detection failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("conflict_count", len(warnings)).InfoContext(ctx, "conflicts detected")
	}()

	vErr := &ValidationError{}
	validateParticipants(params.ParticipantIDs, vErr)
	if params.Candidate.Start.IsZero() || params.Candidate.End.IsZero() {
		vErr.add("candidate", "start and end are required")
	} else if !params.Candidate.Start.Before(params.Candidate.End) {
		vErr.add("candidate", "start must be before end")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var perParticipant [][]timeline.Event
	perParticipant, err = s.fetchEvents(ctx, ids)
	if err != nil {
		return
	}

	participants := make([]scheduler.ParticipantTimeline, 0, len(ids))
	for i, id := range ids {
		var occupied stream.Stream[interval.Interval]
		occupied, err = timeline.Occupied(perParticipant[i])
		if err != nil {
			return
		}
		participants = append(participants, scheduler.ParticipantTimeline{ParticipantID: id, Occupied: occupied})
	}

	conflicts := scheduler.DetectConflicts(participants, params.Candidate)
	warnings = make([]ConflictWarning, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, ConflictWarning{ParticipantID: c.ParticipantID, Occupied: c.Occupied})
	}
	return
}

// fetchEvents loads every participant's events concurrently. The result is
// indexed like ids. Unknown participants are collected and reported together.
func (s *AvailabilityService) fetchEvents(ctx context.Context, ids []string) ([][]timeline.Event, error) {
	if s.events == nil {
		return make([][]timeline.Event, len(ids)), nil
	}

	results := make([][]timeline.Event, len(ids))
	var (
		mu      sync.Mutex
		missing []string
	)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			events, err := s.events.EventsFor(groupCtx, id)
			if err != nil {
				if isNotFoundError(err) {
					mu.Lock()
					missing = append(missing, id)
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("fetch events for %q: %w", id, err)
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		vErr := &ValidationError{}
		vErr.add("participants", fmt.Sprintf("unknown participant ids: %s", strings.Join(missing, ", ")))
		return nil, vErr
	}
	return results, nil
}

func occupiedTimelines(perParticipant [][]timeline.Event) ([]stream.Stream[interval.Interval], error) {
	timelines := make([]stream.Stream[interval.Interval], 0, len(perParticipant))
	for _, events := range perParticipant {
		occupied, err := timeline.Occupied(events)
		if err != nil {
			return nil, err
		}
		timelines = append(timelines, occupied)
	}
	return timelines, nil
}

func validateParticipants(ids []string, vErr *ValidationError) {
	if len(ids) == 0 {
		vErr.add("participants", "at least one participant is required")
		return
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			vErr.add("participants", "participant ids must not be blank")
			return
		}
	}
}

func validateWindow(from, till time.Time, fromField, tillField string) *ValidationError {
	vErr := &ValidationError{}
	if from.IsZero() {
		vErr.add(fromField, fromField+" is required")
	}
	if till.IsZero() {
		vErr.add(tillField, tillField+" is required")
	}
	if !from.IsZero() && !till.IsZero() && till.Before(from) {
		vErr.add("window", fromField+" must not be after "+tillField)
	}
	return vErr
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func isNotFoundError(err error) bool {
	return errors.Is(err, timeline.ErrNotFound)
}
