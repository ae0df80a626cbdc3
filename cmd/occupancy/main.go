// occupancy answers availability questions over a YAML calendar document.
//
// Usage:
//
//	occupancy free --participants alice,bob --duration 30m [--from RFC3339]
//	occupancy timetable --participant alice --from RFC3339 --till RFC3339
//	occupancy conflicts --participants alice,bob --start RFC3339 --end RFC3339
//	occupancy invites --participant alice [--status pending|accepted|rejected]
//
// Every command accepts --calendar, which overrides OCCUPANCY_CALENDAR_FILE.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/example/occupancy-scheduler/internal/application"
	"github.com/example/occupancy-scheduler/internal/calendar"
	"github.com/example/occupancy-scheduler/internal/config"
	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/logging"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

const usage = `usage: occupancy <command> [flags]

commands:
  free        first slot in which every participant is free
  timetable   a participant's occurrences inside a window
  conflicts   participant commitments overlapping a candidate slot
  invites     a participant's invitations with a given status
`

// errUsage marks command line mistakes.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// env is the per-invocation state shared by the commands.
type env struct {
	stdout   io.Writer
	calendar *timeline.Calendar
	service  *application.AvailabilityService
	location *time.Location
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return nil
	}

	var err error
	command, rest := args[0], args[1:]
	switch command {
	case "free":
		err = runFree(ctx, rest, stdout, stderr, now)
	case "timetable":
		err = runTimetable(ctx, rest, stdout, stderr, now)
	case "conflicts":
		err = runConflicts(ctx, rest, stdout, stderr, now)
	case "invites":
		err = runInvites(ctx, rest, stdout, stderr, now)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func newFlagSet(name string, stderr io.Writer, calendarPath *string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(calendarPath, "calendar", "", "calendar document (overrides OCCUPANCY_CALENDAR_FILE)")
	return flagSet
}

func parseFlags(flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, extra[0])
	}
	return nil
}

// setup loads configuration and the calendar and attaches a logger carrying
// a fresh query id to ctx.
func setup(ctx context.Context, calendarPath string, stdout, stderr io.Writer, now func() time.Time) (context.Context, *env, error) {
	cfg, err := config.Load(config.WithCalendarFile(calendarPath))
	if err != nil {
		return ctx, nil, err
	}

	logger := logging.New(stderr, cfg.LogLevel)
	cal, err := calendar.Load(cfg.CalendarFile)
	if err != nil {
		return ctx, nil, err
	}
	logger.DebugContext(ctx, "calendar loaded", "path", cfg.CalendarFile, "participants", len(cal.Participants()))

	service := application.NewAvailabilityServiceWithLogger(cal, now, logger,
		application.WithSearchHorizon(cfg.SearchHorizon),
		application.WithFetchConcurrency(cfg.FetchConcurrency),
	)
	ctx = logging.ContextWithLogger(ctx, logger.With("query_id", uuid.NewString()))
	return ctx, &env{stdout: stdout, calendar: cal, service: service, location: cfg.Location}, nil
}

func runFree(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) error {
	var (
		calendarPath string
		participants []string
		duration     time.Duration
		from         string
	)
	flagSet := newFlagSet("free", stderr, &calendarPath)
	flagSet.StringSliceVar(&participants, "participants", nil, "comma separated participant ids")
	flagSet.DurationVar(&duration, "duration", 30*time.Minute, "slot length")
	flagSet.StringVar(&from, "from", "", "earliest slot start (RFC 3339, default now)")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	var notBefore time.Time
	if from != "" {
		t, err := parseTimeFlag("from", from)
		if err != nil {
			return err
		}
		notBefore = t
	}

	ctx, e, err := setup(ctx, calendarPath, stdout, stderr, now)
	if err != nil {
		return err
	}

	slot, err := e.service.FirstFreeSlot(ctx, application.FreeSlotParams{
		ParticipantIDs: participants,
		Duration:       duration,
		NotBefore:      notBefore,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "%s\n", e.formatInterval(slot))
	return err
}

func runTimetable(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) error {
	var calendarPath, participant, from, till string
	flagSet := newFlagSet("timetable", stderr, &calendarPath)
	flagSet.StringVar(&participant, "participant", "", "participant id")
	flagSet.StringVar(&from, "from", "", "window start (RFC 3339)")
	flagSet.StringVar(&till, "till", "", "window end (RFC 3339)")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	fromTime, err := parseTimeFlag("from", from)
	if err != nil {
		return err
	}
	tillTime, err := parseTimeFlag("till", till)
	if err != nil {
		return err
	}

	ctx, e, err := setup(ctx, calendarPath, stdout, stderr, now)
	if err != nil {
		return err
	}

	entries, err := e.service.Timetable(ctx, application.TimetableParams{
		ParticipantID: participant,
		From:          fromTime,
		Till:          tillTime,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err = fmt.Fprintln(e.stdout, "no events")
		return err
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(e.stdout, "%s\t%s\t%s\n", e.formatInterval(entry.Interval), entry.EventID, entry.Title); err != nil {
			return err
		}
	}
	return nil
}

func runConflicts(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) error {
	var (
		calendarPath string
		participants []string
		start, end   string
	)
	flagSet := newFlagSet("conflicts", stderr, &calendarPath)
	flagSet.StringSliceVar(&participants, "participants", nil, "comma separated participant ids")
	flagSet.StringVar(&start, "start", "", "candidate start (RFC 3339)")
	flagSet.StringVar(&end, "end", "", "candidate end (RFC 3339)")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	startTime, err := parseTimeFlag("start", start)
	if err != nil {
		return err
	}
	endTime, err := parseTimeFlag("end", end)
	if err != nil {
		return err
	}

	ctx, e, err := setup(ctx, calendarPath, stdout, stderr, now)
	if err != nil {
		return err
	}

	warnings, err := e.service.Conflicts(ctx, application.ConflictParams{
		ParticipantIDs: participants,
		Candidate:      interval.Interval{Start: startTime, End: endTime},
	})
	if err != nil {
		return err
	}
	if len(warnings) == 0 {
		_, err = fmt.Fprintln(e.stdout, "no conflicts")
		return err
	}
	for _, w := range warnings {
		if _, err := fmt.Fprintf(e.stdout, "%s\t%s\n", w.ParticipantID, e.formatInterval(w.Occupied)); err != nil {
			return err
		}
	}
	return nil
}

func runInvites(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) error {
	var calendarPath, participant, status string
	flagSet := newFlagSet("invites", stderr, &calendarPath)
	flagSet.StringVar(&participant, "participant", "", "participant id")
	flagSet.StringVar(&status, "status", string(timeline.InvitePending), "pending, accepted or rejected")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	participant = strings.TrimSpace(participant)
	if participant == "" {
		return fmt.Errorf("%w: --participant is required", errUsage)
	}
	inviteStatus := timeline.InviteStatus(strings.ToLower(strings.TrimSpace(status)))
	switch inviteStatus {
	case timeline.InvitePending, timeline.InviteAccepted, timeline.InviteRejected:
	default:
		return fmt.Errorf("%w: unknown --status %q", errUsage, status)
	}

	_, e, err := setup(ctx, calendarPath, stdout, stderr, now)
	if err != nil {
		return err
	}
	if _, ok := e.calendar.Participant(participant); !ok {
		return fmt.Errorf("%w: participant %q", timeline.ErrNotFound, participant)
	}

	invites := e.calendar.InvitesFor(participant, inviteStatus)
	if len(invites) == 0 {
		_, err = fmt.Fprintf(e.stdout, "no %s invites\n", inviteStatus)
		return err
	}
	for _, inv := range invites {
		if _, err := fmt.Fprintf(e.stdout, "%s\t%s\n", inv.EventID, inv.Status); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) formatInterval(iv interval.Interval) string {
	loc := e.location
	if loc == nil {
		loc = time.Local
	}
	return iv.Start.In(loc).Format(time.RFC3339) + "\t" + iv.End.In(loc).Format(time.RFC3339)
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%w: --%s is required", errUsage, name)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s: %w", errUsage, name, err)
	}
	return t, nil
}

// describe renders validation errors with their field messages.
func describe(err error) string {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || !vErr.HasErrors() {
		return err.Error()
	}
	fields := make([]string, 0, len(vErr.FieldErrors))
	for field := range vErr.FieldErrors {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+vErr.FieldErrors[field])
	}
	return vErr.Error() + " (" + strings.Join(parts, "; ") + ")"
}
