package application_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/occupancy-scheduler/internal/application"
	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/testfixtures"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

func TestAvailabilityServiceWithFixtures(t *testing.T) {
	t.Parallel()

	morning := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	at := func(hour, minute int) time.Time {
		return morning.Add(time.Duration(hour-8)*time.Hour + time.Duration(minute)*time.Minute)
	}

	clock := testfixtures.NewClock(morning)
	factory := testfixtures.NewServiceFactory(testfixtures.WithClock(clock))

	cal := factory.NewCalendar(
		[]timeline.Participant{{ID: "alice"}, {Name: "Guest"}},
		testfixtures.NewEventFixture(
			testfixtures.WithEventID("standup"),
			testfixtures.WithEventOwner("alice"),
			testfixtures.WithEventWindow(at(9, 0), at(9, 30)),
			testfixtures.WithDailyRepeat(time.Time{}),
		),
		testfixtures.NewEventFixture(
			testfixtures.WithEventID("onboarding"),
			testfixtures.WithEventOwner("id-1"),
			testfixtures.WithEventWindow(at(8, 30), at(10, 0)),
		),
	)

	service := factory.NewAvailabilityService(testfixtures.AvailabilityServiceDeps{
		Events:  cal,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options: []application.AvailabilityOption{application.WithSearchHorizon(48 * time.Hour)},
	})
	ctx := context.Background()
	params := application.FreeSlotParams{ParticipantIDs: []string{"alice", "id-1"}, Duration: 30 * time.Minute}

	t.Run("reference comes from the clock", func(t *testing.T) {
		slot, err := service.FirstFreeSlot(ctx, params)
		require.NoError(t, err)
		assert.True(t, slot.Equal(interval.Of(at(8, 0), 30*time.Minute)), "got %s", slot)
	})

	t.Run("advancing the clock moves past the shared busy block", func(t *testing.T) {
		clock.Advance(15 * time.Minute)
		t.Cleanup(func() { clock.Set(morning) })

		slot, err := service.FirstFreeSlot(ctx, params)
		require.NoError(t, err)
		assert.True(t, slot.Equal(interval.Of(at(10, 0), 30*time.Minute)), "got %s", slot)
	})

	t.Run("generated participant ids resolve", func(t *testing.T) {
		entries, err := service.Timetable(ctx, application.TimetableParams{
			ParticipantID: "id-1",
			From:          at(0, 0),
			Till:          at(23, 0),
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "onboarding", entries[0].EventID)
	})
}
