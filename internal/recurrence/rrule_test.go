package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/example/occupancy-scheduler/internal/stream"
)

func TestParseRRule(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	t.Run("without end is unbounded", func(t *testing.T) {
		t.Parallel()

		spec, err := ParseRRule(start, time.Hour, "FREQ=DAILY")
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, spec.Step)
		assert.True(t, spec.Bound.IsAbsent())
		assert.Len(t, stream.Take(mustRule(t, spec).Occurrences(), 10), 10)
	})

	t.Run("count matches rrule-go expansion", func(t *testing.T) {
		t.Parallel()

		spec, err := ParseRRule(start, 30*time.Minute, "RRULE:FREQ=DAILY;INTERVAL=2;COUNT=5")
		require.NoError(t, err)

		reference, err := rrule.NewRRule(rrule.ROption{Freq: rrule.DAILY, Interval: 2, Count: 5, Dtstart: start})
		require.NoError(t, err)
		want := reference.All()

		got := stream.Collect(mustRule(t, spec).Occurrences())
		require.Len(t, got, len(want))
		for i := range want {
			assert.True(t, want[i].Equal(got[i].Start), "occurrence %d: want %s got %s", i, want[i], got[i].Start)
			assert.Equal(t, 30*time.Minute, got[i].Duration())
		}
	})

	t.Run("until includes an occurrence starting on it", func(t *testing.T) {
		t.Parallel()

		spec, err := ParseRRule(start, time.Hour, "FREQ=WEEKLY;UNTIL=20240115T090000Z")
		require.NoError(t, err)
		bound, ok := spec.Bound.Get()
		require.True(t, ok)
		assert.True(t, bound.Equal(time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)))

		got := stream.Collect(mustRule(t, spec).Occurrences())
		require.Len(t, got, 3)
		assert.True(t, got[2].Start.Equal(time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("the earlier of count and until wins", func(t *testing.T) {
		t.Parallel()

		spec, err := ParseRRule(start, time.Hour, "FREQ=DAILY;COUNT=2;UNTIL=20241231T000000Z")
		require.NoError(t, err)
		assert.Len(t, stream.Collect(mustRule(t, spec).Occurrences()), 2)
	})

	t.Run("monthly uses the thirty day step", func(t *testing.T) {
		t.Parallel()

		spec, err := ParseRRule(start, time.Hour, "FREQ=MONTHLY;INTERVAL=3")
		require.NoError(t, err)
		assert.Equal(t, 90*24*time.Hour, spec.Step)
	})

	t.Run("dtstart line overrides the anchor", func(t *testing.T) {
		t.Parallel()

		spec, err := ParseRRule(start, time.Hour, "DTSTART:20240301T080000Z\nRRULE:FREQ=HOURLY;INTERVAL=6")
		require.NoError(t, err)
		assert.True(t, spec.AnchorStart.Equal(time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)))
		assert.Equal(t, 6*time.Hour, spec.Step)
	})

	t.Run("by parts are rejected", func(t *testing.T) {
		t.Parallel()

		_, err := ParseRRule(start, time.Hour, "FREQ=WEEKLY;BYDAY=MO,WE,FR")
		assert.ErrorIs(t, err, ErrUnsupportedRule)
	})

	t.Run("until before anchor is invalid", func(t *testing.T) {
		t.Parallel()

		_, err := ParseRRule(start, time.Hour, "FREQ=DAILY;UNTIL=20231201T000000Z")
		assert.ErrorIs(t, err, ErrInvalidRecurrenceSpec)
	})

	t.Run("longest representable count", func(t *testing.T) {
		t.Parallel()

		spec, err := ParseRRule(start, time.Hour, "FREQ=YEARLY;COUNT=200")
		require.NoError(t, err)
		bound, ok := spec.Bound.Get()
		require.True(t, ok)
		assert.True(t, bound.Equal(start.Add(199*365*24*time.Hour+time.Hour)))
		assert.Len(t, stream.Collect(mustRule(t, spec).Occurrences()), 200)
	})

	t.Run("steps and spans beyond a duration are rejected", func(t *testing.T) {
		t.Parallel()

		for _, rule := range []string{
			"FREQ=YEARLY;INTERVAL=600",
			"FREQ=YEARLY;COUNT=600",
			"FREQ=DAILY;INTERVAL=200000",
			"FREQ=WEEKLY;INTERVAL=2;COUNT=10000",
		} {
			_, err := ParseRRule(start, time.Hour, rule)
			assert.ErrorIs(t, err, ErrUnsupportedRule, rule)
		}
	})

	t.Run("malformed rule", func(t *testing.T) {
		t.Parallel()

		_, err := ParseRRule(start, time.Hour, "INTERVAL=2")
		require.Error(t, err)
	})
}

func mustRule(t *testing.T, spec Spec) *Rule {
	t.Helper()
	rule, err := New(spec)
	require.NoError(t, err)
	return rule
}
