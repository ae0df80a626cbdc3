package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/occupancy-scheduler/internal/interval"
	"github.com/example/occupancy-scheduler/internal/stream"
)

var jst = time.FixedZone("JST", 9*60*60)

func TestRule_Occurrences(t *testing.T) {
	t.Parallel()

	baseStart := time.Date(2024, time.March, 4, 15, 0, 0, 0, jst)
	meeting := 90 * time.Minute

	t.Run("unbounded daily rule truncated to three occurrences", func(t *testing.T) {
		t.Parallel()

		rule, err := New(Daily(baseStart, meeting, mo.None[time.Time]()))
		require.NoError(t, err)
		assert.True(t, rule.spec.Bound.IsAbsent())

		got := stream.Take(rule.Occurrences(), 3)
		want := []interval.Interval{
			interval.Of(baseStart, meeting),
			interval.Of(baseStart.AddDate(0, 0, 1), meeting),
			interval.Of(baseStart.AddDate(0, 0, 2), meeting),
		}
		require.Len(t, got, 3)
		for i := range want {
			assert.True(t, want[i].Equal(got[i]), "occurrence %d: want %s got %s", i, want[i], got[i])
		}
	})

	t.Run("restartable across calls and constructions", func(t *testing.T) {
		t.Parallel()

		spec := Weekly(baseStart, meeting, mo.None[time.Time]())
		first, err := New(spec)
		require.NoError(t, err)
		second, err := New(spec)
		require.NoError(t, err)

		a := stream.Take(first.Occurrences(), 50)
		b := stream.Take(first.Occurrences(), 50)
		c := stream.Take(second.Occurrences(), 50)
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
	})

	t.Run("strictly ascending by start", func(t *testing.T) {
		t.Parallel()

		rule, err := New(Spec{AnchorStart: baseStart, AnchorDuration: 3 * time.Hour, Step: time.Hour})
		require.NoError(t, err)

		got := stream.Take(rule.Occurrences(), 100)
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].Start.Before(got[i].Start))
		}
	})

	t.Run("bound is inclusive of the final end", func(t *testing.T) {
		t.Parallel()

		bound := baseStart.AddDate(0, 0, 2).Add(meeting)
		rule, err := New(Daily(baseStart, meeting, mo.Some(bound)))
		require.NoError(t, err)

		got := stream.Collect(rule.Occurrences())
		require.Len(t, got, 3)
		assert.True(t, got[2].End.Equal(bound))
	})

	t.Run("bound cutting the first occurrence yields nothing", func(t *testing.T) {
		t.Parallel()

		rule, err := New(Daily(baseStart, meeting, mo.Some(baseStart.Add(time.Hour))))
		require.NoError(t, err)
		assert.Empty(t, stream.Collect(rule.Occurrences()))
	})

	t.Run("instant events are valid", func(t *testing.T) {
		t.Parallel()

		rule, err := New(Daily(baseStart, 0, mo.Some(baseStart.AddDate(0, 0, 1))))
		require.NoError(t, err)

		got := stream.Collect(rule.Occurrences())
		require.Len(t, got, 2)
		assert.Zero(t, got[0].Duration())
	})

	t.Run("exhausted sequence stays exhausted", func(t *testing.T) {
		t.Parallel()

		rule, err := New(Daily(baseStart, meeting, mo.Some(baseStart.Add(meeting))))
		require.NoError(t, err)

		occurrences := rule.Occurrences()
		_, ok := occurrences.Next()
		require.True(t, ok)
		_, ok = occurrences.Next()
		require.False(t, ok)
		_, ok = occurrences.Next()
		require.False(t, ok)
	})
}

func TestNew_RejectsInvalidSpecs(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, jst)

	tests := []struct {
		name string
		spec Spec
	}{
		{name: "zero step", spec: Spec{AnchorStart: start, AnchorDuration: time.Hour}},
		{name: "negative step", spec: Spec{AnchorStart: start, AnchorDuration: time.Hour, Step: -day}},
		{name: "negative duration", spec: Spec{AnchorStart: start, AnchorDuration: -time.Hour, Step: day}},
		{name: "bound before anchor", spec: Spec{AnchorStart: start, AnchorDuration: time.Hour, Step: day, Bound: mo.Some(start.Add(-time.Second))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := New(tt.spec)
			assert.Nil(t, rule)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecurrenceSpec), "unexpected error: %v", err)
		})
	}
}

func TestPresets(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		freq Frequency
		want time.Duration
	}{
		{name: "daily", freq: FrequencyDaily, want: 24 * time.Hour},
		{name: "weekly", freq: FrequencyWeekly, want: 7 * 24 * time.Hour},
		{name: "monthly", freq: FrequencyMonthly, want: 30 * 24 * time.Hour},
		{name: "yearly", freq: FrequencyYearly, want: 365 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseFrequency(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.freq, parsed)
			assert.Equal(t, tt.name, parsed.String())

			spec, err := Preset(tt.freq, start, time.Hour, mo.None[time.Time]())
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Step)
		})
	}

	_, err := ParseFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidFrequency)
	_, err = Preset(FrequencyUnspecified, start, time.Hour, mo.None[time.Time]())
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}
