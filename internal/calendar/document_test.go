package calendar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/occupancy-scheduler/internal/recurrence"
	"github.com/example/occupancy-scheduler/internal/stream"
	"github.com/example/occupancy-scheduler/internal/testfixtures"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

const sampleDocument = `
participants:
  - id: alice
    name: Alice
  - id: bob
    name: Bob
events:
  - id: review
    title: Design review
    owner: alice
    start: 2024-03-04T15:00:00+09:00
    end: 2024-03-04T16:30:00+09:00
  - title: Standup
    owner: bob
    start: 2024-03-04T09:00:00+09:00
    end: 2024-03-04T09:15:00+09:00
    repeat:
      - preset: daily
        until: 2024-03-08T09:15:00+09:00
  - id: one-on-one
    title: One on one
    owner: bob
    start: 2024-03-05T11:00:00+09:00
    end: 2024-03-05T11:30:00+09:00
    repeat:
      - rrule: FREQ=WEEKLY;INTERVAL=2;COUNT=3
      - every: 72h
        from: 2024-03-06T13:00:00+09:00
invites:
  - event: review
    participant: bob
    status: Accepted
`

func TestDecode(t *testing.T) {
	t.Parallel()

	ids := testfixtures.NewIDGenerator("event")
	cal, err := Decode(strings.NewReader(sampleDocument), WithIDGenerator(ids.NextFunc()))
	require.NoError(t, err)

	participants := cal.Participants()
	require.Len(t, participants, 2)
	assert.Equal(t, "Alice", participants[0].Name)

	events, err := cal.EventsFor(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, events, 3)

	standup := events[0]
	assert.Equal(t, "event-1", standup.ID)
	assert.True(t, standup.Recurring)
	require.Len(t, standup.Rules, 1)
	assert.Equal(t, 24*time.Hour, standup.Rules[0].Step)

	instances, err := standup.Instances()
	require.NoError(t, err)
	assert.Len(t, stream.Collect(instances), 5)

	oneOnOne := events[1]
	require.Len(t, oneOnOne.Rules, 2)
	assert.Equal(t, 14*24*time.Hour, oneOnOne.Rules[0].Step)
	assert.True(t, oneOnOne.Rules[0].Bound.IsPresent())
	assert.True(t, oneOnOne.Rules[1].Bound.IsAbsent())
	assert.True(t, oneOnOne.Rules[1].AnchorStart.Equal(time.Date(2024, time.March, 6, 4, 0, 0, 0, time.UTC)))

	assert.Equal(t, "review", events[2].ID)
	assert.Equal(t, "alice", events[2].OwnerID)
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	header := "participants:\n  - id: alice\n"
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown key",
			doc:  header + "colour: blue\n",
		},
		{
			name: "unknown owner",
			doc:  header + "events:\n  - owner: bob\n    start: 2024-03-04T15:00:00Z\n    end: 2024-03-04T16:00:00Z\n",
			want: timeline.ErrNotFound,
		},
		{
			name: "end before start",
			doc:  header + "events:\n  - owner: alice\n    start: 2024-03-04T15:00:00Z\n    end: 2024-03-04T14:00:00Z\n",
		},
		{
			name: "timestamp without offset",
			doc:  header + "events:\n  - owner: alice\n    start: 2024-03-04 15:00\n    end: 2024-03-04T16:00:00Z\n",
		},
		{
			name: "two rule kinds in one entry",
			doc: header + "events:\n  - owner: alice\n    start: 2024-03-04T15:00:00Z\n    end: 2024-03-04T16:00:00Z\n" +
				"    repeat:\n      - preset: daily\n        every: 2h\n",
		},
		{
			name: "non-positive step",
			doc: header + "events:\n  - owner: alice\n    start: 2024-03-04T15:00:00Z\n    end: 2024-03-04T16:00:00Z\n" +
				"    repeat:\n      - every: 0s\n",
			want: recurrence.ErrInvalidRecurrenceSpec,
		},
		{
			name: "unknown preset",
			doc: header + "events:\n  - owner: alice\n    start: 2024-03-04T15:00:00Z\n    end: 2024-03-04T16:00:00Z\n" +
				"    repeat:\n      - preset: fortnightly\n",
			want: recurrence.ErrInvalidFrequency,
		},
		{
			name: "rrule with by parts",
			doc: header + "events:\n  - owner: alice\n    start: 2024-03-04T15:00:00Z\n    end: 2024-03-04T16:00:00Z\n" +
				"    repeat:\n      - rrule: FREQ=WEEKLY;BYDAY=MO,TU\n",
			want: recurrence.ErrUnsupportedRule,
		},
		{
			name: "invite to unknown event",
			doc:  header + "invites:\n  - event: missing\n    participant: alice\n",
			want: timeline.ErrNotFound,
		},
		{
			name: "duplicate participant",
			doc:  header + "  - id: alice\n",
			want: timeline.ErrDuplicate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(strings.NewReader(tc.doc))
			require.ErrorIs(t, err, ErrInvalidDocument)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	t.Parallel()

	cal, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cal.Participants())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "calendar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	cal, err := Load(path)
	require.NoError(t, err)
	events, err := cal.EventsFor(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.NotEmpty(t, events[0].ID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
