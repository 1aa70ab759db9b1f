package events_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithLogger(m.Run))
}

func TestEmitterRecoversFromPanickingHandler(t *testing.T) {
	e := events.NewEmitter()
	var got []events.EventType
	e.Subscribe(events.EventGameAdded, func(events.Event) { panic("boom") })
	e.Subscribe(events.EventGameAdded, func(ev events.Event) { got = append(got, ev.Type) })
	e.SubscribeAll(func(ev events.Event) { got = append(got, "all:"+ev.Type) })

	e.Emit(events.Event{Type: events.EventGameAdded})
	e.Emit(events.Event{Type: events.EventOrderPlaced})

	assert.Equal(t, []events.EventType{
		"all:" + events.EventGameAdded,
		events.EventGameAdded,
		"all:" + events.EventOrderPlaced,
	}, got)
}

func TestBufferFlushAndDiscard(t *testing.T) {
	j := events.NewJournal(0)
	var b events.Buffer
	b.Emit(events.Event{Type: events.EventOrderPlaced})
	b.Discard()
	b.Flush(j)
	assert.Zero(t, j.Last())

	b.Emit(events.Event{Type: events.EventOrderPlaced})
	b.Emit(events.Event{Type: events.EventOrderFulfilled})
	b.Flush(j)
	assert.Empty(t, b.Events())

	got := j.Since(0, 0)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, events.EventOrderFulfilled, got[1].Type)
}

func TestJournalRetention(t *testing.T) {
	j := events.NewJournal(3)
	e := events.NewEmitter()
	j.Attach(e)
	for i := 0; i < 5; i++ {
		e.Emit(events.Event{Type: events.EventTokenTransfer})
		e.Emit(events.Event{Type: events.EventTxExecuted})
	}

	assert.Equal(t, uint64(5), j.Last())
	got := j.Since(0, 0)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(3), got[0].Seq)

	got = j.Since(3, 1)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(4), got[0].Seq)
	assert.Empty(t, j.Since(5, 0))
}

func TestJournalWrapsInOrder(t *testing.T) {
	j := events.NewJournal(4)
	for i := 0; i < 11; i++ {
		j.Emit(events.Event{Type: events.EventTokenTransfer})
		got := j.Since(0, 0)
		want := min(i+1, 4)
		require.Len(t, got, want)
		for k, ev := range got {
			assert.Equal(t, uint64(i+2-want+k), ev.Seq)
		}
	}
}
