package indexer_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/indexer"
	"github.com/liganite/liganite/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithLogger(m.Run))
}

func gameEvent(typ events.EventType, publisher core.AccountID, id core.GameID, buyer core.AccountID) events.Event {
	data := map[string]any{"publisher": publisher, "game_id": id}
	if buyer != "" {
		data["buyer"] = buyer
	}
	return events.Event{Type: typ, Data: data}
}

func TestIndexesCatalogAndLibrary(t *testing.T) {
	emitter := events.NewEmitter()
	idx := indexer.New(testutil.NewMemDB(), emitter)

	emitter.Emit(gameEvent(events.EventGameAdded, "pub", 2, ""))
	emitter.Emit(gameEvent(events.EventGameAdded, "pub", 1, ""))
	emitter.Emit(gameEvent(events.EventGameAdded, "other", 1, ""))
	emitter.Emit(gameEvent(events.EventGamePurchased, "pub", 2, "alice"))
	emitter.Emit(gameEvent(events.EventOrderPlaced, "pub", 1, "alice"))
	emitter.Emit(gameEvent(events.EventOrderFulfilled, "pub", 1, "alice"))
	emitter.Emit(gameEvent(events.EventGamePurchased, "pub", 2, "alice"))

	listed, err := idx.GamesByPublisher("pub")
	require.NoError(t, err)
	assert.Equal(t, []core.GlobalGameID{{Publisher: "pub", Game: 2}, {Publisher: "pub", Game: 1}}, listed)

	owned, err := idx.OwnedGames("alice")
	require.NoError(t, err)
	assert.Equal(t, []core.GlobalGameID{{Publisher: "pub", Game: 2}, {Publisher: "pub", Game: 1}}, owned,
		"placing an order does not own the game and duplicates are ignored")

	none, err := idx.OwnedGames("bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIgnoresMalformedEvents(t *testing.T) {
	emitter := events.NewEmitter()
	db := testutil.NewMemDB()
	idx := indexer.New(db, emitter)

	emitter.Emit(events.Event{Type: events.EventGameAdded, Data: map[string]any{"publisher": "pub", "game_id": 1}})
	emitter.Emit(gameEvent(events.EventGamePurchased, "pub", 1, ""))

	assert.Zero(t, db.Len())
	listed, err := idx.GamesByPublisher("pub")
	require.NoError(t, err)
	assert.Empty(t, listed)
}
