// Package indexer maintains secondary indexes over committed marketplace
// events so clients can list a publisher's catalog or a buyer's library
// without scanning full state.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bitmark-inc/logger"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/storage"
)

const (
	prefixPublisherGames = "idx:publisher:games:"
	prefixBuyerLibrary   = "idx:buyer:library:"
)

// Indexer subscribes to marketplace events and updates lookup tables.
type Indexer struct {
	db  storage.DB
	log *logger.L
}

// New creates an Indexer backed by db and subscribes to relevant events.
func New(db storage.DB, emitter *events.Emitter) *Indexer {
	idx := &Indexer{db: db, log: logger.New("indexer")}
	emitter.Subscribe(events.EventGameAdded, idx.onGameAdded)
	emitter.Subscribe(events.EventGamePurchased, idx.onOwned)
	emitter.Subscribe(events.EventOrderFulfilled, idx.onOwned)
	return idx
}

// GamesByPublisher returns the games listed by publisher in listing order.
func (idx *Indexer) GamesByPublisher(publisher core.AccountID) ([]core.GlobalGameID, error) {
	return idx.getList(prefixPublisherGames + string(publisher))
}

// OwnedGames returns the games owned by buyer in acquisition order.
func (idx *Indexer) OwnedGames(buyer core.AccountID) ([]core.GlobalGameID, error) {
	return idx.getList(prefixBuyerLibrary + string(buyer))
}

// ---- event handlers ----

func (idx *Indexer) onGameAdded(ev events.Event) {
	g, ok := gameOf(ev)
	if !ok {
		idx.log.Warnf("malformed %s event in tx %s", ev.Type, ev.TxID)
		return
	}
	if err := idx.addToList(prefixPublisherGames+string(g.Publisher), g); err != nil {
		idx.log.Errorf("index game %s: %v", g, err)
	}
}

func (idx *Indexer) onOwned(ev events.Event) {
	g, ok := gameOf(ev)
	buyer, _ := ev.Data["buyer"].(core.AccountID)
	if !ok || buyer == "" {
		idx.log.Warnf("malformed %s event in tx %s", ev.Type, ev.TxID)
		return
	}
	if err := idx.addToList(prefixBuyerLibrary+string(buyer), g); err != nil {
		idx.log.Errorf("index ownership of %s by %s: %v", g, buyer, err)
	}
}

func gameOf(ev events.Event) (core.GlobalGameID, bool) {
	publisher, _ := ev.Data["publisher"].(core.AccountID)
	id, ok := ev.Data["game_id"].(core.GameID)
	if publisher == "" || !ok {
		return core.GlobalGameID{}, false
	}
	return core.GlobalGameID{Publisher: publisher, Game: id}, true
}

// ---- list helpers ----

func (idx *Indexer) getList(key string) ([]core.GlobalGameID, error) {
	data, err := idx.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil // empty list
		}
		return nil, err
	}
	var ids []core.GlobalGameID
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("indexer unmarshal: %w", err)
	}
	return ids, nil
}

// addToList appends g to the list under key unless it is already present.
func (idx *Indexer) addToList(key string, g core.GlobalGameID) error {
	ids, err := idx.getList(key)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == g {
			return nil
		}
	}
	data, err := json.Marshal(append(ids, g))
	if err != nil {
		return err
	}
	return idx.db.Set([]byte(key), data)
}
