package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/crypto"
)

// registerPrefix records a state-key prefix into statePrefixes so that
// ComputeRoot() always covers it.
func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

// statePrefixes is populated automatically by registerPrefix() below.
var statePrefixes []string

var (
	prefixAccount        = registerPrefix("acct:")
	prefixMeta           = registerPrefix("meta:")
	prefixPublisher      = registerPrefix("pub:")
	prefixTag            = registerPrefix("tag:")
	prefixGame           = registerPrefix("game:")
	prefixBuyerOrder     = registerPrefix("bord:")
	prefixPublisherOrder = registerPrefix("pord:")
	prefixOwned          = registerPrefix("own:")
)

const keyPublisherDeposit = "meta:publisher_deposit"

// keyHeight lives outside the state prefixes: it is committed with the
// state but does not contribute to the root.
const keyHeight = "node:height"

func tagKey(id core.TagID) string {
	return fmt.Sprintf("%s%05d", prefixTag, id)
}

func gameKey(g core.GlobalGameID) string {
	return fmt.Sprintf("%s%s:%05d", prefixGame, g.Publisher, g.Game)
}

func buyerOrderKey(buyer core.AccountID, g core.GlobalGameID) string {
	return fmt.Sprintf("%s%s:%s:%05d", prefixBuyerOrder, buyer, g.Publisher, g.Game)
}

func publisherOrderKey(g core.GlobalGameID, buyer core.AccountID) string {
	return fmt.Sprintf("%s%s:%05d:%s", prefixPublisherOrder, g.Publisher, g.Game, buyer)
}

func ownedKey(buyer core.AccountID, g core.GlobalGameID) string {
	return fmt.Sprintf("%s%s:%s:%05d", prefixOwned, buyer, g.Publisher, g.Game)
}

func parseGameID(s string) (core.GameID, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("bad game id %q: %w", s, err)
	}
	return core.GameID(n), nil
}

type stateSnapshot struct {
	dirty   map[string][]byte
	deleted map[string]bool
}

// StateDB implements core.State on top of a DB with in-memory write buffer,
// snapshot/rollback, and deterministic state-root computation.
type StateDB struct {
	db        DB
	dirty     map[string][]byte
	deleted   map[string]bool
	snapshots []stateSnapshot
}

var _ core.State = (*StateDB)(nil)

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{
		db:      db,
		dirty:   make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// ---- internal helpers ----

func (s *StateDB) get(key string) ([]byte, error) {
	if s.deleted[key] {
		return nil, core.ErrNotFound
	}
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) has(key string) (bool, error) {
	_, err := s.get(key)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *StateDB) set(key string, val []byte) {
	delete(s.deleted, key)
	s.dirty[key] = val
}

func (s *StateDB) del(key string) {
	delete(s.dirty, key)
	s.deleted[key] = true
}

func (s *StateDB) getJSON(key string, v any) error {
	data, err := s.get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *StateDB) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, data)
	return nil
}

// scan returns every live entry under prefix, merging persisted rows with
// the write buffer.
func (s *StateDB) scan(prefix string) (map[string][]byte, error) {
	merged := make(map[string][]byte)
	it := s.db.NewIterator([]byte(prefix))
	for it.Next() {
		v := make([]byte, len(it.Value()))
		copy(v, it.Value())
		merged[string(it.Key())] = v
	}
	it.Release()
	if err := it.Error(); err != nil {
		return nil, err
	}
	for k, v := range s.dirty {
		if strings.HasPrefix(k, prefix) {
			merged[k] = v
		}
	}
	for k := range s.deleted {
		delete(merged, k)
	}
	return merged, nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---- Account ----

func (s *StateDB) GetAccount(id core.AccountID) (*core.Account, error) {
	var acc core.Account
	err := s.getJSON(prefixAccount+string(id), &acc)
	if errors.Is(err, core.ErrNotFound) {
		return &core.Account{Address: id}, nil // zero-value account
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *StateDB) SetAccount(acc *core.Account) error {
	for reason, v := range acc.Holds {
		if v == 0 {
			delete(acc.Holds, reason)
		}
	}
	return s.setJSON(prefixAccount+string(acc.Address), acc)
}

// ---- Publishers ----

func (s *StateDB) GetPublisherDeposit() (uint64, error) {
	var amount uint64
	err := s.getJSON(keyPublisherDeposit, &amount)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	return amount, err
}

func (s *StateDB) SetPublisherDeposit(amount uint64) error {
	return s.setJSON(keyPublisherDeposit, amount)
}

func (s *StateDB) GetPublisher(id core.AccountID) (*core.PublisherDetails, error) {
	var d core.PublisherDetails
	if err := s.getJSON(prefixPublisher+string(id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *StateDB) HasPublisher(id core.AccountID) (bool, error) {
	return s.has(prefixPublisher + string(id))
}

func (s *StateDB) SetPublisher(id core.AccountID, d *core.PublisherDetails) error {
	return s.setJSON(prefixPublisher+string(id), d)
}

// ---- Tags ----

func (s *StateDB) GetTag(id core.TagID) (string, error) {
	data, err := s.get(tagKey(id))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *StateDB) HasTag(id core.TagID) (bool, error) {
	return s.has(tagKey(id))
}

// PutTag stores a vocabulary entry. It is not part of core.State: only
// genesis loading writes tags.
func (s *StateDB) PutTag(id core.TagID, tag string) {
	s.set(tagKey(id), []byte(tag))
}

// Tags returns the whole vocabulary ordered by id.
func (s *StateDB) Tags() (map[core.TagID]string, error) {
	rows, err := s.scan(prefixTag)
	if err != nil {
		return nil, err
	}
	out := make(map[core.TagID]string, len(rows))
	for k, v := range rows {
		n, err := strconv.ParseUint(strings.TrimPrefix(k, prefixTag), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad tag key %q: %w", k, err)
		}
		out[core.TagID(n)] = string(v)
	}
	return out, nil
}

// ---- Catalog ----

func (s *StateDB) GetGame(g core.GlobalGameID) (*core.GameDetails, error) {
	var d core.GameDetails
	if err := s.getJSON(gameKey(g), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *StateDB) HasGame(g core.GlobalGameID) (bool, error) {
	return s.has(gameKey(g))
}

func (s *StateDB) SetGame(g core.GlobalGameID, d *core.GameDetails) error {
	return s.setJSON(gameKey(g), d)
}

// ---- Orders ----

func (s *StateDB) GetOrder(buyer core.AccountID, g core.GlobalGameID) (*core.OrderDetails, error) {
	var o core.OrderDetails
	if err := s.getJSON(buyerOrderKey(buyer, g), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *StateDB) HasOrder(buyer core.AccountID, g core.GlobalGameID) (bool, error) {
	return s.has(buyerOrderKey(buyer, g))
}

func (s *StateDB) HasPublisherOrder(g core.GlobalGameID, buyer core.AccountID) (bool, error) {
	return s.has(publisherOrderKey(g, buyer))
}

// PutOrder writes both order indexes.
func (s *StateDB) PutOrder(buyer core.AccountID, g core.GlobalGameID, o *core.OrderDetails) error {
	if err := s.setJSON(buyerOrderKey(buyer, g), o); err != nil {
		return err
	}
	return s.setJSON(publisherOrderKey(g, buyer), buyer)
}

// RemoveOrder deletes both order indexes.
func (s *StateDB) RemoveOrder(buyer core.AccountID, g core.GlobalGameID) error {
	s.del(buyerOrderKey(buyer, g))
	s.del(publisherOrderKey(g, buyer))
	return nil
}

// BuyerOrders lists the pending orders placed by buyer.
func (s *StateDB) BuyerOrders(buyer core.AccountID) ([]core.Order, error) {
	return s.buyerOrders(prefixBuyerOrder + string(buyer) + ":")
}

// AllOrders lists every pending order from the buyer-side index.
func (s *StateDB) AllOrders() ([]core.Order, error) {
	return s.buyerOrders(prefixBuyerOrder)
}

func (s *StateDB) buyerOrders(prefix string) ([]core.Order, error) {
	rows, err := s.scan(prefix)
	if err != nil {
		return nil, err
	}
	orders := make([]core.Order, 0, len(rows))
	for _, k := range sortedKeys(rows) {
		parts := strings.Split(strings.TrimPrefix(k, prefixBuyerOrder), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("bad buyer order key %q", k)
		}
		game, err := parseGameID(parts[2])
		if err != nil {
			return nil, err
		}
		var o core.OrderDetails
		if err := json.Unmarshal(rows[k], &o); err != nil {
			return nil, err
		}
		orders = append(orders, core.Order{
			Buyer:   core.AccountID(parts[0]),
			Game:    core.GlobalGameID{Publisher: core.AccountID(parts[1]), Game: game},
			Deposit: o.Deposit,
		})
	}
	return orders, nil
}

// PublisherOrders lists the pending orders on publisher's games, resolved
// through the publisher-side index.
func (s *StateDB) PublisherOrders(publisher core.AccountID) ([]core.Order, error) {
	return s.publisherOrders(prefixPublisherOrder + string(publisher) + ":")
}

// AllPublisherOrders lists every pending order from the publisher-side index.
func (s *StateDB) AllPublisherOrders() ([]core.Order, error) {
	return s.publisherOrders(prefixPublisherOrder)
}

func (s *StateDB) publisherOrders(prefix string) ([]core.Order, error) {
	rows, err := s.scan(prefix)
	if err != nil {
		return nil, err
	}
	orders := make([]core.Order, 0, len(rows))
	for _, k := range sortedKeys(rows) {
		parts := strings.Split(strings.TrimPrefix(k, prefixPublisherOrder), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("bad publisher order key %q", k)
		}
		game, err := parseGameID(parts[1])
		if err != nil {
			return nil, err
		}
		var buyer core.AccountID
		if err := json.Unmarshal(rows[k], &buyer); err != nil {
			return nil, err
		}
		g := core.GlobalGameID{Publisher: core.AccountID(parts[0]), Game: game}
		o, err := s.GetOrder(buyer, g)
		if err != nil {
			return nil, fmt.Errorf("publisher order %s for %s has no buyer row: %w", g, buyer, err)
		}
		orders = append(orders, core.Order{Buyer: buyer, Game: g, Deposit: o.Deposit})
	}
	return orders, nil
}

// ---- Ownership ----

func (s *StateDB) IsOwned(buyer core.AccountID, g core.GlobalGameID) (bool, error) {
	return s.has(ownedKey(buyer, g))
}

func (s *StateDB) SetOwned(buyer core.AccountID, g core.GlobalGameID) error {
	s.set(ownedKey(buyer, g), []byte{1})
	return nil
}

// ---- Node metadata ----

// Height returns the last applied height and whether genesis has run.
func (s *StateDB) Height() (uint64, bool, error) {
	var h uint64
	err := s.getJSON(keyHeight, &h)
	if errors.Is(err, core.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return h, true, nil
}

// SetHeight records h; it is flushed by the next Commit.
func (s *StateDB) SetHeight(h uint64) error {
	return s.setJSON(keyHeight, h)
}

// ---- Snapshot / Rollback / Commit ----

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	snap := stateSnapshot{
		dirty:   make(map[string][]byte, len(s.dirty)),
		deleted: make(map[string]bool, len(s.deleted)),
	}
	for k, v := range s.dirty {
		snap.dirty[k] = append([]byte(nil), v...)
	}
	for k, v := range s.deleted {
		snap.deleted[k] = v
	}
	s.snapshots = append(s.snapshots, snap)
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to a previously saved snapshot
// and drops it together with every later snapshot.
func (s *StateDB) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	snap := s.snapshots[id]
	s.dirty = snap.dirty
	s.deleted = snap.deleted
	s.snapshots = s.snapshots[:id]
	return nil
}

// DiscardSnapshot forgets snapshot id (and every later one) while keeping
// the current write buffer.
func (s *StateDB) DiscardSnapshot(id int) {
	if id >= 0 && id < len(s.snapshots) {
		s.snapshots = s.snapshots[:id]
	}
}

// ComputeRoot returns the deterministic hash of the complete world state:
// persisted entries under every state prefix merged with the write buffer,
// sorted and length-prefix encoded. It does not flush.
func (s *StateDB) ComputeRoot() string {
	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, prefix := range statePrefixes {
		rows, err := s.scan(prefix)
		if err != nil {
			return ""
		}
		for _, k := range sortedKeys(rows) {
			v := rows[k]
			binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k)))
			buf.Write(lenBuf[:])
			buf.WriteString(k)
			binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
			buf.Write(lenBuf[:])
			buf.Write(v)
		}
	}
	return crypto.Hash(buf.Bytes())
}

// Commit atomically flushes the write buffer to the underlying DB via a
// batch and then clears it.
func (s *StateDB) Commit() error {
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	for k := range s.deleted {
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.dirty = make(map[string][]byte)
	s.deleted = make(map[string]bool)
	s.snapshots = nil
	return nil
}
