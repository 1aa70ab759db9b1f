// Package testutil provides in-memory storage and fixtures shared by tests
// across the module. Never import this in production code.
package testutil

import (
	"sort"
	"strings"
	"sync"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/storage"
)

// MemDB is a thread-safe in-memory storage.DB for tests.
type MemDB struct {
	mu       sync.RWMutex
	data     map[string][]byte
	writeErr error
}

var _ storage.DB = (*MemDB)(nil)

// NewMemDB creates an empty MemDB.
func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return v, nil
}

func (m *MemDB) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// FailWrites makes every later batch write return err without applying it.
// A nil err restores normal writes.
func (m *MemDB) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Len reports the number of persisted keys.
func (m *MemDB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// NewIterator returns a snapshot of the pairs under prefix in key order.
func (m *MemDB) NewIterator(prefix []byte) storage.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := string(prefix)
	it := &memIter{idx: -1}
	for k, v := range m.data {
		if strings.HasPrefix(k, p) {
			it.keys = append(it.keys, k)
			it.vals = append(it.vals, append([]byte(nil), v...))
		}
	}
	sort.Sort(it)
	return it
}

func (m *MemDB) NewBatch() storage.Batch {
	return &memBatch{db: m}
}

func (m *MemDB) Close() error { return nil }

// memBatch buffers writes and applies them under a single lock.
type memBatch struct {
	db   *MemDB
	sets map[string][]byte
	dels map[string]bool
}

func (b *memBatch) Set(key, value []byte) {
	if b.sets == nil {
		b.sets = make(map[string][]byte)
	}
	delete(b.dels, string(key))
	b.sets[string(key)] = append([]byte(nil), value...)
}

func (b *memBatch) Delete(key []byte) {
	if b.dels == nil {
		b.dels = make(map[string]bool)
	}
	delete(b.sets, string(key))
	b.dels[string(key)] = true
}

func (b *memBatch) Reset() {
	b.sets = nil
	b.dels = nil
}

func (b *memBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	if b.db.writeErr != nil {
		return b.db.writeErr
	}
	for k := range b.dels {
		delete(b.db.data, k)
	}
	for k, v := range b.sets {
		b.db.data[k] = v
	}
	return nil
}

type memIter struct {
	keys []string
	vals [][]byte
	idx  int
}

func (it *memIter) Len() int           { return len(it.keys) }
func (it *memIter) Less(i, j int) bool { return it.keys[i] < it.keys[j] }
func (it *memIter) Swap(i, j int) {
	it.keys[i], it.keys[j] = it.keys[j], it.keys[i]
	it.vals[i], it.vals[j] = it.vals[j], it.vals[i]
}

func (it *memIter) Next() bool    { it.idx++; return it.idx < len(it.keys) }
func (it *memIter) Key() []byte   { return []byte(it.keys[it.idx]) }
func (it *memIter) Value() []byte { return it.vals[it.idx] }
func (it *memIter) Release()      {}
func (it *memIter) Error() error  { return nil }

// NewStateDB returns a storage.StateDB backed by a fresh MemDB.
func NewStateDB() *storage.StateDB {
	return storage.NewStateDB(NewMemDB())
}
