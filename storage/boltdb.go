package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/liganite/liganite/core"
)

var bucketState = []byte("state")

// BoltDB implements DB on a single bbolt bucket. It is the embedded
// alternative to LevelDB for single-file deployments.
type BoltDB struct {
	db *bbolt.DB
}

var _ DB = (*BoltDB)(nil)

// NewBoltDB opens or creates the bbolt file at path. The parent directory
// is created if it does not exist.
func NewBoltDB(path string) (*BoltDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create bolt directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt %q: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %q: %w", bucketState, err)
	}
	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketState).Get(key)
		if v == nil {
			return core.ErrNotFound
		}
		// bbolt values are only valid inside the transaction.
		val = append([]byte(nil), v...)
		return nil
	})
	return val, err
}

func (b *BoltDB) Set(key, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put(key, value)
	})
}

func (b *BoltDB) Delete(key []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Delete(key)
	})
}

// NewIterator copies the matching pairs out of a read transaction so the
// iterator stays valid after it closes.
func (b *BoltDB) NewIterator(prefix []byte) Iterator {
	it := &sliceIter{idx: -1}
	it.err = b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketState).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			it.pairs = append(it.pairs, kvPair{
				key:   append([]byte(nil), k...),
				value: append([]byte(nil), v...),
			})
		}
		return nil
	})
	return it
}

func (b *BoltDB) NewBatch() Batch {
	return &boltBatch{db: b.db}
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}

type boltBatch struct {
	db  *bbolt.DB
	ops []kvPair // nil value means delete
}

func (b *boltBatch) Set(key, value []byte) {
	b.ops = append(b.ops, kvPair{key: append([]byte(nil), key...), value: append([]byte{}, value...)})
}

func (b *boltBatch) Delete(key []byte) {
	b.ops = append(b.ops, kvPair{key: append([]byte(nil), key...)})
}

func (b *boltBatch) Reset() { b.ops = nil }

func (b *boltBatch) Write() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(bucketState)
		for _, op := range b.ops {
			var err error
			if op.value == nil {
				err = bk.Delete(op.key)
			} else {
				err = bk.Put(op.key, op.value)
			}
			if err != nil {
				return fmt.Errorf("bolt batch %q: %w", op.key, err)
			}
		}
		return nil
	})
}

type kvPair struct {
	key, value []byte
}

// sliceIter iterates over materialised pairs.
type sliceIter struct {
	pairs []kvPair
	idx   int
	err   error
}

func (it *sliceIter) Next() bool    { it.idx++; return it.idx < len(it.pairs) }
func (it *sliceIter) Key() []byte   { return it.pairs[it.idx].key }
func (it *sliceIter) Value() []byte { return it.pairs[it.idx].value }
func (it *sliceIter) Release()      { it.pairs = nil }
func (it *sliceIter) Error() error  { return it.err }
