// Package node applies submitted transactions one at a time and commits the
// resulting state.
package node

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/storage"
	"github.com/liganite/liganite/vm"
)

// ErrNotInitialised is returned when the state has no genesis.
var ErrNotInitialised = errors.New("state has no genesis")

// Receipt reports where a transaction was applied.
type Receipt struct {
	TxID      string `json:"tx_id"`
	Height    uint64 `json:"height"`
	StateRoot string `json:"state_root"`
}

// Sequencer serialises transactions against a single StateDB. Each
// successful transaction advances the height by one and is committed before
// Submit returns; a failed one leaves neither state nor height changed.
type Sequencer struct {
	mu     sync.Mutex
	state  *storage.StateDB
	exec   *vm.Executor
	height uint64
	log    *logger.L
}

// New creates a Sequencer over state, resuming from its persisted height.
func New(state *storage.StateDB, exec *vm.Executor) (*Sequencer, error) {
	h, ok, err := state.Height()
	if err != nil {
		return nil, fmt.Errorf("read height: %w", err)
	}
	if !ok {
		return nil, ErrNotInitialised
	}
	return &Sequencer{state: state, exec: exec, height: h, log: logger.New("node")}, nil
}

// Submit executes tx at the next height and commits it.
func (s *Sequencer) Submit(tx *core.Transaction) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapID, err := s.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	next := s.height + 1
	applied, err := s.exec.ExecuteTx(next, tx)
	if err != nil {
		s.state.DiscardSnapshot(snapID)
		return nil, err
	}
	root, err := s.commit(next)
	if err != nil {
		if revertErr := s.state.RevertToSnapshot(snapID); revertErr != nil {
			s.log.Criticalf("revert height %d: %v", next, revertErr)
		}
		return nil, err
	}
	s.height = next
	s.log.Debugf("height %d root %s tx %s", next, root, tx.ID)
	applied.Publish()
	return &Receipt{TxID: tx.ID, Height: next, StateRoot: root}, nil
}

// commit records height and flushes the write buffer, returning the new
// state root.
func (s *Sequencer) commit(height uint64) (string, error) {
	if err := s.state.SetHeight(height); err != nil {
		return "", err
	}
	root := s.state.ComputeRoot()
	if root == "" {
		return "", errors.New("compute state root")
	}
	if err := s.state.Commit(); err != nil {
		s.log.Criticalf("commit height %d: %v", height, err)
		return "", fmt.Errorf("commit: %w", err)
	}
	return root, nil
}

// View runs fn against the committed state while no transaction is being
// applied.
func (s *Sequencer) View(fn func(st *storage.StateDB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Height returns the height of the last committed transaction.
func (s *Sequencer) Height() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}
