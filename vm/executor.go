package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/bitmark-inc/logger"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/ledger"
)

// Authentication and replay errors. They are raised before any handler
// runs and are not marketplace errors.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrWrongChain      = errors.New("wrong chain id")
	ErrBadNonce        = errors.New("invalid nonce")
)

// Executor applies transactions to the state using the global Handler registry.
type Executor struct {
	state   core.State
	ledger  ledger.Ledger
	emitter events.Sink
	chainID string
	admin   core.AccountID
	log     *logger.L
}

// NewExecutor creates an Executor over state. Events of successful
// transactions are published to emitter, which may be nil, by
// Applied.Publish.
func NewExecutor(state core.State, emitter events.Sink, chainID string, admin core.AccountID) *Executor {
	return &Executor{
		state:   state,
		ledger:  ledger.New(state, ledger.DefaultExistentialDeposit),
		emitter: emitter,
		chainID: chainID,
		admin:   admin,
		log:     logger.New("vm"),
	}
}

// Ledger returns the ledger bound to the executor's state.
func (e *Executor) Ledger() ledger.Ledger { return e.ledger }

// Applied holds the events of a transaction that executed successfully but
// whose state changes have not been committed yet.
type Applied struct {
	buf     events.Buffer
	emitter events.Sink
}

// Events returns the events Publish would deliver.
func (a *Applied) Events() []events.Event { return a.buf.Events() }

// Publish delivers the events to the executor's emitter. Call it once the
// state changes are durable.
func (a *Applied) Publish() {
	if a.emitter == nil {
		a.buf.Discard()
		return
	}
	a.buf.Flush(a.emitter)
}

// ExecuteTx verifies and executes a single transaction at height with
// snapshot/rollback. On failure state is reverted and the handler's events
// are dropped. On success the handler's events, followed by
// EventTxExecuted, are returned unpublished.
func (e *Executor) ExecuteTx(height uint64, tx *core.Transaction) (*Applied, error) {
	if err := tx.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if tx.ChainID != e.chainID {
		return nil, fmt.Errorf("%w: got %q want %q", ErrWrongChain, tx.ChainID, e.chainID)
	}

	snapID, err := e.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	ctx := &Context{
		State:  e.state,
		Ledger: e.ledger,
		Tx:     tx,
		Height: height,
		Admin:  e.admin,
		Log:    e.log,
	}
	if err := e.applyTx(ctx); err != nil {
		ctx.buf.Discard()
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			e.log.Criticalf("revert tx %s: %v", tx.ID, revertErr)
			return nil, fmt.Errorf("revert snapshot after tx failure: %w (revert: %v)", err, revertErr)
		}
		e.log.Infof("tx %s (%s) from %s rejected: %v", tx.ID, tx.Type, tx.From, err)
		return nil, err
	}

	e.log.Debugf("tx %s (%s) from %s applied at height %d", tx.ID, tx.Type, tx.From, height)
	applied := &Applied{buf: ctx.buf, emitter: e.emitter}
	applied.buf.Emit(events.Event{
		Type:   events.EventTxExecuted,
		TxID:   tx.ID,
		Height: height,
		Data:   map[string]any{"type": string(tx.Type), "from": tx.From},
	})
	return applied, nil
}

// applyTx checks and increments the nonce, then dispatches to the handler.
func (e *Executor) applyTx(ctx *Context) error {
	tx := ctx.Tx
	acc, err := e.state.GetAccount(tx.From)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if acc.Nonce != tx.Nonce {
		return fmt.Errorf("%w: expected %d got %d", ErrBadNonce, acc.Nonce, tx.Nonce)
	}
	if acc.Nonce == math.MaxUint64 {
		return fmt.Errorf("%w: overflow for account %s", ErrBadNonce, tx.From)
	}
	acc.Nonce++
	if err := e.state.SetAccount(acc); err != nil {
		return err
	}
	return globalRegistry.Execute(tx.Type, ctx, tx.Payload)
}
