package vm_test

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/internal/testutil"
	"github.com/liganite/liganite/ledger"
	"github.com/liganite/liganite/storage"
	"github.com/liganite/liganite/tags"
	"github.com/liganite/liganite/vm"
	"github.com/liganite/liganite/wallet"

	_ "github.com/liganite/liganite/vm/modules/economy"
	_ "github.com/liganite/liganite/vm/modules/games"
	_ "github.com/liganite/liganite/vm/modules/publish"
)

const (
	chainID = "liganite-test"

	txHalfApplied core.TxType = "test_half_applied"

	publisherDeposit = 1_000_000
	initialBalance   = 1_000_000_000
	price            = 12345
)

var errHalfApplied = errors.New("half applied")

func TestMain(m *testing.M) {
	// Writes and emits, then fails: the executor must undo both.
	vm.Register(txHalfApplied, func(ctx *vm.Context, _ json.RawMessage) error {
		if err := ctx.State.SetPublisherDeposit(1); err != nil {
			return err
		}
		ctx.Emit(events.Event{Type: events.EventPublisherDepositUpdated})
		return errHalfApplied
	})
	os.Exit(testutil.RunWithLogger(m.Run))
}

type fixture struct {
	state     *storage.StateDB
	exec      *vm.Executor
	sink      *testutil.Recorder
	admin     *wallet.Wallet
	publisher *wallet.Wallet
	buyer     *wallet.Wallet
	height    uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testutil.NewStateDB()
	require.NoError(t, tags.Load(st, tags.Default))
	require.NoError(t, st.SetPublisherDeposit(publisherDeposit))

	f := &fixture{state: st, sink: &testutil.Recorder{}}
	l := ledger.New(st, ledger.DefaultExistentialDeposit)
	for _, w := range []**wallet.Wallet{&f.admin, &f.publisher, &f.buyer} {
		var err error
		*w, err = wallet.Generate(chainID)
		require.NoError(t, err)
		require.NoError(t, l.SetBalance((*w).Account(), initialBalance))
	}
	require.NoError(t, st.Commit())

	f.exec = vm.NewExecutor(st, f.sink, chainID, f.admin.Account())
	return f
}

func (f *fixture) nonce(t *testing.T, w *wallet.Wallet) uint64 {
	t.Helper()
	acc, err := f.state.GetAccount(w.Account())
	require.NoError(t, err)
	return acc.Nonce
}

func (f *fixture) run(t *testing.T, tx *core.Transaction, err error) error {
	t.Helper()
	require.NoError(t, err)
	f.height++
	applied, err := f.exec.ExecuteTx(f.height, tx)
	if err != nil {
		return err
	}
	applied.Publish()
	return nil
}

func TestTransferEventsAreStamped(t *testing.T) {
	f := newFixture(t)

	tx, err := f.buyer.Transfer(f.publisher.Account(), 500, 0)
	require.NoError(t, f.run(t, tx, err))

	require.Equal(t, []events.EventType{events.EventTokenTransfer, events.EventTxExecuted}, f.sink.Types())
	for _, ev := range f.sink.Events {
		assert.Equal(t, tx.ID, ev.TxID)
		assert.Equal(t, uint64(1), ev.Height)
	}
	assert.Equal(t, uint64(1), f.nonce(t, f.buyer))
	balance, err := f.exec.Ledger().Balance(f.publisher.Account())
	require.NoError(t, err)
	assert.Equal(t, uint64(initialBalance+500), balance)
}

func TestEventsWaitForPublish(t *testing.T) {
	f := newFixture(t)

	tx, err := f.buyer.Transfer(f.publisher.Account(), 500, 0)
	require.NoError(t, err)
	applied, err := f.exec.ExecuteTx(1, tx)
	require.NoError(t, err)
	assert.Empty(t, f.sink.Events)
	require.Len(t, applied.Events(), 2)
	assert.Equal(t, events.EventTxExecuted, applied.Events()[1].Type)

	applied.Publish()
	assert.Equal(t, []events.EventType{events.EventTokenTransfer, events.EventTxExecuted}, f.sink.Types())
}

func TestFailedTxIsRolledBack(t *testing.T) {
	f := newFixture(t)
	root := f.state.ComputeRoot()

	tx, err := f.buyer.NewTx(txHalfApplied, 0, struct{}{})
	err = f.run(t, tx, err)
	require.ErrorIs(t, err, errHalfApplied)

	assert.Equal(t, root, f.state.ComputeRoot())
	assert.Zero(t, f.nonce(t, f.buyer), "nonce bump is rolled back too")
	deposit, err := f.state.GetPublisherDeposit()
	require.NoError(t, err)
	assert.Equal(t, uint64(publisherDeposit), deposit)
	assert.Empty(t, f.sink.Events)
}

func TestRejectedBeforeDispatch(t *testing.T) {
	f := newFixture(t)

	t.Run("bad nonce", func(t *testing.T) {
		tx, err := f.buyer.Transfer(f.publisher.Account(), 1, 5)
		assert.ErrorIs(t, f.run(t, tx, err), vm.ErrBadNonce)
	})
	t.Run("wrong chain", func(t *testing.T) {
		other := wallet.New(f.buyer.PrivKey(), "elsewhere")
		tx, err := other.Transfer(f.publisher.Account(), 1, 0)
		assert.ErrorIs(t, f.run(t, tx, err), vm.ErrWrongChain)
	})
	t.Run("tampered", func(t *testing.T) {
		tx, err := f.buyer.Transfer(f.publisher.Account(), 1, 0)
		require.NoError(t, err)
		tx.Payload = json.RawMessage(`{"to":"` + string(f.buyer.Account()) + `","amount":1}`)
		assert.ErrorIs(t, f.run(t, tx, nil), vm.ErrUnauthenticated)
	})
	t.Run("unknown type", func(t *testing.T) {
		tx, err := f.buyer.NewTx("mint", 0, struct{}{})
		assert.ErrorIs(t, f.run(t, tx, err), vm.ErrUnknownTxType)
	})

	assert.Zero(t, f.nonce(t, f.buyer))
	assert.Empty(t, f.sink.Events)
}

func TestSetDepositRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	tx, err := f.buyer.SetDeposit(5, 0)
	assert.ErrorIs(t, f.run(t, tx, err), core.ErrBadOrigin)

	tx, err = f.admin.SetDeposit(5, 0)
	require.NoError(t, f.run(t, tx, err))
	deposit, err := f.state.GetPublisherDeposit()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), deposit)
	assert.Equal(t, []events.EventType{events.EventPublisherDepositUpdated, events.EventTxExecuted}, f.sink.Types())
}

func TestOrderLifecycleThroughTransactions(t *testing.T) {
	f := newFixture(t)
	pub := f.publisher.Account()
	g := core.GlobalGameID{Publisher: pub, Game: 3}

	tx, err := f.publisher.RegisterPublisher("Studio", "https://studio.example", 0)
	require.NoError(t, f.run(t, tx, err))
	tx, err = f.publisher.PublishGame(3, core.GameDetails{
		Name:         "Orders Only",
		Tags:         []core.TagID{4},
		Distribution: core.Individual(price),
	}, 1)
	require.NoError(t, f.run(t, tx, err))

	tx, err = f.buyer.FulfillOrder(3, f.publisher.Account(), 0)
	assert.ErrorIs(t, f.run(t, tx, err), core.ErrOrderNotFound, "a buyer cannot fulfil on the publisher's behalf")

	tx, err = f.buyer.PurchaseGame(pub, 3, 0)
	require.NoError(t, f.run(t, tx, err))
	has, err := f.state.HasOrder(f.buyer.Account(), g)
	require.NoError(t, err)
	assert.True(t, has)

	tx, err = f.buyer.PurchaseGame(pub, 3, 1)
	assert.ErrorIs(t, f.run(t, tx, err), core.ErrOrderAlreadyPlaced)

	tx, err = f.publisher.FulfillOrder(3, f.buyer.Account(), 2)
	require.NoError(t, f.run(t, tx, err))

	owned, err := f.state.IsOwned(f.buyer.Account(), g)
	require.NoError(t, err)
	assert.True(t, owned)
	free, err := f.exec.Ledger().Balance(pub)
	require.NoError(t, err)
	assert.Equal(t, uint64(initialBalance-publisherDeposit+price), free)

	var marketplace []events.EventType
	for _, typ := range f.sink.Types() {
		if typ != events.EventTxExecuted {
			marketplace = append(marketplace, typ)
		}
	}
	assert.Equal(t, []events.EventType{
		events.EventPublisherAdded,
		events.EventGameAdded,
		events.EventOrderPlaced,
		events.EventOrderFulfilled,
	}, marketplace)
}
