package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/internal/testutil"
	"github.com/liganite/liganite/ledger"
)

const (
	alice core.AccountID = "alice"
	bob   core.AccountID = "bob"
)

func newLedger(t *testing.T, balances map[core.AccountID]uint64) *ledger.StateLedger {
	t.Helper()
	l := ledger.New(testutil.NewStateDB(), ledger.DefaultExistentialDeposit)
	for who, amount := range balances {
		require.NoError(t, l.SetBalance(who, amount))
	}
	return l
}

func TestHoldKeepsExistentialDeposit(t *testing.T) {
	l := newLedger(t, map[core.AccountID]uint64{alice: 100})

	err := l.Hold(core.HoldGamePayment, alice, 100)
	require.ErrorIs(t, err, ledger.ErrFundsUnavailable)

	require.NoError(t, l.Hold(core.HoldGamePayment, alice, 99))
	free, _ := l.Balance(alice)
	held, _ := l.BalanceOnHold(core.HoldGamePayment, alice)
	assert.Equal(t, uint64(1), free)
	assert.Equal(t, uint64(99), held)
}

func TestHoldReasonsAreSeparate(t *testing.T) {
	l := newLedger(t, map[core.AccountID]uint64{alice: 1000})
	require.NoError(t, l.Hold(core.HoldPublisherDeposit, alice, 300))
	require.NoError(t, l.Hold(core.HoldGamePayment, alice, 200))

	_, err := l.Release(core.HoldGamePayment, alice, 300, ledger.Exact)
	require.ErrorIs(t, err, ledger.ErrFundsUnavailable)

	got, err := l.Release(core.HoldGamePayment, alice, 300, ledger.BestEffort)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), got)

	deposit, _ := l.BalanceOnHold(core.HoldPublisherDeposit, alice)
	assert.Equal(t, uint64(300), deposit)
	free, _ := l.Balance(alice)
	assert.Equal(t, uint64(700), free)
}

func TestTransferPreserve(t *testing.T) {
	l := newLedger(t, map[core.AccountID]uint64{alice: 50})

	_, err := l.Transfer(alice, bob, 50, ledger.Preserve)
	require.ErrorIs(t, err, ledger.ErrNotExpendable)

	_, err = l.Transfer(alice, bob, 51, ledger.Expendable)
	require.ErrorIs(t, err, ledger.ErrFundsUnavailable)

	moved, err := l.Transfer(alice, bob, 50, ledger.Expendable)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), moved)
	b, _ := l.Balance(bob)
	assert.Equal(t, uint64(50), b)
}

func TestTransferOnHold(t *testing.T) {
	l := newLedger(t, map[core.AccountID]uint64{alice: 1000})
	require.NoError(t, l.Hold(core.HoldGamePayment, alice, 400))

	moved, err := l.TransferOnHold(core.HoldGamePayment, alice, bob, 400,
		ledger.BestEffort, ledger.Free, ledger.Polite)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), moved)

	held, _ := l.BalanceOnHold(core.HoldGamePayment, alice)
	free, _ := l.Balance(alice)
	got, _ := l.Balance(bob)
	assert.Zero(t, held)
	assert.Equal(t, uint64(600), free)
	assert.Equal(t, uint64(400), got)
}

func TestTransferOnHoldToHold(t *testing.T) {
	l := newLedger(t, map[core.AccountID]uint64{alice: 1000})
	require.NoError(t, l.Hold(core.HoldGamePayment, alice, 400))

	_, err := l.TransferOnHold(core.HoldGamePayment, alice, bob, 100,
		ledger.Exact, ledger.OnHold, ledger.Force)
	require.NoError(t, err)

	held, _ := l.BalanceOnHold(core.HoldGamePayment, bob)
	assert.Equal(t, uint64(100), held)
	free, _ := l.Balance(bob)
	assert.Zero(t, free)
}

func TestTransferOnHoldShortfall(t *testing.T) {
	l := newLedger(t, map[core.AccountID]uint64{alice: 1000})
	require.NoError(t, l.Hold(core.HoldGamePayment, alice, 10))

	_, err := l.TransferOnHold(core.HoldGamePayment, alice, bob, 20,
		ledger.Exact, ledger.Free, ledger.Polite)
	require.ErrorIs(t, err, ledger.ErrFundsUnavailable)

	moved, err := l.TransferOnHold(core.HoldGamePayment, alice, bob, 20,
		ledger.BestEffort, ledger.Free, ledger.Polite)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), moved)
}

func TestHoldReleaseConservesTotal(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		start := rapid.Uint64Range(1, 1_000_000).Draw(r, "start")
		l := ledger.New(testutil.NewStateDB(), ledger.DefaultExistentialDeposit)
		if err := l.SetBalance(alice, start); err != nil {
			r.Fatal(err)
		}
		steps := rapid.IntRange(0, 30).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			amount := rapid.Uint64Range(0, start).Draw(r, "amount")
			if rapid.Bool().Draw(r, "hold") {
				_ = l.Hold(core.HoldGamePayment, alice, amount)
			} else {
				_, _ = l.Release(core.HoldGamePayment, alice, amount, ledger.BestEffort)
			}
			free, _ := l.Balance(alice)
			held, _ := l.BalanceOnHold(core.HoldGamePayment, alice)
			if free+held != start {
				r.Fatalf("free %d + held %d != %d", free, held, start)
			}
			if free < ledger.DefaultExistentialDeposit {
				r.Fatalf("free %d fell below existential deposit", free)
			}
		}
	})
}

func TestTransferOnHoldFortitude(t *testing.T) {
	l := ledger.New(testutil.NewStateDB(), 100)
	require.NoError(t, l.SetBalance(alice, 1000))
	require.NoError(t, l.Hold(core.HoldGamePayment, alice, 600))

	for _, fortitude := range []ledger.Fortitude{ledger.Polite, ledger.Force} {
		_, err := l.TransferOnHold(core.HoldGamePayment, alice, bob, 50,
			ledger.Exact, ledger.Free, fortitude)
		require.ErrorIs(t, err, ledger.ErrBelowMinimum, "recipient minimum applies under %d", fortitude)
	}

	require.NoError(t, l.SetBalance(bob, 500))
	require.NoError(t, l.SetBalance(alice, 0))
	_, err := l.TransferOnHold(core.HoldGamePayment, alice, bob, 600,
		ledger.Exact, ledger.Free, ledger.Polite)
	require.ErrorIs(t, err, ledger.ErrNotExpendable)

	moved, err := l.TransferOnHold(core.HoldGamePayment, alice, bob, 600,
		ledger.Exact, ledger.Free, ledger.Force)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), moved)
	got, _ := l.Balance(bob)
	assert.Equal(t, uint64(1100), got)
}
