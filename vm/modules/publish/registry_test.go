package publish_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/internal/testutil"
	"github.com/liganite/liganite/ledger"
	"github.com/liganite/liganite/storage"
	"github.com/liganite/liganite/vm"
	"github.com/liganite/liganite/vm/modules/publish"
)

const (
	admin     core.AccountID = "admin"
	publisher core.AccountID = "publisher"

	publisherDeposit = 1_000_000
	initialBalance   = 1_000_000_000
)

var details = core.PublisherDetails{Name: "Publisher", URL: "https://publisher.example"}

// caller is an Origin for calls made outside a transaction.
type caller struct {
	id    core.AccountID
	admin bool
}

func (c caller) Caller() core.AccountID { return c.id }
func (c caller) IsAdmin() bool          { return c.admin }

type fixture struct {
	state    *storage.StateDB
	ledger   *ledger.StateLedger
	sink     *testutil.Recorder
	registry *publish.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testutil.NewStateDB()
	l := ledger.New(st, ledger.DefaultExistentialDeposit)
	require.NoError(t, st.SetPublisherDeposit(publisherDeposit))
	require.NoError(t, l.SetBalance(publisher, initialBalance))
	sink := &testutil.Recorder{}
	return &fixture{state: st, ledger: l, sink: sink, registry: publish.New(st, l, sink)}
}

func TestSetDeposit(t *testing.T) {
	f := newFixture(t)

	err := f.registry.SetDeposit(caller{id: publisher}, 1)
	require.ErrorIs(t, err, core.ErrBadOrigin)
	assert.Empty(t, f.sink.Events)

	require.NoError(t, f.registry.SetDeposit(caller{id: admin, admin: true}, 42))
	deposit, err := f.state.GetPublisherDeposit()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), deposit)
	assert.Equal(t, events.EventPublisherDepositUpdated, f.sink.Last().Type)
	assert.Equal(t, uint64(42), f.sink.Last().Data["amount"])
}

func TestContextOrigin(t *testing.T) {
	ctx := &vm.Context{Tx: &core.Transaction{From: admin}, Admin: admin}
	assert.True(t, ctx.IsAdmin())

	ctx.Admin = ""
	assert.False(t, ctx.IsAdmin())
	f := newFixture(t)
	assert.ErrorIs(t, f.registry.SetDeposit(ctx, 1), core.ErrBadOrigin)
	assert.Empty(t, f.sink.Events)
}

func TestRegisterHoldsDeposit(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.registry.Register(publisher, details))

	assert.True(t, f.registry.IsValidPublisher(publisher))
	free, err := f.ledger.Balance(publisher)
	require.NoError(t, err)
	assert.Equal(t, uint64(initialBalance-publisherDeposit), free)
	held, err := f.ledger.BalanceOnHold(core.HoldPublisherDeposit, publisher)
	require.NoError(t, err)
	assert.Equal(t, uint64(publisherDeposit), held)

	got, err := f.state.GetPublisher(publisher)
	require.NoError(t, err)
	assert.Equal(t, details, *got)

	assert.Equal(t, []events.EventType{events.EventPublisherAdded}, f.sink.Types())
	assert.Equal(t, publisher, f.sink.Last().Data["publisher"])
}

func TestRegisterTwice(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Register(publisher, details))

	err := f.registry.Register(publisher, core.PublisherDetails{})
	assert.ErrorIs(t, err, core.ErrAlreadyRegistered, "duplicate is reported before invalid details")

	held, err := f.ledger.BalanceOnHold(core.HoldPublisherDeposit, publisher)
	require.NoError(t, err)
	assert.Equal(t, uint64(publisherDeposit), held)
}

func TestRegisterInvalidDetailsHoldsNothing(t *testing.T) {
	cases := map[string]core.PublisherDetails{
		"empty name":  {Name: "", URL: "https://publisher.example"},
		"url no host": {Name: "Publisher", URL: "publisher.example"},
		"empty url":   {Name: "Publisher", URL: ""},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)

			err := f.registry.Register(publisher, d)
			require.ErrorIs(t, err, core.ErrInvalidDetails)

			held, err := f.ledger.BalanceOnHold(core.HoldPublisherDeposit, publisher)
			require.NoError(t, err)
			assert.Zero(t, held)
			assert.False(t, f.registry.IsValidPublisher(publisher))
			assert.Empty(t, f.sink.Events)
		})
	}
}

func TestRegisterWithoutFunds(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.SetBalance("poor", publisherDeposit))

	err := f.registry.Register("poor", details)
	require.ErrorIs(t, err, ledger.ErrFundsUnavailable)
	assert.False(t, f.registry.IsValidPublisher("poor"))
	assert.Empty(t, f.sink.Events)
}

func TestInsertPublisher(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.registry.InsertPublisher("genesis", details))
	assert.True(t, f.registry.IsValidPublisher("genesis"))
	held, err := f.ledger.BalanceOnHold(core.HoldPublisherDeposit, "genesis")
	require.NoError(t, err)
	assert.Zero(t, held)
	assert.Empty(t, f.sink.Events)

	assert.ErrorIs(t, f.registry.InsertPublisher("genesis", details), core.ErrAlreadyRegistered)
	assert.ErrorIs(t, f.registry.InsertPublisher("other", core.PublisherDetails{}), core.ErrInvalidDetails)
}
