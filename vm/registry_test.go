package vm_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/vm"
)

func TestRegistry(t *testing.T) {
	r := vm.NewRegistry()
	noop := func(*vm.Context, json.RawMessage) error { return nil }

	r.Register("noop", noop)
	assert.True(t, r.Has("noop"))
	assert.Panics(t, func() { r.Register("noop", noop) })
	assert.ErrorIs(t, r.Execute("missing", nil, nil), vm.ErrUnknownTxType)
}

func TestModulesSelfRegister(t *testing.T) {
	for _, typ := range []core.TxType{
		core.TxTransfer,
		core.TxSetDeposit,
		core.TxRegisterPublisher,
		core.TxPublishGame,
		core.TxPurchaseGame,
		core.TxCancelOrder,
		core.TxFulfillOrder,
	} {
		assert.True(t, vm.Registered(typ), typ)
	}
}
