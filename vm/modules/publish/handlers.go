package publish

import (
	"encoding/json"
	"fmt"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/vm"
)

func init() {
	vm.Register(core.TxSetDeposit, handleSetDeposit)
	vm.Register(core.TxRegisterPublisher, handleRegisterPublisher)
}

// FromContext binds a Registry to the state, ledger and event buffer of a
// running transaction.
func FromContext(ctx *vm.Context) *Registry {
	return New(ctx.State, ctx.Ledger, ctx)
}

func handleSetDeposit(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetDepositPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode set_deposit payload: %w", err)
	}
	return FromContext(ctx).SetDeposit(ctx, p.Amount)
}

func handleRegisterPublisher(ctx *vm.Context, payload json.RawMessage) error {
	var p core.RegisterPublisherPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode register_publisher payload: %w", err)
	}
	if err := FromContext(ctx).Register(ctx.Caller(), p.Details); err != nil {
		return err
	}
	ctx.Log.Debugf("publisher %s registered as %q", ctx.Caller(), p.Details.Name)
	return nil
}
