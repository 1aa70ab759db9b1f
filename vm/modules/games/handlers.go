package games

import (
	"encoding/json"
	"fmt"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/vm"
	"github.com/liganite/liganite/vm/modules/publish"
)

func init() {
	vm.Register(core.TxPublishGame, handlePublishGame)
	vm.Register(core.TxPurchaseGame, handlePurchaseGame)
	vm.Register(core.TxCancelOrder, handleCancelOrder)
	vm.Register(core.TxFulfillOrder, handleFulfillOrder)
}

// FromContext binds a Catalog to a running transaction, with the publisher
// registry as its validator.
func FromContext(ctx *vm.Context) *Catalog {
	return New(ctx.State, ctx.Ledger, publish.FromContext(ctx), ctx)
}

func handlePublishGame(ctx *vm.Context, payload json.RawMessage) error {
	var p core.PublishGamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode publish_game payload: %w", err)
	}
	return FromContext(ctx).Publish(ctx.Caller(), p.GameID, p.Details)
}

func handlePurchaseGame(ctx *vm.Context, payload json.RawMessage) error {
	var p core.PurchaseGamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode purchase_game payload: %w", err)
	}
	if err := FromContext(ctx).Purchase(ctx.Caller(), p.Publisher, p.GameID); err != nil {
		return err
	}
	ctx.Log.Debugf("%s purchased %s/%d", ctx.Caller(), p.Publisher, p.GameID)
	return nil
}

func handleCancelOrder(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CancelOrderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode cancel_order payload: %w", err)
	}
	return FromContext(ctx).CancelOrder(ctx.Caller(), p.Publisher, p.GameID)
}

// The publisher side of the order is always the signed caller.
func handleFulfillOrder(ctx *vm.Context, payload json.RawMessage) error {
	var p core.FulfillOrderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode fulfill_order payload: %w", err)
	}
	if err := FromContext(ctx).FulfillOrder(ctx.Caller(), p.GameID, p.Buyer); err != nil {
		return err
	}
	ctx.Log.Debugf("%s fulfilled game %d for %s", ctx.Caller(), p.GameID, p.Buyer)
	return nil
}
