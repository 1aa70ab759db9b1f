// Package economy handles plain balance transfers between accounts.
package economy

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/ledger"
	"github.com/liganite/liganite/vm"
)

func init() {
	vm.Register(core.TxTransfer, handleTransfer)
}

func handleTransfer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TransferPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode transfer payload: %w", err)
	}
	if p.Amount == 0 {
		return errors.New("transfer amount must be > 0")
	}
	if p.To == "" {
		return errors.New("transfer to address required")
	}

	// The sender stays above the existential deposit.
	if _, err := ctx.Ledger.Transfer(ctx.Caller(), p.To, p.Amount, ledger.Preserve); err != nil {
		return err
	}
	ctx.Emit(events.Event{
		Type: events.EventTokenTransfer,
		Data: map[string]any{
			"from":   ctx.Caller(),
			"to":     p.To,
			"amount": p.Amount,
		},
	})
	return nil
}
