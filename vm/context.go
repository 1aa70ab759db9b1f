package vm

import (
	"github.com/bitmark-inc/logger"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/ledger"
)

// Context is passed to every Handler. It exposes the state and ledger the
// transaction runs against, the authenticated caller, and an event sink
// whose events are only published if the handler succeeds.
type Context struct {
	State  core.State
	Ledger ledger.Ledger
	Tx     *core.Transaction
	Height uint64
	// Admin is the account allowed to run administrative calls.
	Admin core.AccountID
	Log   *logger.L

	buf events.Buffer
}

// Caller returns the authenticated origin of the transaction.
func (c *Context) Caller() core.AccountID { return c.Tx.From }

// IsAdmin reports whether the caller is the configured admin account.
func (c *Context) IsAdmin() bool {
	return c.Admin != "" && c.Tx.From == c.Admin
}

// Emit stamps ev with the transaction id and height and buffers it.
func (c *Context) Emit(ev events.Event) {
	ev.TxID = c.Tx.ID
	ev.Height = c.Height
	c.buf.Emit(ev)
}
