// Package ledger moves and holds account balances. The marketplace engines
// only see the Ledger interface; StateLedger keeps balances in core.State so
// ledger effects are rolled back together with the rest of a failed
// transaction.
package ledger

import (
	"fmt"
	"math"

	"github.com/liganite/liganite/core"
)

// DefaultExistentialDeposit is the smallest balance an account may keep.
const DefaultExistentialDeposit uint64 = 1

// Precision controls what happens when less than the requested amount is
// available.
type Precision int

const (
	// Exact fails unless the full amount is available.
	Exact Precision = iota
	// BestEffort takes as much as is available, up to the requested amount.
	BestEffort
)

// Preservation controls whether a debit may destroy the source account.
type Preservation int

const (
	// Expendable allows the source to drop to zero.
	Expendable Preservation = iota
	// Preserve keeps at least the existential deposit on the source.
	Preserve
)

// Restriction selects where funds moved out of a hold land.
type Restriction int

const (
	// Free credits the recipient's spendable balance.
	Free Restriction = iota
	// OnHold credits the recipient under the same hold reason.
	OnHold
)

// Fortitude controls how far the source of a transfer on hold may be
// reduced. The recipient's minimum balance is checked either way.
type Fortitude int

const (
	// Polite keeps the source's total balance at or above the existential
	// deposit.
	Polite Fortitude = iota
	// Force may take the source's total balance below the existential
	// deposit.
	Force
)

// Ledger is the balance contract consumed by the marketplace.
type Ledger interface {
	Hold(reason core.HoldReason, who core.AccountID, amount uint64) error
	Release(reason core.HoldReason, who core.AccountID, amount uint64, precision Precision) (uint64, error)
	Transfer(from, to core.AccountID, amount uint64, preservation Preservation) (uint64, error)
	TransferOnHold(reason core.HoldReason, from, to core.AccountID, amount uint64,
		precision Precision, restriction Restriction, fortitude Fortitude) (uint64, error)
	SetBalance(who core.AccountID, amount uint64) error
	Balance(who core.AccountID) (uint64, error)
	BalanceOnHold(reason core.HoldReason, who core.AccountID) (uint64, error)
}

// StateLedger implements Ledger on top of core.State accounts.
type StateLedger struct {
	state core.State
	ed    uint64
}

var _ Ledger = (*StateLedger)(nil)

// New creates a StateLedger with the given existential deposit.
func New(state core.State, existentialDeposit uint64) *StateLedger {
	return &StateLedger{state: state, ed: existentialDeposit}
}

// Hold moves amount from the spendable balance of who into the hold for
// reason. The spendable balance must stay at or above the existential
// deposit.
func (l *StateLedger) Hold(reason core.HoldReason, who core.AccountID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acc, err := l.state.GetAccount(who)
	if err != nil {
		return err
	}
	if acc.Free < amount || acc.Free-amount < l.ed {
		return fmt.Errorf("hold %d from %s (free %d): %w", amount, who, acc.Free, ErrFundsUnavailable)
	}
	held := acc.Held(reason)
	if held > math.MaxUint64-amount {
		return ErrOverflow
	}
	acc.Free -= amount
	setHold(acc, reason, held+amount)
	return l.state.SetAccount(acc)
}

// Release returns held funds to the spendable balance and reports how much
// was actually released.
func (l *StateLedger) Release(reason core.HoldReason, who core.AccountID, amount uint64, precision Precision) (uint64, error) {
	acc, err := l.state.GetAccount(who)
	if err != nil {
		return 0, err
	}
	actual, err := take(acc.Held(reason), amount, precision)
	if err != nil {
		return 0, fmt.Errorf("release %d from %s: %w", amount, who, err)
	}
	if actual == 0 {
		return 0, nil
	}
	if acc.Free > math.MaxUint64-actual {
		return 0, ErrOverflow
	}
	setHold(acc, reason, acc.Held(reason)-actual)
	acc.Free += actual
	return actual, l.state.SetAccount(acc)
}

// Transfer moves spendable balance between accounts.
func (l *StateLedger) Transfer(from, to core.AccountID, amount uint64, preservation Preservation) (uint64, error) {
	if amount == 0 || from == to {
		return amount, nil
	}
	src, err := l.state.GetAccount(from)
	if err != nil {
		return 0, err
	}
	if src.Free < amount {
		return 0, fmt.Errorf("transfer %d from %s (free %d): %w", amount, from, src.Free, ErrFundsUnavailable)
	}
	if preservation == Preserve && src.Free-amount < l.ed {
		return 0, fmt.Errorf("transfer %d from %s: %w", amount, from, ErrNotExpendable)
	}
	dst, err := l.state.GetAccount(to)
	if err != nil {
		return 0, err
	}
	if err := l.credit(dst, amount); err != nil {
		return 0, err
	}
	src.Free -= amount
	if err := l.state.SetAccount(src); err != nil {
		return 0, err
	}
	return amount, l.state.SetAccount(dst)
}

// TransferOnHold moves funds held from one account straight to another
// without passing through the source's spendable balance.
func (l *StateLedger) TransferOnHold(reason core.HoldReason, from, to core.AccountID, amount uint64,
	precision Precision, restriction Restriction, fortitude Fortitude) (uint64, error) {
	src, err := l.state.GetAccount(from)
	if err != nil {
		return 0, err
	}
	actual, err := take(src.Held(reason), amount, precision)
	if err != nil {
		return 0, fmt.Errorf("transfer on hold %d from %s: %w", amount, from, err)
	}
	if actual == 0 {
		return 0, nil
	}
	if fortitude == Polite && from != to && src.Free+src.TotalHeld()-actual < l.ed {
		return 0, fmt.Errorf("transfer on hold %d from %s: %w", actual, from, ErrNotExpendable)
	}
	if from == to {
		if restriction == Free {
			if src.Free > math.MaxUint64-actual {
				return 0, ErrOverflow
			}
			setHold(src, reason, src.Held(reason)-actual)
			src.Free += actual
		}
		return actual, l.state.SetAccount(src)
	}
	dst, err := l.state.GetAccount(to)
	if err != nil {
		return 0, err
	}
	switch restriction {
	case Free:
		if err := l.credit(dst, actual); err != nil {
			return 0, err
		}
	case OnHold:
		held := dst.Held(reason)
		if held > math.MaxUint64-actual {
			return 0, ErrOverflow
		}
		setHold(dst, reason, held+actual)
	default:
		return 0, fmt.Errorf("unknown restriction %d", restriction)
	}
	setHold(src, reason, src.Held(reason)-actual)
	if err := l.state.SetAccount(src); err != nil {
		return 0, err
	}
	return actual, l.state.SetAccount(dst)
}

// SetBalance overwrites the spendable balance of who.
func (l *StateLedger) SetBalance(who core.AccountID, amount uint64) error {
	acc, err := l.state.GetAccount(who)
	if err != nil {
		return err
	}
	acc.Free = amount
	return l.state.SetAccount(acc)
}

// Balance returns the spendable balance of who.
func (l *StateLedger) Balance(who core.AccountID) (uint64, error) {
	acc, err := l.state.GetAccount(who)
	if err != nil {
		return 0, err
	}
	return acc.Free, nil
}

// BalanceOnHold returns the amount held from who under reason.
func (l *StateLedger) BalanceOnHold(reason core.HoldReason, who core.AccountID) (uint64, error) {
	acc, err := l.state.GetAccount(who)
	if err != nil {
		return 0, err
	}
	return acc.Held(reason), nil
}

func (l *StateLedger) credit(acc *core.Account, amount uint64) error {
	if acc.Free > math.MaxUint64-amount {
		return ErrOverflow
	}
	if acc.Free+amount < l.ed {
		return fmt.Errorf("credit %d to %s: %w", amount, acc.Address, ErrBelowMinimum)
	}
	acc.Free += amount
	return nil
}

// take decides how much of held can be moved when amount is requested.
func take(held, amount uint64, precision Precision) (uint64, error) {
	if amount <= held {
		return amount, nil
	}
	if precision == BestEffort {
		return held, nil
	}
	return 0, ErrFundsUnavailable
}

func setHold(acc *core.Account, reason core.HoldReason, amount uint64) {
	if amount == 0 {
		delete(acc.Holds, reason)
		return
	}
	if acc.Holds == nil {
		acc.Holds = make(map[core.HoldReason]uint64)
	}
	acc.Holds[reason] = amount
}
