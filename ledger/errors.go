package ledger

import "errors"

var (
	// ErrFundsUnavailable means the spendable or held balance cannot cover
	// the requested amount.
	ErrFundsUnavailable = errors.New("funds unavailable")
	// ErrNotExpendable means the operation would take the account below the
	// existential deposit while the caller asked to preserve it.
	ErrNotExpendable = errors.New("account would be destroyed")
	// ErrBelowMinimum means the credited account would end up holding less
	// than the existential deposit.
	ErrBelowMinimum = errors.New("balance below existential deposit")
	// ErrOverflow means a credit would overflow the balance type.
	ErrOverflow = errors.New("balance overflow")
)
