package rpc

import (
	"errors"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/ledger"
	"github.com/liganite/liganite/vm"
)

type errorCode struct {
	err    error
	code   int
	reason string
}

// errorCodes is checked in order with errors.Is.
var errorCodes = []errorCode{
	{core.ErrGameNotFound, CodeNotFound, "GAME_NOT_FOUND"},
	{core.ErrOrderNotFound, CodeNotFound, "ORDER_NOT_FOUND"},
	{core.ErrNotFound, CodeNotFound, "NOT_FOUND"},
	{core.ErrBadOrigin, CodeRejected, "BAD_ORIGIN"},
	{core.ErrInvalidPublisher, CodeRejected, "INVALID_PUBLISHER"},
	{core.ErrAlreadyRegistered, CodeRejected, "ALREADY_REGISTERED"},
	{core.ErrInvalidDetails, CodeRejected, "INVALID_DETAILS"},
	{core.ErrAlreadyPublished, CodeRejected, "ALREADY_PUBLISHED"},
	{core.ErrOrderAlreadyPlaced, CodeRejected, "ORDER_ALREADY_PLACED"},
	{core.ErrAlreadyOwned, CodeRejected, "ALREADY_OWNED"},
	{ledger.ErrFundsUnavailable, CodeLedger, "FUNDS_UNAVAILABLE"},
	{ledger.ErrNotExpendable, CodeLedger, "NOT_EXPENDABLE"},
	{ledger.ErrBelowMinimum, CodeLedger, "BELOW_MINIMUM"},
	{ledger.ErrOverflow, CodeLedger, "OVERFLOW"},
	{vm.ErrUnauthenticated, CodeTxInvalid, "UNAUTHENTICATED"},
	{vm.ErrWrongChain, CodeTxInvalid, "WRONG_CHAIN"},
	{vm.ErrBadNonce, CodeTxInvalid, "BAD_NONCE"},
	{vm.ErrUnknownTxType, CodeTxInvalid, "UNKNOWN_TX_TYPE"},
}

// fromError converts err into a response, keeping the sentinel's code and
// reason when one matches.
func fromError(id any, err error) Response {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			resp := errResponse(id, ec.code, err.Error())
			resp.Error.Data = ec.reason
			return resp
		}
	}
	return errResponse(id, CodeInternalError, err.Error())
}
