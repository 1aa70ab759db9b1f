package core

import "errors"

// ErrNotFound is returned when a requested object does not exist in storage.
var ErrNotFound = errors.New("not found")

// Marketplace rule violations. Each condition has exactly one error value.
var (
	ErrBadOrigin          = errors.New("caller is not authorised for this operation")
	ErrInvalidPublisher   = errors.New("caller is not a registered publisher")
	ErrAlreadyRegistered  = errors.New("publisher already registered")
	ErrInvalidDetails     = errors.New("details are invalid")
	ErrAlreadyPublished   = errors.New("game already published")
	ErrGameNotFound       = errors.New("game not found")
	ErrOrderAlreadyPlaced = errors.New("order already placed")
	ErrAlreadyOwned       = errors.New("game already owned")
	ErrOrderNotFound      = errors.New("order not found")
)
