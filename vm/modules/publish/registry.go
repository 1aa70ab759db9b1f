// Package publish is the publisher registry: deposit-gated registration,
// the admin-controlled deposit amount, and the publisher capability query
// used by the catalog.
package publish

import (
	"fmt"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/ledger"
)

// Registry manages publisher records on top of a state, a ledger and an
// event sink.
type Registry struct {
	state  core.State
	ledger ledger.Ledger
	sink   events.Sink
}

// Origin is the authenticated source of an administrative call.
type Origin interface {
	Caller() core.AccountID
	IsAdmin() bool
}

// New creates a Registry.
func New(state core.State, l ledger.Ledger, sink events.Sink) *Registry {
	return &Registry{state: state, ledger: l, sink: sink}
}

// SetDeposit overwrites the amount held from new publishers. Only the admin
// origin may call it.
func (r *Registry) SetDeposit(origin Origin, amount uint64) error {
	if !origin.IsAdmin() {
		return fmt.Errorf("set deposit by %s: %w", origin.Caller(), core.ErrBadOrigin)
	}
	if err := r.state.SetPublisherDeposit(amount); err != nil {
		return err
	}
	r.sink.Emit(events.Event{
		Type: events.EventPublisherDepositUpdated,
		Data: map[string]any{"amount": amount},
	})
	return nil
}

// Register makes caller a publisher, holding the current deposit from its
// balance. Ledger failures are returned as they are.
func (r *Registry) Register(caller core.AccountID, details core.PublisherDetails) error {
	exists, err := r.state.HasPublisher(caller)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("publisher %s: %w", caller, core.ErrAlreadyRegistered)
	}
	if !details.IsValid() {
		return core.ErrInvalidDetails
	}

	deposit, err := r.state.GetPublisherDeposit()
	if err != nil {
		return err
	}
	if err := r.ledger.Hold(core.HoldPublisherDeposit, caller, deposit); err != nil {
		return err
	}
	if err := r.state.SetPublisher(caller, &details); err != nil {
		return err
	}
	r.sink.Emit(events.Event{
		Type: events.EventPublisherAdded,
		Data: map[string]any{"publisher": caller},
	})
	return nil
}

// IsValidPublisher reports whether id has registered.
func (r *Registry) IsValidPublisher(id core.AccountID) bool {
	ok, err := r.state.HasPublisher(id)
	return err == nil && ok
}

// InsertPublisher records a publisher without holding a deposit or emitting
// an event. It is used for genesis publishers only.
func (r *Registry) InsertPublisher(id core.AccountID, details core.PublisherDetails) error {
	exists, err := r.state.HasPublisher(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("publisher %s: %w", id, core.ErrAlreadyRegistered)
	}
	if !details.IsValid() {
		return fmt.Errorf("publisher %s: %w", id, core.ErrInvalidDetails)
	}
	return r.state.SetPublisher(id, &details)
}
