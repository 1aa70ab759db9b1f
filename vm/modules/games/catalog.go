// Package games is the catalog and order engine: game listings, purchase
// dispatch over the distribution policies, and the escrow order lifecycle.
package games

import (
	"errors"
	"fmt"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/ledger"
)

// PublisherValidator answers whether an account may publish games.
type PublisherValidator interface {
	IsValidPublisher(id core.AccountID) bool
}

// Catalog runs every operation as check, then ledger, then stores, then a
// single event. The caller is expected to roll back state on error.
type Catalog struct {
	state      core.State
	ledger     ledger.Ledger
	publishers PublisherValidator
	sink       events.Sink
}

// New creates a Catalog.
func New(state core.State, l ledger.Ledger, publishers PublisherValidator, sink events.Sink) *Catalog {
	return &Catalog{state: state, ledger: l, publishers: publishers, sink: sink}
}

// Publish lists a new game under publisher. Listings are create-only.
func (c *Catalog) Publish(publisher core.AccountID, id core.GameID, details core.GameDetails) error {
	if !c.publishers.IsValidPublisher(publisher) {
		return fmt.Errorf("%s: %w", publisher, core.ErrInvalidPublisher)
	}
	g := core.GlobalGameID{Publisher: publisher, Game: id}
	exists, err := c.state.HasGame(g)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("game %s: %w", g, core.ErrAlreadyPublished)
	}
	if !details.IsValid(c.tagExists) {
		return fmt.Errorf("game %s: %w", g, core.ErrInvalidDetails)
	}

	if err := c.state.SetGame(g, &details); err != nil {
		return err
	}
	c.emit(events.EventGameAdded, g, nil)
	return nil
}

// Purchase acquires a game for buyer according to its distribution policy.
// Free and Instant games become owned immediately; Individual games open an
// order backed by a hold on the buyer's balance.
func (c *Catalog) Purchase(buyer, publisher core.AccountID, id core.GameID) error {
	g := core.GlobalGameID{Publisher: publisher, Game: id}

	pending, err := c.state.HasOrder(buyer, g)
	if err != nil {
		return err
	}
	if pending {
		return fmt.Errorf("game %s for %s: %w", g, buyer, core.ErrOrderAlreadyPlaced)
	}
	owned, err := c.state.IsOwned(buyer, g)
	if err != nil {
		return err
	}
	if owned {
		return fmt.Errorf("game %s for %s: %w", g, buyer, core.ErrAlreadyOwned)
	}
	details, err := c.state.GetGame(g)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("game %s: %w", g, core.ErrGameNotFound)
	}
	if err != nil {
		return err
	}

	dist := details.Distribution
	switch dist.Kind {
	case core.DistributionFree:
		if err := c.state.SetOwned(buyer, g); err != nil {
			return err
		}
		c.emit(events.EventGamePurchased, g, map[string]any{"buyer": buyer, "cid": dist.CID})

	case core.DistributionInstant:
		if _, err := c.ledger.Transfer(buyer, publisher, dist.Price, ledger.Preserve); err != nil {
			return err
		}
		if err := c.state.SetOwned(buyer, g); err != nil {
			return err
		}
		c.emit(events.EventGamePurchased, g, map[string]any{"buyer": buyer, "cid": dist.CID})

	case core.DistributionIndividual:
		if err := c.ledger.Hold(core.HoldGamePayment, buyer, dist.Price); err != nil {
			return err
		}
		if err := c.state.PutOrder(buyer, g, &core.OrderDetails{Deposit: dist.Price}); err != nil {
			return err
		}
		c.emit(events.EventOrderPlaced, g, map[string]any{"buyer": buyer, "deposit": dist.Price})

	default:
		return fmt.Errorf("game %s has distribution %q: %w", g, dist.Kind, core.ErrInvalidDetails)
	}
	return nil
}

// CancelOrder returns the held deposit to buyer and drops the order. A
// partial release still removes the order.
func (c *Catalog) CancelOrder(buyer, publisher core.AccountID, id core.GameID) error {
	g := core.GlobalGameID{Publisher: publisher, Game: id}
	order, err := c.order(buyer, g)
	if err != nil {
		return err
	}

	released, err := c.ledger.Release(core.HoldGamePayment, buyer, order.Deposit, ledger.BestEffort)
	if err != nil {
		return err
	}
	if err := c.state.RemoveOrder(buyer, g); err != nil {
		return err
	}
	c.emit(events.EventOrderCancelled, g, map[string]any{"buyer": buyer, "released": released})
	return nil
}

// FulfillOrder settles buyer's order on publisher's game: the held deposit
// goes to publisher and buyer owns the game. publisher must be the
// authenticated caller.
func (c *Catalog) FulfillOrder(publisher core.AccountID, id core.GameID, buyer core.AccountID) error {
	g := core.GlobalGameID{Publisher: publisher, Game: id}
	order, err := c.order(buyer, g)
	if err != nil {
		return err
	}

	paid, err := c.ledger.TransferOnHold(core.HoldGamePayment, buyer, publisher, order.Deposit,
		ledger.BestEffort, ledger.Free, ledger.Polite)
	if err != nil {
		return err
	}
	if err := c.state.RemoveOrder(buyer, g); err != nil {
		return err
	}
	if err := c.state.SetOwned(buyer, g); err != nil {
		return err
	}
	c.emit(events.EventOrderFulfilled, g, map[string]any{"buyer": buyer, "paid": paid})
	return nil
}

// order loads the pending order of buyer on g from the buyer-side index.
func (c *Catalog) order(buyer core.AccountID, g core.GlobalGameID) (*core.OrderDetails, error) {
	order, err := c.state.GetOrder(buyer, g)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("game %s for %s: %w", g, buyer, core.ErrOrderNotFound)
	}
	return order, err
}

func (c *Catalog) tagExists(id core.TagID) bool {
	ok, err := c.state.HasTag(id)
	return err == nil && ok
}

func (c *Catalog) emit(typ events.EventType, g core.GlobalGameID, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["publisher"] = g.Publisher
	data["game_id"] = g.Game
	c.sink.Emit(events.Event{Type: typ, Data: data})
}
