package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/indexer"
	"github.com/liganite/liganite/node"
	"github.com/liganite/liganite/storage"
)

// Games are create-only, so a cached listing never goes stale; expiry only
// bounds memory.
const (
	gameCacheTTL     = 10 * time.Minute
	gameCacheCleanup = 20 * time.Minute
)

// Backend applies transactions and gives serialised read access to state.
type Backend interface {
	Submit(tx *core.Transaction) (*node.Receipt, error)
	View(fn func(st *storage.StateDB) error) error
	Height() uint64
}

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	backend Backend
	indexer *indexer.Indexer
	journal *events.Journal
	games   *cache.Cache
}

// NewHandler creates an RPC Handler.
func NewHandler(backend Backend, idx *indexer.Indexer, journal *events.Journal) *Handler {
	return &Handler{
		backend: backend,
		indexer: idx,
		journal: journal,
		games:   cache.New(gameCacheTTL, gameCacheCleanup),
	}
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(req Request) Response {
	switch req.Method {
	case "getHeight":
		return okResponse(req.ID, h.backend.Height())
	case "getBalance":
		return h.getBalance(req)
	case "getDeposit":
		return h.getDeposit(req)
	case "getPublisher":
		return h.getPublisher(req)
	case "getGame":
		return h.getGame(req)
	case "getTags":
		return h.getTags(req)
	case "getOrder":
		return h.getOrder(req)
	case "isOwned":
		return h.isOwned(req)
	case "getGamesByPublisher":
		return h.getGamesByPublisher(req)
	case "getOwnedGames":
		return h.getOwnedGames(req)
	case "getOrdersByPublisher":
		return h.getOrdersByPublisher(req)
	case "getOrdersByBuyer":
		return h.getOrdersByBuyer(req)
	case "getEvents":
		return h.getEvents(req)
	case "sendTx":
		return h.sendTx(req)
	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

type accountParams struct {
	Address core.AccountID `json:"address"`
}

type publisherParams struct {
	Publisher core.AccountID `json:"publisher"`
}

type buyerParams struct {
	Buyer core.AccountID `json:"buyer"`
}

type gameParams struct {
	Publisher core.AccountID `json:"publisher"`
	GameID    core.GameID    `json:"game_id"`
}

type buyerGameParams struct {
	Buyer     core.AccountID `json:"buyer"`
	Publisher core.AccountID `json:"publisher"`
	GameID    core.GameID    `json:"game_id"`
}

func (p buyerGameParams) game() core.GlobalGameID {
	return core.GlobalGameID{Publisher: p.Publisher, Game: p.GameID}
}

// decode unmarshals the request params into v.
func decode(req Request, v any) *Response {
	if err := json.Unmarshal(req.Params, v); err != nil {
		resp := errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
		return &resp
	}
	return nil
}

type field struct {
	name  string
	value core.AccountID
}

// need rejects the request if any account field is empty.
func need(req Request, fields ...field) *Response {
	for _, f := range fields {
		if f.value == "" {
			resp := errResponse(req.ID, CodeInvalidParams, f.name+" is required")
			return &resp
		}
	}
	return nil
}

func (h *Handler) getBalance(req Request) Response {
	var p accountParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"address", p.Address}); resp != nil {
		return *resp
	}
	var acc *core.Account
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		acc, err = st.GetAccount(p.Address)
		return err
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, map[string]any{
		"address": acc.Address,
		"free":    acc.Free,
		"held":    acc.Holds,
		"nonce":   acc.Nonce,
	})
}

func (h *Handler) getDeposit(req Request) Response {
	var amount uint64
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		amount, err = st.GetPublisherDeposit()
		return err
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, amount)
}

func (h *Handler) getPublisher(req Request) Response {
	var p publisherParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"publisher", p.Publisher}); resp != nil {
		return *resp
	}
	var d *core.PublisherDetails
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		d, err = st.GetPublisher(p.Publisher)
		return err
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, d)
}

func (h *Handler) getGame(req Request) Response {
	var p gameParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"publisher", p.Publisher}); resp != nil {
		return *resp
	}
	g := core.GlobalGameID{Publisher: p.Publisher, Game: p.GameID}
	if cached, ok := h.games.Get(g.String()); ok {
		return okResponse(req.ID, cached)
	}
	var d *core.GameDetails
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		d, err = st.GetGame(g)
		return notFoundAs(err, core.ErrGameNotFound)
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	h.games.Set(g.String(), d, cache.DefaultExpiration)
	return okResponse(req.ID, d)
}

type tagEntry struct {
	ID  core.TagID `json:"id"`
	Tag string     `json:"tag"`
}

func (h *Handler) getTags(req Request) Response {
	var vocab map[core.TagID]string
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		vocab, err = st.Tags()
		return err
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	out := make([]tagEntry, 0, len(vocab))
	for id, tag := range vocab {
		out = append(out, tagEntry{ID: id, Tag: tag})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return okResponse(req.ID, out)
}

func (h *Handler) getOrder(req Request) Response {
	var p buyerGameParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"buyer", p.Buyer}, field{"publisher", p.Publisher}); resp != nil {
		return *resp
	}
	var o *core.OrderDetails
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		o, err = st.GetOrder(p.Buyer, p.game())
		return notFoundAs(err, core.ErrOrderNotFound)
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, core.Order{Buyer: p.Buyer, Game: p.game(), Deposit: o.Deposit})
}

func (h *Handler) isOwned(req Request) Response {
	var p buyerGameParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"buyer", p.Buyer}, field{"publisher", p.Publisher}); resp != nil {
		return *resp
	}
	var owned bool
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		owned, err = st.IsOwned(p.Buyer, p.game())
		return err
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, owned)
}

func (h *Handler) getGamesByPublisher(req Request) Response {
	var p publisherParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"publisher", p.Publisher}); resp != nil {
		return *resp
	}
	ids, err := h.indexer.GamesByPublisher(p.Publisher)
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, nonNil(ids))
}

func (h *Handler) getOwnedGames(req Request) Response {
	var p buyerParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"buyer", p.Buyer}); resp != nil {
		return *resp
	}
	ids, err := h.indexer.OwnedGames(p.Buyer)
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, nonNil(ids))
}

func (h *Handler) getOrdersByPublisher(req Request) Response {
	var p publisherParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"publisher", p.Publisher}); resp != nil {
		return *resp
	}
	var orders []core.Order
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		orders, err = st.PublisherOrders(p.Publisher)
		return err
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, orders)
}

func (h *Handler) getOrdersByBuyer(req Request) Response {
	var p buyerParams
	if resp := decode(req, &p); resp != nil {
		return *resp
	}
	if resp := need(req, field{"buyer", p.Buyer}); resp != nil {
		return *resp
	}
	var orders []core.Order
	err := h.backend.View(func(st *storage.StateDB) error {
		var err error
		orders, err = st.BuyerOrders(p.Buyer)
		return err
	})
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, orders)
}

func (h *Handler) getEvents(req Request) Response {
	var p struct {
		Since uint64 `json:"since"`
		Limit int    `json:"limit"`
	}
	if len(req.Params) > 0 {
		if resp := decode(req, &p); resp != nil {
			return *resp
		}
	}
	evs := h.journal.Since(p.Since, p.Limit)
	if evs == nil {
		evs = []events.Event{}
	}
	return okResponse(req.ID, map[string]any{"last": h.journal.Last(), "events": evs})
}

func (h *Handler) sendTx(req Request) Response {
	var tx core.Transaction
	if err := json.Unmarshal(req.Params, &tx); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	// Recompute the ID server-side; do not trust the client-provided value.
	tx.ID = tx.Hash()
	receipt, err := h.backend.Submit(&tx)
	if err != nil {
		return fromError(req.ID, err)
	}
	return okResponse(req.ID, receipt)
}

// notFoundAs replaces a storage miss with a more specific sentinel.
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w", sentinel)
	}
	return err
}

func nonNil(ids []core.GlobalGameID) []core.GlobalGameID {
	if ids == nil {
		return []core.GlobalGameID{}
	}
	return ids
}
