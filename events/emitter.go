package events

import (
	"sync"

	"github.com/bitmark-inc/logger"
)

// EventType labels what happened.
type EventType string

const (
	EventTxExecuted              EventType = "tx_executed"
	EventTokenTransfer           EventType = "token_transfer"
	EventPublisherDepositUpdated EventType = "publisher_deposit_updated"
	EventPublisherAdded          EventType = "publisher_added"
	EventGameAdded               EventType = "game_added"
	EventGamePurchased           EventType = "game_purchased"
	EventOrderPlaced             EventType = "order_placed"
	EventOrderCancelled          EventType = "order_cancelled"
	EventOrderFulfilled          EventType = "order_fulfilled"
)

// Event carries a typed payload emitted after a state change. Seq is
// assigned by the Journal.
type Event struct {
	Seq    uint64         `json:"seq"`
	Type   EventType      `json:"type"`
	TxID   string         `json:"tx_id"`
	Height uint64         `json:"height"`
	Data   map[string]any `json:"data"`
}

// Sink accepts events. Engines emit into a Sink; the executor buffers them
// and forwards to the Emitter only when the transaction succeeds.
type Sink interface {
	Emit(Event)
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
	log      *logger.L
}

var _ Sink = (*Emitter)(nil)

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[EventType][]Handler),
		log:      logger.New("events"),
	}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// SubscribeAll registers h for every event type.
func (e *Emitter) SubscribeAll(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, h)
}

// Emit delivers ev synchronously, first to the catch-all subscribers and
// then to those registered for ev.Type. A panicking handler is logged and
// skipped.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.all)+len(e.handlers[ev.Type]))
	handlers = append(handlers, e.all...)
	handlers = append(handlers, e.handlers[ev.Type]...)
	e.mu.RUnlock()
	for _, h := range handlers {
		e.deliver(h, ev)
	}
}

func (e *Emitter) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("handler panicked for %s: %v", ev.Type, r)
		}
	}()
	h(ev)
}

// Buffer collects events until Flush. The zero value is ready to use.
type Buffer struct {
	events []Event
}

var _ Sink = (*Buffer)(nil)

func (b *Buffer) Emit(ev Event) { b.events = append(b.events, ev) }

// Events returns the buffered events.
func (b *Buffer) Events() []Event { return b.events }

// Flush forwards buffered events to sink in order and empties the buffer.
func (b *Buffer) Flush(sink Sink) {
	for _, ev := range b.events {
		sink.Emit(ev)
	}
	b.events = nil
}

// Discard drops buffered events.
func (b *Buffer) Discard() { b.events = nil }
