package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/tobyv/packrat/internal/domain"
)

// Type represents the type of an event
type Type string

// Event represents a generic event carried by the relay
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Relay event types
const (
	// ItemObtained is published exactly once per successful pack open. It is
	// the only sanctioned decoupling channel between the purchase flow and
	// the collection stores.
	ItemObtained Type = "item_obtained"

	// PointsChanged is published when a buy/upgrade/transfer response carries
	// a new remaining-points balance.
	PointsChanged Type = "points_changed"
)

// ItemObtainedPayloadV1 is the typed payload for item-obtained events.
// Publish carries exactly one item.
type ItemObtainedPayloadV1 struct {
	Item domain.InventoryItem `json:"item"`
}

// PointsChangedPayloadV1 is the typed payload for balance updates
type PointsChangedPayloadV1 struct {
	RemainingPoints int `json:"remaining_points"`
}

// NewItemObtainedEvent creates a new item-obtained event with type-safe payload
func NewItemObtainedEvent(item domain.InventoryItem) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ItemObtained,
		Payload: ItemObtainedPayloadV1{Item: item},
	}
}

// NewPointsChangedEvent creates a new points-changed event
func NewPointsChangedEvent(remaining int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PointsChanged,
		Payload: PointsChangedPayloadV1{RemainingPoints: remaining},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Subscription identifies one registered handler. Unsubscribe detaches the
// handler; after Unsubscribe returns, the handler will not be invoked by any
// later Publish. Views must unsubscribe on teardown.
type Subscription struct {
	bus       *MemoryBus
	eventType Type
	id        uint64
}

// Unsubscribe detaches the handler from the bus. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.unsubscribe(s.eventType, s.id)
	s.bus = nil
}

// Bus defines the interface for the cross-view event relay
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler) *Subscription
}

// MemoryBus is an in-memory implementation of the relay
type MemoryBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Type]map[uint64]Handler
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type]map[uint64]Handler),
	}
}

// Publish delivers an event to all current subscribers synchronously on the
// caller's goroutine. Handler errors are collected, not fatal; every handler
// runs regardless of earlier failures.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	registered := b.handlers[event.Type]
	handlers := make([]Handler, 0, len(registered))
	for _, h := range registered {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe registers a handler for an event type and returns its subscription handle
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]Handler)
	}
	b.handlers[eventType][id] = handler

	return &Subscription{bus: b, eventType: eventType, id: id}
}

func (b *MemoryBus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers[eventType], id)
}
