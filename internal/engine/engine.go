// Package engine wires the backend client, the shared collection store, the
// search controller, the mutation reconciler, the purchase flow and the event
// relay into one composition root. Views hold an Engine and subscribe to the
// pieces they render.
package engine

import (
	"context"

	"github.com/tobyv/packrat/internal/api"
	"github.com/tobyv/packrat/internal/catalog"
	"github.com/tobyv/packrat/internal/collection"
	"github.com/tobyv/packrat/internal/config"
	"github.com/tobyv/packrat/internal/event"
	"github.com/tobyv/packrat/internal/logger"
	"github.com/tobyv/packrat/internal/mutation"
	"github.com/tobyv/packrat/internal/notify"
	"github.com/tobyv/packrat/internal/purchase"
	"github.com/tobyv/packrat/internal/search"
)

// Engine owns every long-lived component of a session
type Engine struct {
	client *api.Client

	Bus        event.Bus
	Catalog    catalog.Service
	Collection *collection.Store
	Search     *search.Controller
	Mutations  *mutation.Reconciler
	Purchase   *purchase.Flow

	subs []*event.Subscription
}

// New builds an engine for one user session against the configured backend
func New(cfg *config.Config, sink notify.Sink) *Engine {
	client := api.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	bus := event.NewMemoryBus()

	store := collection.NewStore(client, cfg.UserID, cfg.PerPage)

	e := &Engine{
		client:     client,
		Bus:        bus,
		Catalog:    catalog.NewService(client, cfg.CatalogCacheSize, cfg.CatalogTTL),
		Collection: store,
		Search:     search.NewController(client, store, cfg.SearchDebounce, cfg.PerPage),
		Mutations:  mutation.NewReconciler(client, store, sink, bus),
	}
	e.Purchase = purchase.NewFlow(client, bus, sink, e.Catalog, cfg.RevealDelay)

	// Obtained items and point changes flow into the collection through the
	// relay, never by direct cross-component calls.
	e.subs = append(e.subs,
		bus.Subscribe(event.ItemObtained, func(ctx context.Context, ev event.Event) error {
			payload, ok := ev.Payload.(event.ItemObtainedPayloadV1)
			if !ok {
				logger.FromContext(ctx).Warn(LogMsgUnexpectedPayload, "type", ev.Type)
				return nil
			}
			store.Prepend(payload.Item)
			return nil
		}),
		bus.Subscribe(event.PointsChanged, func(ctx context.Context, ev event.Event) error {
			payload, ok := ev.Payload.(event.PointsChangedPayloadV1)
			if !ok {
				logger.FromContext(ctx).Warn(LogMsgUnexpectedPayload, "type", ev.Type)
				return nil
			}
			store.SetPoints(payload.RemainingPoints)
			return nil
		}),
	)

	return e
}

// Start performs the initial collection load
func (e *Engine) Start(ctx context.Context) error {
	return e.Collection.LoadInitial(ctx)
}

// Close detaches the relay subscriptions and waits for in-flight mutation
// dispatches to settle. The engine must not be used after Close.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		sub.Unsubscribe()
	}
	e.subs = nil
	e.Search.Clear()
	e.Mutations.Wait()
}
