// Package mutation applies item actions optimistically: the local store is
// updated immediately and the remote call runs in the background. Failures
// surface as notifications without rolling back local state; the full-refresh
// recovery path exists for callers that cannot identify what changed.
// Transfer is the one exception: destructive and locally irreversible, it
// waits for server confirmation before mutating.
package mutation

import (
	"context"
	"fmt"
	"sync"

	"github.com/tobyv/packrat/internal/api"
	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/event"
	"github.com/tobyv/packrat/internal/logger"
	"github.com/tobyv/packrat/internal/metrics"
	"github.com/tobyv/packrat/internal/notify"
)

// API is the slice of the backend client the reconciler needs
type API interface {
	Equip(ctx context.Context, itemID int) error
	Unequip(ctx context.Context, itemID int) error
	Upgrade(ctx context.Context, itemID int) (*api.UpgradeResult, error)
	Transfer(ctx context.Context, itemID int, recipient string) (*api.TransferResult, error)
	MarketplaceList(ctx context.Context, itemID, price int) (*domain.MarketplaceListing, error)
	MarketplaceRemove(ctx context.Context, itemID int) error
}

// Store is the collection surface the reconciler mutates. Every update is
// keyed by id; index-based targeting would race concurrent pagination appends.
type Store interface {
	Get(itemID int) (domain.InventoryItem, bool)
	Patch(itemID int, mutate func(domain.InventoryItem) domain.InventoryItem) bool
	Remove(itemID int)
	SetPoints(points int)
	Refresh(ctx context.Context) error
}

// Reconciler coordinates optimistic local mutations with their remote calls
type Reconciler struct {
	api   API
	store Store
	sink  notify.Sink
	bus   event.Bus
	wg    sync.WaitGroup
}

// NewReconciler creates a mutation reconciler. bus may be nil when no one
// cares about balance updates.
func NewReconciler(remote API, store Store, sink notify.Sink, bus event.Bus) *Reconciler {
	return &Reconciler{
		api:   remote,
		store: store,
		sink:  sink,
		bus:   bus,
	}
}

// Equip optimistically marks the item equipped, then confirms remotely.
// Equipping does not unequip anything else; multiple simultaneously equipped
// items are allowed. A missing id is a no-op, not an error, because the item
// may have been transferred away concurrently.
func (r *Reconciler) Equip(ctx context.Context, itemID int) {
	if !r.store.Patch(itemID, func(it domain.InventoryItem) domain.InventoryItem {
		it.IsEquipped = true
		return it
	}) {
		logger.FromContext(ctx).Debug("Equip on unknown item ignored", "item_id", itemID)
		return
	}

	r.dispatch(ctx, ActionEquip, func(ctx context.Context) error {
		return r.api.Equip(ctx, itemID)
	})
}

// Unequip is the inverse of Equip
func (r *Reconciler) Unequip(ctx context.Context, itemID int) {
	if !r.store.Patch(itemID, func(it domain.InventoryItem) domain.InventoryItem {
		it.IsEquipped = false
		return it
	}) {
		logger.FromContext(ctx).Debug("Unequip on unknown item ignored", "item_id", itemID)
		return
	}

	r.dispatch(ctx, ActionUnequip, func(ctx context.Context) error {
		return r.api.Unequip(ctx, itemID)
	})
}

// Upgrade upgrades an item once. The client-side cap check is a fast-fail
// optimistic hint only; the server's returned level is authoritative and is
// written back verbatim, never incremented locally.
func (r *Reconciler) Upgrade(ctx context.Context, itemID int) error {
	item, ok := r.store.Get(itemID)
	if !ok {
		logger.FromContext(ctx).Debug("Upgrade on unknown item ignored", "item_id", itemID)
		return nil
	}
	if item.UpgradeLevel >= domain.MaxUpgradeLevel {
		metrics.Mutations.WithLabelValues(ActionUpgrade, metrics.OutcomeFailure).Inc()
		return fmt.Errorf("item %d: %w", itemID, domain.ErrAlreadyUpgraded)
	}

	r.dispatch(ctx, ActionUpgrade, func(ctx context.Context) error {
		result, err := r.api.Upgrade(ctx, itemID)
		if err != nil {
			return err
		}

		r.store.Patch(itemID, func(it domain.InventoryItem) domain.InventoryItem {
			it.UpgradeLevel = result.UpgradeLevel
			return it
		})
		r.publishPoints(ctx, result.RemainingPoints)
		return nil
	})
	return nil
}

// Transfer sends the item to another account. Unlike the other actions it
// mutates nothing until the server confirms; on success the item disappears
// from every list.
func (r *Reconciler) Transfer(ctx context.Context, itemID int, recipient string) error {
	if recipient == "" {
		return domain.ErrRecipientMissing
	}
	if _, ok := r.store.Get(itemID); !ok {
		logger.FromContext(ctx).Debug("Transfer on unknown item ignored", "item_id", itemID)
		return nil
	}

	r.dispatch(ctx, ActionTransfer, func(ctx context.Context) error {
		result, err := r.api.Transfer(ctx, itemID, recipient)
		if err != nil {
			return err
		}

		r.store.Remove(itemID)
		r.publishPoints(ctx, result.RemainingPoints)
		notify.Info(r.sink, fmt.Sprintf(MsgTransferComplete, recipient))
		return nil
	})
	return nil
}

// MarketplaceList optimistically attaches an active listing to the item
func (r *Reconciler) MarketplaceList(ctx context.Context, itemID, price int) {
	if !r.store.Patch(itemID, func(it domain.InventoryItem) domain.InventoryItem {
		it.Marketplace = &domain.MarketplaceListing{Status: domain.ListingActive, Price: price}
		return it
	}) {
		logger.FromContext(ctx).Debug("Marketplace list on unknown item ignored", "item_id", itemID)
		return
	}

	r.dispatch(ctx, ActionMarketplaceList, func(ctx context.Context) error {
		listing, err := r.api.MarketplaceList(ctx, itemID, price)
		if err != nil {
			return err
		}

		// Fold the confirmed listing back in without touching other fields
		r.store.Patch(itemID, func(it domain.InventoryItem) domain.InventoryItem {
			it.Marketplace = listing
			return it
		})
		return nil
	})
}

// MarketplaceRemove optimistically detaches the item's listing
func (r *Reconciler) MarketplaceRemove(ctx context.Context, itemID int) {
	if !r.store.Patch(itemID, func(it domain.InventoryItem) domain.InventoryItem {
		it.Marketplace = nil
		return it
	}) {
		logger.FromContext(ctx).Debug("Marketplace remove on unknown item ignored", "item_id", itemID)
		return
	}

	r.dispatch(ctx, ActionMarketplaceRemove, func(ctx context.Context) error {
		return r.api.MarketplaceRemove(ctx, itemID)
	})
}

// Recover is the full-refresh fallback: refetch page 1, points, equipped and
// upgraded state. Callers invoke it when they cannot identify which specific
// item changed.
func (r *Reconciler) Recover(ctx context.Context) error {
	return r.store.Refresh(ctx)
}

// Wait blocks until all in-flight remote calls have settled. Mutation
// requests are not cancellable; once issued they run to completion or failure.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// dispatch runs the remote half of a mutation in the background. The call is
// detached from the caller's cancellation: an unmounting view must not abort
// an already-issued mutation, though its result may then be ignored.
func (r *Reconciler) dispatch(ctx context.Context, action string, call func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := call(detached); err != nil {
			metrics.Mutations.WithLabelValues(action, metrics.OutcomeFailure).Inc()
			r.report(detached, action, err)
			return
		}
		metrics.Mutations.WithLabelValues(action, metrics.OutcomeSuccess).Inc()
	}()
}

// report converts a remote failure into a user-visible notification. Business
// rejections surface the server message verbatim; transport failures get a
// generic network error. Optimistic state is left as-is either way.
func (r *Reconciler) report(ctx context.Context, action string, err error) {
	log := logger.FromContext(ctx)

	if msg := api.RejectionMessage(err); msg != "" {
		log.Warn("Mutation rejected by backend", "action", action, "message", msg)
		notify.Error(r.sink, msg)
		return
	}

	log.Error("Mutation failed", "action", action, "error", err)
	notify.Error(r.sink, MsgNetworkError)
}

func (r *Reconciler) publishPoints(ctx context.Context, remaining int) {
	r.store.SetPoints(remaining)
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(ctx, event.NewPointsChangedEvent(remaining)); err != nil {
		logger.FromContext(ctx).Warn("Points event publish failed", "error", err)
	}
}
