// Package purchase runs the short-lived buy → open → reveal transaction for
// one pack. A flow instance is single-flight: one transaction at a time, and
// any failure at Buying or Opening closes the whole flow rather than leaving
// the UI implying a pack was consumed without resolution.
package purchase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tobyv/packrat/internal/api"
	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/event"
	"github.com/tobyv/packrat/internal/logger"
	"github.com/tobyv/packrat/internal/metrics"
	"github.com/tobyv/packrat/internal/notify"
)

// Phase is the state of an active transaction
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseBuying    Phase = "buying"
	PhaseOpening   Phase = "opening"
	PhaseRevealing Phase = "revealing"
	PhaseReopening Phase = "reopening"
	PhaseDone      Phase = "done"
)

// Backend is the slice of the API client the flow needs
type Backend interface {
	BuyPack(ctx context.Context, packID int) (*api.BuyResult, error)
	OpenPack(ctx context.Context, purchaseID int) (*domain.InventoryItem, error)
}

// Catalog lets the flow invalidate cached pack state after a buy updates the
// sold count. May be nil.
type Catalog interface {
	Invalidate(packID int)
}

// State is a point-in-time view of the transaction
type State struct {
	Phase           Phase
	PackID          int
	Obtained        *domain.InventoryItem
	RemainingPoints int
	Err             string
}

// Observer receives the state after every transition
type Observer func(State)

// Flow is one purchase-open transaction driver
type Flow struct {
	backend     Backend
	bus         event.Bus
	sink        notify.Sink
	catalog     Catalog
	revealDelay time.Duration

	mu         sync.Mutex
	phase      Phase
	packID     int
	purchaseID int
	obtained   *domain.InventoryItem
	points     int
	errMsg     string

	obsMu     sync.Mutex
	nextObsID uint64
	observers map[uint64]Observer
}

// NewFlow creates an idle flow. revealDelay is the deliberate pacing between
// a successful open and the reveal; it gives the reveal animation time to
// play and is never skipped.
func NewFlow(backend Backend, bus event.Bus, sink notify.Sink, catalog Catalog, revealDelay time.Duration) *Flow {
	return &Flow{
		backend:     backend,
		bus:         bus,
		sink:        sink,
		catalog:     catalog,
		revealDelay: revealDelay,
		phase:       PhaseIdle,
		observers:   make(map[uint64]Observer),
	}
}

// Subscribe registers an observer and returns its unsubscribe function
func (f *Flow) Subscribe(obs Observer) func() {
	f.obsMu.Lock()
	f.nextObsID++
	id := f.nextObsID
	f.observers[id] = obs
	f.obsMu.Unlock()

	return func() {
		f.obsMu.Lock()
		delete(f.observers, id)
		f.obsMu.Unlock()
	}
}

// State returns the current transaction state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Flow) stateLocked() State {
	st := State{
		Phase:           f.phase,
		PackID:          f.packID,
		RemainingPoints: f.points,
		Err:             f.errMsg,
	}
	if f.obtained != nil {
		clone := *f.obtained
		st.Obtained = &clone
	}
	return st
}

func (f *Flow) notify() {
	st := f.State()

	f.obsMu.Lock()
	observers := make([]Observer, 0, len(f.observers))
	for _, obs := range f.observers {
		observers = append(observers, obs)
	}
	f.obsMu.Unlock()

	for _, obs := range observers {
		obs(st)
	}
}

// Start begins a transaction for the given pack: buy, open, pace, reveal.
// Blocks until the flow reaches Revealing or aborts; callers drive it from
// their own goroutine. Returns ErrTransactionActive when a transaction is
// already in progress.
func (f *Flow) Start(ctx context.Context, packID int) error {
	f.mu.Lock()
	if f.phase != PhaseIdle && f.phase != PhaseDone {
		f.mu.Unlock()
		return domain.ErrTransactionActive
	}
	f.phase = PhaseBuying
	f.packID = packID
	f.purchaseID = 0
	f.obtained = nil
	f.errMsg = ""
	f.mu.Unlock()
	f.notify()

	return f.run(ctx)
}

// OpenAnother repeats the purchase for the same pack, discarding the
// previously obtained item. Only valid while Revealing.
func (f *Flow) OpenAnother(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhaseRevealing {
		f.mu.Unlock()
		return fmt.Errorf("open another in phase %s: %w", f.phase, domain.ErrTransactionInactive)
	}
	f.phase = PhaseReopening
	f.obtained = nil
	f.mu.Unlock()
	f.notify()

	return f.run(ctx)
}

// Finish releases a revealed transaction
func (f *Flow) Finish() error {
	f.mu.Lock()
	if f.phase != PhaseRevealing {
		f.mu.Unlock()
		return fmt.Errorf("finish in phase %s: %w", f.phase, domain.ErrTransactionInactive)
	}
	f.phase = PhaseDone
	f.obtained = nil
	f.mu.Unlock()
	f.notify()
	return nil
}

// run drives Buying → Opening → Revealing for the pack recorded on the flow
func (f *Flow) run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	f.mu.Lock()
	packID := f.packID
	if f.phase == PhaseReopening {
		f.phase = PhaseBuying
		f.mu.Unlock()
		f.notify()
	} else {
		f.mu.Unlock()
	}

	buy, err := f.backend.BuyPack(ctx, packID)
	if err != nil {
		metrics.PacksBought.WithLabelValues(metrics.OutcomeFailure).Inc()
		f.abort(ctx, "buy", err)
		return fmt.Errorf("buy pack %d: %w", packID, err)
	}
	metrics.PacksBought.WithLabelValues(metrics.OutcomeSuccess).Inc()

	if f.catalog != nil {
		f.catalog.Invalidate(packID)
	}
	f.publishPoints(ctx, buy.RemainingPoints)

	f.mu.Lock()
	f.purchaseID = buy.PurchaseID
	f.points = buy.RemainingPoints
	f.phase = PhaseOpening
	f.mu.Unlock()
	f.notify()

	item, err := f.backend.OpenPack(ctx, buy.PurchaseID)
	if err != nil {
		metrics.PacksOpened.WithLabelValues(metrics.OutcomeFailure).Inc()
		f.abort(ctx, "open", err)
		return fmt.Errorf("open purchase %d: %w", buy.PurchaseID, err)
	}
	metrics.PacksOpened.WithLabelValues(metrics.OutcomeSuccess).Inc()

	// Exactly one publish per successful open, before the pacing delay, so
	// the collection is consistent even if the modal is dismissed mid-pace.
	if f.bus != nil {
		if pubErr := f.bus.Publish(ctx, event.NewItemObtainedEvent(*item)); pubErr != nil {
			log.Warn("Item obtained publish failed", "error", pubErr)
			metrics.EventHandlerErrors.WithLabelValues(string(event.ItemObtained)).Inc()
		} else {
			metrics.EventsPublished.WithLabelValues(string(event.ItemObtained)).Inc()
		}
	}

	// Deliberate UX pacing, not a retry wait: the data is already here, the
	// reveal animation needs the time.
	if err := f.pace(ctx); err != nil {
		f.mu.Lock()
		f.phase = PhaseDone
		f.obtained = nil
		f.mu.Unlock()
		f.notify()
		return err
	}

	f.mu.Lock()
	f.obtained = item
	f.phase = PhaseRevealing
	f.mu.Unlock()
	f.notify()

	log.Info("Pack opened", "pack_id", packID, "item_id", item.ID, "rarity", item.Rarity)
	return nil
}

func (f *Flow) pace(ctx context.Context) error {
	if f.revealDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(f.revealDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// abort closes the whole flow on a buy/open failure and surfaces the error.
// The modal must never be left implying a pack was consumed without
// resolution.
func (f *Flow) abort(ctx context.Context, step string, err error) {
	log := logger.FromContext(ctx)

	f.mu.Lock()
	f.phase = PhaseIdle
	f.obtained = nil
	f.purchaseID = 0
	if msg := api.RejectionMessage(err); msg != "" {
		f.errMsg = msg
	} else {
		f.errMsg = MsgTransactionFailed
	}
	msg := f.errMsg
	f.mu.Unlock()
	f.notify()

	log.Warn("Transaction aborted", "step", step, "error", err)
	notify.Error(f.sink, msg)
}

func (f *Flow) publishPoints(ctx context.Context, remaining int) {
	if f.bus == nil {
		return
	}
	if err := f.bus.Publish(ctx, event.NewPointsChangedEvent(remaining)); err != nil {
		logger.FromContext(ctx).Warn("Points event publish failed", "error", err)
	}
}
