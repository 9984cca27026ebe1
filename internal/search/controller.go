// Package search turns free-text queries and structured filters into at most
// one outstanding remote search. Query edits are debounced; filter changes
// fire immediately; a new search always cancels whatever occupies the
// in-flight slot before installing itself, so a stale response can never
// overwrite a fresher one.
package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/tobyv/packrat/internal/api"
	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/logger"
	"github.com/tobyv/packrat/internal/metrics"
)

// Searcher is the slice of the API client the controller needs
type Searcher interface {
	Search(ctx context.Context, query api.SearchQuery) ([]domain.InventoryItem, error)
}

// BaseProvider supplies the unfiltered base collection the controller falls
// back to when no search is active or a search fails.
type BaseProvider interface {
	Items() []domain.InventoryItem
}

// State is what a view renders: the visible list, a loading flag, and the
// last search error (empty when none).
type State struct {
	Items   []domain.InventoryItem
	Loading bool
	Active  bool
	Err     string
}

// Observer receives the state after every change
type Observer func(State)

// Controller owns the debounce timer slot and the in-flight request slot
type Controller struct {
	searcher Searcher
	base     BaseProvider
	debounce time.Duration
	perPage  int

	mu      sync.Mutex
	request domain.SearchRequest
	timer   *time.Timer        // pending debounce slot, nil when empty
	cancel  context.CancelFunc // in-flight slot, nil when empty
	results []domain.InventoryItem
	active  bool
	loading bool
	errMsg  string

	obsMu     sync.Mutex
	nextObsID uint64
	observers map[uint64]Observer

	fold cases.Caser
}

// NewController creates a search controller. debounce is the quiet period for
// query-only changes; filter changes always fire immediately.
func NewController(searcher Searcher, base BaseProvider, debounce time.Duration, perPage int) *Controller {
	if perPage <= 0 {
		perPage = domain.DefaultPerPage
	}
	return &Controller{
		searcher:  searcher,
		base:      base,
		debounce:  debounce,
		perPage:   perPage,
		observers: make(map[uint64]Observer),
		fold:      cases.Fold(),
	}
}

// Subscribe registers an observer and returns its unsubscribe function
func (c *Controller) Subscribe(obs Observer) func() {
	c.obsMu.Lock()
	c.nextObsID++
	id := c.nextObsID
	c.observers[id] = obs
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		delete(c.observers, id)
		c.obsMu.Unlock()
	}
}

// State returns the current view state. When no search is active (or the
// last one failed) the visible list is the base collection.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	st := State{
		Loading: c.loading,
		Active:  c.active,
		Err:     c.errMsg,
	}
	if c.active {
		st.Items = make([]domain.InventoryItem, len(c.results))
		copy(st.Items, c.results)
	} else {
		st.Items = c.base.Items()
	}
	return st
}

func (c *Controller) notify() {
	st := c.State()

	c.obsMu.Lock()
	observers := make([]Observer, 0, len(c.observers))
	for _, obs := range c.observers {
		observers = append(observers, obs)
	}
	c.obsMu.Unlock()

	for _, obs := range observers {
		obs(st)
	}
}

// SetQuery records a keystroke. A non-blank request schedules a remote search
// after the quiet period; any previously scheduled search is replaced.
// Clearing the last character restores the base collection synchronously.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	if c.fold.String(query) == c.fold.String(c.request.Query) {
		c.mu.Unlock()
		return
	}
	c.request.Query = query

	if c.request.Blank() {
		c.resetLocked()
		c.mu.Unlock()
		c.notify()
		return
	}

	if c.timer != nil {
		c.timer.Stop()
		metrics.SearchesDebounced.Inc()
	}
	// Stop can lose to a callback that has already started and is waiting on
	// c.mu; the ownership check keeps a superseded callback from firing a
	// second search for the same request.
	var t *time.Timer
	t = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if c.timer != t {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.fireLocked()
	})
	c.timer = t
	c.mu.Unlock()
}

// SetFilters applies structured filters. Filters are explicit user commits,
// not incremental typing, so they fire immediately with no debounce.
func (c *Controller) SetFilters(filters domain.SearchFilters) {
	c.mu.Lock()
	c.request.Filters = filters

	if c.request.Blank() {
		c.resetLocked()
		c.mu.Unlock()
		c.notify()
		return
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.fireLocked()
}

// Clear cancels any pending or in-flight search synchronously and restores
// the base collection with no loading flicker.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.request = domain.SearchRequest{}
	c.resetLocked()
	c.mu.Unlock()
	c.notify()
}

// resetLocked empties both slots and returns to the base view. Caller holds c.mu.
func (c *Controller) resetLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		metrics.SearchesCancelled.Inc()
	}
	c.results = nil
	c.active = false
	c.loading = false
	c.errMsg = ""
}

// fireLocked issues the remote search for the current request. The previous
// occupant of the in-flight slot is cancelled first, which aborts its HTTP
// call. Caller holds c.mu; the lock is released before notifying.
func (c *Controller) fireLocked() {
	if c.cancel != nil {
		c.cancel()
		metrics.SearchesCancelled.Inc()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.loading = true
	c.errMsg = ""
	req := c.request
	c.mu.Unlock()
	c.notify()

	metrics.SearchesIssued.Inc()
	go c.run(ctx, req)
}

func (c *Controller) run(ctx context.Context, req domain.SearchRequest) {
	log := logger.FromContext(ctx)

	items, err := c.searcher.Search(ctx, api.SearchQuery{
		Query:   req.Query,
		Page:    domain.FirstPage,
		PerPage: c.perPage,
		Filters: req.Filters,
	})

	if api.IsCancelled(err) {
		// Superseded, not an error: discard silently
		return
	}

	c.mu.Lock()
	// The slot may have been handed to a newer search between this request's
	// completion and its write-back; a stale result must never win.
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	c.loading = false

	if err != nil {
		// Fall back to the base collection, never to an empty list
		c.active = false
		c.results = nil
		c.errMsg = err.Error()
		c.mu.Unlock()
		c.notify()
		log.Warn("Search failed, showing base collection", "query", req.Query, "error", err)
		return
	}

	c.results = items
	c.active = true
	c.mu.Unlock()
	c.notify()
}
