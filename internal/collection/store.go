// Package collection owns the canonical item state for the inventory views:
// the paginated "all items" list, the derived "upgraded" list, and the
// equipped side list. All updates are keyed by item id against current state,
// never by index, and reads return copies so observers can never race the
// store's internals.
package collection

import (
	"context"
	"fmt"
	"sync"

	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/logger"
	"github.com/tobyv/packrat/internal/metrics"
)

// Fetcher is the slice of the API client the store needs
type Fetcher interface {
	GetInventory(ctx context.Context, page, perPage int) ([]domain.InventoryItem, domain.Pagination, error)
	GetUpgradedItems(ctx context.Context, userID int) ([]domain.InventoryItem, error)
	GetPoints(ctx context.Context) (int, error)
}

// Snapshot is a point-in-time copy of the store state handed to observers.
// Slices are owned by the receiver; mutating them does not affect the store.
type Snapshot struct {
	Items         []domain.InventoryItem
	Upgraded      []domain.InventoryItem
	Equipped      []domain.InventoryItem
	Points        int
	Pagination    domain.Pagination
	Loading       bool
	InitialLoaded bool
}

// Observer receives a snapshot after every state change
type Observer func(Snapshot)

// Store is the shared mutable item collection backing every inventory view
type Store struct {
	fetcher Fetcher
	userID  int
	perPage int

	mu            sync.Mutex
	items         []domain.InventoryItem
	upgraded      []domain.InventoryItem
	equipped      []domain.InventoryItem
	points        int
	pagination    domain.Pagination
	loading       bool
	initialLoaded bool

	obsMu     sync.Mutex
	nextObsID uint64
	observers map[uint64]Observer
}

// NewStore creates an empty store. Call LoadInitial before paging.
func NewStore(fetcher Fetcher, userID, perPage int) *Store {
	if perPage <= 0 {
		perPage = domain.DefaultPerPage
	}
	return &Store{
		fetcher:   fetcher,
		userID:    userID,
		perPage:   perPage,
		observers: make(map[uint64]Observer),
	}
}

// Subscribe registers an observer and returns its unsubscribe function.
// Observers are invoked synchronously after every state change with a
// snapshot copy; a caller must unsubscribe on teardown.
func (s *Store) Subscribe(obs Observer) func() {
	s.obsMu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers[id] = obs
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:         cloneItems(s.items),
		Upgraded:      cloneItems(s.upgraded),
		Equipped:      cloneItems(s.equipped),
		Points:        s.points,
		Pagination:    s.pagination,
		Loading:       s.loading,
		InitialLoaded: s.initialLoaded,
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.obsMu.Unlock()

	for _, obs := range observers {
		obs(snap)
	}
}

// LoadInitial fetches page 1 plus the upgraded list and the point balance.
// Safe to call again; a repeat performs a full refresh.
func (s *Store) LoadInitial(ctx context.Context) error {
	return s.refresh(ctx)
}

// Refresh is the full-refresh recovery path: refetch page 1, points, and the
// upgraded list, and rebuild the equipped side list from the results. Used
// when a caller cannot identify which specific item changed.
func (s *Store) Refresh(ctx context.Context) error {
	metrics.FullRefreshes.Inc()
	return s.refresh(ctx)
}

func (s *Store) refresh(ctx context.Context) error {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()
	s.notify()

	items, pagination, err := s.fetcher.GetInventory(ctx, domain.FirstPage, s.perPage)
	if err != nil {
		metrics.PagesFetched.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.setLoading(false)
		return fmt.Errorf("load inventory page %d: %w", domain.FirstPage, err)
	}
	metrics.PagesFetched.WithLabelValues(metrics.OutcomeSuccess).Inc()

	upgraded, upgradedErr := s.fetcher.GetUpgradedItems(ctx, s.userID)
	if upgradedErr != nil {
		log.Warn("Upgraded list fetch failed, keeping previous", "error", upgradedErr)
	}

	points, pointsErr := s.fetcher.GetPoints(ctx)
	if pointsErr != nil {
		log.Warn("Points fetch failed, keeping previous balance", "error", pointsErr)
	}

	s.mu.Lock()
	s.items = dedupeByID(items)
	if upgradedErr == nil {
		s.upgraded = dedupeByID(upgraded)
	}
	if pointsErr == nil {
		s.points = points
	}
	s.pagination = pagination
	s.equipped = filterEquipped(s.items, s.upgraded)
	s.initialLoaded = true
	s.loading = false
	s.mu.Unlock()
	s.notify()

	log.Debug("Collection refreshed", "items", len(items), "has_next", pagination.HasNext)
	return nil
}

// LoadNextPage fetches the page after the current one. The three gates
// (not already loading, has_next true, initial load complete) are checked and
// the loading flag is set under a single lock acquisition, so a violated gate
// is a no-op rather than a duplicate fetch.
func (s *Store) LoadNextPage(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.pagination.HasNext || !s.initialLoaded {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	page := s.pagination.Page + 1
	s.mu.Unlock()
	s.notify()

	items, pagination, err := s.fetcher.GetInventory(ctx, page, s.perPage)
	if err != nil {
		metrics.PagesFetched.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.setLoading(false)
		return fmt.Errorf("load inventory page %d: %w", page, err)
	}
	metrics.PagesFetched.WithLabelValues(metrics.OutcomeSuccess).Inc()

	s.mu.Lock()
	dropped := s.mergeLocked(items)
	s.pagination = pagination
	s.loading = false
	s.mu.Unlock()
	s.notify()

	if dropped > 0 {
		logger.FromContext(ctx).Debug("Dropped duplicate items during merge", "count", dropped, "page", page)
	}
	return nil
}

// OnScroll reports a scroll position as a fraction of the scrollable height
// and triggers the next page load once past the threshold. Returns true when
// a load was started.
func (s *Store) OnScroll(ctx context.Context, fraction float64) (bool, error) {
	if fraction < ScrollThreshold {
		return false, nil
	}

	s.mu.Lock()
	gated := s.loading || !s.pagination.HasNext || !s.initialLoaded
	s.mu.Unlock()
	if gated {
		return false, nil
	}

	return true, s.LoadNextPage(ctx)
}

// mergeLocked appends incoming items, dropping any whose id already exists.
// Returns the number of duplicates dropped. Caller holds s.mu.
func (s *Store) mergeLocked(incoming []domain.InventoryItem) int {
	seen := make(map[int]struct{}, len(s.items))
	for _, item := range s.items {
		seen[item.ID] = struct{}{}
	}

	merged := make([]domain.InventoryItem, len(s.items), len(s.items)+len(incoming))
	copy(merged, s.items)

	dropped := 0
	for _, item := range incoming {
		if _, dup := seen[item.ID]; dup {
			dropped++
			continue
		}
		seen[item.ID] = struct{}{}
		merged = append(merged, item)
	}

	s.items = merged
	if dropped > 0 {
		metrics.DuplicatesDropped.Add(float64(dropped))
	}
	return dropped
}

// Prepend puts a newly obtained item at the head of the main list, and of the
// upgraded list when applicable. Obtained items arrive ahead of any
// pagination fetch that might also contain them; the id dedup makes the
// later fetch drop its copy.
func (s *Store) Prepend(item domain.InventoryItem) {
	s.mu.Lock()
	if indexByID(s.items, item.ID) == -1 {
		s.items = append([]domain.InventoryItem{item}, s.items...)
	}
	if item.Upgraded() && indexByID(s.upgraded, item.ID) == -1 {
		s.upgraded = append([]domain.InventoryItem{item}, s.upgraded...)
	}
	if item.IsEquipped && indexByID(s.equipped, item.ID) == -1 {
		s.equipped = append([]domain.InventoryItem{item}, s.equipped...)
	}
	s.mu.Unlock()
	s.notify()
}

// Patch applies an id-keyed update to the item wherever it appears. The
// mutation function receives a copy and returns the replacement value.
// Returns false when the id is present in no list; that is a no-op, not an
// error, because the item may have been transferred away concurrently.
func (s *Store) Patch(itemID int, mutate func(domain.InventoryItem) domain.InventoryItem) bool {
	s.mu.Lock()
	found := false
	for _, list := range []*[]domain.InventoryItem{&s.items, &s.upgraded, &s.equipped} {
		if i := indexByID(*list, itemID); i >= 0 {
			updated := cloneItems(*list)
			updated[i] = mutate(updated[i])
			*list = updated
			found = true
		}
	}
	if found {
		s.syncEquippedLocked(itemID)
		s.syncUpgradedLocked(itemID)
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

// syncEquippedLocked reconciles the equipped side list with the item's
// current IsEquipped flag. Insertion is idempotent by id.
func (s *Store) syncEquippedLocked(itemID int) {
	item, ok := s.lookupLocked(itemID)
	if !ok {
		return
	}

	idx := indexByID(s.equipped, itemID)
	switch {
	case item.IsEquipped && idx == -1:
		s.equipped = append(cloneItems(s.equipped), item)
	case item.IsEquipped && idx >= 0:
		updated := cloneItems(s.equipped)
		updated[idx] = item
		s.equipped = updated
	case !item.IsEquipped && idx >= 0:
		s.equipped = removeByID(s.equipped, itemID)
	}
}

// syncUpgradedLocked adds the item to the upgraded list once its level
// becomes positive. Items never leave the upgraded list by patching; only
// transfer removes them.
func (s *Store) syncUpgradedLocked(itemID int) {
	item, ok := s.lookupLocked(itemID)
	if !ok || !item.Upgraded() {
		return
	}
	if indexByID(s.upgraded, itemID) == -1 {
		s.upgraded = append(cloneItems(s.upgraded), item)
	}
}

// Remove deletes the item from every list. Used on successful transfer and
// on marketplace sale; removing an absent id is a no-op.
func (s *Store) Remove(itemID int) {
	s.mu.Lock()
	s.items = removeByID(s.items, itemID)
	s.upgraded = removeByID(s.upgraded, itemID)
	s.equipped = removeByID(s.equipped, itemID)
	s.mu.Unlock()
	s.notify()
}

// Get returns a copy of the item with the given id from the main or upgraded list
func (s *Store) Get(itemID int) (domain.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(itemID)
}

func (s *Store) lookupLocked(itemID int) (domain.InventoryItem, bool) {
	if i := indexByID(s.items, itemID); i >= 0 {
		return s.items[i], true
	}
	if i := indexByID(s.upgraded, itemID); i >= 0 {
		return s.upgraded[i], true
	}
	return domain.InventoryItem{}, false
}

// Items returns a copy of the main list
func (s *Store) Items() []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// SetPoints records a new authoritative point balance
func (s *Store) SetPoints(points int) {
	s.mu.Lock()
	s.points = points
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

func cloneItems(items []domain.InventoryItem) []domain.InventoryItem {
	out := make([]domain.InventoryItem, len(items))
	copy(out, items)
	return out
}

func indexByID(items []domain.InventoryItem, id int) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func removeByID(items []domain.InventoryItem, id int) []domain.InventoryItem {
	out := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func dedupeByID(items []domain.InventoryItem) []domain.InventoryItem {
	seen := make(map[int]struct{}, len(items))
	out := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func filterEquipped(lists ...[]domain.InventoryItem) []domain.InventoryItem {
	seen := make(map[int]struct{})
	out := make([]domain.InventoryItem, 0)
	for _, list := range lists {
		for _, item := range list {
			if !item.IsEquipped {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
