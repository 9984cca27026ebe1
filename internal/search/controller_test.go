package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyv/packrat/internal/api"
	"github.com/tobyv/packrat/internal/domain"
)

const testDebounce = 40 * time.Millisecond

// fakeSearcher records issued queries and lets tests control when each
// request resolves. A blocked request honors cancellation like a real HTTP
// call: cancel aborts it before its response resolves.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []api.SearchQuery
	results map[string][]domain.InventoryItem
	err     error
	block   map[string]chan struct{} // query → gate held until test releases
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: make(map[string][]domain.InventoryItem),
		block:   make(map[string]chan struct{}),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, q api.SearchQuery) ([]domain.InventoryItem, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.block[q.Query]
	err := f.err
	items := f.results[q.Query]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakeSearcher) calls() []api.SearchQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.SearchQuery, len(f.queries))
	copy(out, f.queries)
	return out
}

type staticBase struct {
	items []domain.InventoryItem
}

func (b staticBase) Items() []domain.InventoryItem {
	out := make([]domain.InventoryItem, len(b.items))
	copy(out, b.items)
	return out
}

func baseItems() []domain.InventoryItem {
	return []domain.InventoryItem{
		{ID: 1, Name: "Aurora"},
		{ID: 2, Name: "Basilisk"},
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDebounce_CollapsesKeystrokes(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.results["abc"] = []domain.InventoryItem{{ID: 9, Name: "abc match"}}
	ctrl := NewController(searcher, staticBase{baseItems()}, testDebounce, 15)

	// Three keystrokes within the quiet period
	ctrl.SetQuery("a")
	ctrl.SetQuery("ab")
	ctrl.SetQuery("abc")

	waitFor(t, func() bool { return len(searcher.calls()) > 0 }, "search never fired")
	time.Sleep(2 * testDebounce) // no trailing extra fire

	calls := searcher.calls()
	require.Len(t, calls, 1, "expected exactly one remote search")
	assert.Equal(t, "abc", calls[0].Query, "search must use the last keystroke's value")

	waitFor(t, func() bool { return ctrl.State().Active }, "results never applied")
	st := ctrl.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, 9, st.Items[0].ID)
}

func TestDebounce_TimerRaceSingleFirePerQuery(t *testing.T) {
	searcher := newFakeSearcher()
	ctrl := NewController(searcher, staticBase{baseItems()}, 2*time.Millisecond, 15)

	// Keystrokes landing right at the quiet-period boundary race Stop against
	// the already-started timer callback. A replaced timer must never fire
	// alongside its replacement; every query is searched at most once.
	const keystrokes = 50
	for i := 0; i < keystrokes; i++ {
		ctrl.SetQuery(fmt.Sprintf("query-%d", i))
		time.Sleep(2 * time.Millisecond)
	}

	final := fmt.Sprintf("query-%d", keystrokes-1)
	waitFor(t, func() bool {
		for _, q := range searcher.calls() {
			if q.Query == final {
				return true
			}
		}
		return false
	}, "final query never searched")
	time.Sleep(10 * time.Millisecond)

	seen := make(map[string]int)
	for _, q := range searcher.calls() {
		seen[q.Query]++
	}
	for query, n := range seen {
		assert.LessOrEqual(t, n, 1, "query %q searched %d times", query, n)
	}
}

func TestFilters_FireImmediately(t *testing.T) {
	searcher := newFakeSearcher()
	rarity := domain.RarityEpic
	ctrl := NewController(searcher, staticBase{baseItems()}, time.Hour, 15)

	ctrl.SetFilters(domain.SearchFilters{Rarity: &rarity})

	waitFor(t, func() bool { return len(searcher.calls()) == 1 }, "filter change did not fire immediately")
	call := searcher.calls()[0]
	require.NotNil(t, call.Filters.Rarity)
	assert.Equal(t, domain.RarityEpic, *call.Filters.Rarity)
}

func TestBlankRequest_NoRemoteCall(t *testing.T) {
	searcher := newFakeSearcher()
	ctrl := NewController(searcher, staticBase{baseItems()}, testDebounce, 15)

	ctrl.SetQuery("")
	ctrl.SetFilters(domain.SearchFilters{})
	time.Sleep(2 * testDebounce)

	assert.Empty(t, searcher.calls(), "blank query+filters must not hit the backend")

	st := ctrl.State()
	assert.False(t, st.Active)
	assert.False(t, st.Loading)
	assert.Len(t, st.Items, 2, "blank search shows the full base collection")
}

func TestSupersede_NewerSearchWins(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.results["alpha"] = []domain.InventoryItem{{ID: 10, Name: "stale"}}
	searcher.results["beta"] = []domain.InventoryItem{{ID: 20, Name: "fresh"}}
	searcher.block["alpha"] = make(chan struct{})

	ctrl := NewController(searcher, staticBase{baseItems()}, testDebounce, 15)

	// Issue A; it blocks server-side
	ctrl.SetQuery("alpha")
	waitFor(t, func() bool { return len(searcher.calls()) == 1 }, "first search not issued")

	// Issue B before A resolves
	ctrl.SetQuery("beta")
	waitFor(t, func() bool { return len(searcher.calls()) == 2 }, "second search not issued")

	// Release A after B already resolved
	waitFor(t, func() bool {
		st := ctrl.State()
		return st.Active && len(st.Items) == 1 && st.Items[0].ID == 20
	}, "second search's results never displayed")
	close(searcher.block["alpha"])
	time.Sleep(50 * time.Millisecond)

	st := ctrl.State()
	require.True(t, st.Active)
	require.Len(t, st.Items, 1)
	assert.Equal(t, 20, st.Items[0].ID, "stale result overwrote the fresher one")
}

func TestFailure_FallsBackToBase(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.err = errors.New("network down")
	ctrl := NewController(searcher, staticBase{baseItems()}, time.Hour, 15)

	rarity := domain.RarityRare
	ctrl.SetFilters(domain.SearchFilters{Rarity: &rarity})

	waitFor(t, func() bool { return ctrl.State().Err != "" }, "error never recorded")
	st := ctrl.State()
	assert.False(t, st.Active)
	assert.Len(t, st.Items, 2, "failure must show last-known base collection, not an empty list")
	assert.Contains(t, st.Err, "network down")
}

func TestClear_SynchronousReset(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.block["pending"] = make(chan struct{})
	defer close(searcher.block["pending"])

	ctrl := NewController(searcher, staticBase{baseItems()}, testDebounce, 15)
	ctrl.SetQuery("pending")
	waitFor(t, func() bool { return len(searcher.calls()) == 1 }, "search not issued")

	ctrl.Clear()

	st := ctrl.State()
	assert.False(t, st.Loading, "clear must not leave a loading flicker")
	assert.False(t, st.Active)
	assert.Len(t, st.Items, 2)
	assert.Empty(t, st.Err)

	// The aborted request must not resurface later
	time.Sleep(50 * time.Millisecond)
	st = ctrl.State()
	assert.False(t, st.Active)
}

func TestClearWhileDebouncePending(t *testing.T) {
	// Typing then clearing immediately must not issue any request and must
	// show the unfiltered base list with no loading indicator.
	searcher := newFakeSearcher()
	ctrl := NewController(searcher, staticBase{baseItems()}, testDebounce, 15)

	ctrl.SetQuery("abc")
	ctrl.SetQuery("")

	time.Sleep(2 * testDebounce)
	assert.Empty(t, searcher.calls(), "cleared debounce still fired")

	st := ctrl.State()
	assert.False(t, st.Loading)
	assert.Len(t, st.Items, 2)
}

func TestQueryCaseFoldNoRefire(t *testing.T) {
	searcher := newFakeSearcher()
	ctrl := NewController(searcher, staticBase{baseItems()}, testDebounce, 15)

	ctrl.SetQuery("Fox")
	waitFor(t, func() bool { return len(searcher.calls()) == 1 }, "search not issued")

	// Same query module case must not schedule another search
	ctrl.SetQuery("fox")
	time.Sleep(2 * testDebounce)
	assert.Len(t, searcher.calls(), 1)
}
