package mutation

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/tobyv/packrat/internal/api"
	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/notify"
)

// MockAPI implements API for testing
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Equip(ctx context.Context, itemID int) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockAPI) Unequip(ctx context.Context, itemID int) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockAPI) Upgrade(ctx context.Context, itemID int) (*api.UpgradeResult, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.UpgradeResult), args.Error(1)
}

func (m *MockAPI) Transfer(ctx context.Context, itemID int, recipient string) (*api.TransferResult, error) {
	args := m.Called(ctx, itemID, recipient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.TransferResult), args.Error(1)
}

func (m *MockAPI) MarketplaceList(ctx context.Context, itemID, price int) (*domain.MarketplaceListing, error) {
	args := m.Called(ctx, itemID, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarketplaceListing), args.Error(1)
}

func (m *MockAPI) MarketplaceRemove(ctx context.Context, itemID int) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

// fakeStore is an in-memory Store double tracking patch/remove traffic
type fakeStore struct {
	mu        sync.Mutex
	items     map[int]domain.InventoryItem
	points    int
	refreshes int
}

func newFakeStore(items ...domain.InventoryItem) *fakeStore {
	s := &fakeStore{items: make(map[int]domain.InventoryItem)}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeStore) Get(itemID int) (domain.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	return it, ok
}

func (s *fakeStore) Patch(itemID int, mutate func(domain.InventoryItem) domain.InventoryItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return false
	}
	s.items[itemID] = mutate(it)
	return true
}

func (s *fakeStore) Remove(itemID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, itemID)
}

func (s *fakeStore) SetPoints(points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = points
}

func (s *fakeStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return nil
}

// recordingSink captures notifications for assertions
type recordingSink struct {
	mu            sync.Mutex
	notifications []notify.Notification
}

func (s *recordingSink) Notify(n notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *recordingSink) all() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
