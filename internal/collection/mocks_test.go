package collection

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tobyv/packrat/internal/domain"
)

// MockFetcher implements Fetcher for testing
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetInventory(ctx context.Context, page, perPage int) ([]domain.InventoryItem, domain.Pagination, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, domain.Pagination{}, args.Error(2)
	}
	return args.Get(0).([]domain.InventoryItem), args.Get(1).(domain.Pagination), args.Error(2)
}

func (m *MockFetcher) GetUpgradedItems(ctx context.Context, userID int) ([]domain.InventoryItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InventoryItem), args.Error(1)
}

func (m *MockFetcher) GetPoints(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Test fixtures

func item(id int, name string) domain.InventoryItem {
	return domain.InventoryItem{ID: id, Name: name, Rarity: domain.RarityCommon}
}

func upgradedItem(id int, name string) domain.InventoryItem {
	it := item(id, name)
	it.UpgradeLevel = 1
	return it
}

func page(items []domain.InventoryItem, pageNum int, hasNext bool) ([]domain.InventoryItem, domain.Pagination) {
	return items, domain.Pagination{
		Page:    pageNum,
		PerPage: domain.DefaultPerPage,
		HasNext: hasNext,
	}
}
