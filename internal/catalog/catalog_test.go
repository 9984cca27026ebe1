package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tobyv/packrat/internal/domain"
)

// MockBackend implements Backend for testing
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListPacks(ctx context.Context) ([]domain.Pack, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Pack), args.Error(1)
}

func (m *MockBackend) GetPack(ctx context.Context, packID int) (*domain.Pack, error) {
	args := m.Called(ctx, packID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pack), args.Error(1)
}

func createTestPack(id int, name string) *domain.Pack {
	return &domain.Pack{ID: id, Name: name, Price: 100, Currency: "points"}
}

func TestPacks_CachesWithinTTL(t *testing.T) {
	backend := new(MockBackend)
	backend.On("ListPacks", mock.Anything).Return([]domain.Pack{*createTestPack(1, "Starter")}, nil).Once()

	svc := NewService(backend, 16, time.Minute)

	first, err := svc.Packs(context.Background())
	require.NoError(t, err)
	second, err := svc.Packs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	backend.AssertNumberOfCalls(t, "ListPacks", 1)
}

func TestPacks_RefetchesAfterTTL(t *testing.T) {
	backend := new(MockBackend)
	backend.On("ListPacks", mock.Anything).Return([]domain.Pack{*createTestPack(1, "Starter")}, nil)

	svc := NewService(backend, 16, 10*time.Millisecond)

	_, err := svc.Packs(context.Background())
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	_, err = svc.Packs(context.Background())
	require.NoError(t, err)

	backend.AssertNumberOfCalls(t, "ListPacks", 2)
}

func TestPack_CachesDetail(t *testing.T) {
	backend := new(MockBackend)
	backend.On("GetPack", mock.Anything, 2).Return(createTestPack(2, "Deluxe"), nil).Once()

	svc := NewService(backend, 16, time.Minute)

	first, err := svc.Pack(context.Background(), 2)
	require.NoError(t, err)
	second, err := svc.Pack(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	backend.AssertNumberOfCalls(t, "GetPack", 1)

	// Cached reads must be copies, not shared pointers
	first.Name = "mutated"
	third, err := svc.Pack(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Deluxe", third.Name)
}

func TestInvalidate_DropsCachedState(t *testing.T) {
	backend := new(MockBackend)
	backend.On("ListPacks", mock.Anything).Return([]domain.Pack{*createTestPack(1, "Starter")}, nil)
	backend.On("GetPack", mock.Anything, 1).Return(createTestPack(1, "Starter"), nil)

	svc := NewService(backend, 16, time.Minute)

	_, err := svc.Packs(context.Background())
	require.NoError(t, err)
	_, err = svc.Pack(context.Background(), 1)
	require.NoError(t, err)

	svc.Invalidate(1)

	_, err = svc.Packs(context.Background())
	require.NoError(t, err)
	_, err = svc.Pack(context.Background(), 1)
	require.NoError(t, err)

	backend.AssertNumberOfCalls(t, "ListPacks", 2)
	backend.AssertNumberOfCalls(t, "GetPack", 2)
}
