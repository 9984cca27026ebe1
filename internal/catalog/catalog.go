// Package catalog serves the purchasable pack catalog. Packs are read-only
// from the engine's perspective, but quantity fields go stale between reads,
// so entries are cached with a TTL and invalidated after a purchase.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/logger"
)

// Backend is the slice of the API client the catalog needs
type Backend interface {
	ListPacks(ctx context.Context) ([]domain.Pack, error)
	GetPack(ctx context.Context, packID int) (*domain.Pack, error)
}

// Service exposes the cached pack catalog
type Service interface {
	Packs(ctx context.Context) ([]domain.Pack, error)
	Pack(ctx context.Context, packID int) (*domain.Pack, error)
	Invalidate(packID int)
}

type service struct {
	backend Backend
	ttl     time.Duration

	details *expirable.LRU[int, *domain.Pack]

	mu          sync.Mutex
	list        []domain.Pack
	listFetched time.Time
}

// NewService creates a catalog service. size bounds the detail cache; ttl
// bounds how long any cached entry is served before a re-fetch.
func NewService(backend Backend, size int, ttl time.Duration) Service {
	return &service{
		backend: backend,
		ttl:     ttl,
		details: expirable.NewLRU[int, *domain.Pack](size, nil, ttl),
	}
}

// Packs returns the pack list, served from cache within the TTL
func (s *service) Packs(ctx context.Context) ([]domain.Pack, error) {
	s.mu.Lock()
	if s.list != nil && time.Since(s.listFetched) < s.ttl {
		cached := make([]domain.Pack, len(s.list))
		copy(cached, s.list)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	packs, err := s.backend.ListPacks(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.list = packs
	s.listFetched = time.Now()
	s.mu.Unlock()

	logger.FromContext(ctx).Debug("Pack catalog refreshed", "packs", len(packs))

	result := make([]domain.Pack, len(packs))
	copy(result, packs)
	return result, nil
}

// Pack returns one pack with contents, served from cache within the TTL
func (s *service) Pack(ctx context.Context, packID int) (*domain.Pack, error) {
	if cached, ok := s.details.Get(packID); ok {
		clone := *cached
		return &clone, nil
	}

	pack, err := s.backend.GetPack(ctx, packID)
	if err != nil {
		return nil, err
	}

	s.details.Add(packID, pack)

	clone := *pack
	return &clone, nil
}

// Invalidate drops cached state for a pack. Called after a buy so the next
// read reflects the updated sold count.
func (s *service) Invalidate(packID int) {
	s.details.Remove(packID)

	s.mu.Lock()
	s.list = nil
	s.mu.Unlock()
}
