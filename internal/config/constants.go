package config

import "time"

// Default values applied when the environment does not override them.
const (
	// DefaultUserID is the account the session runs as
	DefaultUserID = 1

	// DefaultPerPage matches the backend's inventory page size
	DefaultPerPage = 15

	// DefaultSearchDebounce is the quiet period for query debouncing
	DefaultSearchDebounce = 500 * time.Millisecond

	// DefaultRevealDelay paces the pack reveal animation
	DefaultRevealDelay = 2500 * time.Millisecond

	// DefaultCatalogTTL is how long pack catalog entries are cached
	DefaultCatalogTTL = 30 * time.Second

	// DefaultCatalogCacheSize is the catalog LRU capacity
	DefaultCatalogCacheSize = 128

	// DefaultRequestTimeout bounds individual backend calls
	DefaultRequestTimeout = 15 * time.Second
)
