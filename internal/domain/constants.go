package domain

// Pagination defaults
const (
	// DefaultPerPage is the page size used for inventory pagination
	DefaultPerPage = 15

	// FirstPage is the page number of the initial load
	FirstPage = 1
)

// Upgrade rules
const (
	// MaxUpgradeLevel is the client-side fast-fail cap on upgrade level.
	// The server remains authoritative; treat this only as an optimistic hint.
	MaxUpgradeLevel = 1
)
