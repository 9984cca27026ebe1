package domain

// Rarity represents the visual rarity tier of an inventory item.
// Tiers are totally ordered; compare with Rank.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank returns the ordinal position of the rarity tier, with common lowest.
// Unknown tiers rank below common so server-side additions sort first rather
// than failing.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the rarity is one of the known tiers.
func (r Rarity) Valid() bool {
	return r.Rank() > 0
}

// ListingStatus is the lifecycle state of a marketplace listing.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

// MarketplaceListing is the optional marketplace sub-record attached to an
// item the owner has listed for sale.
type MarketplaceListing struct {
	Status ListingStatus `json:"status"`
	Price  int           `json:"price"`
}

// InventoryItem is one collectible owned by the user. Identity is the integer
// ID, which is unique and stable; the collection store guarantees at most one
// copy of any ID exists after merge.
type InventoryItem struct {
	ID           int                 `json:"id"`
	Name         string              `json:"name"`
	Rarity       Rarity              `json:"rarity"`
	UpgradeLevel int                 `json:"upgrade_level"`
	IsEquipped   bool                `json:"is_equipped"`
	ImageURL     string              `json:"image_url,omitempty"`
	Marketplace  *MarketplaceListing `json:"marketplace,omitempty"`
}

// Upgraded reports whether the item has been upgraded at least once.
func (i InventoryItem) Upgraded() bool {
	return i.UpgradeLevel > 0
}
