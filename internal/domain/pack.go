package domain

// PackContent describes one possible drop from a pack. It is catalog data,
// not an owned item.
type PackContent struct {
	ItemName   string `json:"item_name"`
	Rarity     Rarity `json:"rarity"`
	Background string `json:"background,omitempty"`
}

// Pack is a purchasable container of collectibles. Packs are read-only from
// the engine's perspective; the quantity fields may go stale between reads,
// so the server remains authoritative at buy time.
type Pack struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       int           `json:"price"`
	Currency    string        `json:"currency"`
	MaxQuantity *int          `json:"max_quantity,omitempty"`
	SoldCount   *int          `json:"sold_count,omitempty"`
	Contents    []PackContent `json:"contents,omitempty"`
}

// SoldOut reports whether the pack's limited quantity is exhausted, as of the
// last read. False when the pack is unlimited.
func (p Pack) SoldOut() bool {
	if p.MaxQuantity == nil || p.SoldCount == nil {
		return false
	}
	return *p.SoldCount >= *p.MaxQuantity
}
