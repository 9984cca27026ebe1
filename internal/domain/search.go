package domain

// SearchFilters is the structured half of a search request. All fields are
// optional; identity is structural, only the current value matters.
type SearchFilters struct {
	Rarity       *Rarity `json:"rarity,omitempty"`
	EquippedOnly bool    `json:"equipped_only,omitempty"`
	UpgradedOnly bool    `json:"upgraded_only,omitempty"`
	MinLevel     *int    `json:"min_level,omitempty"`
}

// Empty reports whether no structured filter is set.
func (f SearchFilters) Empty() bool {
	return f.Rarity == nil && !f.EquippedOnly && !f.UpgradedOnly && f.MinLevel == nil
}

// SearchRequest combines free text and structured filters into one logical
// search value.
type SearchRequest struct {
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
}

// Blank reports whether the request would match everything, which the search
// controller treats as "no remote call, show the base collection".
func (r SearchRequest) Blank() bool {
	return r.Query == "" && r.Filters.Empty()
}

// Pagination is the cursor state returned alongside a page of items. HasNext
// is trusted only until the next successful fetch recomputes it.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}
