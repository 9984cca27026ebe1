package api

import "github.com/tobyv/packrat/internal/domain"

// Every backend response carries a boolean success flag that gates
// interpretation of the remainder; on false, Message is the only guaranteed
// field. Payload fields are pointers or omitempty where the backend has been
// observed to omit them.

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type packsResponse struct {
	envelope
	Packs []domain.Pack `json:"packs"`
}

type packResponse struct {
	envelope
	Pack *domain.Pack `json:"pack"`
}

type buyResponse struct {
	envelope
	PurchaseID      int `json:"purchase_id"`
	RemainingPoints int `json:"remaining_points"`
}

type openResponse struct {
	envelope
	Item *domain.InventoryItem `json:"item"`
}

type inventoryResponse struct {
	envelope
	Items      []domain.InventoryItem `json:"items"`
	Pagination *domain.Pagination     `json:"pagination"`
}

type itemsResponse struct {
	envelope
	Items []domain.InventoryItem `json:"items"`
}

type upgradeResponse struct {
	envelope
	UpgradeLevel    int `json:"upgrade_level"`
	RemainingPoints int `json:"remaining_points"`
}

type transferResponse struct {
	envelope
	RemainingPoints int `json:"remaining_points"`
}

type listingResponse struct {
	envelope
	Listing *domain.MarketplaceListing `json:"listing"`
}

type pointsResponse struct {
	envelope
	Points int `json:"points"`
}

// BuyResult is the successful outcome of a pack purchase
type BuyResult struct {
	PurchaseID      int
	RemainingPoints int
}

// UpgradeResult is the successful outcome of an item upgrade. UpgradeLevel is
// the authoritative server-side level, not a local increment.
type UpgradeResult struct {
	UpgradeLevel    int
	RemainingPoints int
}

// TransferResult is the successful outcome of an item transfer
type TransferResult struct {
	RemainingPoints int
}

// SearchQuery is the request body for POST /inventory/search
type SearchQuery struct {
	Query    string               `json:"query"`
	Category string               `json:"category,omitempty"`
	Page     int                  `json:"page" validate:"gte=1"`
	PerPage  int                  `json:"per_page" validate:"gte=1,lte=100"`
	Filters  domain.SearchFilters `json:"filters"`
}

// TransferRequest is the request body for POST /inventory/transfer/{id}
type TransferRequest struct {
	RecipientUsername string `json:"recipient_username" validate:"required"`
}

// ListRequest is the request body for POST /inventory/marketplace/{id}/list
type ListRequest struct {
	Price int `json:"price" validate:"gt=0"`
}
