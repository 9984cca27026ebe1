// Package backendtest is an in-memory implementation of the collectible
// backend's HTTP contract. It exists for integration tests and local demo
// runs; drops are deterministic so assertions can name the item they expect.
package backendtest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tobyv/packrat/internal/domain"
)

// Account is one server-side user
type Account struct {
	Username string
	Points   int
	Items    []domain.InventoryItem
}

// Server holds the whole backend state behind one mutex. It implements
// http.Handler; mount it on httptest.NewServer or ListenAndServe directly.
type Server struct {
	router chi.Router

	mu             sync.Mutex
	account        Account
	recipients     map[string]*Account
	packs          []domain.Pack
	drops          map[int][]domain.InventoryItem
	dropCursor     map[int]int
	purchases      map[int]purchase
	nextItemID     int
	nextPurchaseID int
}

type purchase struct {
	packID int
	opened bool
}

// NewServer creates a backend with the given account state and pack catalog.
// drops maps pack id to the ordered sequence of items its opens produce; the
// sequence cycles when exhausted.
func NewServer(account Account, packs []domain.Pack, drops map[int][]domain.InventoryItem) *Server {
	s := &Server{
		account:        account,
		recipients:     make(map[string]*Account),
		packs:          packs,
		drops:          drops,
		dropCursor:     make(map[int]int),
		purchases:      make(map[int]purchase),
		nextItemID:     1000,
		nextPurchaseID: 1,
	}
	for _, item := range account.Items {
		if item.ID >= s.nextItemID {
			s.nextItemID = item.ID + 1
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/packs", s.handleListPacks)
		r.Get("/packs/{id}", s.handleGetPack)
		r.Post("/packs/{id}/buy", s.handleBuyPack)
		r.Post("/packs/{id}/open", s.handleOpenPack)
		r.Get("/my-inventory", s.handleInventory)
		r.Get("/user/{id}/upgraded", s.handleUpgraded)
		r.Get("/points", s.handlePoints)
		r.Post("/equip/{id}", s.handleEquip)
		r.Post("/unequip/{id}", s.handleUnequip)
		r.Post("/upgrade/{id}", s.handleUpgrade)
		r.Post("/transfer/{id}", s.handleTransfer)
		r.Post("/search", s.handleSearch)
		r.Post("/marketplace/{id}/list", s.handleMarketplaceList)
		r.Post("/marketplace/{id}/remove", s.handleMarketplaceRemove)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddRecipient registers a username that transfers can target
func (s *Server) AddRecipient(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients[username] = &Account{Username: username}
}

// RecipientItems returns the items transferred to a registered recipient
func (s *Server) RecipientItems(username string) []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.recipients[username]
	if !ok {
		return nil
	}
	out := make([]domain.InventoryItem, len(acct.Items))
	copy(out, acct.Items)
	return out
}

// Points returns the account's current balance
func (s *Server) Points() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account.Points
}

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	packs := make([]domain.Pack, len(s.packs))
	copy(packs, s.packs)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"packs":   packs,
	})
}

func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid pack id")
		return
	}

	s.mu.Lock()
	pack, ok := s.findPackLocked(id)
	s.mu.Unlock()
	if !ok {
		writeReject(w, http.StatusNotFound, "pack not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"pack":    pack,
	})
}

func (s *Server) handleBuyPack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid pack id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pack, ok := s.findPackLocked(id)
	if !ok {
		writeReject(w, http.StatusNotFound, "pack not found")
		return
	}
	if pack.SoldOut() {
		writeReject(w, http.StatusConflict, "pack is sold out")
		return
	}
	if s.account.Points < pack.Price {
		writeReject(w, http.StatusPaymentRequired, "insufficient points")
		return
	}

	s.account.Points -= pack.Price
	for i := range s.packs {
		if s.packs[i].ID == id && s.packs[i].SoldCount != nil {
			sold := *s.packs[i].SoldCount + 1
			s.packs[i].SoldCount = &sold
		}
	}

	purchaseID := s.nextPurchaseID
	s.nextPurchaseID++
	s.purchases[purchaseID] = purchase{packID: id}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"purchase_id":      purchaseID,
		"remaining_points": s.account.Points,
	})
}

func (s *Server) handleOpenPack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid purchase id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[id]
	if !ok {
		writeReject(w, http.StatusNotFound, "purchase not found")
		return
	}
	if p.opened {
		writeReject(w, http.StatusConflict, "purchase already opened")
		return
	}

	drops := s.drops[p.packID]
	if len(drops) == 0 {
		writeReject(w, http.StatusInternalServerError, "pack has no drop table")
		return
	}
	item := drops[s.dropCursor[p.packID]%len(drops)]
	s.dropCursor[p.packID]++

	item.ID = s.nextItemID
	s.nextItemID++

	p.opened = true
	s.purchases[id] = p
	s.account.Items = append(s.account.Items, item)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"item":    item,
	})
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", domain.FirstPage)
	perPage := queryInt(r, "per_page", domain.DefaultPerPage)
	if page < 1 || perPage < 1 {
		writeReject(w, http.StatusBadRequest, "invalid pagination")
		return
	}

	s.mu.Lock()
	total := len(s.account.Items)
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := make([]domain.InventoryItem, end-start)
	copy(items, s.account.Items[start:end])
	s.mu.Unlock()

	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"items":   items,
		"pagination": domain.Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

func (s *Server) handleUpgraded(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var items []domain.InventoryItem
	for _, item := range s.account.Items {
		if item.Upgraded() {
			items = append(items, item)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"items":   items,
	})
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	points := s.account.Points
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"points":  points,
	})
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	s.setEquipped(w, r, true)
}

func (s *Server) handleUnequip(w http.ResponseWriter, r *http.Request) {
	s.setEquipped(w, r, false)
}

func (s *Server) setEquipped(w http.ResponseWriter, r *http.Request, equipped bool) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid item id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findItemLocked(id)
	if item == nil {
		writeReject(w, http.StatusNotFound, "item not found")
		return
	}
	item.IsEquipped = equipped
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid item id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findItemLocked(id)
	if item == nil {
		writeReject(w, http.StatusNotFound, "item not found")
		return
	}
	if item.UpgradeLevel >= domain.MaxUpgradeLevel {
		writeReject(w, http.StatusConflict, "item is already upgraded")
		return
	}
	if s.account.Points < UpgradeCost {
		writeReject(w, http.StatusPaymentRequired, "insufficient points")
		return
	}

	s.account.Points -= UpgradeCost
	item.UpgradeLevel++

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"upgrade_level":    item.UpgradeLevel,
		"remaining_points": s.account.Points,
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req struct {
		RecipientUsername string `json:"recipient_username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecipientUsername == "" {
		writeReject(w, http.StatusBadRequest, "recipient is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recipient, ok := s.recipients[req.RecipientUsername]
	if !ok {
		writeReject(w, http.StatusNotFound, "recipient not found")
		return
	}

	idx := -1
	for i := range s.account.Items {
		if s.account.Items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		writeReject(w, http.StatusNotFound, "item not found")
		return
	}

	item := s.account.Items[idx]
	item.IsEquipped = false
	item.Marketplace = nil
	recipient.Items = append(recipient.Items, item)
	s.account.Items = append(s.account.Items[:idx], s.account.Items[idx+1:]...)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"remaining_points": s.account.Points,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query   string               `json:"query"`
		Filters domain.SearchFilters `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReject(w, http.StatusBadRequest, "invalid search request")
		return
	}

	needle := strings.ToLower(req.Query)

	s.mu.Lock()
	var items []domain.InventoryItem
	for _, item := range s.account.Items {
		if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		if req.Filters.Rarity != nil && item.Rarity != *req.Filters.Rarity {
			continue
		}
		if req.Filters.EquippedOnly && !item.IsEquipped {
			continue
		}
		if req.Filters.UpgradedOnly && !item.Upgraded() {
			continue
		}
		if req.Filters.MinLevel != nil && item.UpgradeLevel < *req.Filters.MinLevel {
			continue
		}
		items = append(items, item)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"items":   items,
	})
}

func (s *Server) handleMarketplaceList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req struct {
		Price int `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Price <= 0 {
		writeReject(w, http.StatusBadRequest, "price must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findItemLocked(id)
	if item == nil {
		writeReject(w, http.StatusNotFound, "item not found")
		return
	}
	if item.Marketplace != nil && item.Marketplace.Status == domain.ListingActive {
		writeReject(w, http.StatusConflict, "item is already listed")
		return
	}

	item.Marketplace = &domain.MarketplaceListing{Status: domain.ListingActive, Price: req.Price}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"listing": item.Marketplace,
	})
}

func (s *Server) handleMarketplaceRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeReject(w, http.StatusBadRequest, "invalid item id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findItemLocked(id)
	if item == nil {
		writeReject(w, http.StatusNotFound, "item not found")
		return
	}
	if item.Marketplace == nil || item.Marketplace.Status != domain.ListingActive {
		writeReject(w, http.StatusConflict, "item is not listed")
		return
	}

	item.Marketplace = nil
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) findPackLocked(id int) (domain.Pack, bool) {
	for _, pack := range s.packs {
		if pack.ID == id {
			return pack, true
		}
	}
	return domain.Pack{}, false
}

func (s *Server) findItemLocked(id int) *domain.InventoryItem {
	for i := range s.account.Items {
		if s.account.Items[i].ID == id {
			return &s.account.Items[i]
		}
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeReject(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
