// Package api is the typed HTTP boundary to the collectible backend. Every
// call takes a context and honors cancellation; success:false responses become
// *api.Error so callers can surface the server message verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/logger"
)

// Client talks to the collectible backend over JSON/HTTP
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
}

// NewClient creates a backend client. timeout bounds each individual call;
// zero means no client-side timeout (cancellation still applies via ctx).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
}

// ListPacks fetches the purchasable pack catalog
func (c *Client) ListPacks(ctx context.Context) ([]domain.Pack, error) {
	var resp packsResponse
	if err := c.get(ctx, "/inventory/packs", &resp); err != nil {
		return nil, err
	}
	return resp.Packs, nil
}

// GetPack fetches one pack with its possible contents
func (c *Client) GetPack(ctx context.Context, packID int) (*domain.Pack, error) {
	var resp packResponse
	if err := c.get(ctx, fmt.Sprintf("/inventory/packs/%d", packID), &resp); err != nil {
		return nil, err
	}
	if resp.Pack == nil {
		return nil, fmt.Errorf("pack %d: %w", packID, domain.ErrPackNotFound)
	}
	return resp.Pack, nil
}

// BuyPack purchases a pack and returns the purchase id used to open it
func (c *Client) BuyPack(ctx context.Context, packID int) (*BuyResult, error) {
	var resp buyResponse
	if err := c.post(ctx, fmt.Sprintf("/inventory/packs/%d/buy", packID), nil, &resp); err != nil {
		return nil, err
	}
	return &BuyResult{PurchaseID: resp.PurchaseID, RemainingPoints: resp.RemainingPoints}, nil
}

// OpenPack opens a previously bought pack and returns the obtained item
func (c *Client) OpenPack(ctx context.Context, purchaseID int) (*domain.InventoryItem, error) {
	var resp openResponse
	if err := c.post(ctx, fmt.Sprintf("/inventory/packs/%d/open", purchaseID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, fmt.Errorf("open purchase %d: backend returned no item", purchaseID)
	}
	return resp.Item, nil
}

// GetInventory fetches one page of the user's collection
func (c *Client) GetInventory(ctx context.Context, page, perPage int) ([]domain.InventoryItem, domain.Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var resp inventoryResponse
	if err := c.get(ctx, "/inventory/my-inventory?"+q.Encode(), &resp); err != nil {
		return nil, domain.Pagination{}, err
	}

	// Tolerate a missing pagination block: treat the result as the only page
	pagination := domain.Pagination{Page: page, PerPage: perPage, Total: len(resp.Items), TotalPages: 1}
	if resp.Pagination != nil {
		pagination = *resp.Pagination
	}
	return resp.Items, pagination, nil
}

// GetUpgradedItems fetches the user's upgraded items from their dedicated endpoint
func (c *Client) GetUpgradedItems(ctx context.Context, userID int) ([]domain.InventoryItem, error) {
	var resp itemsResponse
	if err := c.get(ctx, fmt.Sprintf("/inventory/user/%d/upgraded", userID), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Equip marks an item as equipped
func (c *Client) Equip(ctx context.Context, itemID int) error {
	var resp envelope
	return c.post(ctx, fmt.Sprintf("/inventory/equip/%d", itemID), nil, &resp)
}

// Unequip clears an item's equipped flag
func (c *Client) Unequip(ctx context.Context, itemID int) error {
	var resp envelope
	return c.post(ctx, fmt.Sprintf("/inventory/unequip/%d", itemID), nil, &resp)
}

// Upgrade upgrades an item; the returned level is authoritative
func (c *Client) Upgrade(ctx context.Context, itemID int) (*UpgradeResult, error) {
	var resp upgradeResponse
	if err := c.post(ctx, fmt.Sprintf("/inventory/upgrade/%d", itemID), nil, &resp); err != nil {
		return nil, err
	}
	return &UpgradeResult{UpgradeLevel: resp.UpgradeLevel, RemainingPoints: resp.RemainingPoints}, nil
}

// Transfer sends an item to another account. Validation fast-fails on a
// missing recipient before any network traffic; the server check remains
// authoritative.
func (c *Client) Transfer(ctx context.Context, itemID int, recipient string) (*TransferResult, error) {
	req := TransferRequest{RecipientUsername: recipient}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipientMissing, err)
	}

	var resp transferResponse
	if err := c.post(ctx, fmt.Sprintf("/inventory/transfer/%d", itemID), req, &resp); err != nil {
		return nil, err
	}
	return &TransferResult{RemainingPoints: resp.RemainingPoints}, nil
}

// Search runs a remote search over the user's collection
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]domain.InventoryItem, error) {
	if query.Page == 0 {
		query.Page = domain.FirstPage
	}
	if query.PerPage == 0 {
		query.PerPage = domain.DefaultPerPage
	}
	if err := c.validate.Struct(query); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	var resp itemsResponse
	if err := c.post(ctx, "/inventory/search", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// MarketplaceList puts an item up for sale
func (c *Client) MarketplaceList(ctx context.Context, itemID, price int) (*domain.MarketplaceListing, error) {
	req := ListRequest{Price: price}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	var resp listingResponse
	if err := c.post(ctx, fmt.Sprintf("/inventory/marketplace/%d/list", itemID), req, &resp); err != nil {
		return nil, err
	}
	if resp.Listing == nil {
		// Older backends return only success; synthesize the active listing
		return &domain.MarketplaceListing{Status: domain.ListingActive, Price: price}, nil
	}
	return resp.Listing, nil
}

// MarketplaceRemove cancels an item's listing
func (c *Client) MarketplaceRemove(ctx context.Context, itemID int) error {
	var resp envelope
	return c.post(ctx, fmt.Sprintf("/inventory/marketplace/%d/remove", itemID), nil, &resp)
}

// GetPoints fetches the user's current point balance
func (c *Client) GetPoints(ctx context.Context) (int, error) {
	var resp pointsResponse
	if err := c.get(ctx, "/inventory/points", &resp); err != nil {
		return 0, err
	}
	return resp.Points, nil
}

func (c *Client) get(ctx context.Context, path string, out successer) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out successer) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// successer lets do() read the shared envelope off any response type
type successer interface {
	ok() bool
	message() string
}

func (e envelope) ok() bool        { return e.Success }
func (e envelope) message() string { return e.Message }

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out successer) error {
	log := logger.FromContext(ctx)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Cancellation is not an error condition for the engine; let callers
		// detect it with IsCancelled and discard silently.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}

	if !out.ok() {
		log.Debug("Backend rejected request", "method", method, "path", path, "status", resp.StatusCode, "message", out.message())
		return &Error{StatusCode: resp.StatusCode, Message: out.message()}
	}

	return nil
}
