package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyv/packrat/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestGetInventory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inventory/my-inventory", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "15", r.URL.Query().Get("per_page"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"items": []map[string]interface{}{
				{"id": 16, "name": "Dune Fox", "rarity": "rare"},
			},
			"pagination": map[string]interface{}{
				"page": 2, "per_page": 15, "total": 16, "total_pages": 2, "has_next": false,
			},
		})
	}))

	items, pagination, err := client.GetInventory(context.Background(), 2, 15)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 16, items[0].ID)
	assert.Equal(t, domain.RarityRare, items[0].Rarity)
	assert.Equal(t, 2, pagination.Page)
	assert.False(t, pagination.HasNext)
}

func TestGetInventory_MissingPagination(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"items":   []map[string]interface{}{{"id": 1}, {"id": 2}},
		})
	}))

	items, pagination, err := client.GetInventory(context.Background(), 1, 15)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.False(t, pagination.HasNext, "missing pagination must read as single page")
	assert.Equal(t, 1, pagination.Page)
}

func TestBuyPack_Rejection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "insufficient points",
		})
	}))

	_, err := client.BuyPack(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, IsRejection(err))
	assert.Equal(t, "insufficient points", RejectionMessage(err))
	assert.False(t, IsCancelled(err))
}

func TestBuyPack_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/inventory/packs/3/buy", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "purchase_id": 41, "remaining_points": 880,
		})
	}))

	res, err := client.BuyPack(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 41, res.PurchaseID)
	assert.Equal(t, 880, res.RemainingPoints)
}

func TestSearch_Cancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	// The gate is test-owned: blocking on the request context instead would
	// hang the handler past cancellation, because the server only notices the
	// disconnect once the unread request body is consumed.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := client.Search(ctx, SearchQuery{Query: "fox"})
		errCh <- err
	}()

	<-started
	cancel()

	err := <-errCh
	require.Error(t, err)
	assert.True(t, IsCancelled(err), "cancelled search must surface context.Canceled, got %v", err)
	assert.False(t, IsRejection(err))
}

func TestTransfer_ValidatesRecipient(t *testing.T) {
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := client.Transfer(context.Background(), 9, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRecipientMissing)
	assert.False(t, called, "validation failure must not reach the network")
}

func TestTransfer_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req TransferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rival_collector", req.RecipientUsername)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "remaining_points": 500,
		})
	}))

	res, err := client.Transfer(context.Background(), 9, "rival_collector")
	require.NoError(t, err)
	assert.Equal(t, 500, res.RemainingPoints)
}

func TestUpgrade_ServerLevelIsAuthoritative(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "upgrade_level": 1, "remaining_points": 720,
		})
	}))

	res, err := client.Upgrade(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpgradeLevel)
}

func TestGetPack_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "pack": nil,
		})
	}))

	_, err := client.GetPack(context.Background(), 77)
	assert.ErrorIs(t, err, domain.ErrPackNotFound)
}

func TestSearch_TolerantDecoding(t *testing.T) {
	// Backend fields the client does not know about must be ignored, and
	// fields the client knows about may be absent.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"items": []map[string]interface{}{
				{"id": 5, "name": "Ember", "rarity": "epic", "season": "winter", "shine": 3},
			},
		})
	}))

	items, err := client.Search(context.Background(), SearchQuery{Query: "ember"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].ID)
	assert.Nil(t, items[0].Marketplace)
}
