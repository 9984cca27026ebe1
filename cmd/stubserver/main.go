// Command stubserver serves the in-memory reference backend over HTTP with a
// small seeded account, so cmd/app and manual testing have something to talk
// to without a real deployment.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/tobyv/packrat/internal/backendtest"
	"github.com/tobyv/packrat/internal/domain"
	"github.com/tobyv/packrat/internal/logger"
)

const defaultAddr = ":8080"

func main() {
	logger.InitLogger(logger.DefaultConfig())

	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	srv := backendtest.NewServer(seedAccount(), seedPacks(), seedDrops())
	srv.AddRecipient("alice")
	srv.AddRecipient("bob")

	slog.Info("Stub backend listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func seedAccount() backendtest.Account {
	return backendtest.Account{
		Username: "demo",
		Points:   1000,
		Items: []domain.InventoryItem{
			{ID: 1, Name: "Ember Fox", Rarity: domain.RarityCommon},
			{ID: 2, Name: "Frost Wolf", Rarity: domain.RarityRare, IsEquipped: true},
			{ID: 3, Name: "Ember Drake", Rarity: domain.RarityEpic, UpgradeLevel: 1},
			{ID: 4, Name: "Gale Falcon", Rarity: domain.RarityCommon},
			{ID: 5, Name: "Stone Tortoise", Rarity: domain.RarityCommon},
			{ID: 6, Name: "Tide Serpent", Rarity: domain.RarityRare},
			{ID: 7, Name: "Ash Golem", Rarity: domain.RarityEpic},
		},
	}
}

func seedPacks() []domain.Pack {
	limited := 10
	sold := 0
	return []domain.Pack{
		{
			ID: 1, Name: "Starter Pack", Description: "Three common drops, one guaranteed rare",
			Price: 100, Currency: "points",
			Contents: []domain.PackContent{
				{ItemName: "Sun Sprite", Rarity: domain.RarityLegendary},
				{ItemName: "Mud Crab", Rarity: domain.RarityCommon},
				{ItemName: "River Otter", Rarity: domain.RarityCommon},
			},
		},
		{
			ID: 2, Name: "Collector's Cache", Description: "Limited run",
			Price: 250, Currency: "points",
			MaxQuantity: &limited, SoldCount: &sold,
			Contents: []domain.PackContent{
				{ItemName: "Void Panther", Rarity: domain.RarityLegendary},
			},
		},
	}
}

func seedDrops() map[int][]domain.InventoryItem {
	return map[int][]domain.InventoryItem{
		1: {
			{Name: "Sun Sprite", Rarity: domain.RarityLegendary},
			{Name: "Mud Crab", Rarity: domain.RarityCommon},
			{Name: "River Otter", Rarity: domain.RarityCommon},
		},
		2: {
			{Name: "Void Panther", Rarity: domain.RarityLegendary},
		},
	}
}
