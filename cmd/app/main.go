// Command app runs an interactive-free demo session: it loads the collection
// from the configured backend, pages it, runs a search, buys and opens a pack
// and prints every state change as it happens. Point it at cmd/stubserver for
// a self-contained run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tobyv/packrat/internal/collection"
	"github.com/tobyv/packrat/internal/config"
	"github.com/tobyv/packrat/internal/engine"
	"github.com/tobyv/packrat/internal/logger"
	"github.com/tobyv/packrat/internal/notify"
	"github.com/tobyv/packrat/internal/purchase"
	"github.com/tobyv/packrat/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	log := logger.FromContext(ctx)

	sink := notify.Func(func(n notify.Notification) {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	})

	e := engine.New(cfg, sink)
	defer e.Close()

	unsubCollection := e.Collection.Subscribe(func(snap collection.Snapshot) {
		log.Debug("Collection changed", "items", len(snap.Items), "points", snap.Points, "loading", snap.Loading)
	})
	defer unsubCollection()

	if err := e.Start(ctx); err != nil {
		log.Error("Initial load failed", "error", err)
		os.Exit(1)
	}

	snap := e.Collection.Snapshot()
	fmt.Printf("Loaded %d of %d items, %d points\n", len(snap.Items), snap.Pagination.Total, snap.Points)

	for {
		fetched, err := e.Collection.OnScroll(ctx, 1.0)
		if err != nil {
			log.Warn("Page fetch failed", "error", err)
			break
		}
		if !fetched {
			break
		}
	}
	snap = e.Collection.Snapshot()
	fmt.Printf("Paged to %d items\n", len(snap.Items))

	runSearchDemo(ctx, e)
	runPurchaseDemo(ctx, e, log)

	e.Mutations.Wait()
	fmt.Println("Session complete")
}

func runSearchDemo(ctx context.Context, e *engine.Engine) {
	done := make(chan struct{})
	unsub := e.Search.Subscribe(func(st search.State) {
		if st.Active && !st.Loading {
			fmt.Printf("Search matched %d items\n", len(st.Items))
			close(done)
		}
	})
	defer unsub()

	e.Search.SetQuery("a")
	<-done
	e.Search.Clear()
}

func runPurchaseDemo(ctx context.Context, e *engine.Engine, log *slog.Logger) {
	packs, err := e.Catalog.Packs(ctx)
	if err != nil {
		log.Warn("Pack catalog unavailable", "error", err)
		return
	}
	if len(packs) == 0 {
		fmt.Println("No packs for sale")
		return
	}

	pack := packs[0]
	fmt.Printf("Buying %q for %d %s\n", pack.Name, pack.Price, pack.Currency)

	unsub := e.Purchase.Subscribe(func(st purchase.State) {
		if st.Phase == purchase.PhaseRevealing && st.Obtained != nil {
			fmt.Printf("Obtained %q (%s), %d points left\n", st.Obtained.Name, st.Obtained.Rarity, st.RemainingPoints)
		}
	})
	defer unsub()

	if err := e.Purchase.Start(ctx, pack.ID); err != nil {
		log.Warn("Purchase failed", "error", err)
		return
	}
	if err := e.Purchase.Finish(); err != nil {
		log.Warn("Finish failed", "error", err)
	}
}
