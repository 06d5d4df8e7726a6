// Command corestored runs the page and worker contexts in a single
// process, wired together over an in-process bus.Port pair, and exposes
// the worker's intercepted sync path and Prometheus metrics over HTTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/salestracker/shodhan/internal/config"
	"github.com/salestracker/shodhan/pkg/artifactstore"
	"github.com/salestracker/shodhan/pkg/bus"
	"github.com/salestracker/shodhan/pkg/httpfetch"
	"github.com/salestracker/shodhan/pkg/kvstore"
	"github.com/salestracker/shodhan/pkg/metrics"
	"github.com/salestracker/shodhan/pkg/orchestrator"
	"github.com/salestracker/shodhan/pkg/similarity"
	"github.com/salestracker/shodhan/pkg/syncengine"
	"github.com/salestracker/shodhan/pkg/worker/lifecycle"
	"github.com/salestracker/shodhan/pkg/worker/synchandler"
)

func main() {
	ctx := context.Background()
	cfg := config.Load(ctx)

	pageKV, err := kvstore.Open("page", os.Getenv("CORESTORED_PAGE_DATA_DIR"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open page store", "error", err)
		os.Exit(1)
	}
	defer pageKV.Close()

	workerKV, err := kvstore.Open("worker", os.Getenv("CORESTORED_WORKER_DATA_DIR"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open worker store", "error", err)
		os.Exit(1)
	}
	defer workerKV.Close()

	store := artifactstore.New(pageKV)
	fingerprint := artifactstore.NewFingerprint(pageKV)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := httpfetch.New(httpClient)

	simGateway := similarity.New(fetcher, cfg.CacheSimilarityQueryURL, cfg.CacheSimilarityAPIKey)
	llmClient := orchestrator.NewLLMClient(fetcher, cfg.SupabaseEdgeFunctionURL)

	queue, err := syncengine.NewQueue(ctx, workerKV)
	if err != nil {
		slog.ErrorContext(ctx, "failed to rehydrate sync queue", "error", err)
		os.Exit(1)
	}
	cursor := syncengine.NewCursor(workerKV)

	workerLifecycle := lifecycle.NewMachine()
	for _, next := range []lifecycle.State{
		lifecycle.Installing, lifecycle.InstalledWaiting, lifecycle.Activating, lifecycle.ActivatedControlling,
	} {
		if err := workerLifecycle.Transition(next); err != nil {
			slog.ErrorContext(ctx, "corestored: worker lifecycle transition failed", "to", next, "error", err)
			os.Exit(1)
		}
	}

	pagePort := bus.NewPort()
	workerPort := bus.NewPort()

	notifySyncSuccess := func(ctx context.Context) {
		if err := bus.Post(ctx, workerPort, bus.SyncSuccess{WebhookURL: cfg.CacheWebhookURL}); err != nil {
			slog.WarnContext(ctx, "corestored: failed to notify page of sync success", "error", err)
		}
	}

	engine := syncengine.New(queue, cursor, fetcher, notifySyncSuccess)
	orch := orchestrator.New(store, simGateway, llmClient, engine, cfg.CacheWebhookURL)

	bus.Register(workerPort.Router(), func(context.Context, bus.Ping) error {
		return bus.Post(context.Background(), workerPort, bus.Pong{})
	})
	synchandler.RegisterBusHandlers(workerPort.Router(), workerPort, engine, cfg.CacheWebhookURL)
	bus.Connect(pagePort, workerPort)

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	mux := http.NewServeMux()
	mux.Handle("/api/search", &searchHandler{orch: orch, fingerprint: fingerprint})
	mux.Handle(synchandler.Path, synchandler.New(engine))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go drainLoop(ctx, engine, cfg.CacheSyncInterval)

	addr := os.Getenv("CORESTORED_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	slog.InfoContext(ctx, "corestored listening", "addr", addr, "workerState", workerLifecycle.State().String())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.ErrorContext(ctx, "corestored server exited", "error", err)
		os.Exit(1)
	}
}

// drainLoop replays the sync queue on a fixed interval, standing in for
// the platform-scheduled background-sync opportunity when no such signal
// is available (spec.md §4.4's progressive-enhancement fallback).
func drainLoop(ctx context.Context, engine *syncengine.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := engine.Drain(ctx); err != nil {
				slog.WarnContext(ctx, "corestored: drain reported failures", "error", err)
			}
		}
	}
}
