// Package config loads the process environment into a typed, validated
// Config, failing fast (log + os.Exit(1)) on a missing required variable
// the way backend/cmd/server/main.go does.
package config

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Config holds every environment-derived setting the core needs to wire
// its collaborators.
type Config struct {
	// SupabaseURL and SupabaseKey address the user/session backing store.
	SupabaseURL string
	SupabaseKey string

	// SupabaseEdgeFunctionURL is the LLM completion endpoint.
	SupabaseEdgeFunctionURL string

	// CacheWebhookURL is the fixed sync destination baked into every
	// submission the orchestrator emits.
	CacheWebhookURL string

	// CacheSimilarityQueryURL and CacheSimilarityAPIKey address the
	// Similarity Cache Gateway's ingress.
	CacheSimilarityQueryURL string
	CacheSimilarityAPIKey   string

	// CacheSyncInterval is how often the worker attempts a queue drain
	// when no platform-sync signal is available. Optional; defaults to 5m.
	CacheSyncInterval time.Duration
}

const defaultSyncInterval = 5 * time.Minute

// required reads key from the environment, failing the process if absent.
func required(ctx context.Context, key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		slog.ErrorContext(ctx, "config: missing required environment variable", "key", key)
		os.Exit(1)
	}

	return value
}

// Load reads Config from the process environment.
func Load(ctx context.Context) Config {
	cfg := Config{
		SupabaseURL:             required(ctx, "SUPABASE_URL"),
		SupabaseKey:             required(ctx, "SUPABASE_KEY"),
		SupabaseEdgeFunctionURL: required(ctx, "SUPABASE_EDGE_FUNCTION_URL"),
		CacheWebhookURL:         required(ctx, "CACHE_WEBHOOK_URL"),
		CacheSimilarityQueryURL: required(ctx, "CACHE_SIMILARITY_QUERY"),
		CacheSimilarityAPIKey:   os.Getenv("CACHE_SIMILARITY_API_KEY"),
		CacheSyncInterval:       defaultSyncInterval,
	}

	if raw, ok := os.LookupEnv("CACHE_SYNC_INTERVAL"); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			slog.ErrorContext(ctx, "config: unable to parse CACHE_SYNC_INTERVAL", "value", raw, "error", err)
			os.Exit(1)
		}
		cfg.CacheSyncInterval = d
	}

	return cfg
}
