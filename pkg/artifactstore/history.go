package artifactstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/kvstore"
)

const historyKey = "search-history"

// History is the page's bounded, deduplicated query index.
type History struct {
	kv *kvstore.Store
}

// NewHistory wraps an opened kvstore.Store as a search history index.
func NewHistory(kv *kvstore.Store) *History {
	return &History{kv: kv}
}

// Save prepends item, removes any prior entry for the same query, and
// truncates to artifacts.MaxHistoryEntries.
func (h *History) Save(ctx context.Context, item artifacts.SearchHistoryItem) {
	items := h.Get(ctx)

	deduped := make([]artifacts.SearchHistoryItem, 0, len(items)+1)
	deduped = append(deduped, item)
	for _, existing := range items {
		if existing.Query == item.Query {
			continue
		}
		deduped = append(deduped, existing)
	}

	if len(deduped) > artifacts.MaxHistoryEntries {
		deduped = deduped[:artifacts.MaxHistoryEntries]
	}

	raw, err := json.Marshal(deduped)
	if err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to marshal history", "error", err)

		return
	}

	if err := h.kv.Set(ctx, historyKey, raw); err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to save history", "error", err)
	}
}

// Get returns the stored history, most-recent first. Absence or corruption
// yields an empty slice, never an error.
func (h *History) Get(ctx context.Context) []artifacts.SearchHistoryItem {
	raw, err := h.kv.Get(ctx, historyKey)
	if err != nil {
		return nil
	}

	var items []artifacts.SearchHistoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.ErrorContext(ctx, "artifactstore: corrupt history", "error", err)

		return nil
	}

	return items
}

// Clear empties the history index.
func (h *History) Clear(ctx context.Context) {
	if err := h.kv.Delete(ctx, historyKey); err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to clear history", "error", err)
	}
}
