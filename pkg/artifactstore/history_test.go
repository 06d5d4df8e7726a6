package artifactstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/kvstore"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	kv, err := kvstore.Open("test", "")
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	return NewHistory(kv)
}

func TestHistorySaveDedupesByQuery(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	h.Save(ctx, artifacts.SearchHistoryItem{ID: "1", Query: "graphql", Timestamp: 1, ResultID: "1"})
	h.Save(ctx, artifacts.SearchHistoryItem{ID: "1", Query: "graphql", Timestamp: 2, ResultID: "1"})

	items := h.Get(ctx)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Timestamp != 2 {
		t.Fatalf("items[0].Timestamp = %d, want 2 (latest write wins)", items[0].Timestamp)
	}
}

func TestHistoryTruncatesToFifty(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		h.Save(ctx, artifacts.SearchHistoryItem{
			ID:       fmt.Sprintf("%d", i),
			Query:    fmt.Sprintf("query-%d", i),
			ResultID: fmt.Sprintf("%d", i),
		})
	}

	items := h.Get(ctx)
	if len(items) != artifacts.MaxHistoryEntries {
		t.Fatalf("len(items) = %d, want %d", len(items), artifacts.MaxHistoryEntries)
	}
	// Most recently saved query ("query-59") must be first.
	if items[0].Query != "query-59" {
		t.Fatalf("items[0].Query = %q, want %q", items[0].Query, "query-59")
	}
}

func TestHistoryClear(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	h.Save(ctx, artifacts.SearchHistoryItem{ID: "1", Query: "q", ResultID: "1"})
	h.Clear(ctx)

	if items := h.Get(ctx); len(items) != 0 {
		t.Fatalf("len(items) after Clear = %d, want 0", len(items))
	}
}
