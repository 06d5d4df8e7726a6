package artifactstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/kvstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := kvstore.Open("test", "")
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	return New(kv)
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := artifacts.SearchResult{ID: "root-1", RootID: "root-1", Title: "t", Content: "c"}
	s.Save(ctx, root)

	got, ok := s.Get(ctx, "root-1")
	if !ok {
		t.Fatal("Get returned not-found for a just-saved entry")
	}
	if diff := cmp.Diff(root, got); diff != "" {
		t.Fatalf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAppendsReplyStubExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := artifacts.SearchResult{ID: "root-1", RootID: "root-1"}
	s.Save(ctx, root)

	reply := artifacts.SearchResult{
		ID: "reply-1", RootID: "root-1", ParentID: "root-1", FollowUpQuery: "more",
	}
	s.Save(ctx, reply)
	s.Save(ctx, reply) // idempotent re-save must not duplicate the stub.

	thread, ok := s.GetThread(ctx, "root-1")
	if !ok {
		t.Fatal("GetThread returned not-found")
	}
	if len(thread.Replies) != 1 {
		t.Fatalf("len(thread.Replies) = %d, want 1", len(thread.Replies))
	}
	if thread.Replies[0].ID != "reply-1" {
		t.Fatalf("thread.Replies[0].ID = %q, want %q", thread.Replies[0].ID, "reply-1")
	}
}

func TestGetThreadPreservesInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, artifacts.SearchResult{ID: "root", RootID: "root"})
	s.Save(ctx, artifacts.SearchResult{ID: "r1", RootID: "root", ParentID: "root", FollowUpQuery: "a"})
	s.Save(ctx, artifacts.SearchResult{ID: "r2", RootID: "root", ParentID: "root", FollowUpQuery: "b"})
	s.Save(ctx, artifacts.SearchResult{ID: "r3", RootID: "root", ParentID: "root", FollowUpQuery: "c"})

	thread, ok := s.GetThread(ctx, "root")
	if !ok {
		t.Fatal("GetThread returned not-found")
	}

	var order []string
	for _, r := range thread.Replies {
		order = append(order, r.ID)
	}
	want := []string{"r1", "r2", "r3"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("reply order mismatch (-want +got):\n%s", diff)
	}
}

func TestExpiredEntryIsRemovedAndAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := nowFunc
	nowFunc = func() time.Time { return time.UnixMilli(0) }
	s.Save(ctx, artifacts.SearchResult{ID: "stale", RootID: "stale"})
	nowFunc = func() time.Time { return time.UnixMilli(0).Add(25 * time.Hour) }
	defer func() { nowFunc = old }()

	if _, ok := s.Get(ctx, "stale"); ok {
		t.Fatal("Get returned a value for an expired entry")
	}

	// The second Get (after reaping) must still report absent, not error.
	if _, ok := s.Get(ctx, "stale"); ok {
		t.Fatal("Get returned a value for an already-reaped entry")
	}
}

func TestGetThreadStopsAtExpiredReplyWithoutPanicking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := nowFunc
	defer func() { nowFunc = old }()

	nowFunc = func() time.Time { return time.UnixMilli(0) }
	s.Save(ctx, artifacts.SearchResult{ID: "root", RootID: "root"})
	s.Save(ctx, artifacts.SearchResult{ID: "child", RootID: "root", ParentID: "root", FollowUpQuery: "q"})

	// Re-save the root 2h later (keeping its reply stub) so that at 25h the
	// root is still live while the child has expired.
	nowFunc = func() time.Time { return time.UnixMilli(0).Add(2 * time.Hour) }
	root, ok := s.Get(ctx, "root")
	if !ok {
		t.Fatal("Get returned not-found for the root")
	}
	s.Save(ctx, root)

	nowFunc = func() time.Time { return time.UnixMilli(0).Add(25 * time.Hour) }

	thread, ok := s.GetThread(ctx, "root")
	if !ok {
		t.Fatal("GetThread returned not-found for a live root")
	}
	// The expired child is kept as a stub and not traversed further.
	if len(thread.Replies) != 1 || thread.Replies[0].ID != "child" || thread.Replies[0].FollowUpQuery != "q" {
		t.Fatalf("unexpected replies for thread with an expired reply: %+v", thread.Replies)
	}
}

func TestGetThreadDefusesCycles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, artifacts.SearchResult{ID: "a", RootID: "a"})
	s.Save(ctx, artifacts.SearchResult{ID: "b", RootID: "a", ParentID: "a", FollowUpQuery: "to-b"})
	// Manually force b's replies to point back at a, simulating a corrupt cycle.
	s.appendReplyStub(ctx, "b", artifacts.ReplyStub{ID: "a", FollowUpQuery: "back-to-a"})

	done := make(chan struct{})
	go func() {
		s.GetThread(ctx, "a")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("GetThread did not terminate on a cyclic thread")
	}
}

func TestGetAllEntriesExcludesExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := nowFunc
	defer func() { nowFunc = old }()

	nowFunc = func() time.Time { return time.UnixMilli(0) }
	s.Save(ctx, artifacts.SearchResult{ID: "fresh", RootID: "fresh"})

	nowFunc = func() time.Time { return time.UnixMilli(0).Add(25 * time.Hour) }
	s.Save(ctx, artifacts.SearchResult{ID: "also-fresh", RootID: "also-fresh"})

	all := s.GetAllEntries(ctx)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"also-fresh"}, ids); diff != "" {
		t.Fatalf("GetAllEntries mismatch (-want +got):\n%s", diff)
	}
}
