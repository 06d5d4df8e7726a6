// Package artifactstore implements the Local Artifact Store (LAS): the
// page-exclusive, content-addressed store of search result threads with
// TTL expiry. It is deliberately advisory — every read or write failure is
// logged and swallowed so the search path never breaks because of it.
package artifactstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/kvstore"
)

const convKeyPrefix = "conv_"

func convKey(id string) string {
	return convKeyPrefix + id
}

// nowFunc is overridable in tests.
var nowFunc = time.Now

// Store is the Local Artifact Store.
type Store struct {
	kv *kvstore.Store
}

// New wraps an opened kvstore.Store as a Local Artifact Store.
func New(kv *kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Save upserts result under conv_<id>. If result has a ParentID, it
// read-modify-writes the parent to append a reply stub, idempotently: a
// second Save of the same result never produces a duplicate stub.
//
// Per spec.md §4.1, all write failures here are logged and swallowed; the
// store is advisory and must never fail the caller's search path.
func (s *Store) Save(ctx context.Context, result artifacts.SearchResult) {
	now := nowFunc()
	// denormalize: never persist a fully materialized reply subtree, only
	// the {id, followUpQuery} stub of each direct reply.
	toStore := result
	toStore.Replies = nil
	for _, reply := range result.Replies {
		toStore.Replies = append(toStore.Replies, artifacts.SearchResult{
			ID:            reply.ID,
			FollowUpQuery: reply.FollowUpQuery,
		})
	}

	entry := artifacts.CacheEntry{
		Value:     toStore,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(artifacts.DefaultTTL).UnixMilli(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to marshal entry", "id", result.ID, "error", err)

		return
	}

	if err := s.kv.Set(ctx, convKey(result.ID), raw); err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to save entry", "id", result.ID, "error", err)

		return
	}

	if result.ParentID == "" {
		return
	}

	s.appendReplyStub(ctx, result.ParentID, artifacts.ReplyStub{
		ID:            result.ID,
		FollowUpQuery: result.FollowUpQuery,
	})
}

// appendReplyStub performs the single-pass read-modify-write required by
// spec.md §4.1/§5: read the parent, append the stub if not already present,
// write back. The page's single-threaded cooperative scheduling makes this
// atomic without an explicit lock; Go callers that share a Store across
// goroutines should serialize calls to Save themselves.
func (s *Store) appendReplyStub(ctx context.Context, parentID string, stub artifacts.ReplyStub) {
	raw, err := s.kv.Get(ctx, convKey(parentID))
	if err != nil {
		slog.ErrorContext(ctx, "artifactstore: parent missing for reply stub",
			"parentId", parentID, "childId", stub.ID, "error", err)

		return
	}

	var entry artifacts.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.ErrorContext(ctx, "artifactstore: corrupt parent entry", "parentId", parentID, "error", err)

		return
	}

	for _, existing := range entry.Value.Replies {
		if existing.ID == stub.ID {
			return // already present; idempotent re-save.
		}
	}

	entry.Value.Replies = append(entry.Value.Replies, artifacts.SearchResult{
		ID:            stub.ID,
		FollowUpQuery: stub.FollowUpQuery,
	})

	updated, err := json.Marshal(entry)
	if err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to marshal updated parent", "parentId", parentID, "error", err)

		return
	}

	if err := s.kv.Set(ctx, convKey(parentID), updated); err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to persist updated parent", "parentId", parentID, "error", err)
	}
}

// Get returns the node stored at id, iff it has not expired. An expired
// entry is deleted and treated as absent.
func (s *Store) Get(ctx context.Context, id string) (artifacts.SearchResult, bool) {
	raw, err := s.kv.Get(ctx, convKey(id))
	if err != nil {
		return artifacts.SearchResult{}, false
	}

	var entry artifacts.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.ErrorContext(ctx, "artifactstore: corrupt entry", "id", id, "error", err)

		return artifacts.SearchResult{}, false
	}

	if entry.Expired(nowFunc()) {
		if err := s.kv.Delete(ctx, convKey(id)); err != nil {
			slog.ErrorContext(ctx, "artifactstore: failed to reap expired entry", "id", id, "error", err)
		}

		return artifacts.SearchResult{}, false
	}

	return entry.Value, true
}

// GetThread returns the root node at rootID with its replies recursively
// expanded by repeated Get. Missing or expired children are preserved as
// stub objects; the traversal never re-enters a node (visit-set), defusing
// any accidental cycle per spec.md §9.
func (s *Store) GetThread(ctx context.Context, rootID string) (artifacts.SearchResult, bool) {
	visited := map[string]bool{rootID: true}

	root, ok := s.Get(ctx, rootID)
	if !ok {
		return artifacts.SearchResult{}, false
	}

	root.Replies = s.expandReplies(ctx, root.Replies, visited)

	return root, true
}

func (s *Store) expandReplies(
	ctx context.Context,
	stubs []artifacts.SearchResult,
	visited map[string]bool,
) []artifacts.SearchResult {
	expanded := make([]artifacts.SearchResult, 0, len(stubs))
	for _, stub := range stubs {
		if visited[stub.ID] {
			expanded = append(expanded, stub) // cycle guard: keep the stub as-is.

			continue
		}
		visited[stub.ID] = true

		full, ok := s.Get(ctx, stub.ID)
		if !ok {
			// Missing or expired: preserve as a stub, do not traverse further.
			expanded = append(expanded, artifacts.SearchResult{
				ID:            stub.ID,
				FollowUpQuery: stub.FollowUpQuery,
			})

			continue
		}

		full.Replies = s.expandReplies(ctx, full.Replies, visited)
		expanded = append(expanded, full)
	}

	return expanded
}

// GetAllEntries returns the SearchResult value of every non-expired entry
// (not the envelopes), for diagnostics and legacy sync paths.
func (s *Store) GetAllEntries(ctx context.Context) []artifacts.SearchResult {
	entries, err := s.kv.PrefixScan(ctx, convKeyPrefix)
	if err != nil {
		slog.ErrorContext(ctx, "artifactstore: failed to scan entries", "error", err)

		return nil
	}

	now := nowFunc()
	results := make([]artifacts.SearchResult, 0, len(entries))
	for _, e := range entries {
		var entry artifacts.CacheEntry
		if err := json.Unmarshal(e.Value, &entry); err != nil {
			slog.ErrorContext(ctx, "artifactstore: corrupt entry during scan", "key", e.Key, "error", err)

			continue
		}
		if entry.Expired(now) {
			continue
		}
		results = append(results, entry.Value)
	}

	return results
}
