// Package orchestrator composes the Local Artifact Store, the Similarity
// Cache Gateway, the LLM edge function, and the Background Sync Engine
// behind a single Search entry point, grounded on push_delivery's
// dispatcher: a small struct wiring narrow collaborator interfaces
// together rather than depending on their concrete types.
package orchestrator

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/metrics"
)

const errorCategory = "Error"

// Store is the subset of artifactstore.Store the orchestrator depends on.
type Store interface {
	Get(ctx context.Context, id string) (artifacts.SearchResult, bool)
	GetThread(ctx context.Context, rootID string) (artifacts.SearchResult, bool)
	Save(ctx context.Context, result artifacts.SearchResult)
}

// SimilarityFinder is the subset of similarity.Gateway the orchestrator
// depends on.
type SimilarityFinder interface {
	Lookup(ctx context.Context, query, userID string) ([]artifacts.SearchResult, bool)
}

// Completer is the subset of LLMClient the orchestrator depends on.
type Completer interface {
	Complete(ctx context.Context, query, systemPrompt string) (string, error)
}

// Submitter is the subset of syncengine.Engine the orchestrator depends
// on. Submit is fire-and-forget from Search's point of view.
type Submitter interface {
	Submit(ctx context.Context, sub artifacts.SyncSubmission) (queued bool, err error)
}

// Orchestrator answers a query by consulting LAS, then SCG, then the LLM,
// in that order, persisting and syncing whatever it resolves.
type Orchestrator struct {
	store      Store
	similarity SimilarityFinder
	llm        Completer
	sync       Submitter
	webhookURL string
}

// New builds an Orchestrator. webhookURL is the fixed sync destination
// baked into every submission this instance emits.
func New(store Store, similarity SimilarityFinder, llm Completer, sync Submitter, webhookURL string) *Orchestrator {
	return &Orchestrator{store: store, similarity: similarity, llm: llm, sync: sync, webhookURL: webhookURL}
}

// cacheKey returns a stable, non-cryptographic identifier for a root
// query, matching spec.md's "consistency-sensitive, not security-sensitive"
// requirement.
func cacheKey(query string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(query))

	return fmt.Sprintf("root-%08x", h.Sum32())
}

// Search resolves query against parent's thread (follow-up) or the root
// cache (fresh query), falling back to the similarity gateway and finally
// the LLM. The resolved result is persisted and a sync submission is
// fired without waiting on it.
func (o *Orchestrator) Search(ctx context.Context, query string, parent *artifacts.SearchResult, userID, fingerprintID string) artifacts.SearchResult {
	if result, ok := o.consultLAS(ctx, query, parent); ok {
		metrics.CacheTierHitsTotal.WithLabelValues("exact").Inc()

		return result
	}

	if userID != "" {
		if results, ok := o.similarity.Lookup(ctx, query, userID); ok && len(results) > 0 {
			result := results[0]
			o.finish(ctx, result, userID, fingerprintID)

			return result
		}
	}

	result := o.callLLM(ctx, query, parent)
	o.finish(ctx, result, userID, fingerprintID)

	return result
}

func (o *Orchestrator) consultLAS(ctx context.Context, query string, parent *artifacts.SearchResult) (artifacts.SearchResult, bool) {
	if parent != nil {
		thread, ok := o.store.GetThread(ctx, parent.RootID)
		if !ok {
			return artifacts.SearchResult{}, false
		}

		for _, reply := range thread.Replies {
			if reply.FollowUpQuery == query {
				return reply, true
			}
		}

		return artifacts.SearchResult{}, false
	}

	thread, ok := o.store.GetThread(ctx, cacheKey(query))
	if !ok {
		return artifacts.SearchResult{}, false
	}

	return thread, true
}

func (o *Orchestrator) callLLM(ctx context.Context, query string, parent *artifacts.SearchResult) artifacts.SearchResult {
	parentContent := ""
	if parent != nil {
		parentContent = parent.Content
	}

	content, err := o.llm.Complete(ctx, query, systemPrompt(parentContent))
	if err != nil {
		slog.ErrorContext(ctx, "orchestrator: LLM call failed", "error", err)

		return fallbackResult(parent, query)
	}

	body, sources := splitSources(content)
	timestamp := time.Now().UnixMilli()

	result := artifacts.SearchResult{
		Title:     query,
		Content:   body,
		Sources:   sources,
		Timestamp: timestamp,
	}

	if parent != nil {
		result.ID = fmt.Sprintf("R-%d", timestamp)
		result.RootID = parent.RootID
		result.ParentID = parent.ID
		result.FollowUpQuery = query
	} else {
		result.RootID = cacheKey(query)
		result.ID = result.RootID
	}

	return result
}

func (o *Orchestrator) finish(ctx context.Context, result artifacts.SearchResult, userID, fingerprintID string) {
	o.store.Save(ctx, result)

	go func() {
		syncCtx := context.WithoutCancel(ctx)
		sub := artifacts.SyncSubmission{
			WebhookURL: o.webhookURL,
			Payload: artifacts.SyncPayload{
				Results:       []artifacts.SearchResult{result},
				UserID:        userID,
				FingerprintID: fingerprintID,
			},
			EnqueueTime: time.Now().UnixMilli(),
		}

		if _, err := o.sync.Submit(syncCtx, sub); err != nil {
			slog.ErrorContext(syncCtx, "orchestrator: sync submission failed", "error", err)
		}
	}()
}

// splitSources splits raw on the literal "Sources:" marker. Everything
// before is body content; everything after is parsed one source per
// non-empty line.
func splitSources(raw string) (string, []string) {
	idx := strings.Index(raw, "Sources:")
	if idx < 0 {
		return raw, nil
	}

	body := strings.TrimSpace(raw[:idx])
	tail := raw[idx+len("Sources:"):]

	var sources []string
	for _, line := range strings.Split(tail, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			sources = append(sources, line)
		}
	}

	return body, sources
}

func fallbackResult(parent *artifacts.SearchResult, query string) artifacts.SearchResult {
	result := artifacts.SearchResult{
		ID:         uuid.NewString(),
		Title:      query,
		Content:    "Something went wrong while fetching this answer. Please try again.",
		Sources:    []string{},
		Confidence: 0,
		Category:   errorCategory,
		Timestamp:  time.Now().UnixMilli(),
	}

	if parent != nil {
		result.RootID = parent.RootID
		result.ParentID = parent.ID
		result.FollowUpQuery = query
	} else {
		result.RootID = cacheKey(query)
	}

	return result
}
