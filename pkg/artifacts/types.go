// Package artifacts holds the value types shared between the page-side
// Local Artifact Store and the worker-side Background Sync Engine. Nothing
// in this package owns storage; it only describes what crosses the
// page/worker boundary over JSON.
package artifacts

import "time"

// SearchResult is one node in a conversation tree.
type SearchResult struct {
	ID            string         `json:"id"`
	RootID        string         `json:"rootId"`
	ParentID      string         `json:"parentId,omitempty"`
	FollowUpQuery string         `json:"followUpQuery,omitempty"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Sources       []string       `json:"sources"`
	Confidence    int            `json:"confidence"`
	Category      string         `json:"category"`
	Timestamp     int64          `json:"timestamp"`
	IsCached      bool           `json:"isCached,omitempty"`
	Replies       []SearchResult `json:"replies,omitempty"`
}

// ReplyStub is the denormalized form a parent carries for each child: just
// enough to resolve the child via a follow-up Get, never the full subtree.
type ReplyStub struct {
	ID            string `json:"id"`
	FollowUpQuery string `json:"followUpQuery,omitempty"`
}

// IsRoot reports whether r is the root of its own thread.
func (r SearchResult) IsRoot() bool {
	return r.ParentID == ""
}

// CacheEntry is the LAS envelope persisted around a SearchResult.
type CacheEntry struct {
	Value     SearchResult `json:"value"`
	Timestamp int64        `json:"timestamp"`
	ExpiresAt int64        `json:"expiresAt"`
}

// DefaultTTL is the 24h window a CacheEntry remains valid for after write.
const DefaultTTL = 24 * time.Hour

// Expired reports whether the entry has expired as of now.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.UnixMilli() >= e.ExpiresAt
}

// SearchHistoryItem is a query-index entry, most-recent-50, deduped by query.
type SearchHistoryItem struct {
	ID        string `json:"id"`
	Query     string `json:"query"`
	Timestamp int64  `json:"timestamp"`
	ResultID  string `json:"resultId"`
}

// MaxHistoryEntries bounds the retained history per spec.md Invariants.
const MaxHistoryEntries = 50

// SyncPayload is the body handed to the webhook.
type SyncPayload struct {
	Results       []SearchResult `json:"results"`
	UserID        string         `json:"userId,omitempty"`
	FingerprintID string         `json:"fingerprintId"`
}

// SyncSubmission is a BSE outbound queue element.
type SyncSubmission struct {
	WebhookURL  string      `json:"webhookUrl"`
	Payload     SyncPayload `json:"payload"`
	EnqueueTime int64       `json:"enqueueTime"`
}

// MaxRetention is the maximum time a SyncSubmission may sit in the queue.
const MaxRetention = 24 * time.Hour

// Expired reports whether the submission has exceeded MaxRetention.
func (s SyncSubmission) Expired(now time.Time) bool {
	return now.Sub(time.UnixMilli(s.EnqueueTime)) > MaxRetention
}
