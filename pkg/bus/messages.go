package bus

import "github.com/salestracker/shodhan/pkg/artifacts"

const apiVersionV1 = "v1"

// Ping is sent by the page side to probe whether the worker side is alive
// and listening, kicking off the handshake.
type Ping struct{}

func (Ping) Kind() string       { return "PING" }
func (Ping) APIVersion() string { return apiVersionV1 }

// Pong answers a Ping.
type Pong struct{}

func (Pong) Kind() string       { return "PONG" }
func (Pong) APIVersion() string { return apiVersionV1 }

// ClientReady is sent by the page side right after its ready signal
// resolves on PONG, before it flushes any messages buffered until then.
type ClientReady struct{}

func (ClientReady) Kind() string       { return "CLIENT_READY" }
func (ClientReady) APIVersion() string { return apiVersionV1 }

// SyncData is the legacy Page → Worker trigger carrying a full payload for
// the worker to submit through the same enqueue/post path as the
// intercepted /api/sync request (spec.md §4.4 "Legacy hybrid").
type SyncData struct {
	Payload artifacts.SyncPayload `json:"payload"`
}

func (SyncData) Kind() string       { return "SYNC_DATA" }
func (SyncData) APIVersion() string { return apiVersionV1 }

// CacheNewEntry is the legacy Page → Worker trigger signaling that fresh
// results should be synced immediately rather than waiting for the next
// scheduled drain; the worker's handler performs the same enqueue/post
// logic as SyncData and /api/sync, all three converging on one queue
// (spec.md §4.4 "Legacy hybrid").
type CacheNewEntry struct {
	Results       []artifacts.SearchResult `json:"results"`
	UserID        string                   `json:"userId,omitempty"`
	FingerprintID string                   `json:"fingerprintId,omitempty"`
}

func (CacheNewEntry) Kind() string       { return "CACHE_NEW_ENTRY" }
func (CacheNewEntry) APIVersion() string { return apiVersionV1 }

// SyncSuccess notifies the page side that a submission was delivered to
// webhookURL, either live or on a replay from the queue.
type SyncSuccess struct {
	WebhookURL string `json:"webhookUrl"`
}

func (SyncSuccess) Kind() string       { return "SYNC_SUCCESS" }
func (SyncSuccess) APIVersion() string { return apiVersionV1 }

// SyncReceived acknowledges that the worker handed a SyncData or
// CacheNewEntry message to the sync engine. It is posted whatever the
// outcome (delivered, queued or failed), unlike SyncSuccess which confirms
// actual delivery.
type SyncReceived struct{}

func (SyncReceived) Kind() string       { return "SYNC_RECEIVED" }
func (SyncReceived) APIVersion() string { return apiVersionV1 }
