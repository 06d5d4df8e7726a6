// Package syncengine is the Background Sync Engine: an on-disk FIFO queue
// of webhook submissions, survives offline periods and worker restarts,
// and delivers them at least once.
package syncengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/kvstore"
)

const (
	queueKeyPrefix = "webhook-sync-queue/"
	// headBand sorts lexically before tailBand, so a record re-queued at
	// the head is always replayed before anything appended normally,
	// without needing to scan the queue to find the current minimum.
	headBand = queueKeyPrefix + "0-"
	tailBand = queueKeyPrefix + "1-"
)

// nowFunc is overridable in tests.
var nowFunc = time.Now

// record is the on-disk shape of one queued submission. RefusalCount
// tracks consecutive 4xx ("remote refusal") delivery failures so Drain can
// drop a submission the remote has refused twice rather than retrying it
// for the full 24h retention window.
type record struct {
	Submission   artifacts.SyncSubmission `json:"submission"`
	RefusalCount uint                     `json:"refusalCount"`
}

// Queue is the durable, at-least-once, FIFO outbound delivery queue keyed
// "webhook-sync-queue".
type Queue struct {
	kv *kvstore.Store

	mu      sync.Mutex
	tailSeq uint64
	headSeq uint64
}

// NewQueue wraps an opened kvstore.Store as the durable sync queue,
// rehydrating tailSeq/headSeq from any records already on disk so a
// restart with undelivered work pending does not reuse a sequence number
// still occupied by a pre-restart record (which would silently overwrite
// it and break at-least-once delivery).
func NewQueue(ctx context.Context, kv *kvstore.Store) (*Queue, error) {
	q := &Queue{kv: kv}

	entries, err := kv.PrefixScan(ctx, queueKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("syncengine: failed to rehydrate queue: %w", err)
	}

	for _, e := range entries {
		band, seq, err := parseQueueKey(e.Key)
		if err != nil {
			slog.ErrorContext(ctx, "syncengine: skipping malformed queue key during rehydrate", "key", e.Key, "error", err)

			continue
		}

		switch band {
		case headBand:
			if seq > q.headSeq {
				q.headSeq = seq
			}
		case tailBand:
			if seq > q.tailSeq {
				q.tailSeq = seq
			}
		}
	}

	return q, nil
}

// parseQueueKey splits key into its band prefix and sequence number.
func parseQueueKey(key string) (band string, seq uint64, err error) {
	switch {
	case strings.HasPrefix(key, headBand):
		band = headBand
	case strings.HasPrefix(key, tailBand):
		band = tailBand
	default:
		return "", 0, fmt.Errorf("unrecognized queue key %q", key)
	}

	seq, err = strconv.ParseUint(key[len(band):], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in queue key %q: %w", key, err)
	}

	return band, seq, nil
}

// Enqueue appends sub to the tail of the queue. refusalCount is the number
// of prior consecutive 4xx delivery refusals this submission has already
// accumulated (0 for a fresh submission).
func (q *Queue) Enqueue(ctx context.Context, sub artifacts.SyncSubmission, refusalCount uint) error {
	q.mu.Lock()
	q.tailSeq++
	key := fmt.Sprintf("%s%020d", tailBand, q.tailSeq)
	q.mu.Unlock()

	return q.put(ctx, key, sub, refusalCount)
}

// EnqueueAtHead re-queues sub ahead of everything currently in the queue,
// used when a replay attempt fails and must be retried before newer work.
func (q *Queue) EnqueueAtHead(ctx context.Context, sub artifacts.SyncSubmission, refusalCount uint) error {
	q.mu.Lock()
	q.headSeq++
	key := fmt.Sprintf("%s%020d", headBand, q.headSeq)
	q.mu.Unlock()

	return q.put(ctx, key, sub, refusalCount)
}

func (q *Queue) put(ctx context.Context, key string, sub artifacts.SyncSubmission, refusalCount uint) error {
	raw, err := json.Marshal(record{Submission: sub, RefusalCount: refusalCount})
	if err != nil {
		return fmt.Errorf("syncengine: failed to marshal submission: %w", err)
	}

	if err := q.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("syncengine: failed to enqueue submission: %w", err)
	}

	return nil
}

// Entry pairs a queue key with its decoded submission, returned by Peek so
// callers can Remove the exact record they processed.
type Entry struct {
	Key          string
	Submission   artifacts.SyncSubmission
	RefusalCount uint
}

// Peek returns every queued entry in FIFO order (head band first, then
// tail band, each ordered by sequence), dropping and logging any entry
// that has exceeded artifacts.MaxRetention.
func (q *Queue) Peek(ctx context.Context) ([]Entry, error) {
	raw, err := q.kv.PrefixScan(ctx, queueKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("syncengine: failed to scan queue: %w", err)
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].Key < raw[j].Key })

	now := nowFunc()

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		var rec record
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			slog.ErrorContext(ctx, "syncengine: corrupt queue entry, dropping", "key", e.Key, "error", err)
			q.removeKey(ctx, e.Key)

			continue
		}

		if rec.Submission.Expired(now) {
			slog.WarnContext(ctx, "syncengine: dropping expired submission", "key", e.Key)
			q.removeKey(ctx, e.Key)

			continue
		}

		entries = append(entries, Entry{Key: e.Key, Submission: rec.Submission, RefusalCount: rec.RefusalCount})
	}

	return entries, nil
}

// Remove deletes the record at key, called after a successful delivery.
func (q *Queue) Remove(ctx context.Context, key string) error {
	return q.removeKey(ctx, key)
}

func (q *Queue) removeKey(ctx context.Context, key string) error {
	if err := q.kv.Delete(ctx, key); err != nil {
		slog.ErrorContext(ctx, "syncengine: failed to remove queue entry", "key", key, "error", err)

		return err
	}

	return nil
}
