package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/httpfetch"
	"github.com/salestracker/shodhan/pkg/kvstore"
	"github.com/salestracker/shodhan/pkg/metrics"
)

const cursorKey = "syncStore/lastSyncTimestamp"

// ErrDrainFailed is returned by Drain when at least one entry failed
// delivery and was requeued, so the platform knows to reschedule.
var ErrDrainFailed = errors.New("syncengine: drain encountered a delivery failure")

// ErrRemoteRefusal marks a 4xx response: the remote has rejected the
// submission itself, as opposed to a transient (5xx or transport) outage.
// A submission refused twice in a row is dropped rather than retried for
// the full retention window.
var ErrRemoteRefusal = errors.New("syncengine: webhook refused submission")

// maxRefusals is the number of consecutive remote refusals a submission
// tolerates before it is dropped.
const maxRefusals = 2

// Cursor is the durable worker-side watermark recording when the queue was
// last drained. Drain advances it at the end of every pass; Drain does not
// read it, so it does not gate or throttle draining.
type Cursor struct {
	kv *kvstore.Store
}

// NewCursor wraps an opened kvstore.Store as the LastSyncCursor.
func NewCursor(kv *kvstore.Store) *Cursor {
	return &Cursor{kv: kv}
}

// Advance records now as the watermark.
func (c *Cursor) Advance(ctx context.Context, now time.Time) error {
	return c.kv.Set(ctx, cursorKey, []byte(fmt.Sprintf("%d", now.UnixMilli())))
}

// Get returns the watermark in epoch milliseconds, or zero if never set.
func (c *Cursor) Get(ctx context.Context) int64 {
	raw, err := c.kv.Get(ctx, cursorKey)
	if err != nil {
		return 0
	}

	var ms int64
	if _, err := fmt.Sscanf(string(raw), "%d", &ms); err != nil {
		return 0
	}

	return ms
}

// Engine delivers queued submissions to their webhook and replays the
// queue on demand, grounded on push_delivery's dispatcher: a small struct
// composing a store lookup with a network publish step and reporting a
// partial-failure error the caller can act on.
type Engine struct {
	queue   *Queue
	cursor  *Cursor
	fetcher *httpfetch.Fetcher
	notify  func(ctx context.Context)
}

// New builds an Engine. notify is called once per successfully delivered
// submission so the caller can fan out {type: SYNC_SUCCESS} to page
// clients; it may be nil.
func New(queue *Queue, cursor *Cursor, fetcher *httpfetch.Fetcher, notify func(ctx context.Context)) *Engine {
	return &Engine{queue: queue, cursor: cursor, fetcher: fetcher, notify: notify}
}

// Submit unpacks {webhookUrl, payload}, attempts one live delivery, and
// falls back to the durable queue on failure. It always succeeds from the
// intercepted request's point of view (spec.md §4.4 step 4): the caller
// should return 200 regardless of the error Submit returns, which is
// purely diagnostic. The returned bool reports whether the submission was
// queued rather than delivered live, for the caller's response body
// (spec.md §6: "Sync successful" vs "Request queued for sync").
func (e *Engine) Submit(ctx context.Context, sub artifacts.SyncSubmission) (queued bool, err error) {
	if err := e.deliver(ctx, sub); err != nil {
		slog.WarnContext(ctx, "syncengine: live delivery failed, queuing", "webhook", sub.WebhookURL, "error", err)

		var refusalCount uint
		if errors.Is(err, ErrRemoteRefusal) {
			refusalCount = 1
		}

		return true, e.queue.Enqueue(ctx, sub, refusalCount)
	}

	if e.notify != nil {
		e.notify(ctx)
	}

	return false, nil
}

// Drain replays the queue FIFO: for each entry, POST to its webhookUrl; on
// success remove it, on failure re-queue at head and keep going so one
// stuck record does not starve the rest of the queue within this pass.
func (e *Engine) Drain(ctx context.Context) error {
	entries, err := e.queue.Peek(ctx)
	if err != nil {
		return err
	}
	metrics.SyncQueueDepth.Set(float64(len(entries)))

	var failed int

	for _, entry := range entries {
		if err := e.deliver(ctx, entry.Submission); err != nil {
			if errors.Is(err, ErrRemoteRefusal) {
				refusalCount := entry.RefusalCount + 1
				if refusalCount >= maxRefusals {
					slog.ErrorContext(ctx, "syncengine: dropping submission after repeated remote refusal",
						"webhook", entry.Submission.WebhookURL, "refusals", refusalCount, "error", err)

					if rmErr := e.queue.Remove(ctx, entry.Key); rmErr != nil {
						slog.ErrorContext(ctx, "syncengine: failed to remove refused entry", "error", rmErr)
					}

					continue
				}

				slog.WarnContext(ctx, "syncengine: replay refused, re-queuing at head",
					"webhook", entry.Submission.WebhookURL, "refusals", refusalCount, "error", err)

				if rqErr := e.queue.EnqueueAtHead(ctx, entry.Submission, refusalCount); rqErr != nil {
					slog.ErrorContext(ctx, "syncengine: failed to re-queue after refused replay", "error", rqErr)
				}

				if rmErr := e.queue.Remove(ctx, entry.Key); rmErr != nil {
					slog.ErrorContext(ctx, "syncengine: failed to remove original key after requeue", "error", rmErr)
				}

				failed++

				continue
			}

			slog.WarnContext(ctx, "syncengine: replay failed, re-queuing at head",
				"webhook", entry.Submission.WebhookURL, "error", err)

			if rqErr := e.queue.EnqueueAtHead(ctx, entry.Submission, entry.RefusalCount); rqErr != nil {
				slog.ErrorContext(ctx, "syncengine: failed to re-queue after failed replay", "error", rqErr)
			}

			if err := e.queue.Remove(ctx, entry.Key); err != nil {
				slog.ErrorContext(ctx, "syncengine: failed to remove original key after requeue", "error", err)
			}

			failed++

			continue
		}

		if err := e.queue.Remove(ctx, entry.Key); err != nil {
			slog.ErrorContext(ctx, "syncengine: failed to remove delivered entry", "key", entry.Key, "error", err)
		}

		if e.notify != nil {
			e.notify(ctx)
		}
	}

	if err := e.cursor.Advance(ctx, nowFunc()); err != nil {
		slog.ErrorContext(ctx, "syncengine: failed to advance cursor", "error", err)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d/%d", ErrDrainFailed, failed, len(entries))
	}

	return nil
}

func (e *Engine) deliver(ctx context.Context, sub artifacts.SyncSubmission) error {
	metrics.SyncAttemptsTotal.Inc()

	body, err := json.Marshal(sub.Payload)
	if err != nil {
		return fmt.Errorf("syncengine: failed to marshal payload: %w", err)
	}

	// Accept every status at the fetcher level so the 4xx/5xx split below
	// sees the status code instead of a generic fetch error.
	respBody, status, err := e.fetcher.PostJSON(ctx, sub.WebhookURL, body,
		httpfetch.WithSuccessPredicate(func(int) bool { return true }))
	if err != nil {
		metrics.SyncFailureTotal.Inc()

		return err
	}
	defer respBody.Close()

	if status >= 400 && status < 500 {
		metrics.SyncFailureTotal.Inc()

		return fmt.Errorf("%w: status %d", ErrRemoteRefusal, status)
	}

	if status < 200 || status >= 300 {
		metrics.SyncFailureTotal.Inc()

		return fmt.Errorf("syncengine: webhook returned status %d", status)
	}

	metrics.SyncSuccessTotal.Inc()

	return nil
}
