package synchandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/salestracker/shodhan/pkg/artifacts"
	"github.com/salestracker/shodhan/pkg/bus"
)

// RegisterBusHandlers wires the legacy Page → Worker message triggers
// (SYNC_DATA, CACHE_NEW_ENTRY) onto router, running each through the same
// Submitter.Submit path as the intercepted HTTP Path and acknowledging
// with SyncReceived after each Submit call, whatever its outcome — all
// three triggers converge on one
// queue (spec.md §4.4 "Legacy hybrid"). webhookURL is the fixed sync
// destination, since neither message carries one of its own.
func RegisterBusHandlers(router *bus.Router, port *bus.Port, engine Submitter, webhookURL string) {
	bus.Register(router, func(ctx context.Context, msg bus.SyncData) error {
		submitAndAck(ctx, port, engine, artifacts.SyncSubmission{
			WebhookURL:  webhookURL,
			Payload:     msg.Payload,
			EnqueueTime: time.Now().UnixMilli(),
		})

		return nil
	})

	bus.Register(router, func(ctx context.Context, msg bus.CacheNewEntry) error {
		submitAndAck(ctx, port, engine, artifacts.SyncSubmission{
			WebhookURL: webhookURL,
			Payload: artifacts.SyncPayload{
				Results:       msg.Results,
				UserID:        msg.UserID,
				FingerprintID: msg.FingerprintID,
			},
			EnqueueTime: time.Now().UnixMilli(),
		})

		return nil
	})
}

func submitAndAck(ctx context.Context, port *bus.Port, engine Submitter, sub artifacts.SyncSubmission) {
	if _, err := engine.Submit(ctx, sub); err != nil {
		slog.ErrorContext(ctx, "synchandler: failed to queue submission from bus trigger", "error", err)
	}

	if err := bus.Post(ctx, port, bus.SyncReceived{}); err != nil {
		slog.WarnContext(ctx, "synchandler: failed to post SYNC_RECEIVED", "error", err)
	}
}
