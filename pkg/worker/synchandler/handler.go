// Package synchandler implements the worker-side interception of the
// page's fire-and-forget POST to the magic local sync path. The request
// never reaches the network as-is; the handler unpacks it and hands it to
// the Background Sync Engine instead.
package synchandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/salestracker/shodhan/pkg/artifacts"
)

// Path is the literal local path the page POSTs sync submissions to.
const Path = "/api/sync"

// Response status strings, spec.md §6.
const (
	statusSyncSuccessful = "Sync successful"
	statusQueuedForSync  = "Request queued for sync"
)

// response is the body always written on a 200, spec.md §6.
type response struct {
	Status string `json:"status"`
}

// Submitter is the subset of syncengine.Engine this handler depends on.
// The bool return reports whether the submission was queued rather than
// delivered live.
type Submitter interface {
	Submit(ctx context.Context, sub artifacts.SyncSubmission) (bool, error)
}

// Handler intercepts Path. It always returns 200 so the page UX stays
// seamless regardless of whether delivery succeeded live or fell back to
// the durable queue (spec.md §4.4 step 4).
type Handler struct {
	engine Submitter
}

// New builds a Handler around engine.
func New(engine Submitter) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)

		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		slog.ErrorContext(r.Context(), "synchandler: failed to read request body", "error", err)
		w.WriteHeader(http.StatusOK)

		return
	}

	var sub artifacts.SyncSubmission
	if err := json.Unmarshal(raw, &sub); err != nil {
		slog.ErrorContext(r.Context(), "synchandler: malformed submission, dropping", "error", err)
		w.WriteHeader(http.StatusOK)

		return
	}

	// spec.md §7 input-shape error: missing webhookUrl or payload. Log and
	// drop without ever forwarding an unusable submission to the engine.
	if sub.WebhookURL == "" || len(sub.Payload.Results) == 0 {
		slog.WarnContext(r.Context(), "synchandler: dropping submission missing webhookUrl or payload")
		w.WriteHeader(http.StatusOK)

		return
	}

	queued, err := h.engine.Submit(r.Context(), sub)
	if err != nil {
		slog.ErrorContext(r.Context(), "synchandler: failed to queue submission after delivery failure", "error", err)
	}

	status := statusSyncSuccessful
	if queued {
		status = statusQueuedForSync
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response{Status: status}); err != nil {
		slog.ErrorContext(r.Context(), "synchandler: failed to encode response", "error", err)
	}
}
