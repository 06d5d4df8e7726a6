// Package page implements the foreground side of the worker handshake: a
// ready promise that resolves exactly once on PONG, and a buffer that
// holds any message sent before ready so nothing posted during a worker
// version change is lost.
package page

import (
	"context"
	"log/slog"
	"sync"

	"github.com/salestracker/shodhan/pkg/bus"
)

// pending is a message captured before ready resolved, replayed in order
// once it does.
type pending func(ctx context.Context) error

// Handshake drives the page side of the PING/PONG/CLIENT_READY protocol
// over a bus.Port connected to the worker side.
type Handshake struct {
	port *bus.Port

	mu      sync.Mutex
	ready   bool
	readyCh chan struct{}
	once    sync.Once
	buffer  []pending
}

// NewHandshake registers the PONG handler on port's Router and returns a
// Handshake ready to drive pings across it. Call this before Connect-ing
// the port to its peer so no PONG can race past an unregistered route.
func NewHandshake(port *bus.Port) *Handshake {
	h := &Handshake{port: port, readyCh: make(chan struct{})}

	bus.Register(port.Router(), func(ctx context.Context, _ bus.Pong) error {
		h.resolveReady(ctx)

		return nil
	})

	return h
}

// SendPing posts {type: PING} to the current controller. Call on first
// controller availability and on every controllerchange-equivalent event.
func (h *Handshake) SendPing(ctx context.Context) error {
	return bus.Post(ctx, h.port, bus.Ping{})
}

// resolveReady resolves ready exactly once, posts CLIENT_READY, then
// flushes anything buffered while the handshake was still pending.
func (h *Handshake) resolveReady(ctx context.Context) {
	h.once.Do(func() {
		h.mu.Lock()
		h.ready = true
		buffered := h.buffer
		h.buffer = nil
		h.mu.Unlock()

		close(h.readyCh)

		if err := bus.Post(ctx, h.port, bus.ClientReady{}); err != nil {
			slog.ErrorContext(ctx, "page: failed to post CLIENT_READY", "error", err)
		}

		for _, p := range buffered {
			if err := p(ctx); err != nil {
				slog.ErrorContext(ctx, "page: failed to replay buffered message", "error", err)
			}
		}
	})
}

// Ready returns a channel closed once ready has resolved. Application code
// that needs the worker should select on it (or call Wait) before sending.
func (h *Handshake) Ready() <-chan struct{} {
	return h.readyCh
}

// Wait blocks until ready resolves or ctx is done.
func (h *Handshake) Wait(ctx context.Context) error {
	select {
	case <-h.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send posts event to the worker once ready, buffering it in arrival order
// if ready has not yet resolved.
func Send[T bus.Event](ctx context.Context, h *Handshake, event T) error {
	h.mu.Lock()
	if !h.ready {
		h.buffer = append(h.buffer, func(ctx context.Context) error {
			return bus.Post(ctx, h.port, event)
		})
		h.mu.Unlock()

		return nil
	}
	h.mu.Unlock()

	return bus.Post(ctx, h.port, event)
}
