package bus

import (
	"context"
	"sync"
)

// Port is one end of an in-process message channel, modeling the
// page/worker MessagePort pair without any browser runtime underneath it.
// Posting on one Port dispatches synchronously into its peer's Router.
type Port struct {
	mu     sync.RWMutex
	peer   *Port
	router *Router
}

// NewPort creates an unconnected Port with an empty Router. Register
// handlers on Router() before Connect so no message can race past an
// empty route table.
func NewPort() *Port {
	return &Port{router: NewRouter()}
}

// Router returns this Port's inbound dispatcher.
func (p *Port) Router() *Router {
	return p.router
}

// Connect pairs two ports bidirectionally.
func Connect(a, b *Port) {
	a.mu.Lock()
	a.peer = b
	a.mu.Unlock()

	b.mu.Lock()
	b.peer = a
	b.mu.Unlock()
}

// Post marshals event and dispatches it into the peer's Router.
func Post[T Event](ctx context.Context, p *Port, event T) error {
	data, err := New(event)
	if err != nil {
		return err
	}

	p.mu.RLock()
	peer := p.peer
	p.mu.RUnlock()

	if peer == nil {
		return ErrNoHandler
	}

	return peer.router.HandleMessage(ctx, data)
}
