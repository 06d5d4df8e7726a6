// Package bus models the page/worker message channel as a typed,
// in-process envelope-and-router pair. It replaces literal
// postMessage/MessagePort semantics with the same Kind/APIVersion envelope
// pattern the teacher uses for its Pub/Sub events, since both problems are
// "route an opaque wire message to the one handler that understands it."
package bus

import (
	"encoding/json"
	"fmt"
)

// Event is implemented by every message that can cross the bus.
type Event interface {
	Kind() string
	APIVersion() string
}

// envelope is the wire shape every event is wrapped in before crossing the
// bus, mirroring lib/event's Kind/APIVersion/Data envelope.
type envelope struct {
	Kind       string          `json:"kind"`
	APIVersion string          `json:"apiVersion"`
	Data       json.RawMessage `json:"data"`
}

// New wraps payload in its envelope and marshals it to bytes.
func New[T Event](payload T) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bus: failed to marshal payload: %w", err)
	}

	return json.Marshal(envelope{
		Kind:       payload.Kind(),
		APIVersion: payload.APIVersion(),
		Data:       data,
	})
}
