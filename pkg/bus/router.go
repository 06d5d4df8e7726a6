package bus

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler processes one strongly-typed event delivered by the Router.
type Handler[T Event] func(ctx context.Context, event T) error

// Router dispatches an incoming envelope to the one handler registered for
// its (kind, apiVersion) pair.
type Router struct {
	routes []route
}

// NewRouter creates an empty message router.
func NewRouter() *Router {
	return &Router{}
}

type route interface {
	matches(kind, version string) bool
	dispatch(ctx context.Context, data json.RawMessage) error
}

// Register adds handler for T's Kind/APIVersion. It panics on a duplicate
// registration, since a silent overwrite would hide a wiring bug.
func Register[T Event](r *Router, handler Handler[T]) {
	var zero T
	kind, version := zero.Kind(), zero.APIVersion()

	for _, existing := range r.routes {
		if existing.matches(kind, version) {
			panic(fmt.Sprintf("bus: duplicate handler for kind=%q version=%q", kind, version))
		}
	}

	r.routes = append(r.routes, &typedRoute[T]{kind: kind, version: version, handler: handler})
}

// HandleMessage parses an enveloped message and dispatches it.
func (r *Router) HandleMessage(ctx context.Context, data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	for _, rt := range r.routes {
		if rt.matches(env.Kind, env.APIVersion) {
			return rt.dispatch(ctx, env.Data)
		}
	}

	return fmt.Errorf("%w: kind=%q version=%q", ErrNoHandler, env.Kind, env.APIVersion)
}

type typedRoute[T Event] struct {
	kind    string
	version string
	handler Handler[T]
}

func (tr *typedRoute[T]) matches(kind, version string) bool {
	return tr.kind == kind && tr.version == version
}

func (tr *typedRoute[T]) dispatch(ctx context.Context, data json.RawMessage) error {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: parsing %T: %w", ErrSchemaValidation, payload, err)
	}

	return tr.handler(ctx, payload)
}
