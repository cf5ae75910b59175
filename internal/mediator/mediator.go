// Package mediator routes commands and queries to the single handler registered
// for their exact Go type. Dispatch is a plain synchronous call: no retries,
// no queueing and no cross-cutting behaviour.
package mediator

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"erp-backend/internal/apperr"
)

var ErrNoHandler = apperr.Internal("no_handler", "no handler registered for request")

// Handler handles one request type.
type Handler[Req any, Res any] interface {
	Handle(ctx context.Context, req Req) (Res, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[Req any, Res any] func(ctx context.Context, req Req) (Res, error)

func (f HandlerFunc[Req, Res]) Handle(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}

type erasedHandler func(ctx context.Context, req any) (any, error)

// Mediator is built once at startup and passed to whoever dispatches.
type Mediator struct {
	mu       sync.RWMutex
	commands map[reflect.Type]erasedHandler
	queries  map[reflect.Type]erasedHandler
}

func New() *Mediator {
	return &Mediator{
		commands: make(map[reflect.Type]erasedHandler),
		queries:  make(map[reflect.Type]erasedHandler),
	}
}

// RegisterCommand binds h to the command type Req.
func RegisterCommand[Req any, Res any](m *Mediator, h Handler[Req, Res]) error {
	return m.register(m.commands, reflect.TypeOf((*Req)(nil)).Elem(), erase(h))
}

// RegisterQuery binds h to the query type Req.
func RegisterQuery[Req any, Res any](m *Mediator, h Handler[Req, Res]) error {
	return m.register(m.queries, reflect.TypeOf((*Req)(nil)).Elem(), erase(h))
}

func erase[Req any, Res any](h Handler[Req, Res]) erasedHandler {
	return func(ctx context.Context, req any) (any, error) {
		return h.Handle(ctx, req.(Req))
	}
}

func (m *Mediator) register(table map[reflect.Type]erasedHandler, t reflect.Type, h erasedHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.commands[t]; exists {
		return fmt.Errorf("mediator: %s already registered", t)
	}
	if _, exists := m.queries[t]; exists {
		return fmt.Errorf("mediator: %s already registered", t)
	}
	table[t] = h
	return nil
}

// Dispatch looks up the handler for req's exact type and calls it.
func (m *Mediator) Dispatch(ctx context.Context, req any) (any, error) {
	if req == nil {
		return nil, ErrNoHandler
	}
	t := reflect.TypeOf(req)

	m.mu.RLock()
	h, ok := m.commands[t]
	if !ok {
		h, ok = m.queries[t]
	}
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNoHandler.WithParams(map[string]any{"Type": t.String()})
	}
	return h(ctx, req)
}

// Send dispatches req and asserts the result type.
func Send[Res any](ctx context.Context, m *Mediator, req any) (Res, error) {
	var zero Res
	out, err := m.Dispatch(ctx, req)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	res, ok := out.(Res)
	if !ok {
		return zero, fmt.Errorf("mediator: handler for %T returned %T", req, out)
	}
	return res, nil
}

// Registered reports whether a handler exists for the type of req.
func (m *Mediator) Registered(req any) bool {
	t := reflect.TypeOf(req)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, c := m.commands[t]
	_, q := m.queries[t]
	return c || q
}
