package mediator

import (
	"context"
	"errors"
	"testing"
)

type pingCommand struct{ N int }
type pongQuery struct{ Name string }

func TestDispatchRoutesByExactType(t *testing.T) {
	m := New()
	calls := 0
	err := RegisterCommand[pingCommand, int](m, HandlerFunc[pingCommand, int](func(_ context.Context, c pingCommand) (int, error) {
		calls++
		return c.N * 2, nil
	}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterQuery[pongQuery, string](m, HandlerFunc[pongQuery, string](func(_ context.Context, q pongQuery) (string, error) {
		return "hello " + q.Name, nil
	})); err != nil {
		t.Fatalf("register query: %v", err)
	}

	got, err := Send[int](context.Background(), m, pingCommand{N: 21})
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %d (%v)", got, err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one synchronous call, got %d", calls)
	}

	s, err := Send[string](context.Background(), m, pongQuery{Name: "erp"})
	if err != nil || s != "hello erp" {
		t.Fatalf("unexpected query result %q (%v)", s, err)
	}

	// A pointer is a different type and has no handler.
	if _, err := m.Dispatch(context.Background(), &pingCommand{N: 1}); !errors.Is(err, ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler for pointer type, got %v", err)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	m := New()
	h := HandlerFunc[pingCommand, int](func(context.Context, pingCommand) (int, error) { return 0, nil })
	if err := RegisterCommand[pingCommand, int](m, h); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := RegisterQuery[pingCommand, int](m, h); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestHandlerErrorReturnedUnchanged(t *testing.T) {
	m := New()
	boom := errors.New("boom")
	_ = RegisterCommand[pingCommand, int](m, HandlerFunc[pingCommand, int](func(context.Context, pingCommand) (int, error) {
		return 0, boom
	}))
	if _, err := m.Dispatch(context.Background(), pingCommand{}); err != boom {
		t.Fatalf("expected handler error unchanged, got %v", err)
	}
	if m.Registered(pongQuery{}) {
		t.Fatalf("pongQuery should not be registered")
	}
}
