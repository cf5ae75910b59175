package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWalksWrappedChain(t *testing.T) {
	base := Rule("insufficient_stock", "insufficient stock")
	wrapped := fmt.Errorf("confirm order: %w", base.WithParams(map[string]any{"Line": 2}))

	if KindOf(wrapped) != KindBusinessRule {
		t.Fatalf("expected business rule kind, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("expected errors.Is to match sentinel through WithParams copy")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("untyped errors must be internal")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindBusinessRule: http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Errorf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("db_error", "database error").Wrap(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if err.Error() != "database error: db down" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
