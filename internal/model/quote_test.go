package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestQuoteLifecycle(t *testing.T) {
	q := &Quote{Status: QuoteDraft, Version: 1, Lines: []QuoteLine{{}}}
	now := time.Now()

	if err := q.Accept(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("draft quote must not be accepted directly, got %v", err)
	}
	if err := q.Send(now); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := q.Accept(now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := q.MarkConverted(uuid.New()); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !q.Status.IsTerminal() {
		t.Fatalf("converted quote should be terminal")
	}
	if err := q.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal quote must not cancel, got %v", err)
	}
}

func TestOnlyAcceptedQuotesConvert(t *testing.T) {
	for _, status := range []QuoteStatus{QuoteDraft, QuoteSent, QuoteRejected, QuoteCancelled} {
		q := &Quote{Status: status}
		if err := q.MarkConverted(uuid.New()); !errors.Is(err, ErrQuoteNotAccepted) {
			t.Errorf("%s: expected ErrQuoteNotAccepted, got %v", status, err)
		}
	}
}

func TestQuoteRevision(t *testing.T) {
	q := &Quote{Status: QuoteDraft, Version: 1}
	revised, err := q.BeginRevision()
	if err != nil || revised {
		t.Fatalf("draft edit should not revise: %v %v", revised, err)
	}

	q.Status = QuoteSent
	revised, err = q.BeginRevision()
	if err != nil || !revised {
		t.Fatalf("sent edit should revise: %v %v", revised, err)
	}
	if q.Version != 2 || q.Status != QuoteDraft {
		t.Fatalf("expected version 2 draft, got %d %s", q.Version, q.Status)
	}

	q.Status = QuoteAccepted
	if _, err := q.BeginRevision(); !errors.Is(err, ErrQuoteNotEditable) {
		t.Fatalf("expected ErrQuoteNotEditable, got %v", err)
	}
}
