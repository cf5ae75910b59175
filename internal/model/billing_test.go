package model

import (
	"errors"
	"testing"
	"time"
)

func TestInvoicePayments(t *testing.T) {
	inv := &Invoice{Status: InvoiceDraft, Lines: []InvoiceLine{{}}}
	inv.Total = d("100")
	inv.AmountPaid = d("0")

	if err := inv.ApplyPayment(d("10")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("draft invoice must not take payments, got %v", err)
	}
	if err := inv.Issue(); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := inv.ApplyPayment(d("40")); err != nil || inv.Status != InvoicePartiallyPaid {
		t.Fatalf("expected partially paid, got %s (%v)", inv.Status, err)
	}
	if err := inv.ApplyPayment(d("61")); !errors.Is(err, ErrPaymentExceeds) {
		t.Fatalf("expected ErrPaymentExceeds, got %v", err)
	}
	if err := inv.ApplyPayment(d("60")); err != nil || inv.Status != InvoicePaid {
		t.Fatalf("expected paid, got %s (%v)", inv.Status, err)
	}
	if err := inv.Cancel(); !errors.Is(err, ErrInvoiceHasPayments) {
		t.Fatalf("expected ErrInvoiceHasPayments, got %v", err)
	}
}

func TestDaysOverdue(t *testing.T) {
	inv := &Invoice{DueDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)}
	if n := inv.DaysOverdue(time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)); n != 0 {
		t.Fatalf("due today is not overdue, got %d", n)
	}
	if n := inv.DaysOverdue(time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)); n != 30 {
		t.Fatalf("expected 30 days overdue, got %d", n)
	}
}
