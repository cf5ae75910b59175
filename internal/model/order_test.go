package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrderTransitionTable(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderDraft, OrderConfirmed, true},
		{OrderDraft, OrderShipped, false},
		{OrderDraft, OrderCancelled, true},
		{OrderConfirmed, OrderReady, true},
		{OrderConfirmed, OrderCancelled, true},
		{OrderReady, OrderShipped, true},
		{OrderReady, OrderCancelled, true},
		{OrderShipped, OrderCancelled, false},
		{OrderShipped, OrderDelivered, true},
		{OrderDelivered, OrderInvoiced, true},
		{OrderCancelled, OrderDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestOrderTransitionRejectsInvalidJump(t *testing.T) {
	o := &Order{Status: OrderDraft, Lines: []OrderLine{{}}}
	err := o.TransitionTo(OrderShipped, time.Now())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if o.Status != OrderDraft {
		t.Fatalf("status must not change on rejected transition")
	}
}

func TestOrderConfirmNeedsLines(t *testing.T) {
	o := &Order{Status: OrderDraft}
	if err := o.TransitionTo(OrderConfirmed, time.Now()); !errors.Is(err, ErrNoLines) {
		t.Fatalf("expected ErrNoLines, got %v", err)
	}
}

func TestReplaceLinesRecomputesTotals(t *testing.T) {
	o := &Order{Status: OrderDraft}
	lines := []OrderLine{
		{LineAmounts: LineAmounts{Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(50), TaxRate: decimal.NewFromInt(20), LineTotal: decimal.NewFromInt(1)}},
		{LineAmounts: LineAmounts{Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(30), TaxRate: decimal.NewFromInt(20)}},
	}
	if err := o.ReplaceLines(lines); err != nil {
		t.Fatalf("replace lines: %v", err)
	}
	if !o.Subtotal.Equal(decimal.NewFromInt(650)) || !o.TaxTotal.Equal(decimal.NewFromInt(130)) || !o.Total.Equal(decimal.NewFromInt(780)) {
		t.Fatalf("unexpected totals %s/%s/%s", o.Subtotal, o.TaxTotal, o.Total)
	}
	if !o.Lines[0].LineTotal.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("client line total must be overwritten, got %s", o.Lines[0].LineTotal)
	}
	if o.Lines[1].Position != 2 {
		t.Fatalf("expected positions to be renumbered")
	}

	o.Status = OrderConfirmed
	if err := o.ReplaceLines(nil); !errors.Is(err, ErrOrderNotEditable) {
		t.Fatalf("expected ErrOrderNotEditable, got %v", err)
	}
}

func TestLineDiscount(t *testing.T) {
	l := LineAmounts{
		Quantity:        decimal.NewFromInt(3),
		UnitPrice:       decimal.RequireFromString("19.99"),
		DiscountPercent: decimal.NewFromInt(10),
		TaxRate:         decimal.RequireFromString("5.5"),
	}
	l.Recompute()
	// 59.97 - 5.997 = 53.973 -> 53.97; tax 2.968 -> 2.97
	if !l.LineSubtotal.Equal(decimal.RequireFromString("53.97")) || !l.LineTax.Equal(decimal.RequireFromString("2.97")) {
		t.Fatalf("unexpected line %s + %s", l.LineSubtotal, l.LineTax)
	}
	if !l.LineTotal.Equal(decimal.RequireFromString("56.94")) {
		t.Fatalf("unexpected total %s", l.LineTotal)
	}
}
