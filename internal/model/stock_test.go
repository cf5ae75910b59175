package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestReserveNeverExceedsPhysical(t *testing.T) {
	item := &StockItem{PhysicalQuantity: d("10"), ReservedQuantity: d("4")}

	if err := item.Reserve(d("7")); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if !item.ReservedQuantity.Equal(d("4")) {
		t.Fatalf("failed reservation mutated state: %s", item.ReservedQuantity)
	}
	if err := item.Reserve(d("6")); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if item.ReservedQuantity.GreaterThan(item.PhysicalQuantity) {
		t.Fatalf("reserved exceeds physical")
	}
	if !item.Available().IsZero() {
		t.Fatalf("expected nothing available, got %s", item.Available())
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	item := &StockItem{PhysicalQuantity: d("5"), ReservedQuantity: d("2")}
	released := item.Release(d("3"))
	if !released.Equal(d("2")) || !item.ReservedQuantity.IsZero() {
		t.Fatalf("expected release of 2 to zero, got %s / %s", released, item.ReservedQuantity)
	}
}

func TestAdjustCannotGoBelowReserved(t *testing.T) {
	item := &StockItem{PhysicalQuantity: d("10"), ReservedQuantity: d("6")}
	if _, err := item.Adjust(d("5")); !errors.Is(err, ErrBelowReserved) {
		t.Fatalf("expected ErrBelowReserved, got %v", err)
	}
	delta, err := item.Adjust(d("8"))
	if err != nil || !delta.Equal(d("-2")) {
		t.Fatalf("expected delta -2, got %s (%v)", delta, err)
	}
}

func TestConsumeShipsReservedStock(t *testing.T) {
	item := &StockItem{PhysicalQuantity: d("10"), ReservedQuantity: d("4")}
	if err := item.Consume(d("4")); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !item.PhysicalQuantity.Equal(d("6")) || !item.ReservedQuantity.IsZero() {
		t.Fatalf("unexpected quantities %s / %s", item.PhysicalQuantity, item.ReservedQuantity)
	}
	if err := item.Consume(d("1")); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("consuming unreserved stock must fail, got %v", err)
	}
}

func TestAlertLevel(t *testing.T) {
	cases := []struct {
		name string
		item StockItem
		want AlertLevel
	}{
		{"out", StockItem{PhysicalQuantity: d("3"), ReservedQuantity: d("3")}, AlertOutOfStock},
		{"below min", StockItem{PhysicalQuantity: d("4"), MinQuantity: d("5")}, AlertLowStock},
		{"reorder point", StockItem{PhysicalQuantity: d("10"), ReorderPoint: d("10")}, AlertLowStock},
		{"over", StockItem{PhysicalQuantity: d("120"), MaxQuantity: d("100")}, AlertOverstock},
		{"fine", StockItem{PhysicalQuantity: d("50"), MinQuantity: d("5"), MaxQuantity: d("100"), ReorderPoint: d("10")}, AlertNone},
	}
	for _, tc := range cases {
		if got := tc.item.AlertLevel(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
