package service

import (
	"testing"

	"erp-backend/internal/model"

	"github.com/shopspring/decimal"
)

func TestThreeWayMatch(t *testing.T) {
	po := &model.PurchaseOrder{Number: "PO-1", Totals: model.Totals{Subtotal: dec("650")}}
	full := &model.PurchaseReceipt{Number: "GR-1", Lines: []model.PurchaseReceiptLine{
		{Quantity: dec("10"), UnitCost: dec("50")},
		{Quantity: dec("5"), UnitCost: dec("30")},
	}}
	part := &model.PurchaseReceipt{Number: "GR-2", Lines: []model.PurchaseReceiptLine{
		{Quantity: dec("10"), UnitCost: dec("50")},
	}}

	cases := []struct {
		name     string
		invoiced decimal.Decimal
		receipt  *model.PurchaseReceipt
		want     model.MatchingStatus
	}{
		{"order only", dec("650"), nil, model.MatchingMatched},
		{"within tolerance", dec("650.01"), nil, model.MatchingMatched},
		{"order only off", dec("700"), nil, model.MatchingMismatched},
		{"full receipt", dec("650"), full, model.MatchingMatched},
		{"partial receipt", dec("500"), part, model.MatchingPartial},
		{"billed more than received", dec("650"), part, model.MatchingMismatched},
		{"off both", dec("123"), full, model.MatchingMismatched},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ThreeWayMatch(tc.invoiced, po, tc.receipt)
			if res.Status != tc.want {
				t.Fatalf("expected %s, got %s (%v)", tc.want, res.Status, res.Notes)
			}
			if tc.want == model.MatchingMatched && len(res.Notes) != 0 {
				t.Fatalf("matched invoice should carry no notes, got %v", res.Notes)
			}
			if tc.want == model.MatchingMismatched && len(res.Notes) == 0 {
				t.Fatalf("mismatch should explain itself")
			}
		})
	}
}
