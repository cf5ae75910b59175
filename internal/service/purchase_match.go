package service

import (
	"fmt"
	"strings"

	"erp-backend/internal/model"

	"github.com/shopspring/decimal"
)

// MatchTolerance is the largest amount difference still treated as equal.
var MatchTolerance = decimal.RequireFromString("0.01")

// MatchResult is the outcome of comparing a supplier invoice with its
// purchase order and, when given, the goods receipt.
type MatchResult struct {
	Status        model.MatchingStatus `json:"status"`
	Notes         []string             `json:"notes"`
	OrderValue    decimal.Decimal      `json:"order_value"`
	ReceivedValue *decimal.Decimal     `json:"received_value,omitempty"`
}

func within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MatchTolerance)
}

// ThreeWayMatch compares the invoice subtotal with the order subtotal and
// with the received value. It reports partial when the invoice bills exactly
// what a receipt covering less than the order brought in.
func ThreeWayMatch(invoiced decimal.Decimal, po *model.PurchaseOrder, receipt *model.PurchaseReceipt) MatchResult {
	res := MatchResult{OrderValue: po.Subtotal, Notes: []string{}}
	orderOK := within(invoiced, po.Subtotal)
	if !orderOK {
		res.Notes = append(res.Notes, fmt.Sprintf("invoice subtotal %s differs from purchase order %s subtotal %s by %s",
			money(invoiced), po.Number, money(po.Subtotal), money(invoiced.Sub(po.Subtotal))))
	}
	if receipt == nil {
		res.Status = model.MatchingMismatched
		if orderOK {
			res.Status = model.MatchingMatched
		}
		return res
	}

	received := receipt.Value()
	res.ReceivedValue = &received
	receiptOK := within(invoiced, received)
	if !receiptOK {
		res.Notes = append(res.Notes, fmt.Sprintf("invoice subtotal %s differs from receipt %s value %s by %s",
			money(invoiced), receipt.Number, money(received), money(invoiced.Sub(received))))
	}
	switch {
	case orderOK && receiptOK:
		res.Status = model.MatchingMatched
	case receiptOK && received.LessThan(po.Subtotal.Sub(MatchTolerance)):
		res.Status = model.MatchingPartial
		res.Notes = append(res.Notes, fmt.Sprintf("receipt %s covers %s of %s ordered", receipt.Number, money(received), money(po.Subtotal)))
	default:
		res.Status = model.MatchingMismatched
	}
	return res
}

func (r MatchResult) notes() string {
	return strings.Join(r.Notes, "\n")
}
