package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds money to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineAmounts is embedded by every document line. The computed columns are
// always rebuilt by Recompute, never taken from client input.
type LineAmounts struct {
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	LineSubtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"line_subtotal"`
	LineTax         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"line_tax"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"line_total"`
}

// Recompute derives subtotal (after discount), tax and total from quantity, price, discount and rate.
func (l *LineAmounts) Recompute() {
	gross := l.Quantity.Mul(l.UnitPrice)
	net := gross.Sub(gross.Mul(l.DiscountPercent).Div(hundred))
	l.LineSubtotal = Round2(net)
	l.LineTax = Round2(l.LineSubtotal.Mul(l.TaxRate).Div(hundred))
	l.LineTotal = l.LineSubtotal.Add(l.LineTax)
}

// Totals is embedded by documents that carry lines.
type Totals struct {
	Subtotal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	TaxTotal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_total"`
	Total    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total"`
}

// SumLines rebuilds totals from already recomputed lines.
func SumLines(lines []LineAmounts) Totals {
	t := Totals{Subtotal: decimal.Zero, TaxTotal: decimal.Zero, Total: decimal.Zero}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.LineSubtotal)
		t.TaxTotal = t.TaxTotal.Add(l.LineTax)
	}
	t.Total = t.Subtotal.Add(t.TaxTotal)
	return t
}
