package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceIssued        InvoiceStatus = "issued"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

type Invoice struct {
	BaseModel
	Number     string        `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	CustomerID uuid.UUID     `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer     `json:"customer,omitempty"`
	OrderID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"order_id"`
	Status     InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	IssueDate  time.Time     `gorm:"type:date;not null;index" json:"issue_date"`
	DueDate    time.Time     `gorm:"type:date;not null;index" json:"due_date"`
	Totals
	AmountPaid decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_paid"`
	Lines      []InvoiceLine   `json:"lines,omitempty"`
}

func (inv *Invoice) Balance() decimal.Decimal {
	return inv.Total.Sub(inv.AmountPaid)
}

// Payable reports whether payments may still be allocated.
func (inv *Invoice) Payable() bool {
	return inv.Status == InvoiceIssued || inv.Status == InvoicePartiallyPaid
}

func (inv *Invoice) Issue() error {
	if inv.Status != InvoiceDraft {
		return ErrInvalidTransition.WithParams(map[string]any{"From": string(inv.Status), "To": string(InvoiceIssued)})
	}
	if len(inv.Lines) == 0 {
		return ErrNoLines
	}
	inv.Status = InvoiceIssued
	return nil
}

func (inv *Invoice) Cancel() error {
	if inv.AmountPaid.IsPositive() {
		return ErrInvoiceHasPayments
	}
	if inv.Status != InvoiceDraft && inv.Status != InvoiceIssued {
		return ErrInvalidTransition.WithParams(map[string]any{"From": string(inv.Status), "To": string(InvoiceCancelled)})
	}
	inv.Status = InvoiceCancelled
	return nil
}

// ApplyPayment allocates amount and moves the status with the balance.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidQuantity
	}
	if !inv.Payable() {
		return ErrInvalidTransition.WithParams(map[string]any{"From": string(inv.Status), "To": string(InvoicePaid)})
	}
	if amount.GreaterThan(inv.Balance()) {
		return ErrPaymentExceeds
	}
	inv.AmountPaid = inv.AmountPaid.Add(amount)
	if inv.Balance().IsZero() {
		inv.Status = InvoicePaid
	} else {
		inv.Status = InvoicePartiallyPaid
	}
	return nil
}

// DaysOverdue is 0 when not yet due.
func (inv *Invoice) DaysOverdue(today time.Time) int {
	due := time.Date(inv.DueDate.Year(), inv.DueDate.Month(), inv.DueDate.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !day.After(due) {
		return 0
	}
	return int(day.Sub(due).Hours() / 24)
}

func (inv *Invoice) ReplaceLines(lines []InvoiceLine) {
	amounts := make([]LineAmounts, len(lines))
	for i := range lines {
		lines[i].InvoiceID = inv.ID
		lines[i].Recompute()
		amounts[i] = lines[i].LineAmounts
	}
	inv.Lines = lines
	inv.Totals = SumLines(amounts)
}

type InvoiceLine struct {
	BaseModel
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	OrderLineID uuid.UUID `gorm:"type:uuid;not null" json:"order_line_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	LineAmounts
}

type Payment struct {
	BaseModel
	Number      string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	CustomerID  uuid.UUID           `gorm:"type:uuid;not null;index" json:"customer_id"`
	Amount      decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method      string              `gorm:"type:varchar(20);not null" json:"method"`
	PaidAt      time.Time           `gorm:"not null;index" json:"paid_at"`
	Reference   string              `gorm:"type:varchar(100)" json:"reference,omitempty"`
	Allocations []PaymentAllocation `json:"allocations,omitempty"`
}

type PaymentAllocation struct {
	BaseModel
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
}
