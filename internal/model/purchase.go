package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseRequestStatus string

const (
	PurchaseRequestDraft     PurchaseRequestStatus = "draft"
	PurchaseRequestSubmitted PurchaseRequestStatus = "submitted"
	PurchaseRequestApproved  PurchaseRequestStatus = "approved"
	PurchaseRequestRejected  PurchaseRequestStatus = "rejected"
	PurchaseRequestConverted PurchaseRequestStatus = "converted"
)

var purchaseRequestTransitions = map[PurchaseRequestStatus][]PurchaseRequestStatus{
	PurchaseRequestDraft:     {PurchaseRequestSubmitted},
	PurchaseRequestSubmitted: {PurchaseRequestApproved, PurchaseRequestRejected},
	PurchaseRequestApproved:  {PurchaseRequestConverted},
}

type PurchaseRequest struct {
	BaseModel
	Number          string                `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	RequestedBy     string                `gorm:"type:varchar(64)" json:"requested_by"`
	Status          PurchaseRequestStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Reason          string                `gorm:"type:text" json:"reason,omitempty"`
	DecisionNote    string                `gorm:"type:text" json:"decision_note,omitempty"`
	Lines           []PurchaseRequestLine `json:"lines,omitempty"`
	PurchaseOrderID *uuid.UUID            `gorm:"type:uuid" json:"purchase_order_id,omitempty"`
}

func (r *PurchaseRequest) TransitionTo(target PurchaseRequestStatus) error {
	for _, allowed := range purchaseRequestTransitions[r.Status] {
		if allowed == target {
			r.Status = target
			return nil
		}
	}
	return ErrInvalidTransition.WithParams(map[string]any{"From": string(r.Status), "To": string(target)})
}

type PurchaseRequestLine struct {
	BaseModel
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_request_id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Notes             string          `gorm:"type:varchar(255)" json:"notes,omitempty"`
}

type PurchaseOrderStatus string

const (
	PurchaseOrderDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderSent              PurchaseOrderStatus = "sent"
	PurchaseOrderConfirmed         PurchaseOrderStatus = "confirmed"
	PurchaseOrderPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderReceived          PurchaseOrderStatus = "received"
	PurchaseOrderCancelled         PurchaseOrderStatus = "cancelled"
)

var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderDraft:             {PurchaseOrderSent, PurchaseOrderConfirmed, PurchaseOrderCancelled},
	PurchaseOrderSent:              {PurchaseOrderConfirmed, PurchaseOrderCancelled},
	PurchaseOrderConfirmed:         {PurchaseOrderPartiallyReceived, PurchaseOrderReceived, PurchaseOrderCancelled},
	PurchaseOrderPartiallyReceived: {PurchaseOrderPartiallyReceived, PurchaseOrderReceived},
}

func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, allowed := range purchaseOrderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderConfirmed || s == PurchaseOrderPartiallyReceived
}

type PurchaseOrder struct {
	BaseModel
	Number            string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	SupplierID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier          *Supplier           `json:"supplier,omitempty"`
	Status            PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ExpectedDate      *time.Time          `gorm:"type:date" json:"expected_date,omitempty"`
	PurchaseRequestID *uuid.UUID          `gorm:"type:uuid" json:"purchase_request_id,omitempty"`
	Notes             string              `gorm:"type:text" json:"notes,omitempty"`
	Totals
	Lines []PurchaseOrderLine `json:"lines,omitempty"`
}

func (po *PurchaseOrder) TransitionTo(target PurchaseOrderStatus) error {
	if !po.Status.CanTransitionTo(target) {
		return ErrInvalidTransition.WithParams(map[string]any{"From": string(po.Status), "To": string(target)})
	}
	if target == PurchaseOrderConfirmed && len(po.Lines) == 0 {
		return ErrNoLines
	}
	po.Status = target
	return nil
}

func (po *PurchaseOrder) ReplaceLines(lines []PurchaseOrderLine) error {
	if po.Status != PurchaseOrderDraft {
		return ErrOrderNotEditable
	}
	amounts := make([]LineAmounts, len(lines))
	for i := range lines {
		lines[i].PurchaseOrderID = po.ID
		lines[i].Position = i + 1
		lines[i].Recompute()
		amounts[i] = lines[i].LineAmounts
	}
	po.Lines = lines
	po.Totals = SumLines(amounts)
	return nil
}

// HasReceipts reports whether any line has received goods.
func (po *PurchaseOrder) HasReceipts() bool {
	for _, l := range po.Lines {
		if l.ReceivedQuantity.IsPositive() {
			return true
		}
	}
	return false
}

// FullyReceived reports whether every line has been received in full.
func (po *PurchaseOrder) FullyReceived() bool {
	for _, l := range po.Lines {
		if l.Remaining().IsPositive() {
			return false
		}
	}
	return true
}

type PurchaseOrderLine struct {
	BaseModel
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	Position         int             `gorm:"not null" json:"position"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Description      string          `gorm:"type:varchar(255)" json:"description"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"received_quantity"`
	LineAmounts
}

func (l *PurchaseOrderLine) Remaining() decimal.Decimal {
	r := l.Quantity.Sub(l.ReceivedQuantity)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func (l *PurchaseOrderLine) AddReceived(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if qty.GreaterThan(l.Remaining()) {
		return ErrOverReceipt
	}
	l.ReceivedQuantity = l.ReceivedQuantity.Add(qty)
	return nil
}

type PurchaseReceipt struct {
	BaseModel
	Number          string                `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	PurchaseOrderID uuid.UUID             `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	LocationID      uuid.UUID             `gorm:"type:uuid;not null" json:"location_id"`
	ReceivedAt      time.Time             `gorm:"not null" json:"received_at"`
	Notes           string                `gorm:"type:text" json:"notes,omitempty"`
	Lines           []PurchaseReceiptLine `json:"lines,omitempty"`
}

// Value is the receipt valued at the purchase order unit prices.
func (r *PurchaseReceipt) Value() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.Quantity.Mul(l.UnitCost))
	}
	return Round2(total)
}

type PurchaseReceiptLine struct {
	BaseModel
	PurchaseReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_receipt_id"`
	PurchaseOrderLineID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_line_id"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitCost            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
}

type SupplierInvoiceStatus string

const (
	SupplierInvoiceDraft     SupplierInvoiceStatus = "draft"
	SupplierInvoiceApproved  SupplierInvoiceStatus = "approved"
	SupplierInvoicePaid      SupplierInvoiceStatus = "paid"
	SupplierInvoiceCancelled SupplierInvoiceStatus = "cancelled"
)

type MatchingStatus string

const (
	MatchingUnmatched  MatchingStatus = "unmatched"
	MatchingMatched    MatchingStatus = "matched"
	MatchingMismatched MatchingStatus = "mismatched"
	MatchingPartial    MatchingStatus = "partial"
)

type SupplierInvoice struct {
	BaseModel
	Number            string                `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	SupplierReference string                `gorm:"type:varchar(60)" json:"supplier_reference"`
	SupplierID        uuid.UUID             `gorm:"type:uuid;not null;index" json:"supplier_id"`
	PurchaseOrderID   uuid.UUID             `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	PurchaseReceiptID *uuid.UUID            `gorm:"type:uuid" json:"purchase_receipt_id,omitempty"`
	InvoiceDate       time.Time             `gorm:"type:date;not null" json:"invoice_date"`
	DueDate           time.Time             `gorm:"type:date;not null" json:"due_date"`
	Status            SupplierInvoiceStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	MatchingStatus    MatchingStatus        `gorm:"type:varchar(20);not null;default:'unmatched'" json:"matching_status"`
	MatchedBy         string                `gorm:"type:varchar(64)" json:"matched_by,omitempty"`
	MatchedAt         *time.Time            `json:"matched_at,omitempty"`
	MatchingNotes     string                `gorm:"type:text" json:"matching_notes,omitempty"`
	Totals
}

// Approve requires a successful three-way match.
func (si *SupplierInvoice) Approve() error {
	if si.Status != SupplierInvoiceDraft {
		return ErrInvalidTransition.WithParams(map[string]any{"From": string(si.Status), "To": string(SupplierInvoiceApproved)})
	}
	if si.MatchingStatus != MatchingMatched {
		return ErrInvoiceNotMatched
	}
	si.Status = SupplierInvoiceApproved
	return nil
}
