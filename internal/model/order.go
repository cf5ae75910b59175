package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderConfirmed OrderStatus = "confirmed"
	OrderReady     OrderStatus = "ready"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderInvoiced  OrderStatus = "invoiced"
	OrderCancelled OrderStatus = "cancelled"
)

// orderTransitions is the allowed-transition table; anything absent is rejected.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderDraft:     {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderReady, OrderCancelled},
	OrderReady:     {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: {OrderInvoiced},
	OrderInvoiced:  {OrderDelivered}, // invoice cancelled
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// HoldsReservations reports whether lines of an order in this status own stock reservations.
func (s OrderStatus) HoldsReservations() bool {
	return s == OrderConfirmed || s == OrderReady
}

type Order struct {
	BaseModel
	Number     string      `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	CustomerID uuid.UUID   `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer   `json:"customer,omitempty"`
	QuoteID    *uuid.UUID  `gorm:"type:uuid;index" json:"quote_id,omitempty"`
	LocationID uuid.UUID   `gorm:"type:uuid;not null" json:"location_id"`
	Status     OrderStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes      string      `gorm:"type:text" json:"notes,omitempty"`
	Totals
	Lines       []OrderLine `json:"lines,omitempty"`
	ConfirmedAt *time.Time  `json:"confirmed_at,omitempty"`
	ShippedAt   *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
}

// TransitionTo validates target against the transition table and stamps the matching timestamp.
func (o *Order) TransitionTo(target OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(target) {
		return ErrInvalidTransition.WithParams(map[string]any{"From": string(o.Status), "To": string(target)})
	}
	if target == OrderConfirmed && len(o.Lines) == 0 {
		return ErrNoLines
	}
	o.Status = target
	switch target {
	case OrderConfirmed:
		o.ConfirmedAt = &now
	case OrderShipped:
		o.ShippedAt = &now
	case OrderDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case OrderCancelled:
		o.CancelledAt = &now
	}
	return nil
}

func (o *Order) ReplaceLines(lines []OrderLine) error {
	if o.Status != OrderDraft {
		return ErrOrderNotEditable
	}
	amounts := make([]LineAmounts, len(lines))
	for i := range lines {
		lines[i].OrderID = o.ID
		lines[i].Position = i + 1
		lines[i].Recompute()
		amounts[i] = lines[i].LineAmounts
	}
	o.Lines = lines
	o.Totals = SumLines(amounts)
	return nil
}

type OrderLine struct {
	BaseModel
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Position          int             `gorm:"not null" json:"position"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	VariantID         uuid.UUID       `gorm:"type:uuid;not null" json:"variant_id"`
	Description       string          `gorm:"type:varchar(255)" json:"description"`
	PriceSource       string          `gorm:"type:varchar(30)" json:"price_source,omitempty"`
	ReservedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reserved_quantity"`
	DeliveredQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"delivered_quantity"`
	InvoicedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"invoiced_quantity"`
	LineAmounts
}

// Invoiceable is what has been delivered but not yet invoiced.
func (l *OrderLine) Invoiceable() decimal.Decimal {
	q := l.DeliveredQuantity.Sub(l.InvoicedQuantity)
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}
