package model

import (
	"time"

	"github.com/google/uuid"
)

type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSent      QuoteStatus = "sent"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
	QuoteCancelled QuoteStatus = "cancelled"
	QuoteConverted QuoteStatus = "converted"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteDraft:    {QuoteSent, QuoteCancelled},
	QuoteSent:     {QuoteAccepted, QuoteRejected, QuoteCancelled},
	QuoteAccepted: {QuoteConverted, QuoteCancelled},
}

func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s QuoteStatus) IsTerminal() bool {
	return len(quoteTransitions[s]) == 0
}

type Quote struct {
	BaseModel
	Number     string      `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	CustomerID uuid.UUID   `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer   `json:"customer,omitempty"`
	Status     QuoteStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Version    int         `gorm:"not null;default:1" json:"version"`
	ValidUntil *time.Time  `gorm:"type:date" json:"valid_until,omitempty"`
	Notes      string      `gorm:"type:text" json:"notes,omitempty"`
	Totals
	Lines      []QuoteLine `json:"lines,omitempty"`
	OrderID    *uuid.UUID  `gorm:"type:uuid" json:"order_id,omitempty"`
	SentAt     *time.Time  `json:"sent_at,omitempty"`
	AcceptedAt *time.Time  `json:"accepted_at,omitempty"`
}

func (q *Quote) transition(target QuoteStatus) error {
	if !q.Status.CanTransitionTo(target) {
		return ErrInvalidTransition.WithParams(map[string]any{"From": string(q.Status), "To": string(target)})
	}
	q.Status = target
	return nil
}

func (q *Quote) Send(now time.Time) error {
	if len(q.Lines) == 0 {
		return ErrNoLines
	}
	if err := q.transition(QuoteSent); err != nil {
		return err
	}
	q.SentAt = &now
	return nil
}

func (q *Quote) Accept(now time.Time) error {
	if err := q.transition(QuoteAccepted); err != nil {
		return err
	}
	q.AcceptedAt = &now
	return nil
}

func (q *Quote) Reject() error { return q.transition(QuoteRejected) }

func (q *Quote) Cancel() error { return q.transition(QuoteCancelled) }

// MarkConverted consumes an accepted quote.
func (q *Quote) MarkConverted(orderID uuid.UUID) error {
	if q.Status != QuoteAccepted {
		return ErrQuoteNotAccepted
	}
	q.Status = QuoteConverted
	q.OrderID = &orderID
	return nil
}

// BeginRevision prepares the quote for a line edit. A sent quote goes back to
// draft under a new version number; the caller snapshots the previous state
// first when revised is true.
func (q *Quote) BeginRevision() (revised bool, err error) {
	switch q.Status {
	case QuoteDraft:
		return false, nil
	case QuoteSent:
		q.Version++
		q.Status = QuoteDraft
		q.SentAt = nil
		return true, nil
	}
	return false, ErrQuoteNotEditable.WithParams(map[string]any{"Status": string(q.Status)})
}

// ReplaceLines renumbers and recomputes lines, then rebuilds the totals.
func (q *Quote) ReplaceLines(lines []QuoteLine) {
	amounts := make([]LineAmounts, len(lines))
	for i := range lines {
		lines[i].QuoteID = q.ID
		lines[i].Position = i + 1
		lines[i].Recompute()
		amounts[i] = lines[i].LineAmounts
	}
	q.Lines = lines
	q.Totals = SumLines(amounts)
}

type QuoteLine struct {
	BaseModel
	QuoteID     uuid.UUID `gorm:"type:uuid;not null;index" json:"quote_id"`
	Position    int       `gorm:"not null" json:"position"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	VariantID   uuid.UUID `gorm:"type:uuid;not null" json:"variant_id"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	PriceSource string    `gorm:"type:varchar(30)" json:"price_source,omitempty"`
	LineAmounts
}

// QuoteVersion is an immutable JSON snapshot of a quote taken before a revision.
type QuoteVersion struct {
	BaseModel
	QuoteID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quote_version" json:"quote_id"`
	Version  int       `gorm:"not null;uniqueIndex:idx_quote_version" json:"version"`
	Snapshot string    `gorm:"type:text;not null" json:"snapshot"`
}
