package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockLocation struct {
	BaseModel
	Code   string `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name   string `gorm:"type:varchar(120);not null" json:"name"`
	Active bool   `gorm:"not null;default:true" json:"active"`
}

type AlertLevel string

const (
	AlertNone       AlertLevel = ""
	AlertOutOfStock AlertLevel = "out_of_stock"
	AlertLowStock   AlertLevel = "low_stock"
	AlertOverstock  AlertLevel = "overstock"
)

// StockItem is keyed by (product, variant, location). VariantID is uuid.Nil for
// the plain product so the unique index also covers variant-less rows.
type StockItem struct {
	BaseModel
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_key" json:"product_id"`
	VariantID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_key" json:"variant_id"`
	LocationID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_key" json:"location_id"`
	PhysicalQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"physical_quantity"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reserved_quantity"`
	MinQuantity      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"min_quantity"`
	MaxQuantity      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"max_quantity"`
	ReorderPoint     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reorder_point"`

	Product  *Product       `json:"product,omitempty"`
	Location *StockLocation `json:"location,omitempty"`
}

func (s *StockItem) Available() decimal.Decimal {
	return s.PhysicalQuantity.Sub(s.ReservedQuantity)
}

// Reserve claims qty of the available quantity.
func (s *StockItem) Reserve(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if s.Available().LessThan(qty) {
		return ErrInsufficientStock
	}
	s.ReservedQuantity = s.ReservedQuantity.Add(qty)
	return nil
}

// Release gives back up to qty of the reservation and returns what was released.
func (s *StockItem) Release(qty decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}
	released := decimal.Min(qty, s.ReservedQuantity)
	s.ReservedQuantity = s.ReservedQuantity.Sub(released)
	return released
}

// Adjust sets the counted physical quantity and returns the delta.
func (s *StockItem) Adjust(counted decimal.Decimal) (decimal.Decimal, error) {
	if counted.IsNegative() {
		return decimal.Zero, ErrInvalidQuantity
	}
	if counted.LessThan(s.ReservedQuantity) {
		return decimal.Zero, ErrBelowReserved
	}
	delta := counted.Sub(s.PhysicalQuantity)
	s.PhysicalQuantity = counted
	return delta, nil
}

func (s *StockItem) Receive(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	s.PhysicalQuantity = s.PhysicalQuantity.Add(qty)
	return nil
}

// Issue removes unreserved stock.
func (s *StockItem) Issue(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if s.Available().LessThan(qty) {
		return ErrInsufficientStock
	}
	s.PhysicalQuantity = s.PhysicalQuantity.Sub(qty)
	return nil
}

// Consume ships previously reserved stock: both physical and reserved drop by qty.
func (s *StockItem) Consume(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if s.ReservedQuantity.LessThan(qty) || s.PhysicalQuantity.LessThan(qty) {
		return ErrInsufficientStock
	}
	s.ReservedQuantity = s.ReservedQuantity.Sub(qty)
	s.PhysicalQuantity = s.PhysicalQuantity.Sub(qty)
	return nil
}

// AlertLevel classifies the item against its thresholds.
func (s *StockItem) AlertLevel() AlertLevel {
	available := s.Available()
	switch {
	case !available.IsPositive():
		return AlertOutOfStock
	case available.LessThan(s.MinQuantity),
		s.ReorderPoint.IsPositive() && available.LessThanOrEqual(s.ReorderPoint):
		return AlertLowStock
	case s.MaxQuantity.IsPositive() && s.PhysicalQuantity.GreaterThan(s.MaxQuantity):
		return AlertOverstock
	}
	return AlertNone
}

type MovementType string

const (
	MovementEntry      MovementType = "entry"
	MovementExit       MovementType = "exit"
	MovementTransfer   MovementType = "transfer"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is an immutable audit row. Quantity is signed.
type StockMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StockItemID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"stock_item_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"location_id"`
	Type          MovementType    `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"balance_after"`
	ReferenceType string          `gorm:"type:varchar(40)" json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID      `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`
	CreatedBy     string          `gorm:"type:varchar(64)" json:"created_by"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// NewMovement builds the audit row for a mutation already applied to item.
func NewMovement(item *StockItem, typ MovementType, qty decimal.Decimal, refType string, refID *uuid.UUID, note, actor string) *StockMovement {
	return &StockMovement{
		StockItemID:   item.ID,
		ProductID:     item.ProductID,
		LocationID:    item.LocationID,
		Type:          typ,
		Quantity:      qty,
		BalanceAfter:  item.PhysicalQuantity,
		ReferenceType: refType,
		ReferenceID:   refID,
		Note:          note,
		CreatedBy:     actor,
	}
}
