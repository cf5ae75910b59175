package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
	ProductArchived ProductStatus = "archived"
)

func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductActive, ProductInactive, ProductArchived:
		return true
	}
	return false
}

type Product struct {
	BaseModel
	Code          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	Cost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cost"`
	UnitOfMeasure string          `gorm:"type:varchar(20);not null;default:'unit'" json:"unit_of_measure"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	Status        ProductStatus   `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	Categories []Category       `gorm:"many2many:product_categories;" json:"categories,omitempty"`
	Variants   []ProductVariant `json:"variants,omitempty"`
}

// ChangePrice sets a new sale price and returns the history row to append,
// or nil when the price did not change.
func (p *Product) ChangePrice(newPrice decimal.Decimal, actor, reason string) (*ProductPriceHistory, error) {
	if newPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if newPrice.Equal(p.Price) {
		return nil, nil
	}
	h := &ProductPriceHistory{
		ProductID: p.ID,
		OldValue:  p.Price,
		NewValue:  newPrice,
		ChangedBy: actor,
		ChangedAt: time.Now(),
		Reason:    reason,
	}
	p.Price = newPrice
	return h, nil
}

// ChangeCost is ChangePrice for the purchase cost.
func (p *Product) ChangeCost(newCost decimal.Decimal, actor, reason string) (*ProductCostHistory, error) {
	if newCost.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if newCost.Equal(p.Cost) {
		return nil, nil
	}
	h := &ProductCostHistory{
		ProductID: p.ID,
		OldValue:  p.Cost,
		NewValue:  newCost,
		ChangedBy: actor,
		ChangedAt: time.Now(),
		Reason:    reason,
	}
	p.Cost = newCost
	return h, nil
}

// SetStatus moves the product through its soft lifecycle.
func (p *Product) SetStatus(status ProductStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	p.Status = status
	return nil
}

func (p *Product) Sellable() bool {
	return p.Status == ProductActive
}

// AverageCost returns the weighted average cost after receiving qty at unitCost
// on top of onHand units valued at the current cost.
func (p *Product) AverageCost(onHand, qty, unitCost decimal.Decimal) decimal.Decimal {
	if onHand.IsNegative() {
		onHand = decimal.Zero
	}
	total := onHand.Add(qty)
	if total.IsZero() {
		return unitCost
	}
	value := onHand.Mul(p.Cost).Add(qty.Mul(unitCost))
	return value.Div(total).Round(4)
}

type ProductVariant struct {
	BaseModel
	ProductID  uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU        string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Name       string              `gorm:"type:varchar(255)" json:"name"`
	Attributes string              `gorm:"type:text" json:"attributes,omitempty"` // JSON object, e.g. {"size":"L"}
	Price      decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"price"`
	Cost       decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"cost"`
	Active     bool                `gorm:"not null;default:true" json:"active"`
}

// EffectivePrice returns the variant override or the parent price.
func (v *ProductVariant) EffectivePrice(p *Product) decimal.Decimal {
	if v.Price.Valid {
		return v.Price.Decimal
	}
	return p.Price
}

func (v *ProductVariant) EffectiveCost(p *Product) decimal.Decimal {
	if v.Cost.Valid {
		return v.Cost.Decimal
	}
	return p.Cost
}

type Category struct {
	BaseModel
	Name     string     `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"`
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
}

// ProductPriceHistory is append-only.
type ProductPriceHistory struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	OldValue  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"old_value"`
	NewValue  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"new_value"`
	ChangedBy string          `gorm:"type:varchar(64)" json:"changed_by"`
	ChangedAt time.Time       `gorm:"not null;index" json:"changed_at"`
	Reason    string          `gorm:"type:varchar(255)" json:"reason,omitempty"`
}

// ProductCostHistory is append-only.
type ProductCostHistory struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	OldValue  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"old_value"`
	NewValue  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"new_value"`
	ChangedBy string          `gorm:"type:varchar(64)" json:"changed_by"`
	ChangedAt time.Time       `gorm:"not null;index" json:"changed_at"`
	Reason    string          `gorm:"type:varchar(255)" json:"reason,omitempty"`
}

func (h *ProductPriceHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (h *ProductCostHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
