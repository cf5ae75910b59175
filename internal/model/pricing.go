package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PriceList struct {
	BaseModel
	Name     string          `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"`
	Currency string          `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Active   bool            `gorm:"not null;default:true" json:"active"`
	Items    []PriceListItem `json:"items,omitempty"`
}

type PriceListItem struct {
	BaseModel
	PriceListID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_price_list_product" json:"price_list_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_price_list_product" json:"product_id"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
}

// VolumePricingTier applies from MinQuantity up to MaxQuantity (inclusive, open when null).
type VolumePricingTier struct {
	BaseModel
	ProductID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	MinQuantity decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"min_quantity"`
	MaxQuantity decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"max_quantity"`
	Price       decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"price"`
}

func (t *VolumePricingTier) Matches(qty decimal.Decimal) bool {
	if qty.LessThan(t.MinQuantity) {
		return false
	}
	if t.MaxQuantity.Valid && qty.GreaterThan(t.MaxQuantity.Decimal) {
		return false
	}
	return true
}

// PromotionalPrice is active on [StartsAt, EndsAt).
type PromotionalPrice struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string          `gorm:"type:varchar(120)" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	StartsAt  time.Time       `gorm:"not null;index" json:"starts_at"`
	EndsAt    time.Time       `gorm:"not null;index" json:"ends_at"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
}

func (p *PromotionalPrice) ActiveAt(t time.Time) bool {
	return p.Active && !t.Before(p.StartsAt) && t.Before(p.EndsAt)
}
