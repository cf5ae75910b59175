package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CustomerType string

const (
	CustomerB2B CustomerType = "B2B"
	CustomerB2C CustomerType = "B2C"
)

type PartnerStatus string

const (
	PartnerActive   PartnerStatus = "active"
	PartnerArchived PartnerStatus = "archived"
)

type Customer struct {
	BaseModel
	Code                   string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Type                   CustomerType    `gorm:"type:varchar(3);not null" json:"type"`
	Name                   string          `gorm:"type:varchar(255);not null" json:"name"`
	CompanyName            string          `gorm:"type:varchar(255)" json:"company_name,omitempty"`
	VATNumber              string          `gorm:"type:varchar(50)" json:"vat_number,omitempty"`
	Email                  string          `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone                  string          `gorm:"type:varchar(50)" json:"phone,omitempty"`
	PaymentTermsDays       int             `gorm:"not null;default:30" json:"payment_terms_days"`
	DefaultDiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"default_discount_percent"`
	CreditLimit            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"credit_limit"`
	PriceListID            *uuid.UUID      `gorm:"type:uuid;index" json:"price_list_id,omitempty"`
	PriceList              *PriceList      `json:"price_list,omitempty"`
	Status                 PartnerStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	Addresses []Address `gorm:"polymorphic:Owner;" json:"addresses,omitempty"`
	Contacts  []Contact `gorm:"polymorphic:Owner;" json:"contacts,omitempty"`
}

// DisplayName prefers the company name for business customers.
func (c *Customer) DisplayName() string {
	if c.Type == CustomerB2B && c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}

func (c *Customer) Archive() {
	c.Status = PartnerArchived
}

type Supplier struct {
	BaseModel
	Code             string        `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name             string        `gorm:"type:varchar(255);not null" json:"name"`
	VATNumber        string        `gorm:"type:varchar(50)" json:"vat_number,omitempty"`
	Email            string        `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone            string        `gorm:"type:varchar(50)" json:"phone,omitempty"`
	PaymentTermsDays int           `gorm:"not null;default:30" json:"payment_terms_days"`
	Status           PartnerStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	Addresses []Address `gorm:"polymorphic:Owner;" json:"addresses,omitempty"`
	Contacts  []Contact `gorm:"polymorphic:Owner;" json:"contacts,omitempty"`
}

func (s *Supplier) Archive() {
	s.Status = PartnerArchived
}

type Address struct {
	BaseModel
	OwnerID           uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	OwnerType         string    `gorm:"type:varchar(20);not null;index" json:"owner_type"`
	Label             string    `gorm:"type:varchar(50)" json:"label,omitempty"`
	Line1             string    `gorm:"type:varchar(255);not null" json:"line1"`
	Line2             string    `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City              string    `gorm:"type:varchar(120);not null" json:"city"`
	PostalCode        string    `gorm:"type:varchar(20)" json:"postal_code"`
	Country           string    `gorm:"type:varchar(2);not null;default:'FR'" json:"country"`
	IsDefaultBilling  bool      `gorm:"not null;default:false" json:"is_default_billing"`
	IsDefaultDelivery bool      `gorm:"not null;default:false" json:"is_default_delivery"`
}

type Contact struct {
	BaseModel
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	OwnerType string    `gorm:"type:varchar(20);not null;index" json:"owner_type"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Role      string    `gorm:"type:varchar(100)" json:"role,omitempty"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
}
