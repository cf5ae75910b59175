package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and standard Audit Trails
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // Soft Delete support

	// Audit User Tracking
	CreatedBy string `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"type:varchar(64)" json:"updated_by,omitempty"`
	DeletedBy string `gorm:"type:varchar(64)" json:"-"`
}

// BeforeCreate generates the UUID unless the caller already assigned one
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// Touch stamps the audit fields for a mutation made by actor.
func (base *BaseModel) Touch(actor string) {
	if base.CreatedBy == "" {
		base.CreatedBy = actor
	}
	base.UpdatedBy = actor
}

// DocumentSequence hands out gap-free numbers per document prefix (SO, QUO, PO, ...).
type DocumentSequence struct {
	Prefix string `gorm:"type:varchar(16);primaryKey"`
	Next   int64  `gorm:"not null;default:1"`
}

// AllModels lists every table for AutoMigrate, leaves first.
func AllModels() []interface{} {
	return []interface{}{
		&Privilege{}, &Role{}, &User{},
		&DocumentSequence{},
		&Category{}, &Product{}, &ProductVariant{}, &ProductPriceHistory{}, &ProductCostHistory{},
		&PriceList{}, &PriceListItem{}, &VolumePricingTier{}, &PromotionalPrice{},
		&Customer{}, &Supplier{}, &Address{}, &Contact{},
		&StockLocation{}, &StockItem{}, &StockMovement{},
		&Quote{}, &QuoteLine{}, &QuoteVersion{},
		&Order{}, &OrderLine{},
		&PurchaseRequest{}, &PurchaseRequestLine{}, &PurchaseOrder{}, &PurchaseOrderLine{},
		&PurchaseReceipt{}, &PurchaseReceiptLine{}, &SupplierInvoice{},
		&Invoice{}, &InvoiceLine{}, &Payment{}, &PaymentAllocation{},
	}
}
