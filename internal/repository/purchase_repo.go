package repository

import (
	"context"
	"strings"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseFilter struct {
	Search     string     `query:"search"`
	Status     string     `query:"status"`
	SupplierID *uuid.UUID `query:"-"`
}

type PurchaseRepository interface {
	CreateRequest(ctx context.Context, request *model.PurchaseRequest) error
	SaveRequest(ctx context.Context, request *model.PurchaseRequest) error
	FindRequest(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	ListRequests(ctx context.Context, filter PurchaseFilter, page PageRequest) (Page[model.PurchaseRequest], error)

	CreateOrder(ctx context.Context, po *model.PurchaseOrder) error
	// SaveOrder writes the header and replaces the stored lines with po.Lines.
	SaveOrder(ctx context.Context, po *model.PurchaseOrder) error
	SaveOrderHeader(ctx context.Context, po *model.PurchaseOrder) error
	SaveOrderLine(ctx context.Context, line *model.PurchaseOrderLine) error
	FindOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	LockOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	ListOrders(ctx context.Context, filter PurchaseFilter, page PageRequest) (Page[model.PurchaseOrder], error)

	CreateReceipt(ctx context.Context, receipt *model.PurchaseReceipt) error
	FindReceipt(ctx context.Context, id uuid.UUID) (*model.PurchaseReceipt, error)
	ListReceipts(ctx context.Context, purchaseOrderID *uuid.UUID, page PageRequest) (Page[model.PurchaseReceipt], error)

	CreateSupplierInvoice(ctx context.Context, invoice *model.SupplierInvoice) error
	SaveSupplierInvoice(ctx context.Context, invoice *model.SupplierInvoice) error
	FindSupplierInvoice(ctx context.Context, id uuid.UUID) (*model.SupplierInvoice, error)
	ListSupplierInvoices(ctx context.Context, filter PurchaseFilter, page PageRequest) (Page[model.SupplierInvoice], error)
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) CreateRequest(ctx context.Context, request *model.PurchaseRequest) error {
	return txFrom(ctx, r.db).Create(request).Error
}

func (r *purchaseRepo) SaveRequest(ctx context.Context, request *model.PurchaseRequest) error {
	return txFrom(ctx, r.db).Omit(clause.Associations).Save(request).Error
}

func (r *purchaseRepo) FindRequest(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var request model.PurchaseRequest
	if err := txFrom(ctx, r.db).Preload("Lines").First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *purchaseRepo) ListRequests(ctx context.Context, filter PurchaseFilter, page PageRequest) (Page[model.PurchaseRequest], error) {
	q := txFrom(ctx, r.db).Model(&model.PurchaseRequest{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("LOWER(number) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return Paginate[model.PurchaseRequest](q.Order("created_at DESC"), page, "Lines")
}

func (r *purchaseRepo) CreateOrder(ctx context.Context, po *model.PurchaseOrder) error {
	return txFrom(ctx, r.db).Omit("Supplier").Create(po).Error
}

func (r *purchaseRepo) SaveOrder(ctx context.Context, po *model.PurchaseOrder) error {
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		tx := txFrom(ctx, r.db)
		if err := tx.Unscoped().Where("purchase_order_id = ?", po.ID).Delete(&model.PurchaseOrderLine{}).Error; err != nil {
			return err
		}
		if len(po.Lines) > 0 {
			if err := tx.Create(&po.Lines).Error; err != nil {
				return err
			}
		}
		return r.SaveOrderHeader(ctx, po)
	})
}

func (r *purchaseRepo) SaveOrderHeader(ctx context.Context, po *model.PurchaseOrder) error {
	return txFrom(ctx, r.db).Omit(clause.Associations).Save(po).Error
}

func (r *purchaseRepo) SaveOrderLine(ctx context.Context, line *model.PurchaseOrderLine) error {
	return txFrom(ctx, r.db).Save(line).Error
}

func (r *purchaseRepo) FindOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := txFrom(ctx, r.db).Preload("Supplier").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&po, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseRepo) LockOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := txFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&po, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := txFrom(ctx, r.db).Where("purchase_order_id = ?", id).Order("position ASC").Find(&po.Lines).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseRepo) ListOrders(ctx context.Context, filter PurchaseFilter, page PageRequest) (Page[model.PurchaseOrder], error) {
	q := txFrom(ctx, r.db).Model(&model.PurchaseOrder{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("LOWER(number) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	return Paginate[model.PurchaseOrder](q.Order("created_at DESC"), page, "Supplier")
}

func (r *purchaseRepo) CreateReceipt(ctx context.Context, receipt *model.PurchaseReceipt) error {
	return txFrom(ctx, r.db).Create(receipt).Error
}

func (r *purchaseRepo) FindReceipt(ctx context.Context, id uuid.UUID) (*model.PurchaseReceipt, error) {
	var receipt model.PurchaseReceipt
	if err := txFrom(ctx, r.db).Preload("Lines").First(&receipt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *purchaseRepo) ListReceipts(ctx context.Context, purchaseOrderID *uuid.UUID, page PageRequest) (Page[model.PurchaseReceipt], error) {
	q := txFrom(ctx, r.db).Model(&model.PurchaseReceipt{})
	if purchaseOrderID != nil {
		q = q.Where("purchase_order_id = ?", *purchaseOrderID)
	}
	return Paginate[model.PurchaseReceipt](q.Order("received_at DESC"), page, "Lines")
}

func (r *purchaseRepo) CreateSupplierInvoice(ctx context.Context, invoice *model.SupplierInvoice) error {
	return txFrom(ctx, r.db).Create(invoice).Error
}

func (r *purchaseRepo) SaveSupplierInvoice(ctx context.Context, invoice *model.SupplierInvoice) error {
	return txFrom(ctx, r.db).Save(invoice).Error
}

func (r *purchaseRepo) FindSupplierInvoice(ctx context.Context, id uuid.UUID) (*model.SupplierInvoice, error) {
	var invoice model.SupplierInvoice
	if err := txFrom(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *purchaseRepo) ListSupplierInvoices(ctx context.Context, filter PurchaseFilter, page PageRequest) (Page[model.SupplierInvoice], error) {
	q := txFrom(ctx, r.db).Model(&model.SupplierInvoice{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(number) LIKE ? OR LOWER(supplier_reference) LIKE ?", like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	return Paginate[model.SupplierInvoice](q.Order("invoice_date DESC"), page)
}
