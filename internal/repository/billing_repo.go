package repository

import (
	"context"
	"strings"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceFilter struct {
	Search     string     `query:"search"`
	Status     string     `query:"status"`
	CustomerID *uuid.UUID `query:"-"`
}

type BillingRepository interface {
	CreateInvoice(ctx context.Context, invoice *model.Invoice) error
	SaveInvoice(ctx context.Context, invoice *model.Invoice) error
	FindInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	LockInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	// OpenInvoiceForOrder returns the non-cancelled invoice of an order, or nil.
	OpenInvoiceForOrder(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter, page PageRequest) (Page[model.Invoice], error)
	// Outstanding returns every issued invoice with a balance, oldest due first.
	Outstanding(ctx context.Context) ([]model.Invoice, error)
	// InvoicesBetween returns issued, non-cancelled invoices with an issue date in [from, to].
	InvoicesBetween(ctx context.Context, from, to time.Time) ([]model.Invoice, error)

	CreatePayment(ctx context.Context, payment *model.Payment) error
	FindPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	PaymentsBetween(ctx context.Context, from, to time.Time) ([]model.Payment, error)
}

type billingRepo struct {
	db *gorm.DB
}

func NewBillingRepo(db *gorm.DB) BillingRepository {
	return &billingRepo{db}
}

func (r *billingRepo) CreateInvoice(ctx context.Context, invoice *model.Invoice) error {
	return txFrom(ctx, r.db).Omit("Customer").Create(invoice).Error
}

func (r *billingRepo) SaveInvoice(ctx context.Context, invoice *model.Invoice) error {
	return txFrom(ctx, r.db).Omit(clause.Associations).Save(invoice).Error
}

func (r *billingRepo) FindInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := txFrom(ctx, r.db).Preload("Customer").Preload("Lines").First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *billingRepo) LockInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := txFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := txFrom(ctx, r.db).Where("invoice_id = ?", id).Find(&invoice.Lines).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *billingRepo) OpenInvoiceForOrder(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	var invoices []model.Invoice
	err := txFrom(ctx, r.db).Where("order_id = ? AND status <> ?", orderID, model.InvoiceCancelled).
		Limit(1).Find(&invoices).Error
	if err != nil || len(invoices) == 0 {
		return nil, err
	}
	return &invoices[0], nil
}

func (r *billingRepo) ListInvoices(ctx context.Context, filter InvoiceFilter, page PageRequest) (Page[model.Invoice], error) {
	q := txFrom(ctx, r.db).Model(&model.Invoice{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("LOWER(number) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	return Paginate[model.Invoice](q.Order("created_at DESC"), page, "Customer")
}

func (r *billingRepo) Outstanding(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := txFrom(ctx, r.db).Preload("Customer").
		Where("status IN ?", []model.InvoiceStatus{model.InvoiceIssued, model.InvoicePartiallyPaid}).
		Order("due_date ASC").Find(&invoices).Error
	return invoices, err
}

func (r *billingRepo) InvoicesBetween(ctx context.Context, from, to time.Time) ([]model.Invoice, error) {
	var all []model.Invoice
	err := txFrom(ctx, r.db).Preload("Customer").
		Where("status IN ?", []model.InvoiceStatus{model.InvoiceIssued, model.InvoicePartiallyPaid, model.InvoicePaid}).
		Order("issue_date ASC, number ASC").Find(&all).Error
	if err != nil {
		return nil, err
	}
	return filterByDay(all, from, to, func(inv model.Invoice) time.Time { return inv.IssueDate }), nil
}

func (r *billingRepo) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return txFrom(ctx, r.db).Create(payment).Error
}

func (r *billingRepo) FindPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := txFrom(ctx, r.db).Preload("Allocations").First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *billingRepo) PaymentsBetween(ctx context.Context, from, to time.Time) ([]model.Payment, error) {
	var all []model.Payment
	if err := txFrom(ctx, r.db).Preload("Allocations").Order("paid_at ASC, number ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	return filterByDay(all, from, to, func(p model.Payment) time.Time { return p.PaidAt }), nil
}

// filterByDay keeps rows whose date falls in [from, to] at day precision.
func filterByDay[T any](rows []T, from, to time.Time, at func(T) time.Time) []T {
	lo := from.Format("2006-01-02")
	hi := to.Format("2006-01-02")
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		day := at(row).Format("2006-01-02")
		if day >= lo && day <= hi {
			out = append(out, row)
		}
	}
	return out
}
