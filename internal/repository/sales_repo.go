package repository

import (
	"context"
	"strings"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesFilter struct {
	Search     string     `query:"search"`
	Status     string     `query:"status"`
	CustomerID *uuid.UUID `query:"-"`
}

type QuoteRepository interface {
	Create(ctx context.Context, quote *model.Quote) error
	// Save writes the header and replaces the stored lines with quote.Lines.
	Save(ctx context.Context, quote *model.Quote) error
	SaveHeader(ctx context.Context, quote *model.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	Lock(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	List(ctx context.Context, filter SalesFilter, page PageRequest) (Page[model.Quote], error)
	AddVersion(ctx context.Context, version *model.QuoteVersion) error
	Versions(ctx context.Context, quoteID uuid.UUID) ([]model.QuoteVersion, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Save(ctx context.Context, order *model.Order) error
	SaveHeader(ctx context.Context, order *model.Order) error
	SaveLine(ctx context.Context, line *model.OrderLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Lock(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter SalesFilter, page PageRequest) (Page[model.Order], error)
}

type quoteRepo struct {
	db *gorm.DB
}

func NewQuoteRepo(db *gorm.DB) QuoteRepository {
	return &quoteRepo{db}
}

func (r *quoteRepo) Create(ctx context.Context, quote *model.Quote) error {
	return txFrom(ctx, r.db).Omit("Customer").Create(quote).Error
}

func (r *quoteRepo) Save(ctx context.Context, quote *model.Quote) error {
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		tx := txFrom(ctx, r.db)
		if err := tx.Unscoped().Where("quote_id = ?", quote.ID).Delete(&model.QuoteLine{}).Error; err != nil {
			return err
		}
		if len(quote.Lines) > 0 {
			if err := tx.Create(&quote.Lines).Error; err != nil {
				return err
			}
		}
		return r.SaveHeader(ctx, quote)
	})
}

func (r *quoteRepo) SaveHeader(ctx context.Context, quote *model.Quote) error {
	return txFrom(ctx, r.db).Omit(clause.Associations).Save(quote).Error
}

func (r *quoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	err := txFrom(ctx, r.db).Preload("Customer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&quote, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepo) Lock(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	err := txFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&quote, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := txFrom(ctx, r.db).Where("quote_id = ?", id).Order("position ASC").Find(&quote.Lines).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepo) List(ctx context.Context, filter SalesFilter, page PageRequest) (Page[model.Quote], error) {
	q := salesQuery(txFrom(ctx, r.db).Model(&model.Quote{}), filter)
	return Paginate[model.Quote](q.Order("created_at DESC"), page, "Customer")
}

func (r *quoteRepo) AddVersion(ctx context.Context, version *model.QuoteVersion) error {
	return txFrom(ctx, r.db).Create(version).Error
}

func (r *quoteRepo) Versions(ctx context.Context, quoteID uuid.UUID) ([]model.QuoteVersion, error) {
	var versions []model.QuoteVersion
	err := txFrom(ctx, r.db).Where("quote_id = ?", quoteID).Order("version ASC").Find(&versions).Error
	return versions, err
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return txFrom(ctx, r.db).Omit("Customer").Create(order).Error
}

func (r *orderRepo) Save(ctx context.Context, order *model.Order) error {
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		tx := txFrom(ctx, r.db)
		if err := tx.Unscoped().Where("order_id = ?", order.ID).Delete(&model.OrderLine{}).Error; err != nil {
			return err
		}
		if len(order.Lines) > 0 {
			if err := tx.Create(&order.Lines).Error; err != nil {
				return err
			}
		}
		return r.SaveHeader(ctx, order)
	})
}

func (r *orderRepo) SaveHeader(ctx context.Context, order *model.Order) error {
	return txFrom(ctx, r.db).Omit(clause.Associations).Save(order).Error
}

func (r *orderRepo) SaveLine(ctx context.Context, line *model.OrderLine) error {
	return txFrom(ctx, r.db).Save(line).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := txFrom(ctx, r.db).Preload("Customer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) Lock(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := txFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := txFrom(ctx, r.db).Where("order_id = ?", id).Order("position ASC").Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, filter SalesFilter, page PageRequest) (Page[model.Order], error) {
	q := salesQuery(txFrom(ctx, r.db).Model(&model.Order{}), filter)
	return Paginate[model.Order](q.Order("created_at DESC"), page, "Customer")
}

func salesQuery(q *gorm.DB, filter SalesFilter) *gorm.DB {
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("LOWER(number) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	return q
}
