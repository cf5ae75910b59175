package repository

import (
	"context"
	"strings"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Search     string              `query:"search"`
	Status     model.ProductStatus `query:"status"`
	CategoryID *uuid.UUID          `query:"-"`
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Save(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	FindByCodes(ctx context.Context, codes []string) (map[string]*model.Product, error)
	List(ctx context.Context, filter ProductFilter, page PageRequest) (Page[model.Product], error)
	All(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	AppendPriceHistory(ctx context.Context, h *model.ProductPriceHistory) error
	AppendCostHistory(ctx context.Context, h *model.ProductCostHistory) error
	PriceHistory(ctx context.Context, productID uuid.UUID) ([]model.ProductPriceHistory, error)
	CostHistory(ctx context.Context, productID uuid.UUID) ([]model.ProductCostHistory, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	Categories(ctx context.Context) ([]model.Category, error)
	FindCategories(ctx context.Context, ids []uuid.UUID) ([]model.Category, error)
	ReplaceCategories(ctx context.Context, product *model.Product, categories []model.Category) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return txFrom(ctx, r.db).Omit("Categories.*").Create(product).Error
}

func (r *productRepo) Save(ctx context.Context, product *model.Product) error {
	return txFrom(ctx, r.db).Omit("Categories", "Variants").Save(product).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := txFrom(ctx, r.db).Preload("Categories").Preload("Variants").First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := txFrom(ctx, r.db).First(&product, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByCodes(ctx context.Context, codes []string) (map[string]*model.Product, error) {
	out := make(map[string]*model.Product, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	var products []model.Product
	if err := txFrom(ctx, r.db).Where("code IN ?", codes).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		out[products[i].Code] = &products[i]
	}
	return out, nil
}

func (r *productRepo) filtered(ctx context.Context, filter ProductFilter) *gorm.DB {
	q := txFrom(ctx, r.db).Model(&model.Product{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		q = q.Where("id IN (?)", txFrom(ctx, r.db).Table("product_categories").
			Select("product_id").Where("category_id = ?", *filter.CategoryID))
	}
	return q.Order("code ASC")
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter, page PageRequest) (Page[model.Product], error) {
	return Paginate[model.Product](r.filtered(ctx, filter), page, "Categories")
}

func (r *productRepo) All(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	err := r.filtered(ctx, filter).Find(&products).Error
	return products, err
}

func (r *productRepo) FindVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	if err := txFrom(ctx, r.db).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *productRepo) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return txFrom(ctx, r.db).Create(variant).Error
}

func (r *productRepo) AppendPriceHistory(ctx context.Context, h *model.ProductPriceHistory) error {
	return txFrom(ctx, r.db).Create(h).Error
}

func (r *productRepo) AppendCostHistory(ctx context.Context, h *model.ProductCostHistory) error {
	return txFrom(ctx, r.db).Create(h).Error
}

func (r *productRepo) PriceHistory(ctx context.Context, productID uuid.UUID) ([]model.ProductPriceHistory, error) {
	var rows []model.ProductPriceHistory
	err := txFrom(ctx, r.db).Where("product_id = ?", productID).Order("changed_at DESC").Find(&rows).Error
	return rows, err
}

func (r *productRepo) CostHistory(ctx context.Context, productID uuid.UUID) ([]model.ProductCostHistory, error) {
	var rows []model.ProductCostHistory
	err := txFrom(ctx, r.db).Where("product_id = ?", productID).Order("changed_at DESC").Find(&rows).Error
	return rows, err
}

func (r *productRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	return txFrom(ctx, r.db).Create(category).Error
}

func (r *productRepo) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := txFrom(ctx, r.db).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *productRepo) FindCategories(ctx context.Context, ids []uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	if len(ids) == 0 {
		return categories, nil
	}
	err := txFrom(ctx, r.db).Where("id IN ?", ids).Find(&categories).Error
	return categories, err
}

func (r *productRepo) ReplaceCategories(ctx context.Context, product *model.Product, categories []model.Category) error {
	return txFrom(ctx, r.db).Model(product).Association("Categories").Replace(categories)
}
