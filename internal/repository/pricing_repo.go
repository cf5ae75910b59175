package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PricingRepository interface {
	CreatePriceList(ctx context.Context, list *model.PriceList) error
	FindPriceList(ctx context.Context, id uuid.UUID) (*model.PriceList, error)
	ListPriceLists(ctx context.Context) ([]model.PriceList, error)
	// UpsertPriceListItem sets the price of a product on a list.
	UpsertPriceListItem(ctx context.Context, item *model.PriceListItem) error
	// PriceListPrice returns the price of product on an active list, or nil.
	PriceListPrice(ctx context.Context, priceListID, productID uuid.UUID) (*model.PriceListItem, error)

	CreateTier(ctx context.Context, tier *model.VolumePricingTier) error
	Tiers(ctx context.Context, productID uuid.UUID) ([]model.VolumePricingTier, error)

	CreatePromotion(ctx context.Context, promo *model.PromotionalPrice) error
	FindPromotion(ctx context.Context, id uuid.UUID) (*model.PromotionalPrice, error)
	SavePromotion(ctx context.Context, promo *model.PromotionalPrice) error
	// ActivePromotions returns the promotions of product running at t.
	ActivePromotions(ctx context.Context, productID uuid.UUID, t time.Time) ([]model.PromotionalPrice, error)
	Promotions(ctx context.Context, productID *uuid.UUID) ([]model.PromotionalPrice, error)
}

type pricingRepo struct {
	db *gorm.DB
}

func NewPricingRepo(db *gorm.DB) PricingRepository {
	return &pricingRepo{db}
}

func (r *pricingRepo) CreatePriceList(ctx context.Context, list *model.PriceList) error {
	return txFrom(ctx, r.db).Create(list).Error
}

func (r *pricingRepo) FindPriceList(ctx context.Context, id uuid.UUID) (*model.PriceList, error) {
	var list model.PriceList
	if err := txFrom(ctx, r.db).Preload("Items").First(&list, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *pricingRepo) ListPriceLists(ctx context.Context) ([]model.PriceList, error) {
	var lists []model.PriceList
	err := txFrom(ctx, r.db).Order("name ASC").Find(&lists).Error
	return lists, err
}

func (r *pricingRepo) UpsertPriceListItem(ctx context.Context, item *model.PriceListItem) error {
	return txFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "price_list_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at", "updated_by"}),
	}).Create(item).Error
}

func (r *pricingRepo) PriceListPrice(ctx context.Context, priceListID, productID uuid.UUID) (*model.PriceListItem, error) {
	var items []model.PriceListItem
	err := txFrom(ctx, r.db).
		Joins("JOIN price_lists ON price_lists.id = price_list_items.price_list_id AND price_lists.deleted_at IS NULL").
		Where("price_list_items.price_list_id = ? AND price_list_items.product_id = ? AND price_lists.active = ?", priceListID, productID, true).
		Limit(1).Find(&items).Error
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *pricingRepo) CreateTier(ctx context.Context, tier *model.VolumePricingTier) error {
	return txFrom(ctx, r.db).Create(tier).Error
}

func (r *pricingRepo) Tiers(ctx context.Context, productID uuid.UUID) ([]model.VolumePricingTier, error) {
	var tiers []model.VolumePricingTier
	err := txFrom(ctx, r.db).Where("product_id = ?", productID).Order("min_quantity ASC").Find(&tiers).Error
	return tiers, err
}

func (r *pricingRepo) CreatePromotion(ctx context.Context, promo *model.PromotionalPrice) error {
	return txFrom(ctx, r.db).Create(promo).Error
}

func (r *pricingRepo) FindPromotion(ctx context.Context, id uuid.UUID) (*model.PromotionalPrice, error) {
	var promo model.PromotionalPrice
	if err := txFrom(ctx, r.db).First(&promo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *pricingRepo) SavePromotion(ctx context.Context, promo *model.PromotionalPrice) error {
	return txFrom(ctx, r.db).Save(promo).Error
}

func (r *pricingRepo) ActivePromotions(ctx context.Context, productID uuid.UUID, t time.Time) ([]model.PromotionalPrice, error) {
	var candidates []model.PromotionalPrice
	err := txFrom(ctx, r.db).Where("product_id = ? AND active = ?", productID, true).
		Order("price ASC").Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	promos := make([]model.PromotionalPrice, 0, len(candidates))
	for _, p := range candidates {
		if p.ActiveAt(t) {
			promos = append(promos, p)
		}
	}
	return promos, nil
}

func (r *pricingRepo) Promotions(ctx context.Context, productID *uuid.UUID) ([]model.PromotionalPrice, error) {
	var promos []model.PromotionalPrice
	q := txFrom(ctx, r.db).Order("starts_at DESC")
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}
	err := q.Find(&promos).Error
	return promos, err
}
