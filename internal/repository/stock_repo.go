package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockFilter struct {
	ProductID  *uuid.UUID `query:"-"`
	LocationID *uuid.UUID `query:"-"`
}

type MovementFilter struct {
	ProductID     *uuid.UUID         `query:"-"`
	LocationID    *uuid.UUID         `query:"-"`
	Type          model.MovementType `query:"type"`
	ReferenceType string             `query:"reference_type"`
	ReferenceID   *uuid.UUID         `query:"-"`
}

// StockMovementData is one day of the movement chart.
type StockMovementData struct {
	Date     string          `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
}

type StockRepository interface {
	CreateLocation(ctx context.Context, location *model.StockLocation) error
	FindLocation(ctx context.Context, id uuid.UUID) (*model.StockLocation, error)
	ListLocations(ctx context.Context) ([]model.StockLocation, error)

	FindItem(ctx context.Context, productID, variantID, locationID uuid.UUID) (*model.StockItem, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	// EnsureItem returns the item for the key, creating an empty one when missing.
	EnsureItem(ctx context.Context, productID, variantID, locationID uuid.UUID) (*model.StockItem, error)
	// LockItem re-reads the item with a row lock for the rest of the transaction.
	LockItem(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	SaveItem(ctx context.Context, item *model.StockItem) error
	// TryReserve adds qty to the reservation only if that much is available.
	// It reports false, without touching the row, when it is not.
	TryReserve(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) (bool, error)
	ListItems(ctx context.Context, filter StockFilter, page PageRequest) (Page[model.StockItem], error)
	AllItems(ctx context.Context) ([]model.StockItem, error)
	OnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)

	AddMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filter MovementFilter, page PageRequest) (Page[model.StockMovement], error)
	DailyMovements(ctx context.Context, start, end time.Time) ([]StockMovementData, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) CreateLocation(ctx context.Context, location *model.StockLocation) error {
	return txFrom(ctx, r.db).Create(location).Error
}

func (r *stockRepo) FindLocation(ctx context.Context, id uuid.UUID) (*model.StockLocation, error) {
	var location model.StockLocation
	if err := txFrom(ctx, r.db).First(&location, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *stockRepo) ListLocations(ctx context.Context) ([]model.StockLocation, error) {
	var locations []model.StockLocation
	err := txFrom(ctx, r.db).Order("code ASC").Find(&locations).Error
	return locations, err
}

func (r *stockRepo) FindItem(ctx context.Context, productID, variantID, locationID uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := txFrom(ctx, r.db).
		Where("product_id = ? AND variant_id = ? AND location_id = ?", productID, variantID, locationID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	if err := txFrom(ctx, r.db).Preload("Product").Preload("Location").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepo) EnsureItem(ctx context.Context, productID, variantID, locationID uuid.UUID) (*model.StockItem, error) {
	item := &model.StockItem{
		ProductID:        productID,
		VariantID:        variantID,
		LocationID:       locationID,
		PhysicalQuantity: decimal.Zero,
		ReservedQuantity: decimal.Zero,
		MinQuantity:      decimal.Zero,
		MaxQuantity:      decimal.Zero,
		ReorderPoint:     decimal.Zero,
	}
	err := txFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_id"}, {Name: "location_id"}},
		DoNothing: true,
	}).Create(item).Error
	if err != nil {
		return nil, err
	}
	return r.FindItem(ctx, productID, variantID, locationID)
}

func (r *stockRepo) LockItem(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := txFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepo) SaveItem(ctx context.Context, item *model.StockItem) error {
	return txFrom(ctx, r.db).Omit("Product", "Location").Save(item).Error
}

func (r *stockRepo) TryReserve(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) (bool, error) {
	res := txFrom(ctx, r.db).Model(&model.StockItem{}).
		Where("id = ? AND physical_quantity - reserved_quantity >= CAST(? AS DECIMAL(18,4))", itemID, qty.String()).
		Updates(map[string]interface{}{
			"reserved_quantity": gorm.Expr("reserved_quantity + CAST(? AS DECIMAL(18,4))", qty.String()),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *stockRepo) ListItems(ctx context.Context, filter StockFilter, page PageRequest) (Page[model.StockItem], error) {
	q := txFrom(ctx, r.db).Model(&model.StockItem{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		q = q.Where("location_id = ?", *filter.LocationID)
	}
	return Paginate[model.StockItem](q.Order("created_at ASC"), page, "Product", "Location")
}

func (r *stockRepo) AllItems(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := txFrom(ctx, r.db).Preload("Product").Preload("Location").Order("created_at ASC").Find(&items).Error
	return items, err
}

func (r *stockRepo) OnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var items []model.StockItem
	if err := txFrom(ctx, r.db).Where("product_id = ?", productID).Find(&items).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.PhysicalQuantity)
	}
	return total, nil
}

func (r *stockRepo) AddMovement(ctx context.Context, movement *model.StockMovement) error {
	return txFrom(ctx, r.db).Create(movement).Error
}

func (r *stockRepo) ListMovements(ctx context.Context, filter MovementFilter, page PageRequest) (Page[model.StockMovement], error) {
	q := txFrom(ctx, r.db).Model(&model.StockMovement{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		q = q.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		q = q.Where("reference_id = ?", *filter.ReferenceID)
	}
	return Paginate[model.StockMovement](q.Order("created_at DESC"), page)
}

// DailyMovements aggregates entries and exits per day for the dashboard chart.
func (r *stockRepo) DailyMovements(ctx context.Context, start, end time.Time) ([]StockMovementData, error) {
	var movements []model.StockMovement
	err := txFrom(ctx, r.db).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Order("created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}

	results := make([]StockMovementData, 0)
	index := map[string]int{}
	for _, m := range movements {
		day := m.CreatedAt.Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			results = append(results, StockMovementData{Date: day, Inbound: decimal.Zero, Outbound: decimal.Zero})
			i = len(results) - 1
			index[day] = i
		}
		if m.Type == model.MovementTransfer {
			continue
		}
		if m.Quantity.IsPositive() {
			results[i].Inbound = results[i].Inbound.Add(m.Quantity)
		} else {
			results[i].Outbound = results[i].Outbound.Add(m.Quantity.Neg())
		}
	}
	return results, nil
}
