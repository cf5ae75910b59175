package service

import (
	"bytes"
	"context"
	"strings"

	"erp-backend/internal/export"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateProduct struct {
	Actor         string              `json:"-"`
	Code          string              `json:"code" validate:"required,max=50"`
	Name          string              `json:"name" validate:"required,max=255"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price" validate:"gte=0"`
	Cost          decimal.Decimal     `json:"cost" validate:"gte=0"`
	UnitOfMeasure string              `json:"unit_of_measure" validate:"max=20"`
	TaxRate       decimal.Decimal     `json:"tax_rate" validate:"gte=0,lte=100"`
	Status        model.ProductStatus `json:"status" validate:"omitempty,oneof=active inactive archived"`
	CategoryIDs   []uuid.UUID         `json:"category_ids"`
}

type CreateProductHandler struct{ *Deps }

func (h CreateProductHandler) Handle(ctx context.Context, cmd CreateProduct) (*model.Product, error) {
	cmd.Code = strings.TrimSpace(cmd.Code)
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validate(cmd); err != nil {
		return nil, err
	}
	product := &model.Product{
		Code:          cmd.Code,
		Name:          cmd.Name,
		Description:   cmd.Description,
		Price:         cmd.Price,
		Cost:          cmd.Cost,
		UnitOfMeasure: cmd.UnitOfMeasure,
		TaxRate:       cmd.TaxRate,
		Status:        cmd.Status,
	}
	if product.UnitOfMeasure == "" {
		product.UnitOfMeasure = "unit"
	}
	if product.Status == "" {
		product.Status = model.ProductActive
	}
	product.Touch(cmd.Actor)

	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if err := h.ensureCodeFree(ctx, product.Code); err != nil {
			return err
		}
		categories, err := h.categories(ctx, cmd.CategoryIDs)
		if err != nil {
			return err
		}
		product.Categories = categories
		if err := h.Products.Create(ctx, product); err != nil {
			if isDuplicate(err) {
				return ErrDuplicateCode.WithParams(map[string]any{"Code": product.Code})
			}
			return err
		}
		*events = append(*events, productEvent("created", product, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("product")
	h.invalidateDashboard(ctx)
	logger.FromContext(ctx).Info("product created", zap.String("code", product.Code), zap.String("actor", cmd.Actor))
	return product, nil
}

func (d *Deps) ensureCodeFree(ctx context.Context, code string) error {
	_, err := d.Products.FindByCode(ctx, code)
	if err == nil {
		return ErrDuplicateCode.WithParams(map[string]any{"Code": code})
	}
	if repository.IsNotFound(err) {
		return nil
	}
	return err
}

func (d *Deps) categories(ctx context.Context, ids []uuid.UUID) ([]model.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	categories, err := d.Products.FindCategories(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, ErrCategoryNotFound
	}
	return categories, nil
}

// UpdateProduct changes only the fields that are set. Price and cost changes
// append history rows in the same transaction.
type UpdateProduct struct {
	Actor         string           `json:"-"`
	ID            uuid.UUID        `json:"-" validate:"uuid_required"`
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Cost          *decimal.Decimal `json:"cost"`
	UnitOfMeasure *string          `json:"unit_of_measure" validate:"omitempty,max=20"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
	CategoryIDs   *[]uuid.UUID     `json:"category_ids"`
	Reason        string           `json:"reason" validate:"max=255"`
}

type UpdateProductHandler struct{ *Deps }

func (h UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProduct) (*model.Product, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if cmd.TaxRate != nil && !percent(*cmd.TaxRate) {
		return nil, ErrValidation.WithParams(map[string]any{"Field": "TaxRate", "Tag": "lte", "Param": "100"})
	}

	var product *model.Product
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		product, err = h.Products.FindByID(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if cmd.Name != nil {
			product.Name = strings.TrimSpace(*cmd.Name)
		}
		if cmd.Description != nil {
			product.Description = *cmd.Description
		}
		if cmd.UnitOfMeasure != nil {
			product.UnitOfMeasure = *cmd.UnitOfMeasure
		}
		if cmd.TaxRate != nil {
			product.TaxRate = *cmd.TaxRate
		}
		if err := h.applyPriceAndCost(ctx, product, cmd.Price, cmd.Cost, cmd.Actor, cmd.Reason); err != nil {
			return err
		}
		product.Touch(cmd.Actor)
		if err := h.Products.Save(ctx, product); err != nil {
			return err
		}
		if cmd.CategoryIDs != nil {
			categories, err := h.categories(ctx, *cmd.CategoryIDs)
			if err != nil {
				return err
			}
			if err := h.Products.ReplaceCategories(ctx, product, categories); err != nil {
				return err
			}
			product.Categories = categories
		}
		*events = append(*events, productEvent("updated", product, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return product, nil
}

// applyPriceAndCost mutates product and appends the matching history rows.
func (d *Deps) applyPriceAndCost(ctx context.Context, product *model.Product, price, cost *decimal.Decimal, actor, reason string) error {
	if price != nil {
		entry, err := product.ChangePrice(*price, actor, reason)
		if err != nil {
			return err
		}
		if entry != nil {
			entry.ChangedAt = d.now()
			if err := d.Products.AppendPriceHistory(ctx, entry); err != nil {
				return err
			}
		}
	}
	if cost != nil {
		entry, err := product.ChangeCost(*cost, actor, reason)
		if err != nil {
			return err
		}
		if entry != nil {
			entry.ChangedAt = d.now()
			if err := d.Products.AppendCostHistory(ctx, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

type ChangeProductStatus struct {
	Actor  string              `json:"-"`
	ID     uuid.UUID           `json:"-" validate:"uuid_required"`
	Status model.ProductStatus `json:"status" validate:"required,oneof=active inactive archived"`
}

type ChangeProductStatusHandler struct{ *Deps }

func (h ChangeProductStatusHandler) Handle(ctx context.Context, cmd ChangeProductStatus) (*model.Product, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var product *model.Product
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		product, err = h.Products.FindByID(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if err := product.SetStatus(cmd.Status); err != nil {
			return err
		}
		product.Touch(cmd.Actor)
		if err := h.Products.Save(ctx, product); err != nil {
			return err
		}
		*events = append(*events, productEvent(string(cmd.Status), product, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return product, nil
}

// ArchiveProduct is the soft delete of the catalogue.
type ArchiveProduct struct {
	Actor string    `json:"-"`
	ID    uuid.UUID `json:"-" validate:"uuid_required"`
}

type ArchiveProductHandler struct{ *Deps }

func (h ArchiveProductHandler) Handle(ctx context.Context, cmd ArchiveProduct) (*model.Product, error) {
	return ChangeProductStatusHandler(h).Handle(ctx, ChangeProductStatus{Actor: cmd.Actor, ID: cmd.ID, Status: model.ProductArchived})
}

type AddProductVariant struct {
	Actor      string           `json:"-"`
	ProductID  uuid.UUID        `json:"-" validate:"uuid_required"`
	SKU        string           `json:"sku" validate:"required,max=64"`
	Name       string           `json:"name" validate:"max=255"`
	Attributes map[string]any   `json:"attributes"`
	Price      *decimal.Decimal `json:"price"`
	Cost       *decimal.Decimal `json:"cost"`
}

type AddProductVariantHandler struct{ *Deps }

func (h AddProductVariantHandler) Handle(ctx context.Context, cmd AddProductVariant) (*model.ProductVariant, error) {
	cmd.SKU = strings.TrimSpace(cmd.SKU)
	if err := validate(cmd); err != nil {
		return nil, err
	}
	for _, v := range []*decimal.Decimal{cmd.Price, cmd.Cost} {
		if v != nil && v.IsNegative() {
			return nil, model.ErrInvalidPrice
		}
	}
	attributes, err := encodeJSON(cmd.Attributes)
	if err != nil {
		return nil, ErrValidation.WithParams(map[string]any{"Field": "Attributes", "Tag": "json"})
	}
	variant := &model.ProductVariant{
		ProductID:  cmd.ProductID,
		SKU:        cmd.SKU,
		Name:       cmd.Name,
		Attributes: attributes,
		Active:     true,
	}
	if cmd.Price != nil {
		variant.Price = decimal.NewNullDecimal(*cmd.Price)
	}
	if cmd.Cost != nil {
		variant.Cost = decimal.NewNullDecimal(*cmd.Cost)
	}
	variant.Touch(cmd.Actor)

	err = h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if _, err := h.Products.FindByID(ctx, cmd.ProductID); err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if err := h.Products.CreateVariant(ctx, variant); err != nil {
			if isDuplicate(err) {
				return ErrDuplicateCode.WithParams(map[string]any{"Code": variant.SKU})
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return variant, nil
}

type CreateCategory struct {
	Actor    string     `json:"-"`
	Name     string     `json:"name" validate:"required,max=120"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type CreateCategoryHandler struct{ *Deps }

func (h CreateCategoryHandler) Handle(ctx context.Context, cmd CreateCategory) (*model.Category, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validate(cmd); err != nil {
		return nil, err
	}
	category := &model.Category{Name: cmd.Name, ParentID: cmd.ParentID}
	category.Touch(cmd.Actor)
	if cmd.ParentID != nil {
		if _, err := h.categories(ctx, []uuid.UUID{*cmd.ParentID}); err != nil {
			return nil, internal(err)
		}
	}
	if err := h.Products.CreateCategory(ctx, category); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateCode.WithParams(map[string]any{"Code": cmd.Name})
		}
		return nil, internal(err)
	}
	return category, nil
}

type ListCategories struct{}

type ListCategoriesHandler struct{ *Deps }

func (h ListCategoriesHandler) Handle(ctx context.Context, _ ListCategories) ([]model.Category, error) {
	categories, err := h.Products.Categories(ctx)
	return categories, internal(err)
}

type GetProduct struct {
	ID uuid.UUID
}

type GetProductHandler struct{ *Deps }

func (h GetProductHandler) Handle(ctx context.Context, q GetProduct) (*model.Product, error) {
	product, err := h.Products.FindByID(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

type ListProducts struct {
	Filter repository.ProductFilter
	Page   repository.PageRequest
}

type ListProductsHandler struct{ *Deps }

func (h ListProductsHandler) Handle(ctx context.Context, q ListProducts) (repository.Page[model.Product], error) {
	page, err := h.Products.List(ctx, q.Filter, q.Page)
	return page, internal(err)
}

type GetPriceHistory struct {
	ProductID uuid.UUID
}

type GetPriceHistoryHandler struct{ *Deps }

func (h GetPriceHistoryHandler) Handle(ctx context.Context, q GetPriceHistory) ([]model.ProductPriceHistory, error) {
	if _, err := h.Products.FindByID(ctx, q.ProductID); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	rows, err := h.Products.PriceHistory(ctx, q.ProductID)
	return rows, internal(err)
}

type GetCostHistory struct {
	ProductID uuid.UUID
}

type GetCostHistoryHandler struct{ *Deps }

func (h GetCostHistoryHandler) Handle(ctx context.Context, q GetCostHistory) ([]model.ProductCostHistory, error) {
	if _, err := h.Products.FindByID(ctx, q.ProductID); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	rows, err := h.Products.CostHistory(ctx, q.ProductID)
	return rows, internal(err)
}

// ImportProducts creates or updates products by code. Bad rows are reported
// and skipped; good rows are kept.
type ImportProducts struct {
	Actor  string
	Format export.Format
	Data   []byte
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Errors  []ImportRowError `json:"errors"`
}

type ImportProductsHandler struct{ *Deps }

func (h ImportProductsHandler) Handle(ctx context.Context, cmd ImportProducts) (*ImportResult, error) {
	rows, err := export.ReadProducts(bytes.NewReader(cmd.Data), cmd.Format)
	if err != nil {
		return nil, ErrValidation.WithParams(map[string]any{"Field": "file", "Tag": err.Error()}).Wrap(err)
	}
	result := &ImportResult{Errors: []ImportRowError{}}
	for _, row := range rows {
		created, err := h.importRow(ctx, row, cmd.Actor)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: row.Row, Code: row.Code, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	logger.FromContext(ctx).Info("products imported",
		zap.Int("created", result.Created), zap.Int("updated", result.Updated), zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (h ImportProductsHandler) importRow(ctx context.Context, row export.ProductRow, actor string) (bool, error) {
	price, err := parseDecimal(row.Price)
	if err != nil {
		return false, err
	}
	cost, err := parseDecimal(row.Cost)
	if err != nil {
		return false, err
	}
	tax, err := parseDecimal(row.TaxRate)
	if err != nil {
		return false, err
	}

	existing, err := h.Products.FindByCode(ctx, row.Code)
	if err != nil && !repository.IsNotFound(err) {
		return false, err
	}
	if existing == nil {
		cmd := CreateProduct{
			Actor: actor, Code: row.Code, Name: row.Name, Description: row.Description,
			UnitOfMeasure: row.UnitOfMeasure, Status: model.ProductStatus(row.Status),
		}
		if price != nil {
			cmd.Price = *price
		}
		if cost != nil {
			cmd.Cost = *cost
		}
		if tax != nil {
			cmd.TaxRate = *tax
		}
		_, err := CreateProductHandler(h).Handle(ctx, cmd)
		return true, err
	}

	cmd := UpdateProduct{Actor: actor, ID: existing.ID, Price: price, Cost: cost, TaxRate: tax, Reason: "import"}
	if row.Name != "" {
		cmd.Name = &row.Name
	}
	if row.Description != "" {
		cmd.Description = &row.Description
	}
	if row.UnitOfMeasure != "" {
		cmd.UnitOfMeasure = &row.UnitOfMeasure
	}
	if _, err := UpdateProductHandler(h).Handle(ctx, cmd); err != nil {
		return false, err
	}
	if row.Status != "" && model.ProductStatus(row.Status) != existing.Status {
		_, err := ChangeProductStatusHandler(h).Handle(ctx, ChangeProductStatus{Actor: actor, ID: existing.ID, Status: model.ProductStatus(row.Status)})
		return false, err
	}
	return false, nil
}

type ExportProducts struct {
	Format export.Format
	Filter repository.ProductFilter
}

type ExportProductsHandler struct{ *Deps }

func (h ExportProductsHandler) Handle(ctx context.Context, q ExportProducts) (*export.File, error) {
	products, err := h.Products.All(ctx, q.Filter)
	if err != nil {
		return nil, internal(err)
	}
	table := export.Table{Title: "Products", Headers: export.ProductColumns}
	for _, p := range products {
		table.Rows = append(table.Rows, []string{
			p.Code, p.Name, p.Description, p.Price.StringFixed(2), p.Cost.StringFixed(2),
			p.UnitOfMeasure, p.TaxRate.String(), string(p.Status),
		})
	}
	return render(table, q.Format, "products")
}

func productEvent(action string, p *model.Product, actor string) ws.Event {
	return ws.Event{
		Type:   ws.EventProduct,
		Action: action,
		User:   actor,
		Data:   map[string]any{"id": p.ID, "code": p.Code, "name": p.Name, "status": p.Status},
	}
}
