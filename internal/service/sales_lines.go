package service

import (
	"context"

	"erp-backend/internal/apperr"
	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is a quote or order line as sent by the client. Omitted unit
// prices are resolved through the pricing service; omitted tax rates and
// descriptions default to the product's.
type LineInput struct {
	ProductID       uuid.UUID        `json:"product_id" validate:"uuid_required"`
	VariantID       *uuid.UUID       `json:"variant_id"`
	Description     string           `json:"description" validate:"max=255"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
}

// pricedLine is a resolved LineInput, ready to become a quote or order line.
type pricedLine struct {
	ProductID   uuid.UUID
	VariantID   uuid.UUID
	Description string
	PriceSource string
	Amounts     model.LineAmounts
}

func (d *Deps) priceLines(ctx context.Context, customerID uuid.UUID, inputs []LineInput) ([]pricedLine, error) {
	lines := make([]pricedLine, 0, len(inputs))
	for i, in := range inputs {
		if err := validate(in); err != nil {
			return nil, err
		}
		line, err := d.priceLine(ctx, customerID, in)
		if err != nil {
			if appErr, ok := apperr.As(err); ok && appErr.Params == nil {
				return nil, appErr.WithParams(map[string]any{"Line": i + 1})
			}
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (d *Deps) priceLine(ctx context.Context, customerID uuid.UUID, in LineInput) (pricedLine, error) {
	product, err := d.Products.FindByID(ctx, in.ProductID)
	if err != nil {
		return pricedLine{}, notFound(err, ErrProductNotFound)
	}
	if !product.Sellable() {
		return pricedLine{}, ErrProductNotSellable.WithParams(map[string]any{"Code": product.Code})
	}

	line := pricedLine{ProductID: product.ID, Description: in.Description}
	var variant *model.ProductVariant
	if in.VariantID != nil && *in.VariantID != uuid.Nil {
		variant, err = d.Products.FindVariant(ctx, *in.VariantID)
		if err != nil {
			return pricedLine{}, notFound(err, ErrVariantNotFound)
		}
		if variant.ProductID != product.ID || !variant.Active {
			return pricedLine{}, ErrVariantNotFound
		}
		line.VariantID = variant.ID
	}
	if line.Description == "" {
		line.Description = product.Name
		if variant != nil && variant.Name != "" {
			line.Description = product.Name + " - " + variant.Name
		}
	}

	amounts := model.LineAmounts{
		Quantity:        in.Quantity,
		DiscountPercent: decimal.Zero,
		TaxRate:         product.TaxRate,
	}
	switch {
	case in.UnitPrice != nil:
		if in.UnitPrice.IsNegative() {
			return pricedLine{}, model.ErrInvalidPrice
		}
		amounts.UnitPrice = *in.UnitPrice
		line.PriceSource = "manual"
	case variant != nil && variant.Price.Valid:
		amounts.UnitPrice = variant.EffectivePrice(product)
		line.PriceSource = SourceBasePrice
	default:
		price, err := d.Pricing.GetPriceForCustomer(ctx, product.ID, &customerID, in.Quantity)
		if err != nil {
			return pricedLine{}, err
		}
		amounts.UnitPrice = price.FinalPrice
		line.PriceSource = price.Source
	}
	if in.DiscountPercent != nil {
		if !percent(*in.DiscountPercent) {
			return pricedLine{}, ErrValidation.WithParams(map[string]any{"Field": "DiscountPercent", "Tag": "lte", "Param": "100"})
		}
		amounts.DiscountPercent = *in.DiscountPercent
	}
	if in.TaxRate != nil {
		if !percent(*in.TaxRate) {
			return pricedLine{}, ErrValidation.WithParams(map[string]any{"Field": "TaxRate", "Tag": "lte", "Param": "100"})
		}
		amounts.TaxRate = *in.TaxRate
	}
	line.Amounts = amounts
	return line, nil
}

func quoteLines(priced []pricedLine) []model.QuoteLine {
	lines := make([]model.QuoteLine, len(priced))
	for i, p := range priced {
		lines[i] = model.QuoteLine{
			ProductID:   p.ProductID,
			VariantID:   p.VariantID,
			Description: p.Description,
			PriceSource: p.PriceSource,
			LineAmounts: p.Amounts,
		}
	}
	return lines
}

func orderLines(priced []pricedLine) []model.OrderLine {
	lines := make([]model.OrderLine, len(priced))
	for i, p := range priced {
		lines[i] = model.OrderLine{
			ProductID:         p.ProductID,
			VariantID:         p.VariantID,
			Description:       p.Description,
			PriceSource:       p.PriceSource,
			ReservedQuantity:  decimal.Zero,
			DeliveredQuantity: decimal.Zero,
			InvoicedQuantity:  decimal.Zero,
			LineAmounts:       p.Amounts,
		}
	}
	return lines
}

// activeCustomer loads a customer that may still receive documents.
func (d *Deps) activeCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, err := d.Customers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	if customer.Status == model.PartnerArchived {
		return nil, ErrPartnerArchived
	}
	return customer, nil
}
