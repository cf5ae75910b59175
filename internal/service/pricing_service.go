package service

import (
	"context"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Price sources, in precedence order.
const (
	SourcePromotion        = "promotion"
	SourceVolumeTier       = "volume_tier"
	SourcePriceList        = "price_list"
	SourceCustomerDiscount = "customer_discount"
	SourceBasePrice        = "base_price"
)

type PriceResult struct {
	ProductID       uuid.UUID       `json:"product_id"`
	CustomerID      *uuid.UUID      `json:"customer_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	BasePrice       decimal.Decimal `json:"base_price"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Source          string          `json:"source"`
}

// PricingService resolves the unit price a customer pays for a quantity of a product.
type PricingService struct {
	products  repository.ProductRepository
	customers repository.CustomerRepository
	rules     repository.PricingRepository
	now       func() time.Time
}

func NewPricingService(products repository.ProductRepository, customers repository.CustomerRepository, rules repository.PricingRepository, now func() time.Time) *PricingService {
	if now == nil {
		now = time.Now
	}
	return &PricingService{products: products, customers: customers, rules: rules, now: now}
}

// GetPriceForCustomer applies, first match wins: running promotion (lowest
// price), volume tier (highest matching minimum), the customer's price list,
// the customer's default discount, then the base price. Without a customer
// only the product-level rules apply.
func (s *PricingService) GetPriceForCustomer(ctx context.Context, productID uuid.UUID, customerID *uuid.UUID, quantity decimal.Decimal) (*PriceResult, error) {
	if !quantity.IsPositive() {
		return nil, model.ErrInvalidQuantity
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}

	var customer *model.Customer
	if customerID != nil && *customerID != uuid.Nil {
		customer, err = s.customers.FindByID(ctx, *customerID)
		if err != nil {
			return nil, notFound(err, ErrCustomerNotFound)
		}
	}

	result := &PriceResult{
		ProductID:  product.ID,
		CustomerID: customerID,
		Quantity:   quantity,
		BasePrice:  product.Price,
	}
	final, source, err := s.resolve(ctx, product, customer, quantity)
	if err != nil {
		return nil, internal(err)
	}
	result.FinalPrice = model.Round2(final)
	result.Source = source
	result.DiscountPercent = discountPercent(product.Price, result.FinalPrice)
	return result, nil
}

func (s *PricingService) resolve(ctx context.Context, product *model.Product, customer *model.Customer, qty decimal.Decimal) (decimal.Decimal, string, error) {
	promos, err := s.rules.ActivePromotions(ctx, product.ID, s.now())
	if err != nil {
		return decimal.Zero, "", err
	}
	if len(promos) > 0 {
		best := promos[0].Price
		for _, p := range promos[1:] {
			if p.Price.LessThan(best) {
				best = p.Price
			}
		}
		return best, SourcePromotion, nil
	}

	tiers, err := s.rules.Tiers(ctx, product.ID)
	if err != nil {
		return decimal.Zero, "", err
	}
	var match *model.VolumePricingTier
	for i := range tiers {
		if !tiers[i].Matches(qty) {
			continue
		}
		if match == nil || tiers[i].MinQuantity.GreaterThan(match.MinQuantity) {
			match = &tiers[i]
		}
	}
	if match != nil {
		return match.Price, SourceVolumeTier, nil
	}

	if customer == nil {
		return product.Price, SourceBasePrice, nil
	}

	if customer.PriceListID != nil {
		item, err := s.rules.PriceListPrice(ctx, *customer.PriceListID, product.ID)
		if err != nil {
			return decimal.Zero, "", err
		}
		if item != nil {
			return item.Price, SourcePriceList, nil
		}
	}

	if customer.DefaultDiscountPercent.IsPositive() {
		off := product.Price.Mul(customer.DefaultDiscountPercent).Div(decimal.NewFromInt(100))
		return product.Price.Sub(off), SourceCustomerDiscount, nil
	}

	return product.Price, SourceBasePrice, nil
}

func discountPercent(base, final decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return base.Sub(final).Div(base).Mul(decimal.NewFromInt(100)).Round(2)
}
