package service

import (
	"context"
	"strings"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreatePriceList struct {
	Actor    string `json:"-"`
	Name     string `json:"name" validate:"required,max=120"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

type CreatePriceListHandler struct{ *Deps }

func (h CreatePriceListHandler) Handle(ctx context.Context, cmd CreatePriceList) (*model.PriceList, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validate(cmd); err != nil {
		return nil, err
	}
	list := &model.PriceList{Name: cmd.Name, Currency: strings.ToUpper(cmd.Currency), Active: true}
	if list.Currency == "" {
		list.Currency = "EUR"
	}
	list.Touch(cmd.Actor)
	if err := h.PriceRules.CreatePriceList(ctx, list); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateCode.WithParams(map[string]any{"Code": list.Name})
		}
		return nil, internal(err)
	}
	return list, nil
}

type SetPriceListItem struct {
	Actor       string          `json:"-"`
	PriceListID uuid.UUID       `json:"-" validate:"uuid_required"`
	ProductID   uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

type SetPriceListItemHandler struct{ *Deps }

func (h SetPriceListItemHandler) Handle(ctx context.Context, cmd SetPriceListItem) (*model.PriceListItem, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	item := &model.PriceListItem{PriceListID: cmd.PriceListID, ProductID: cmd.ProductID, Price: cmd.Price}
	item.Touch(cmd.Actor)
	err := repository.RunInTx(ctx, h.DB, func(ctx context.Context) error {
		if _, err := h.PriceRules.FindPriceList(ctx, cmd.PriceListID); err != nil {
			return notFound(err, ErrPriceListNotFound)
		}
		if _, err := h.Products.FindByID(ctx, cmd.ProductID); err != nil {
			return notFound(err, ErrProductNotFound)
		}
		return h.PriceRules.UpsertPriceListItem(ctx, item)
	})
	if err != nil {
		return nil, internal(err)
	}
	return item, nil
}

// AssignCustomerPriceList sets or, with a nil list, clears the customer's list.
type AssignCustomerPriceList struct {
	Actor       string     `json:"-"`
	CustomerID  uuid.UUID  `json:"-" validate:"uuid_required"`
	PriceListID *uuid.UUID `json:"price_list_id"`
}

type AssignCustomerPriceListHandler struct{ *Deps }

func (h AssignCustomerPriceListHandler) Handle(ctx context.Context, cmd AssignCustomerPriceList) (*model.Customer, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var customer *model.Customer
	err := repository.RunInTx(ctx, h.DB, func(ctx context.Context) error {
		var err error
		customer, err = h.Customers.FindByID(ctx, cmd.CustomerID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
		customer.PriceList = nil
		if cmd.PriceListID != nil {
			list, err := h.PriceRules.FindPriceList(ctx, *cmd.PriceListID)
			if err != nil {
				return notFound(err, ErrPriceListNotFound)
			}
			customer.PriceList = list
		}
		customer.PriceListID = cmd.PriceListID
		customer.Touch(cmd.Actor)
		return h.Customers.Save(ctx, customer)
	})
	if err != nil {
		return nil, internal(err)
	}
	return customer, nil
}

type CreateVolumeTier struct {
	Actor       string           `json:"-"`
	ProductID   uuid.UUID        `json:"product_id" validate:"uuid_required"`
	MinQuantity decimal.Decimal  `json:"min_quantity" validate:"gt=0"`
	MaxQuantity *decimal.Decimal `json:"max_quantity"`
	Price       decimal.Decimal  `json:"price" validate:"gte=0"`
}

type CreateVolumeTierHandler struct{ *Deps }

func (h CreateVolumeTierHandler) Handle(ctx context.Context, cmd CreateVolumeTier) (*model.VolumePricingTier, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if cmd.MaxQuantity != nil && cmd.MaxQuantity.LessThan(cmd.MinQuantity) {
		return nil, ErrTierRange
	}
	tier := &model.VolumePricingTier{ProductID: cmd.ProductID, MinQuantity: cmd.MinQuantity, Price: cmd.Price}
	if cmd.MaxQuantity != nil {
		tier.MaxQuantity = decimal.NewNullDecimal(*cmd.MaxQuantity)
	}
	tier.Touch(cmd.Actor)
	if _, err := h.Products.FindByID(ctx, cmd.ProductID); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if err := h.PriceRules.CreateTier(ctx, tier); err != nil {
		return nil, internal(err)
	}
	return tier, nil
}

type CreatePromotion struct {
	Actor     string          `json:"-"`
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Name      string          `json:"name" validate:"max=120"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	StartsAt  time.Time       `json:"starts_at" validate:"required"`
	EndsAt    time.Time       `json:"ends_at" validate:"required"`
}

type CreatePromotionHandler struct{ *Deps }

func (h CreatePromotionHandler) Handle(ctx context.Context, cmd CreatePromotion) (*model.PromotionalPrice, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if !cmd.EndsAt.After(cmd.StartsAt) {
		return nil, ErrPromotionWindow
	}
	promo := &model.PromotionalPrice{
		ProductID: cmd.ProductID,
		Name:      cmd.Name,
		Price:     cmd.Price,
		StartsAt:  cmd.StartsAt,
		EndsAt:    cmd.EndsAt,
		Active:    true,
	}
	promo.Touch(cmd.Actor)
	if _, err := h.Products.FindByID(ctx, cmd.ProductID); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if err := h.PriceRules.CreatePromotion(ctx, promo); err != nil {
		return nil, internal(err)
	}
	return promo, nil
}

type DeactivatePromotion struct {
	Actor string
	ID    uuid.UUID
}

type DeactivatePromotionHandler struct{ *Deps }

func (h DeactivatePromotionHandler) Handle(ctx context.Context, cmd DeactivatePromotion) (*model.PromotionalPrice, error) {
	promo, err := h.PriceRules.FindPromotion(ctx, cmd.ID)
	if err != nil {
		return nil, notFound(err, ErrPromotionNotFound)
	}
	promo.Active = false
	promo.Touch(cmd.Actor)
	if err := h.PriceRules.SavePromotion(ctx, promo); err != nil {
		return nil, internal(err)
	}
	return promo, nil
}

type GetPrice struct {
	ProductID  uuid.UUID
	CustomerID *uuid.UUID
	Quantity   decimal.Decimal
}

type GetPriceHandler struct{ *Deps }

func (h GetPriceHandler) Handle(ctx context.Context, q GetPrice) (*PriceResult, error) {
	return h.Pricing.GetPriceForCustomer(ctx, q.ProductID, q.CustomerID, q.Quantity)
}

type ListPriceLists struct{}

type ListPriceListsHandler struct{ *Deps }

func (h ListPriceListsHandler) Handle(ctx context.Context, _ ListPriceLists) ([]model.PriceList, error) {
	lists, err := h.PriceRules.ListPriceLists(ctx)
	return lists, internal(err)
}

type GetPriceList struct {
	ID uuid.UUID
}

type GetPriceListHandler struct{ *Deps }

func (h GetPriceListHandler) Handle(ctx context.Context, q GetPriceList) (*model.PriceList, error) {
	list, err := h.PriceRules.FindPriceList(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrPriceListNotFound)
	}
	return list, nil
}

type ListVolumeTiers struct {
	ProductID uuid.UUID
}

type ListVolumeTiersHandler struct{ *Deps }

func (h ListVolumeTiersHandler) Handle(ctx context.Context, q ListVolumeTiers) ([]model.VolumePricingTier, error) {
	tiers, err := h.PriceRules.Tiers(ctx, q.ProductID)
	return tiers, internal(err)
}

// ListPromotions lists every promotion, or those of one product.
type ListPromotions struct {
	ProductID *uuid.UUID
}

type ListPromotionsHandler struct{ *Deps }

func (h ListPromotionsHandler) Handle(ctx context.Context, q ListPromotions) ([]model.PromotionalPrice, error) {
	promos, err := h.PriceRules.Promotions(ctx, q.ProductID)
	return promos, internal(err)
}
