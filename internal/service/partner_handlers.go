package service

import (
	"context"
	"strings"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCustomer struct {
	Actor                  string             `json:"-"`
	Code                   string             `json:"code" validate:"required,max=50"`
	Type                   model.CustomerType `json:"type" validate:"required,oneof=B2B B2C"`
	Name                   string             `json:"name" validate:"required,max=255"`
	CompanyName            string             `json:"company_name" validate:"max=255"`
	VATNumber              string             `json:"vat_number" validate:"max=50"`
	Email                  string             `json:"email" validate:"omitempty,email"`
	Phone                  string             `json:"phone" validate:"max=50"`
	PaymentTermsDays       *int               `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
	DefaultDiscountPercent decimal.Decimal    `json:"default_discount_percent" validate:"gte=0,lte=100"`
	CreditLimit            decimal.Decimal    `json:"credit_limit" validate:"gte=0"`
	PriceListID            *uuid.UUID         `json:"price_list_id"`
}

type CreateCustomerHandler struct{ *Deps }

func (h CreateCustomerHandler) Handle(ctx context.Context, cmd CreateCustomer) (*model.Customer, error) {
	cmd.Code = strings.TrimSpace(cmd.Code)
	cmd.CompanyName = strings.TrimSpace(cmd.CompanyName)
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if cmd.Type == model.CustomerB2B && cmd.CompanyName == "" {
		return nil, ErrCompanyRequired
	}
	customer := &model.Customer{
		Code:                   cmd.Code,
		Type:                   cmd.Type,
		Name:                   strings.TrimSpace(cmd.Name),
		CompanyName:            cmd.CompanyName,
		VATNumber:              cmd.VATNumber,
		Email:                  cmd.Email,
		Phone:                  cmd.Phone,
		PaymentTermsDays:       30,
		DefaultDiscountPercent: cmd.DefaultDiscountPercent,
		CreditLimit:            cmd.CreditLimit,
		PriceListID:            cmd.PriceListID,
		Status:                 model.PartnerActive,
	}
	if cmd.PaymentTermsDays != nil {
		customer.PaymentTermsDays = *cmd.PaymentTermsDays
	}
	customer.Touch(cmd.Actor)

	err := repository.RunInTx(ctx, h.DB, func(ctx context.Context) error {
		if cmd.PriceListID != nil {
			if _, err := h.PriceRules.FindPriceList(ctx, *cmd.PriceListID); err != nil {
				return notFound(err, ErrPriceListNotFound)
			}
		}
		if err := h.Customers.Create(ctx, customer); err != nil {
			if isDuplicate(err) {
				return ErrDuplicateCode.WithParams(map[string]any{"Code": customer.Code})
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("customer")
	h.invalidateDashboard(ctx)
	return customer, nil
}

type UpdateCustomer struct {
	Actor                  string              `json:"-"`
	ID                     uuid.UUID           `json:"-" validate:"uuid_required"`
	Type                   *model.CustomerType `json:"type" validate:"omitempty,oneof=B2B B2C"`
	Name                   *string             `json:"name" validate:"omitempty,min=1,max=255"`
	CompanyName            *string             `json:"company_name" validate:"omitempty,max=255"`
	VATNumber              *string             `json:"vat_number" validate:"omitempty,max=50"`
	Email                  *string             `json:"email" validate:"omitempty,email"`
	Phone                  *string             `json:"phone" validate:"omitempty,max=50"`
	PaymentTermsDays       *int                `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
	DefaultDiscountPercent *decimal.Decimal    `json:"default_discount_percent"`
	CreditLimit            *decimal.Decimal    `json:"credit_limit"`
}

type UpdateCustomerHandler struct{ *Deps }

func (h UpdateCustomerHandler) Handle(ctx context.Context, cmd UpdateCustomer) (*model.Customer, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if cmd.DefaultDiscountPercent != nil && !percent(*cmd.DefaultDiscountPercent) {
		return nil, ErrValidation.WithParams(map[string]any{"Field": "DefaultDiscountPercent", "Tag": "lte", "Param": "100"})
	}
	if cmd.CreditLimit != nil && cmd.CreditLimit.IsNegative() {
		return nil, ErrValidation.WithParams(map[string]any{"Field": "CreditLimit", "Tag": "gte", "Param": "0"})
	}

	var customer *model.Customer
	err := repository.RunInTx(ctx, h.DB, func(ctx context.Context) error {
		var err error
		customer, err = h.Customers.FindByID(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
		if customer.Status == model.PartnerArchived {
			return ErrPartnerArchived
		}
		if cmd.Type != nil {
			customer.Type = *cmd.Type
		}
		if cmd.Name != nil {
			customer.Name = strings.TrimSpace(*cmd.Name)
		}
		if cmd.CompanyName != nil {
			customer.CompanyName = strings.TrimSpace(*cmd.CompanyName)
		}
		if cmd.VATNumber != nil {
			customer.VATNumber = *cmd.VATNumber
		}
		if cmd.Email != nil {
			customer.Email = *cmd.Email
		}
		if cmd.Phone != nil {
			customer.Phone = *cmd.Phone
		}
		if cmd.PaymentTermsDays != nil {
			customer.PaymentTermsDays = *cmd.PaymentTermsDays
		}
		if cmd.DefaultDiscountPercent != nil {
			customer.DefaultDiscountPercent = *cmd.DefaultDiscountPercent
		}
		if cmd.CreditLimit != nil {
			customer.CreditLimit = *cmd.CreditLimit
		}
		if customer.Type == model.CustomerB2B && customer.CompanyName == "" {
			return ErrCompanyRequired
		}
		customer.Touch(cmd.Actor)
		return h.Customers.Save(ctx, customer)
	})
	if err != nil {
		return nil, internal(err)
	}
	return customer, nil
}

type ArchiveCustomer struct {
	Actor string
	ID    uuid.UUID
}

type ArchiveCustomerHandler struct{ *Deps }

func (h ArchiveCustomerHandler) Handle(ctx context.Context, cmd ArchiveCustomer) (*model.Customer, error) {
	customer, err := h.Customers.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	customer.Archive()
	customer.Touch(cmd.Actor)
	if err := h.Customers.Save(ctx, customer); err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return customer, nil
}

type GetCustomer struct {
	ID uuid.UUID
}

type GetCustomerHandler struct{ *Deps }

func (h GetCustomerHandler) Handle(ctx context.Context, q GetCustomer) (*model.Customer, error) {
	customer, err := h.Customers.FindByID(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	return customer, nil
}

type ListCustomers struct {
	Filter repository.PartnerFilter
	Page   repository.PageRequest
}

type ListCustomersHandler struct{ *Deps }

func (h ListCustomersHandler) Handle(ctx context.Context, q ListCustomers) (repository.Page[model.Customer], error) {
	page, err := h.Customers.List(ctx, q.Filter, q.Page)
	return page, internal(err)
}

type CreateSupplier struct {
	Actor            string `json:"-"`
	Code             string `json:"code" validate:"required,max=50"`
	Name             string `json:"name" validate:"required,max=255"`
	VATNumber        string `json:"vat_number" validate:"max=50"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone" validate:"max=50"`
	PaymentTermsDays *int   `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
}

type CreateSupplierHandler struct{ *Deps }

func (h CreateSupplierHandler) Handle(ctx context.Context, cmd CreateSupplier) (*model.Supplier, error) {
	cmd.Code = strings.TrimSpace(cmd.Code)
	if err := validate(cmd); err != nil {
		return nil, err
	}
	supplier := &model.Supplier{
		Code:             cmd.Code,
		Name:             strings.TrimSpace(cmd.Name),
		VATNumber:        cmd.VATNumber,
		Email:            cmd.Email,
		Phone:            cmd.Phone,
		PaymentTermsDays: 30,
		Status:           model.PartnerActive,
	}
	if cmd.PaymentTermsDays != nil {
		supplier.PaymentTermsDays = *cmd.PaymentTermsDays
	}
	supplier.Touch(cmd.Actor)
	if err := h.Suppliers.Create(ctx, supplier); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateCode.WithParams(map[string]any{"Code": supplier.Code})
		}
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("supplier")
	return supplier, nil
}

type UpdateSupplier struct {
	Actor            string    `json:"-"`
	ID               uuid.UUID `json:"-" validate:"uuid_required"`
	Name             *string   `json:"name" validate:"omitempty,min=1,max=255"`
	VATNumber        *string   `json:"vat_number" validate:"omitempty,max=50"`
	Email            *string   `json:"email" validate:"omitempty,email"`
	Phone            *string   `json:"phone" validate:"omitempty,max=50"`
	PaymentTermsDays *int      `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
}

type UpdateSupplierHandler struct{ *Deps }

func (h UpdateSupplierHandler) Handle(ctx context.Context, cmd UpdateSupplier) (*model.Supplier, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	supplier, err := h.Suppliers.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, notFound(err, ErrSupplierNotFound)
	}
	if supplier.Status == model.PartnerArchived {
		return nil, ErrPartnerArchived
	}
	if cmd.Name != nil {
		supplier.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.VATNumber != nil {
		supplier.VATNumber = *cmd.VATNumber
	}
	if cmd.Email != nil {
		supplier.Email = *cmd.Email
	}
	if cmd.Phone != nil {
		supplier.Phone = *cmd.Phone
	}
	if cmd.PaymentTermsDays != nil {
		supplier.PaymentTermsDays = *cmd.PaymentTermsDays
	}
	supplier.Touch(cmd.Actor)
	if err := h.Suppliers.Save(ctx, supplier); err != nil {
		return nil, internal(err)
	}
	return supplier, nil
}

type ArchiveSupplier struct {
	Actor string
	ID    uuid.UUID
}

type ArchiveSupplierHandler struct{ *Deps }

func (h ArchiveSupplierHandler) Handle(ctx context.Context, cmd ArchiveSupplier) (*model.Supplier, error) {
	supplier, err := h.Suppliers.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, notFound(err, ErrSupplierNotFound)
	}
	supplier.Archive()
	supplier.Touch(cmd.Actor)
	if err := h.Suppliers.Save(ctx, supplier); err != nil {
		return nil, internal(err)
	}
	return supplier, nil
}

type GetSupplier struct {
	ID uuid.UUID
}

type GetSupplierHandler struct{ *Deps }

func (h GetSupplierHandler) Handle(ctx context.Context, q GetSupplier) (*model.Supplier, error) {
	supplier, err := h.Suppliers.FindByID(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrSupplierNotFound)
	}
	return supplier, nil
}

type ListSuppliers struct {
	Filter repository.PartnerFilter
	Page   repository.PageRequest
}

type ListSuppliersHandler struct{ *Deps }

func (h ListSuppliersHandler) Handle(ctx context.Context, q ListSuppliers) (repository.Page[model.Supplier], error) {
	page, err := h.Suppliers.List(ctx, q.Filter, q.Page)
	return page, internal(err)
}

// AddPartnerAddress attaches an address to a customer or a supplier.
// OwnerType is repository.OwnerCustomers or repository.OwnerSuppliers.
type AddPartnerAddress struct {
	Actor             string    `json:"-"`
	OwnerType         string    `json:"-" validate:"required,oneof=customers suppliers"`
	OwnerID           uuid.UUID `json:"-" validate:"uuid_required"`
	Label             string    `json:"label" validate:"max=50"`
	Line1             string    `json:"line1" validate:"required,max=255"`
	Line2             string    `json:"line2" validate:"max=255"`
	City              string    `json:"city" validate:"required,max=120"`
	PostalCode        string    `json:"postal_code" validate:"max=20"`
	Country           string    `json:"country" validate:"omitempty,len=2"`
	IsDefaultBilling  bool      `json:"is_default_billing"`
	IsDefaultDelivery bool      `json:"is_default_delivery"`
}

type AddPartnerAddressHandler struct{ *Deps }

func (h AddPartnerAddressHandler) Handle(ctx context.Context, cmd AddPartnerAddress) (*model.Address, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	address := &model.Address{
		OwnerID:           cmd.OwnerID,
		OwnerType:         cmd.OwnerType,
		Label:             cmd.Label,
		Line1:             cmd.Line1,
		Line2:             cmd.Line2,
		City:              cmd.City,
		PostalCode:        cmd.PostalCode,
		Country:           strings.ToUpper(cmd.Country),
		IsDefaultBilling:  cmd.IsDefaultBilling,
		IsDefaultDelivery: cmd.IsDefaultDelivery,
	}
	if address.Country == "" {
		address.Country = "FR"
	}
	address.Touch(cmd.Actor)
	err := repository.RunInTx(ctx, h.DB, func(ctx context.Context) error {
		if err := h.ensureOwner(ctx, cmd.OwnerType, cmd.OwnerID); err != nil {
			return err
		}
		return h.Addresses.AddAddress(ctx, address)
	})
	if err != nil {
		return nil, internal(err)
	}
	return address, nil
}

type AddPartnerContact struct {
	Actor     string    `json:"-"`
	OwnerType string    `json:"-" validate:"required,oneof=customers suppliers"`
	OwnerID   uuid.UUID `json:"-" validate:"uuid_required"`
	Name      string    `json:"name" validate:"required,max=255"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Phone     string    `json:"phone" validate:"max=50"`
	Role      string    `json:"role" validate:"max=100"`
	IsPrimary bool      `json:"is_primary"`
}

type AddPartnerContactHandler struct{ *Deps }

func (h AddPartnerContactHandler) Handle(ctx context.Context, cmd AddPartnerContact) (*model.Contact, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	contact := &model.Contact{
		OwnerID:   cmd.OwnerID,
		OwnerType: cmd.OwnerType,
		Name:      cmd.Name,
		Email:     cmd.Email,
		Phone:     cmd.Phone,
		Role:      cmd.Role,
		IsPrimary: cmd.IsPrimary,
	}
	contact.Touch(cmd.Actor)
	err := repository.RunInTx(ctx, h.DB, func(ctx context.Context) error {
		if err := h.ensureOwner(ctx, cmd.OwnerType, cmd.OwnerID); err != nil {
			return err
		}
		return h.Addresses.AddContact(ctx, contact)
	})
	if err != nil {
		return nil, internal(err)
	}
	return contact, nil
}

func (d *Deps) ensureOwner(ctx context.Context, ownerType string, id uuid.UUID) error {
	if ownerType == repository.OwnerSuppliers {
		_, err := d.Suppliers.FindByID(ctx, id)
		return notFound(err, ErrSupplierNotFound)
	}
	_, err := d.Customers.FindByID(ctx, id)
	return notFound(err, ErrCustomerNotFound)
}
