package repository

import (
	"context"
	"strings"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Owner types stored on polymorphic addresses and contacts.
const (
	OwnerCustomers = "customers"
	OwnerSuppliers = "suppliers"
)

type PartnerFilter struct {
	Search string              `query:"search"`
	Status model.PartnerStatus `query:"status"`
	Type   model.CustomerType  `query:"type"`
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Save(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByCode(ctx context.Context, code string) (*model.Customer, error)
	List(ctx context.Context, filter PartnerFilter, page PageRequest) (Page[model.Customer], error)
	All(ctx context.Context) ([]model.Customer, error)
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	Save(ctx context.Context, supplier *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindByCode(ctx context.Context, code string) (*model.Supplier, error)
	List(ctx context.Context, filter PartnerFilter, page PageRequest) (Page[model.Supplier], error)
}

// AddressBook stores the addresses and contacts shared by customers and suppliers.
type AddressBook interface {
	AddAddress(ctx context.Context, address *model.Address) error
	AddContact(ctx context.Context, contact *model.Contact) error
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return txFrom(ctx, r.db).Create(customer).Error
}

func (r *customerRepo) Save(ctx context.Context, customer *model.Customer) error {
	return txFrom(ctx, r.db).Omit("Addresses", "Contacts", "PriceList").Save(customer).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := txFrom(ctx, r.db).Preload("Addresses").Preload("Contacts").Preload("PriceList").
		First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindByCode(ctx context.Context, code string) (*model.Customer, error) {
	var customer model.Customer
	if err := txFrom(ctx, r.db).First(&customer, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) List(ctx context.Context, filter PartnerFilter, page PageRequest) (Page[model.Customer], error) {
	q := txFrom(ctx, r.db).Model(&model.Customer{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	return Paginate[model.Customer](q.Order("code ASC"), page)
}

func (r *customerRepo) All(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := txFrom(ctx, r.db).Order("code ASC").Find(&customers).Error
	return customers, err
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	return txFrom(ctx, r.db).Create(supplier).Error
}

func (r *supplierRepo) Save(ctx context.Context, supplier *model.Supplier) error {
	return txFrom(ctx, r.db).Omit("Addresses", "Contacts").Save(supplier).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	err := txFrom(ctx, r.db).Preload("Addresses").Preload("Contacts").First(&supplier, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) FindByCode(ctx context.Context, code string) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := txFrom(ctx, r.db).First(&supplier, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) List(ctx context.Context, filter PartnerFilter, page PageRequest) (Page[model.Supplier], error) {
	q := txFrom(ctx, r.db).Model(&model.Supplier{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return Paginate[model.Supplier](q.Order("code ASC"), page)
}

type addressBook struct {
	db *gorm.DB
}

func NewAddressBook(db *gorm.DB) AddressBook {
	return &addressBook{db}
}

// AddAddress clears the default flags the new address claims on the owner's other addresses.
func (r *addressBook) AddAddress(ctx context.Context, address *model.Address) error {
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		tx := txFrom(ctx, r.db)
		siblings := tx.Model(&model.Address{}).Where("owner_id = ? AND owner_type = ?", address.OwnerID, address.OwnerType)
		if address.IsDefaultBilling {
			if err := siblings.Session(&gorm.Session{}).Update("is_default_billing", false).Error; err != nil {
				return err
			}
		}
		if address.IsDefaultDelivery {
			if err := siblings.Session(&gorm.Session{}).Update("is_default_delivery", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}

// AddContact keeps a single primary contact per owner.
func (r *addressBook) AddContact(ctx context.Context, contact *model.Contact) error {
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		tx := txFrom(ctx, r.db)
		if contact.IsPrimary {
			err := tx.Model(&model.Contact{}).
				Where("owner_id = ? AND owner_type = ?", contact.OwnerID, contact.OwnerType).
				Update("is_primary", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(contact).Error
	})
}
