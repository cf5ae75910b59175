package service

import (
	"context"
	"errors"
	"time"

	"erp-backend/internal/apperr"
	"erp-backend/internal/cache"
	"erp-backend/internal/metrics"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/validator"

	"gorm.io/gorm"
)

// Deps is shared by every use-case handler. It is built once in main.
type Deps struct {
	DB *gorm.DB

	Products   repository.ProductRepository
	Customers  repository.CustomerRepository
	Suppliers  repository.SupplierRepository
	Addresses  repository.AddressBook
	PriceRules repository.PricingRepository
	Stock      repository.StockRepository
	Sequences  repository.SequenceRepository
	Quotes     repository.QuoteRepository
	Orders     repository.OrderRepository
	Purchases  repository.PurchaseRepository
	Billing    repository.BillingRepository
	Reports    repository.ReportRepository
	Users      repository.UserRepository
	Roles      repository.RoleRepository
	Privileges repository.PrivilegeRepository

	Pricing *PricingService

	Events   ws.Publisher
	Metrics  *metrics.Metrics
	Cache    cache.DashboardCache
	CacheTTL time.Duration
	Now      func() time.Time
}

// NewDeps wires the gorm repositories around db. Optional collaborators fall
// back to no-op implementations when nil.
func NewDeps(db *gorm.DB, events ws.Publisher, m *metrics.Metrics, c cache.DashboardCache, cacheTTL time.Duration) *Deps {
	if events == nil {
		events = ws.Discard{}
	}
	if c == nil {
		c = cache.NoopDashboardCache{}
	}
	d := &Deps{
		DB:         db,
		Products:   repository.NewProductRepo(db),
		Customers:  repository.NewCustomerRepo(db),
		Suppliers:  repository.NewSupplierRepo(db),
		Addresses:  repository.NewAddressBook(db),
		PriceRules: repository.NewPricingRepo(db),
		Stock:      repository.NewStockRepo(db),
		Sequences:  repository.NewSequenceRepo(db),
		Quotes:     repository.NewQuoteRepo(db),
		Orders:     repository.NewOrderRepo(db),
		Purchases:  repository.NewPurchaseRepo(db),
		Billing:    repository.NewBillingRepo(db),
		Reports:    repository.NewReportRepo(db),
		Users:      repository.NewUserRepo(db),
		Roles:      repository.NewRoleRepo(db),
		Privileges: repository.NewPrivilegeRepo(db),
		Events:     events,
		Metrics:    m,
		Cache:      c,
		CacheTTL:   cacheTTL,
		Now:        time.Now,
	}
	d.Pricing = NewPricingService(d.Products, d.Customers, d.PriceRules, d.now)
	return d
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// inTx runs fn in one transaction and publishes the collected events once it commits.
func (d *Deps) inTx(ctx context.Context, fn func(ctx context.Context, events *[]ws.Event) error) error {
	var events []ws.Event
	if err := repository.RunInTx(ctx, d.DB, func(ctx context.Context) error {
		return fn(ctx, &events)
	}); err != nil {
		return err
	}
	for _, e := range events {
		d.Events.Publish(e)
	}
	return nil
}

// invalidateDashboard drops cached stats after a change that moves them.
func (d *Deps) invalidateDashboard(ctx context.Context) {
	_ = d.Cache.Invalidate(ctx, cache.DashboardKey)
}

var ErrValidation = apperr.Validation("validation_failed", "validation failed")

// validate runs the struct tags of cmd and reports the first failure.
func validate(cmd interface{}) error {
	errs := validator.ValidateStruct(cmd)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return ErrValidation.WithParams(map[string]any{
		"Field": first.FailedField,
		"Tag":   first.Tag,
		"Param": first.Value,
	})
}

// notFound maps a missing row to missing and wraps anything else.
func notFound(err error, missing *apperr.Error) error {
	if err == nil {
		return nil
	}
	if repository.IsNotFound(err) {
		return missing
	}
	return internal(err)
}

// internal passes typed errors through and wraps the rest as Internal.
func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal("internal_error", "internal error").Wrap(err)
}

var (
	ErrProductNotFound         = apperr.NotFound("product_not_found", "product not found")
	ErrVariantNotFound         = apperr.NotFound("variant_not_found", "product variant not found")
	ErrCategoryNotFound        = apperr.NotFound("category_not_found", "category not found")
	ErrCustomerNotFound        = apperr.NotFound("customer_not_found", "customer not found")
	ErrSupplierNotFound        = apperr.NotFound("supplier_not_found", "supplier not found")
	ErrPriceListNotFound       = apperr.NotFound("price_list_not_found", "price list not found")
	ErrPromotionNotFound       = apperr.NotFound("promotion_not_found", "promotion not found")
	ErrLocationNotFound        = apperr.NotFound("location_not_found", "stock location not found")
	ErrStockItemNotFound       = apperr.NotFound("stock_item_not_found", "stock item not found")
	ErrQuoteNotFound           = apperr.NotFound("quote_not_found", "quote not found")
	ErrOrderNotFound           = apperr.NotFound("order_not_found", "order not found")
	ErrPurchaseRequestNotFound = apperr.NotFound("purchase_request_not_found", "purchase request not found")
	ErrPurchaseOrderNotFound   = apperr.NotFound("purchase_order_not_found", "purchase order not found")
	ErrReceiptNotFound         = apperr.NotFound("receipt_not_found", "purchase receipt not found")
	ErrSupplierInvoiceNotFound = apperr.NotFound("supplier_invoice_not_found", "supplier invoice not found")
	ErrInvoiceNotFound         = apperr.NotFound("invoice_not_found", "invoice not found")
	ErrPaymentNotFound         = apperr.NotFound("payment_not_found", "payment not found")
	ErrUserNotFound            = apperr.NotFound("user_not_found", "user not found")
	ErrRoleNotFound            = apperr.NotFound("role_not_found", "role not found")

	ErrDuplicateCode       = apperr.Conflict("duplicate_code", "code already exists")
	ErrEmailExists         = apperr.Conflict("email_exists", "email already exists")
	ErrOrderAlreadyBilled  = apperr.Conflict("order_already_invoiced", "order already has an invoice")
	ErrCompanyRequired     = apperr.Validation("company_name_required", "company name is required for business customers")
	ErrProductNotSellable  = apperr.Rule("product_not_sellable", "product is not active")
	ErrPartnerArchived     = apperr.Rule("partner_archived", "partner is archived")
	ErrNothingToInvoice    = apperr.Rule("nothing_to_invoice", "order has nothing left to invoice")
	ErrAllocationsExceed   = apperr.Rule("allocations_exceed_payment", "allocations exceed the payment amount")
	ErrSameLocation        = apperr.Validation("same_location", "source and destination locations must differ")
	ErrInvalidPeriod       = apperr.Validation("invalid_period", "start date must be before end date")
	ErrUnsupportedFormat   = apperr.Validation("unsupported_format", "unsupported export format")
	ErrInvalidCredentials  = apperr.Unauthorized("invalid_credentials", "invalid email or password")
	ErrInvalidToken        = apperr.Unauthorized("invalid_token", "invalid or expired token")
	ErrUserInactive        = apperr.Unauthorized("user_inactive", "user account is inactive")
	ErrWrongPassword       = apperr.Validation("wrong_password", "current password is incorrect")
	ErrSessionReplaced     = apperr.Unauthorized("session_replaced", "session expired (logged in on another device)")
	ErrSessionTimeout      = apperr.Unauthorized("session_timeout", "session expired due to inactivity")
	ErrPromotionWindow     = apperr.Validation("invalid_promotion_window", "promotion must end after it starts")
	ErrTierRange           = apperr.Validation("invalid_tier_range", "maximum quantity must not be below minimum quantity")
	ErrReceiptLineMismatch = apperr.Validation("receipt_line_mismatch", "receipt line does not belong to the purchase order")
)

// isDuplicate reports a unique constraint violation. The gorm dialectors
// translate driver errors into gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
