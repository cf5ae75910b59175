package service

import (
	"context"
	"errors"

	"erp-backend/internal/mediator"
	"erp-backend/pkg/jwt"
)

type registrar struct {
	m    *mediator.Mediator
	errs []error
}

func command[Req any, Res any](r *registrar, f func(context.Context, Req) (Res, error)) {
	r.errs = append(r.errs, mediator.RegisterCommand[Req, Res](r.m, mediator.HandlerFunc[Req, Res](f)))
}

func query[Req any, Res any](r *registrar, f func(context.Context, Req) (Res, error)) {
	r.errs = append(r.errs, mediator.RegisterQuery[Req, Res](r.m, mediator.HandlerFunc[Req, Res](f)))
}

// Register binds every use case to m.
func Register(m *mediator.Mediator, d *Deps, tokens *jwt.Manager) error {
	r := &registrar{m: m}

	// auth
	command(r, LoginHandler{d, tokens}.Handle)
	query(r, ValidateTokenHandler{d, tokens}.Handle)
	command(r, HeartbeatHandler{d}.Handle)
	command(r, LogoutHandler{d}.Handle)
	command(r, ChangePasswordHandler{d}.Handle)
	command(r, ResetPasswordHandler{d}.Handle)

	// billing
	command(r, CreateInvoiceFromOrderHandler{d}.Handle)
	command(r, IssueInvoiceHandler{d}.Handle)
	command(r, CancelInvoiceHandler{d}.Handle)
	command(r, RecordPaymentHandler{d}.Handle)
	query(r, GetInvoiceHandler{d}.Handle)
	query(r, ListInvoicesHandler{d}.Handle)
	query(r, GetPaymentHandler{d}.Handle)
	query(r, ListOverdueInvoicesHandler{d}.Handle)
	query(r, GetAgingReportHandler{d}.Handle)

	// order
	command(r, CreateOrderHandler{d}.Handle)
	command(r, UpdateOrderLinesHandler{d}.Handle)
	command(r, ConfirmOrderHandler{d}.Handle)
	command(r, MarkOrderReadyHandler{d}.Handle)
	command(r, ShipOrderHandler{d}.Handle)
	command(r, DeliverOrderHandler{d}.Handle)
	command(r, CancelOrderHandler{d}.Handle)
	query(r, GetOrderHandler{d}.Handle)
	query(r, ListOrdersHandler{d}.Handle)

	// partner
	command(r, CreateCustomerHandler{d}.Handle)
	command(r, UpdateCustomerHandler{d}.Handle)
	command(r, ArchiveCustomerHandler{d}.Handle)
	query(r, GetCustomerHandler{d}.Handle)
	query(r, ListCustomersHandler{d}.Handle)
	command(r, CreateSupplierHandler{d}.Handle)
	command(r, UpdateSupplierHandler{d}.Handle)
	command(r, ArchiveSupplierHandler{d}.Handle)
	query(r, GetSupplierHandler{d}.Handle)
	query(r, ListSuppliersHandler{d}.Handle)
	command(r, AddPartnerAddressHandler{d}.Handle)
	command(r, AddPartnerContactHandler{d}.Handle)

	// pricing
	command(r, CreatePriceListHandler{d}.Handle)
	command(r, SetPriceListItemHandler{d}.Handle)
	command(r, AssignCustomerPriceListHandler{d}.Handle)
	command(r, CreateVolumeTierHandler{d}.Handle)
	command(r, CreatePromotionHandler{d}.Handle)
	command(r, DeactivatePromotionHandler{d}.Handle)
	query(r, GetPriceHandler{d}.Handle)
	query(r, ListPriceListsHandler{d}.Handle)
	query(r, GetPriceListHandler{d}.Handle)
	query(r, ListVolumeTiersHandler{d}.Handle)
	query(r, ListPromotionsHandler{d}.Handle)

	// product
	command(r, CreateProductHandler{d}.Handle)
	command(r, UpdateProductHandler{d}.Handle)
	command(r, ChangeProductStatusHandler{d}.Handle)
	command(r, ArchiveProductHandler{d}.Handle)
	command(r, AddProductVariantHandler{d}.Handle)
	command(r, CreateCategoryHandler{d}.Handle)
	query(r, ListCategoriesHandler{d}.Handle)
	query(r, GetProductHandler{d}.Handle)
	query(r, ListProductsHandler{d}.Handle)
	query(r, GetPriceHistoryHandler{d}.Handle)
	query(r, GetCostHistoryHandler{d}.Handle)
	command(r, ImportProductsHandler{d}.Handle)
	query(r, ExportProductsHandler{d}.Handle)

	// purchase
	command(r, CreatePurchaseRequestHandler{d}.Handle)
	command(r, SubmitPurchaseRequestHandler{d}.Handle)
	command(r, ApprovePurchaseRequestHandler{d}.Handle)
	command(r, RejectPurchaseRequestHandler{d}.Handle)
	command(r, ConvertRequestToPurchaseOrderHandler{d}.Handle)
	command(r, CreatePurchaseOrderHandler{d}.Handle)
	command(r, UpdatePurchaseOrderLinesHandler{d}.Handle)
	command(r, SendPurchaseOrderHandler{d}.Handle)
	command(r, ConfirmPurchaseOrderHandler{d}.Handle)
	command(r, CancelPurchaseOrderHandler{d}.Handle)
	command(r, CreatePurchaseReceiptHandler{d}.Handle)
	command(r, CreateSupplierInvoiceHandler{d}.Handle)
	command(r, MatchSupplierInvoiceHandler{d}.Handle)
	command(r, ApproveSupplierInvoiceHandler{d}.Handle)
	query(r, GetPurchaseRequestHandler{d}.Handle)
	query(r, ListPurchaseRequestsHandler{d}.Handle)
	query(r, GetPurchaseOrderHandler{d}.Handle)
	query(r, ListPurchaseOrdersHandler{d}.Handle)
	query(r, GetPurchaseReceiptHandler{d}.Handle)
	query(r, ListPurchaseReceiptsHandler{d}.Handle)
	query(r, GetSupplierInvoiceHandler{d}.Handle)
	query(r, ListSupplierInvoicesHandler{d}.Handle)

	// quote
	command(r, CreateQuoteHandler{d}.Handle)
	command(r, UpdateQuoteHandler{d}.Handle)
	command(r, SendQuoteHandler{d}.Handle)
	command(r, AcceptQuoteHandler{d}.Handle)
	command(r, RejectQuoteHandler{d}.Handle)
	command(r, CancelQuoteHandler{d}.Handle)
	command(r, ConvertQuoteToOrderHandler{d}.Handle)
	query(r, GetQuoteHandler{d}.Handle)
	query(r, ListQuotesHandler{d}.Handle)
	query(r, ListQuoteVersionsHandler{d}.Handle)

	// report
	query(r, GetDashboardStatsHandler{d}.Handle)
	query(r, GetStockMovementChartHandler{d}.Handle)
	query(r, SalesReportHandler{d}.Handle)
	query(r, MarginReportHandler{d}.Handle)
	query(r, StockValuationReportHandler{d}.Handle)
	query(r, CustomerReportHandler{d}.Handle)
	query(r, PurchaseReportHandler{d}.Handle)
	query(r, ExportReportHandler{d}.Handle)
	query(r, ExportFECHandler{d}.Handle)

	// stock
	command(r, CreateLocationHandler{d}.Handle)
	query(r, ListLocationsHandler{d}.Handle)
	command(r, EnsureStockItemHandler{d}.Handle)
	command(r, SetStockThresholdsHandler{d}.Handle)
	command(r, ReserveStockHandler{d}.Handle)
	command(r, ReleaseStockHandler{d}.Handle)
	command(r, AdjustStockHandler{d}.Handle)
	command(r, ReceiveStockHandler{d}.Handle)
	command(r, IssueStockHandler{d}.Handle)
	command(r, TransferStockHandler{d}.Handle)
	query(r, GetStockItemHandler{d}.Handle)
	query(r, ListStockItemsHandler{d}.Handle)
	query(r, ListStockAlertsHandler{d}.Handle)
	query(r, ListMovementsHandler{d}.Handle)

	// user
	command(r, CreateUserHandler{d}.Handle)
	command(r, UpdateUserHandler{d}.Handle)
	command(r, DeleteUserHandler{d}.Handle)
	command(r, UpdateUserPrivilegesHandler{d}.Handle)
	command(r, UpdateLocaleHandler{d}.Handle)
	query(r, ListUsersHandler{d}.Handle)
	query(r, GetUserHandler{d}.Handle)
	query(r, ListRolesHandler{d}.Handle)
	query(r, ListPrivilegesHandler{d}.Handle)

	return errors.Join(r.errs...)
}
