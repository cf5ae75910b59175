package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "order:confirm"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Confirm Order"
}

// Privilege codes checked by routes
const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"
	PrivProductView         = "product:view"
	PrivProductManage       = "product:manage"
	PrivProductImport       = "product:import"
	PrivCustomerView        = "customer:view"
	PrivCustomerManage      = "customer:manage"
	PrivSupplierView        = "supplier:view"
	PrivSupplierManage      = "supplier:manage"
	PrivPricingView         = "pricing:view"
	PrivPricingManage       = "pricing:manage"
	PrivQuoteView           = "quote:view"
	PrivQuoteManage         = "quote:manage"
	PrivOrderView           = "order:view"
	PrivOrderManage         = "order:manage"
	PrivOrderConfirm        = "order:confirm"
	PrivStockView           = "stock:view"
	PrivStockManage         = "stock:manage"
	PrivPurchaseView        = "purchase:view"
	PrivPurchaseManage      = "purchase:manage"
	PrivPurchaseApprove     = "purchase:approve"
	PrivBillingView         = "billing:view"
	PrivBillingManage       = "billing:manage"
	PrivReportView          = "report:view"
	PrivReportExport        = "report:export"
	PrivDashboardView       = "dashboard:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductManage, Name: "Manage Product"},
	{Code: PrivProductImport, Name: "Import Products"},
	{Code: PrivCustomerView, Name: "View Customer"},
	{Code: PrivCustomerManage, Name: "Manage Customer"},
	{Code: PrivSupplierView, Name: "View Supplier"},
	{Code: PrivSupplierManage, Name: "Manage Supplier"},
	{Code: PrivPricingView, Name: "View Pricing"},
	{Code: PrivPricingManage, Name: "Manage Pricing"},
	{Code: PrivQuoteView, Name: "View Quote"},
	{Code: PrivQuoteManage, Name: "Manage Quote"},
	{Code: PrivOrderView, Name: "View Order"},
	{Code: PrivOrderManage, Name: "Manage Order"},
	{Code: PrivOrderConfirm, Name: "Confirm Order"},
	{Code: PrivStockView, Name: "View Stock"},
	{Code: PrivStockManage, Name: "Manage Stock"},
	{Code: PrivPurchaseView, Name: "View Purchase"},
	{Code: PrivPurchaseManage, Name: "Manage Purchase"},
	{Code: PrivPurchaseApprove, Name: "Approve Purchase"},
	{Code: PrivBillingView, Name: "View Billing"},
	{Code: PrivBillingManage, Name: "Manage Billing"},
	{Code: PrivReportView, Name: "View Report"},
	{Code: PrivReportExport, Name: "Export Report"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}

// AdminExcluded are the privileges ADMIN does not get by default.
var AdminExcluded = map[string]bool{
	PrivUserCreate:          true,
	PrivUserUpdate:          true,
	PrivUserDelete:          true,
	PrivUserUpdatePrivilege: true,
}
