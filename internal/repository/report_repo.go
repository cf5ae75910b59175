package repository

import (
	"context"
	"sort"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardStats is the overview shown on the dashboard.
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	TotalCustomers int64           `json:"total_customers"`
	OpenOrders     int64           `json:"open_orders"`
	LowStockCount  int64           `json:"low_stock_count"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
	MonthRevenue   decimal.Decimal `json:"month_revenue"`
	Receivables    decimal.Decimal `json:"receivables"`
}

type SalesRow struct {
	Period   string          `json:"period"`
	Invoices int             `json:"invoices"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type MarginRow struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

type StockValuationRow struct {
	ProductID uuid.UUID       `json:"product_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Value     decimal.Decimal `json:"value"`
}

type CustomerRow struct {
	CustomerID  uuid.UUID       `json:"customer_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Invoices    int             `json:"invoices"`
	Revenue     decimal.Decimal `json:"revenue"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type PurchaseRow struct {
	SupplierID uuid.UUID       `json:"supplier_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Orders     int             `json:"orders"`
	Total      decimal.Decimal `json:"total"`
}

type ReportRepository interface {
	DashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error)
	// Sales groups issued invoices by day or month ("day" | "month").
	Sales(ctx context.Context, from, to time.Time, groupBy string) ([]SalesRow, error)
	Margins(ctx context.Context, from, to time.Time) ([]MarginRow, error)
	StockValuation(ctx context.Context) ([]StockValuationRow, error)
	Customers(ctx context.Context, from, to time.Time) ([]CustomerRow, error)
	Purchases(ctx context.Context, from, to time.Time) ([]PurchaseRow, error)
}

type reportRepo struct {
	db      *gorm.DB
	billing BillingRepository
	stock   StockRepository
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db, billing: NewBillingRepo(db), stock: NewStockRepo(db)}
}

func (r *reportRepo) DashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	db := txFrom(ctx, r.db)

	if err := db.Model(&model.Product{}).Where("status <> ?", model.ProductArchived).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Customer{}).Where("status = ?", model.PartnerActive).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, err
	}
	open := []model.OrderStatus{model.OrderDraft, model.OrderConfirmed, model.OrderReady, model.OrderShipped}
	if err := db.Model(&model.Order{}).Where("status IN ?", open).Count(&stats.OpenOrders).Error; err != nil {
		return nil, err
	}

	valuation, err := r.StockValuation(ctx)
	if err != nil {
		return nil, err
	}
	stats.StockValuation = decimal.Zero
	for _, row := range valuation {
		stats.StockValuation = stats.StockValuation.Add(row.Value)
	}

	items, err := r.stock.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		level := items[i].AlertLevel()
		if level == model.AlertLowStock || level == model.AlertOutOfStock {
			stats.LowStockCount++
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	invoices, err := r.billing.InvoicesBetween(ctx, monthStart, now)
	if err != nil {
		return nil, err
	}
	stats.MonthRevenue = decimal.Zero
	for _, inv := range invoices {
		stats.MonthRevenue = stats.MonthRevenue.Add(inv.Subtotal)
	}

	outstanding, err := r.billing.Outstanding(ctx)
	if err != nil {
		return nil, err
	}
	stats.Receivables = decimal.Zero
	for i := range outstanding {
		stats.Receivables = stats.Receivables.Add(outstanding[i].Balance())
	}
	return &stats, nil
}

func (r *reportRepo) Sales(ctx context.Context, from, to time.Time, groupBy string) ([]SalesRow, error) {
	invoices, err := r.billing.InvoicesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	layout := "2006-01-02"
	if groupBy == "month" {
		layout = "2006-01"
	}
	rows := make([]SalesRow, 0)
	index := map[string]int{}
	for _, inv := range invoices {
		period := inv.IssueDate.Format(layout)
		i, ok := index[period]
		if !ok {
			rows = append(rows, SalesRow{Period: period, Subtotal: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero})
			i = len(rows) - 1
			index[period] = i
		}
		rows[i].Invoices++
		rows[i].Subtotal = rows[i].Subtotal.Add(inv.Subtotal)
		rows[i].Tax = rows[i].Tax.Add(inv.TaxTotal)
		rows[i].Total = rows[i].Total.Add(inv.Total)
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Period < rows[b].Period })
	return rows, nil
}

// Margins values sold quantities at the current product cost.
func (r *reportRepo) Margins(ctx context.Context, from, to time.Time) ([]MarginRow, error) {
	invoices, err := r.billing.InvoicesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	rows := make([]MarginRow, 0)
	if len(ids) == 0 {
		return rows, nil
	}

	db := txFrom(ctx, r.db)
	var lines []model.InvoiceLine
	if err := db.Where("invoice_id IN ?", ids).Find(&lines).Error; err != nil {
		return nil, err
	}
	index := map[uuid.UUID]int{}
	for _, l := range lines {
		i, ok := index[l.ProductID]
		if !ok {
			rows = append(rows, MarginRow{ProductID: l.ProductID, Quantity: decimal.Zero, Revenue: decimal.Zero})
			i = len(rows) - 1
			index[l.ProductID] = i
		}
		rows[i].Quantity = rows[i].Quantity.Add(l.Quantity)
		rows[i].Revenue = rows[i].Revenue.Add(l.LineSubtotal)
	}

	productIDs := make([]uuid.UUID, 0, len(index))
	for id := range index {
		productIDs = append(productIDs, id)
	}
	var products []model.Product
	if err := db.Unscoped().Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		row := &rows[index[p.ID]]
		row.Code = p.Code
		row.Name = p.Name
		row.Cost = model.Round2(row.Quantity.Mul(p.Cost))
		row.Margin = row.Revenue.Sub(row.Cost)
		row.MarginPercent = decimal.Zero
		if row.Revenue.IsPositive() {
			row.MarginPercent = row.Margin.Div(row.Revenue).Mul(decimal.NewFromInt(100)).Round(2)
		}
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Code < rows[b].Code })
	return rows, nil
}

func (r *reportRepo) StockValuation(ctx context.Context) ([]StockValuationRow, error) {
	items, err := r.stock.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]StockValuationRow, 0, len(items))
	for _, it := range items {
		if it.Product == nil || !it.PhysicalQuantity.IsPositive() {
			continue
		}
		row := StockValuationRow{
			ProductID: it.ProductID,
			Code:      it.Product.Code,
			Name:      it.Product.Name,
			Quantity:  it.PhysicalQuantity,
			UnitCost:  it.Product.Cost,
			Value:     model.Round2(it.PhysicalQuantity.Mul(it.Product.Cost)),
		}
		if it.Location != nil {
			row.Location = it.Location.Code
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].Code == rows[b].Code {
			return rows[a].Location < rows[b].Location
		}
		return rows[a].Code < rows[b].Code
	})
	return rows, nil
}

func (r *reportRepo) Customers(ctx context.Context, from, to time.Time) ([]CustomerRow, error) {
	invoices, err := r.billing.InvoicesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rows := make([]CustomerRow, 0)
	index := map[uuid.UUID]int{}
	for i := range invoices {
		inv := &invoices[i]
		j, ok := index[inv.CustomerID]
		if !ok {
			row := CustomerRow{CustomerID: inv.CustomerID, Revenue: decimal.Zero, Outstanding: decimal.Zero}
			if inv.Customer != nil {
				row.Code = inv.Customer.Code
				row.Name = inv.Customer.DisplayName()
			}
			rows = append(rows, row)
			j = len(rows) - 1
			index[inv.CustomerID] = j
		}
		rows[j].Invoices++
		rows[j].Revenue = rows[j].Revenue.Add(inv.Subtotal)
		rows[j].Outstanding = rows[j].Outstanding.Add(inv.Balance())
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Revenue.GreaterThan(rows[b].Revenue) })
	return rows, nil
}

func (r *reportRepo) Purchases(ctx context.Context, from, to time.Time) ([]PurchaseRow, error) {
	var orders []model.PurchaseOrder
	err := txFrom(ctx, r.db).Preload("Supplier").
		Where("status NOT IN ?", []model.PurchaseOrderStatus{model.PurchaseOrderDraft, model.PurchaseOrderCancelled}).
		Order("created_at ASC").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	orders = filterByDay(orders, from, to, func(po model.PurchaseOrder) time.Time { return po.CreatedAt })

	rows := make([]PurchaseRow, 0)
	index := map[uuid.UUID]int{}
	for _, po := range orders {
		i, ok := index[po.SupplierID]
		if !ok {
			row := PurchaseRow{SupplierID: po.SupplierID, Total: decimal.Zero}
			if po.Supplier != nil {
				row.Code = po.Supplier.Code
				row.Name = po.Supplier.Name
			}
			rows = append(rows, row)
			i = len(rows) - 1
			index[po.SupplierID] = i
		}
		rows[i].Orders++
		rows[i].Total = rows[i].Total.Add(po.Total)
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Total.GreaterThan(rows[b].Total) })
	return rows, nil
}
