package service

import (
	"context"
	"sort"
	"time"

	"erp-backend/internal/cache"
	"erp-backend/internal/export"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type GetDashboardStats struct{}

type GetDashboardStatsHandler struct{ *Deps }

// Handle serves stats from the cache when present; cache failures fall back to the database.
func (h GetDashboardStatsHandler) Handle(ctx context.Context, _ GetDashboardStats) (*repository.DashboardStats, error) {
	log := logger.FromContext(ctx)
	stats, ok, err := h.Cache.Get(ctx, cache.DashboardKey)
	if err != nil {
		log.Warn("dashboard cache read failed", zap.Error(err))
	}
	if ok {
		return stats, nil
	}
	stats, err = h.Reports.DashboardStats(ctx, h.now())
	if err != nil {
		return nil, internal(err)
	}
	if err := h.Cache.Set(ctx, cache.DashboardKey, stats, h.CacheTTL); err != nil {
		log.Warn("dashboard cache write failed", zap.Error(err))
	}
	return stats, nil
}

type GetStockMovementChart struct {
	Days int
}

type GetStockMovementChartHandler struct{ *Deps }

func (h GetStockMovementChartHandler) Handle(ctx context.Context, q GetStockMovementChart) ([]repository.StockMovementData, error) {
	days := q.Days
	if days <= 0 {
		days = 7
	}
	if days > 366 {
		days = 366
	}
	end := h.now()
	rows, err := h.Stock.DailyMovements(ctx, end.AddDate(0, 0, -days), end)
	return rows, internal(err)
}

// Period bounds a report; both dates are inclusive days.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (p Period) check() error {
	if p.From.IsZero() || p.To.IsZero() || p.To.Before(p.From) {
		return ErrInvalidPeriod
	}
	return nil
}

type SalesReport struct {
	Period
	GroupBy string
}

type SalesReportHandler struct{ *Deps }

func (h SalesReportHandler) Handle(ctx context.Context, q SalesReport) ([]repository.SalesRow, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	if q.GroupBy != "month" {
		q.GroupBy = "day"
	}
	rows, err := h.Reports.Sales(ctx, q.From, q.To, q.GroupBy)
	return rows, internal(err)
}

type MarginReport struct{ Period }

type MarginReportHandler struct{ *Deps }

func (h MarginReportHandler) Handle(ctx context.Context, q MarginReport) ([]repository.MarginRow, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	rows, err := h.Reports.Margins(ctx, q.From, q.To)
	return rows, internal(err)
}

type StockValuationReport struct{}

type StockValuationReportHandler struct{ *Deps }

func (h StockValuationReportHandler) Handle(ctx context.Context, _ StockValuationReport) ([]repository.StockValuationRow, error) {
	rows, err := h.Reports.StockValuation(ctx)
	return rows, internal(err)
}

type CustomerReport struct{ Period }

type CustomerReportHandler struct{ *Deps }

func (h CustomerReportHandler) Handle(ctx context.Context, q CustomerReport) ([]repository.CustomerRow, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	rows, err := h.Reports.Customers(ctx, q.From, q.To)
	return rows, internal(err)
}

type PurchaseReport struct{ Period }

type PurchaseReportHandler struct{ *Deps }

func (h PurchaseReportHandler) Handle(ctx context.Context, q PurchaseReport) ([]repository.PurchaseRow, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	rows, err := h.Reports.Purchases(ctx, q.From, q.To)
	return rows, internal(err)
}

// ExportReport renders one of the reports above as a downloadable file.
type ExportReport struct {
	Report  string `validate:"required,oneof=sales margins stock_valuation customers purchases"`
	Format  string
	GroupBy string
	Period
}

type ExportReportHandler struct{ *Deps }

func (h ExportReportHandler) Handle(ctx context.Context, q ExportReport) (*export.File, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	var table export.Table
	switch q.Report {
	case "sales":
		rows, err := SalesReportHandler{h.Deps}.Handle(ctx, SalesReport{Period: q.Period, GroupBy: q.GroupBy})
		if err != nil {
			return nil, err
		}
		table = export.Table{Title: "Sales", Headers: []string{"Period", "Invoices", "Subtotal", "Tax", "Total"}}
		for _, r := range rows {
			table.Rows = append(table.Rows, []string{r.Period, itoa(r.Invoices), money(r.Subtotal), money(r.Tax), money(r.Total)})
		}
	case "margins":
		rows, err := MarginReportHandler{h.Deps}.Handle(ctx, MarginReport{q.Period})
		if err != nil {
			return nil, err
		}
		table = export.Table{Title: "Margins", Headers: []string{"Code", "Name", "Quantity", "Revenue", "Cost", "Margin", "Margin %"}}
		for _, r := range rows {
			table.Rows = append(table.Rows, []string{r.Code, r.Name, r.Quantity.String(), money(r.Revenue), money(r.Cost), money(r.Margin), money(r.MarginPercent)})
		}
	case "stock_valuation":
		rows, err := StockValuationReportHandler{h.Deps}.Handle(ctx, StockValuationReport{})
		if err != nil {
			return nil, err
		}
		table = export.Table{Title: "Stock valuation", Headers: []string{"Code", "Name", "Location", "Quantity", "Unit cost", "Value"}}
		for _, r := range rows {
			table.Rows = append(table.Rows, []string{r.Code, r.Name, r.Location, r.Quantity.String(), money(r.UnitCost), money(r.Value)})
		}
	case "customers":
		rows, err := CustomerReportHandler{h.Deps}.Handle(ctx, CustomerReport{q.Period})
		if err != nil {
			return nil, err
		}
		table = export.Table{Title: "Customers", Headers: []string{"Code", "Name", "Invoices", "Revenue", "Outstanding"}}
		for _, r := range rows {
			table.Rows = append(table.Rows, []string{r.Code, r.Name, itoa(r.Invoices), money(r.Revenue), money(r.Outstanding)})
		}
	case "purchases":
		rows, err := PurchaseReportHandler{h.Deps}.Handle(ctx, PurchaseReport{q.Period})
		if err != nil {
			return nil, err
		}
		table = export.Table{Title: "Purchases", Headers: []string{"Code", "Name", "Orders", "Total"}}
		for _, r := range rows {
			table.Rows = append(table.Rows, []string{r.Code, r.Name, itoa(r.Orders), money(r.Total)})
		}
	}
	return render(table, export.Format(q.Format), "report-"+q.Report)
}

// ExportFEC builds the accounting entries file for issued invoices and
// payments received in the period.
type ExportFEC struct {
	Period
	SIREN string
}

type ExportFECHandler struct{ *Deps }

func (h ExportFECHandler) Handle(ctx context.Context, q ExportFEC) (*export.File, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	invoices, err := h.Billing.InvoicesBetween(ctx, q.From, q.To)
	if err != nil {
		return nil, internal(err)
	}
	payments, err := h.Billing.PaymentsBetween(ctx, q.From, q.To)
	if err != nil {
		return nil, internal(err)
	}
	customers, err := h.Customers.All(ctx)
	if err != nil {
		return nil, internal(err)
	}
	names := make(map[string]*model.Customer, len(customers))
	for i := range customers {
		names[customers[i].ID.String()] = &customers[i]
	}

	lines := fecLines(invoices, payments, names)
	file := &export.File{
		Name:        export.FECFileName(q.SIREN, q.To),
		ContentType: "text/plain; charset=utf-8",
		Data:        export.WriteFEC(lines),
	}
	logger.FromContext(ctx).Info("fec exported",
		zap.String("file", file.Name), zap.Int("invoices", len(invoices)), zap.Int("payments", len(payments)))
	return file, nil
}

// fecLines turns invoices into sales journal entries and payments into bank
// journal entries, numbered in date order.
func fecLines(invoices []model.Invoice, payments []model.Payment, customers map[string]*model.Customer) []export.FECLine {
	type entry struct {
		at    time.Time
		lines []export.FECLine
	}
	var entries []entry

	for _, inv := range invoices {
		if inv.Status == model.InvoiceDraft || inv.Status == model.InvoiceCancelled {
			continue
		}
		code, name := customerAux(customers, inv.CustomerID.String(), inv.Customer)
		label := "Facture " + inv.Number
		base := export.FECLine{
			Journal: export.JournalSales, EntryDate: inv.IssueDate,
			PieceRef: inv.Number, PieceDate: inv.IssueDate, Label: label,
		}
		e := entry{at: inv.IssueDate}
		debit := base
		debit.Account, debit.AuxAccount, debit.AuxLabel = export.AccountCustomers, code, name
		debit.Debit, debit.Credit = inv.Total, decimal.Zero
		e.lines = append(e.lines, debit)

		revenue := base
		revenue.Account = export.AccountRevenue
		revenue.Debit, revenue.Credit = decimal.Zero, inv.Subtotal
		e.lines = append(e.lines, revenue)

		if inv.TaxTotal.IsPositive() {
			vat := base
			vat.Account = export.AccountVAT
			vat.Debit, vat.Credit = decimal.Zero, inv.TaxTotal
			e.lines = append(e.lines, vat)
		}
		entries = append(entries, e)
	}

	for _, p := range payments {
		code, name := customerAux(customers, p.CustomerID.String(), nil)
		base := export.FECLine{
			Journal: export.JournalBank, EntryDate: p.PaidAt,
			PieceRef: p.Number, PieceDate: p.PaidAt, Label: "Règlement " + p.Number,
		}
		bank := base
		bank.Account = export.AccountBank
		bank.Debit, bank.Credit = p.Amount, decimal.Zero
		receivable := base
		receivable.Account, receivable.AuxAccount, receivable.AuxLabel = export.AccountCustomers, code, name
		receivable.Debit, receivable.Credit = decimal.Zero, p.Amount
		entries = append(entries, entry{at: p.PaidAt, lines: []export.FECLine{bank, receivable}})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
	var out []export.FECLine
	for i, e := range entries {
		for _, l := range e.lines {
			l.EntryNum = itoa(i + 1)
			out = append(out, l)
		}
	}
	return out
}

func customerAux(customers map[string]*model.Customer, id string, preloaded *model.Customer) (string, string) {
	c := preloaded
	if c == nil {
		c = customers[id]
	}
	if c == nil {
		return "", ""
	}
	return c.Code, c.DisplayName()
}
