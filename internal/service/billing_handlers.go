package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateInvoiceFromOrder bills what a delivered order has not been billed for yet.
type CreateInvoiceFromOrder struct {
	Actor   string    `json:"-"`
	OrderID uuid.UUID `json:"order_id" validate:"uuid_required"`
}

type CreateInvoiceFromOrderHandler struct{ *Deps }

func (h CreateInvoiceFromOrderHandler) Handle(ctx context.Context, cmd CreateInvoiceFromOrder) (*model.Invoice, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var invoice *model.Invoice
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		order, err := h.Orders.Lock(ctx, cmd.OrderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if order.Status != model.OrderDelivered {
			return model.ErrInvalidTransition.WithParams(map[string]any{"From": string(order.Status), "To": string(model.OrderInvoiced)})
		}
		open, err := h.Billing.OpenInvoiceForOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrOrderAlreadyBilled.WithParams(map[string]any{"Number": open.Number})
		}
		customer, err := h.Customers.FindByID(ctx, order.CustomerID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound)
		}

		today := h.now()
		invoice = &model.Invoice{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			CustomerID: order.CustomerID,
			OrderID:    order.ID,
			Status:     model.InvoiceDraft,
			IssueDate:  today,
			DueDate:    today.AddDate(0, 0, customer.PaymentTermsDays),
			AmountPaid: decimal.Zero,
		}
		invoice.Touch(cmd.Actor)

		var lines []model.InvoiceLine
		for i := range order.Lines {
			ol := &order.Lines[i]
			qty := ol.Invoiceable()
			if !qty.IsPositive() {
				continue
			}
			lines = append(lines, model.InvoiceLine{
				OrderLineID: ol.ID,
				ProductID:   ol.ProductID,
				Description: ol.Description,
				LineAmounts: model.LineAmounts{
					Quantity:        qty,
					UnitPrice:       ol.UnitPrice,
					DiscountPercent: ol.DiscountPercent,
					TaxRate:         ol.TaxRate,
				},
			})
			ol.InvoicedQuantity = ol.InvoicedQuantity.Add(qty)
			if err := h.Orders.SaveLine(ctx, ol); err != nil {
				return err
			}
		}
		if len(lines) == 0 {
			return ErrNothingToInvoice
		}
		invoice.ReplaceLines(lines)
		if invoice.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixInvoice); err != nil {
			return err
		}
		if err := h.Billing.CreateInvoice(ctx, invoice); err != nil {
			return err
		}
		if err := order.TransitionTo(model.OrderInvoiced, today); err != nil {
			return err
		}
		order.Touch(cmd.Actor)
		if err := h.Orders.SaveHeader(ctx, order); err != nil {
			return err
		}
		*events = append(*events, invoiceEvent("created", invoice, cmd.Actor), orderEvent(string(model.OrderInvoiced), order, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("invoice")
	h.invalidateDashboard(ctx)
	return invoice, nil
}

type IssueInvoice struct {
	Actor string
	ID    uuid.UUID
}

type IssueInvoiceHandler struct{ *Deps }

// Handle issues a draft invoice today; the due date follows the customer's terms.
func (h IssueInvoiceHandler) Handle(ctx context.Context, cmd IssueInvoice) (*model.Invoice, error) {
	var invoice *model.Invoice
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		invoice, err = h.Billing.LockInvoice(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrInvoiceNotFound)
		}
		customer, err := h.Customers.FindByID(ctx, invoice.CustomerID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
		if err := invoice.Issue(); err != nil {
			return err
		}
		invoice.IssueDate = h.now()
		invoice.DueDate = invoice.IssueDate.AddDate(0, 0, customer.PaymentTermsDays)
		invoice.Touch(cmd.Actor)
		if err := h.Billing.SaveInvoice(ctx, invoice); err != nil {
			return err
		}
		*events = append(*events, invoiceEvent("issued", invoice, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return invoice, nil
}

// CancelInvoice voids an unpaid invoice and puts its order back to delivered.
type CancelInvoice struct {
	Actor string
	ID    uuid.UUID
}

type CancelInvoiceHandler struct{ *Deps }

func (h CancelInvoiceHandler) Handle(ctx context.Context, cmd CancelInvoice) (*model.Invoice, error) {
	var invoice *model.Invoice
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		invoice, err = h.Billing.LockInvoice(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrInvoiceNotFound)
		}
		if err := invoice.Cancel(); err != nil {
			return err
		}
		invoice.Touch(cmd.Actor)
		if err := h.Billing.SaveInvoice(ctx, invoice); err != nil {
			return err
		}

		order, err := h.Orders.Lock(ctx, invoice.OrderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		billed := make(map[uuid.UUID]decimal.Decimal, len(invoice.Lines))
		for _, l := range invoice.Lines {
			billed[l.OrderLineID] = billed[l.OrderLineID].Add(l.Quantity)
		}
		for i := range order.Lines {
			ol := &order.Lines[i]
			qty, ok := billed[ol.ID]
			if !ok {
				continue
			}
			ol.InvoicedQuantity = decimal.Max(decimal.Zero, ol.InvoicedQuantity.Sub(qty))
			if err := h.Orders.SaveLine(ctx, ol); err != nil {
				return err
			}
		}
		if order.Status == model.OrderInvoiced {
			if err := order.TransitionTo(model.OrderDelivered, h.now()); err != nil {
				return err
			}
			order.Touch(cmd.Actor)
			if err := h.Orders.SaveHeader(ctx, order); err != nil {
				return err
			}
			*events = append(*events, orderEvent(string(model.OrderDelivered), order, cmd.Actor))
		}
		*events = append(*events, invoiceEvent("cancelled", invoice, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return invoice, nil
}

type AllocationInput struct {
	InvoiceID uuid.UUID       `json:"invoice_id" validate:"uuid_required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
}

// RecordPayment stores a customer payment and allocates it to invoices.
// Unallocated remainder stays on the payment.
type RecordPayment struct {
	Actor       string            `json:"-"`
	CustomerID  uuid.UUID         `json:"customer_id" validate:"uuid_required"`
	Amount      decimal.Decimal   `json:"amount" validate:"gt=0"`
	Method      string            `json:"method" validate:"required,oneof=bank_transfer card cash check other"`
	PaidAt      *time.Time        `json:"paid_at"`
	Reference   string            `json:"reference" validate:"max=100"`
	Allocations []AllocationInput `json:"allocations" validate:"dive"`
}

type RecordPaymentHandler struct{ *Deps }

func (h RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPayment) (*model.Payment, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	allocated := decimal.Zero
	for _, a := range cmd.Allocations {
		allocated = allocated.Add(a.Amount)
	}
	if allocated.GreaterThan(cmd.Amount) {
		return nil, ErrAllocationsExceed.WithParams(map[string]any{"Allocated": money(allocated), "Amount": money(cmd.Amount)})
	}

	payment := &model.Payment{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		CustomerID: cmd.CustomerID,
		Amount:     model.Round2(cmd.Amount),
		Method:     cmd.Method,
		PaidAt:     h.now(),
		Reference:  cmd.Reference,
	}
	if cmd.PaidAt != nil {
		payment.PaidAt = *cmd.PaidAt
	}
	payment.Touch(cmd.Actor)

	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if _, err := h.Customers.FindByID(ctx, cmd.CustomerID); err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
		for _, a := range cmd.Allocations {
			invoice, err := h.Billing.LockInvoice(ctx, a.InvoiceID)
			if err != nil {
				return notFound(err, ErrInvoiceNotFound)
			}
			if invoice.CustomerID != cmd.CustomerID {
				return ErrInvoiceNotFound
			}
			amount := model.Round2(a.Amount)
			if err := invoice.ApplyPayment(amount); err != nil {
				return err
			}
			invoice.Touch(cmd.Actor)
			if err := h.Billing.SaveInvoice(ctx, invoice); err != nil {
				return err
			}
			payment.Allocations = append(payment.Allocations, model.PaymentAllocation{
				PaymentID: payment.ID,
				InvoiceID: invoice.ID,
				Amount:    amount,
			})
			*events = append(*events, invoiceEvent("payment", invoice, cmd.Actor))
		}
		var err error
		if payment.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixPayment); err != nil {
			return err
		}
		return h.Billing.CreatePayment(ctx, payment)
	})
	if err != nil {
		return nil, internal(err)
	}
	f, _ := payment.Amount.Float64()
	h.Metrics.RecordPayment(f)
	h.invalidateDashboard(ctx)
	logger.FromContext(ctx).Info("payment recorded",
		zap.String("payment", payment.Number), zap.String("amount", money(payment.Amount)), zap.Int("allocations", len(payment.Allocations)))
	return payment, nil
}

type GetInvoice struct{ ID uuid.UUID }

type GetInvoiceHandler struct{ *Deps }

func (h GetInvoiceHandler) Handle(ctx context.Context, q GetInvoice) (*model.Invoice, error) {
	invoice, err := h.Billing.FindInvoice(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}
	return invoice, nil
}

type ListInvoices struct {
	Filter repository.InvoiceFilter
	Page   repository.PageRequest
}

type ListInvoicesHandler struct{ *Deps }

func (h ListInvoicesHandler) Handle(ctx context.Context, q ListInvoices) (repository.Page[model.Invoice], error) {
	page, err := h.Billing.ListInvoices(ctx, q.Filter, q.Page)
	return page, internal(err)
}

type GetPayment struct{ ID uuid.UUID }

type GetPaymentHandler struct{ *Deps }

func (h GetPaymentHandler) Handle(ctx context.Context, q GetPayment) (*model.Payment, error) {
	payment, err := h.Billing.FindPayment(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return payment, nil
}

type OverdueInvoice struct {
	model.Invoice
	Balance     decimal.Decimal `json:"balance"`
	DaysOverdue int             `json:"days_overdue"`
}

// ListOverdueInvoices returns open invoices past their due date.
type ListOverdueInvoices struct{}

type ListOverdueInvoicesHandler struct{ *Deps }

func (h ListOverdueInvoicesHandler) Handle(ctx context.Context, _ ListOverdueInvoices) ([]OverdueInvoice, error) {
	invoices, err := h.Billing.Outstanding(ctx)
	if err != nil {
		return nil, internal(err)
	}
	today := h.now()
	out := make([]OverdueInvoice, 0)
	for _, inv := range invoices {
		days := inv.DaysOverdue(today)
		if days == 0 || !inv.Balance().IsPositive() {
			continue
		}
		out = append(out, OverdueInvoice{Invoice: inv, Balance: inv.Balance(), DaysOverdue: days})
	}
	return out, nil
}

// AgingBuckets splits open balances by days past due.
type AgingBuckets struct {
	Current decimal.Decimal `json:"current"`
	Days30  decimal.Decimal `json:"days_1_30"`
	Days60  decimal.Decimal `json:"days_31_60"`
	Days90  decimal.Decimal `json:"days_61_90"`
	Over90  decimal.Decimal `json:"days_90_plus"`
	Total   decimal.Decimal `json:"total"`
}

func newAgingBuckets() AgingBuckets {
	return AgingBuckets{Current: decimal.Zero, Days30: decimal.Zero, Days60: decimal.Zero, Days90: decimal.Zero, Over90: decimal.Zero, Total: decimal.Zero}
}

func (b *AgingBuckets) add(days int, amount decimal.Decimal) {
	switch {
	case days <= 0:
		b.Current = b.Current.Add(amount)
	case days <= 30:
		b.Days30 = b.Days30.Add(amount)
	case days <= 60:
		b.Days60 = b.Days60.Add(amount)
	case days <= 90:
		b.Days90 = b.Days90.Add(amount)
	default:
		b.Over90 = b.Over90.Add(amount)
	}
	b.Total = b.Total.Add(amount)
}

type CustomerAging struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	AgingBuckets
}

type AgingReport struct {
	AsOf      time.Time       `json:"as_of"`
	Totals    AgingBuckets    `json:"totals"`
	Customers []CustomerAging `json:"customers"`
}

type GetAgingReport struct{}

type GetAgingReportHandler struct{ *Deps }

func (h GetAgingReportHandler) Handle(ctx context.Context, _ GetAgingReport) (*AgingReport, error) {
	invoices, err := h.Billing.Outstanding(ctx)
	if err != nil {
		return nil, internal(err)
	}
	today := h.now()
	report := &AgingReport{AsOf: today, Totals: newAgingBuckets(), Customers: []CustomerAging{}}
	byCustomer := map[uuid.UUID]*CustomerAging{}
	for _, inv := range invoices {
		balance := inv.Balance()
		if !balance.IsPositive() {
			continue
		}
		row, ok := byCustomer[inv.CustomerID]
		if !ok {
			row = &CustomerAging{CustomerID: inv.CustomerID, AgingBuckets: newAgingBuckets()}
			if inv.Customer != nil {
				row.CustomerName = inv.Customer.DisplayName()
			}
			byCustomer[inv.CustomerID] = row
		}
		days := inv.DaysOverdue(today)
		row.add(days, balance)
		report.Totals.add(days, balance)
	}
	for _, row := range byCustomer {
		report.Customers = append(report.Customers, *row)
	}
	sort.Slice(report.Customers, func(i, j int) bool {
		return strings.ToLower(report.Customers[i].CustomerName) < strings.ToLower(report.Customers[j].CustomerName)
	})
	return report, nil
}

func invoiceEvent(action string, inv *model.Invoice, actor string) ws.Event {
	return ws.Event{
		Type:   ws.EventInvoice,
		Action: action,
		User:   actor,
		Data: map[string]any{
			"id": inv.ID, "number": inv.Number, "status": inv.Status,
			"total": inv.Total, "amount_paid": inv.AmountPaid, "balance": inv.Balance(),
		},
	}
}
