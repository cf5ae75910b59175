package service

import (
	"context"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PurchaseRequestLineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Notes     string          `json:"notes" validate:"max=255"`
}

type CreatePurchaseRequest struct {
	Actor  string                     `json:"-"`
	Reason string                     `json:"reason"`
	Lines  []PurchaseRequestLineInput `json:"lines" validate:"min=1,dive"`
}

type CreatePurchaseRequestHandler struct{ *Deps }

func (h CreatePurchaseRequestHandler) Handle(ctx context.Context, cmd CreatePurchaseRequest) (*model.PurchaseRequest, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	request := &model.PurchaseRequest{
		BaseModel:   model.BaseModel{ID: uuid.New()},
		RequestedBy: cmd.Actor,
		Status:      model.PurchaseRequestDraft,
		Reason:      cmd.Reason,
	}
	request.Touch(cmd.Actor)
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		for _, in := range cmd.Lines {
			if _, err := h.Products.FindByID(ctx, in.ProductID); err != nil {
				return notFound(err, ErrProductNotFound)
			}
			request.Lines = append(request.Lines, model.PurchaseRequestLine{
				PurchaseRequestID: request.ID,
				ProductID:         in.ProductID,
				Quantity:          in.Quantity,
				Notes:             in.Notes,
			})
		}
		var err error
		if request.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixPurchaseRequest); err != nil {
			return err
		}
		if err := h.Purchases.CreateRequest(ctx, request); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("request_created", request.ID, request.Number, string(request.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("purchase_request")
	return request, nil
}

// PurchaseRequestDecision carries an optional note for approve and reject.
type PurchaseRequestDecision struct {
	Actor string    `json:"-"`
	ID    uuid.UUID `json:"-"`
	Note  string    `json:"note"`
}

type (
	SubmitPurchaseRequest  struct{ PurchaseRequestDecision }
	ApprovePurchaseRequest struct{ PurchaseRequestDecision }
	RejectPurchaseRequest  struct{ PurchaseRequestDecision }
)

func (d *Deps) decideRequest(ctx context.Context, cmd PurchaseRequestDecision, target model.PurchaseRequestStatus) (*model.PurchaseRequest, error) {
	var request *model.PurchaseRequest
	err := d.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		request, err = d.Purchases.FindRequest(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrPurchaseRequestNotFound)
		}
		if err := request.TransitionTo(target); err != nil {
			return err
		}
		if cmd.Note != "" {
			request.DecisionNote = cmd.Note
		}
		request.Touch(cmd.Actor)
		if err := d.Purchases.SaveRequest(ctx, request); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("request_"+string(target), request.ID, request.Number, string(target), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return request, nil
}

type SubmitPurchaseRequestHandler struct{ *Deps }

func (h SubmitPurchaseRequestHandler) Handle(ctx context.Context, cmd SubmitPurchaseRequest) (*model.PurchaseRequest, error) {
	return h.decideRequest(ctx, cmd.PurchaseRequestDecision, model.PurchaseRequestSubmitted)
}

type ApprovePurchaseRequestHandler struct{ *Deps }

func (h ApprovePurchaseRequestHandler) Handle(ctx context.Context, cmd ApprovePurchaseRequest) (*model.PurchaseRequest, error) {
	return h.decideRequest(ctx, cmd.PurchaseRequestDecision, model.PurchaseRequestApproved)
}

type RejectPurchaseRequestHandler struct{ *Deps }

func (h RejectPurchaseRequestHandler) Handle(ctx context.Context, cmd RejectPurchaseRequest) (*model.PurchaseRequest, error) {
	return h.decideRequest(ctx, cmd.PurchaseRequestDecision, model.PurchaseRequestRejected)
}

// PurchaseLineInput is a purchase order line. The unit price defaults to the
// product cost and the tax rate to the product's.
type PurchaseLineInput struct {
	ProductID       uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Description     string           `json:"description" validate:"max=255"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
}

func (d *Deps) purchaseLines(ctx context.Context, inputs []PurchaseLineInput) ([]model.PurchaseOrderLine, error) {
	lines := make([]model.PurchaseOrderLine, 0, len(inputs))
	for _, in := range inputs {
		if err := validate(in); err != nil {
			return nil, err
		}
		product, err := d.Products.FindByID(ctx, in.ProductID)
		if err != nil {
			return nil, notFound(err, ErrProductNotFound)
		}
		line := model.PurchaseOrderLine{
			ProductID:        product.ID,
			Description:      in.Description,
			ReceivedQuantity: decimal.Zero,
			LineAmounts: model.LineAmounts{
				Quantity:        in.Quantity,
				UnitPrice:       product.Cost,
				DiscountPercent: decimal.Zero,
				TaxRate:         product.TaxRate,
			},
		}
		if line.Description == "" {
			line.Description = product.Name
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return nil, model.ErrInvalidPrice
			}
			line.UnitPrice = *in.UnitPrice
		}
		if in.DiscountPercent != nil {
			if !percent(*in.DiscountPercent) {
				return nil, ErrValidation.WithParams(map[string]any{"Field": "DiscountPercent", "Tag": "lte", "Param": "100"})
			}
			line.DiscountPercent = *in.DiscountPercent
		}
		if in.TaxRate != nil {
			if !percent(*in.TaxRate) {
				return nil, ErrValidation.WithParams(map[string]any{"Field": "TaxRate", "Tag": "lte", "Param": "100"})
			}
			line.TaxRate = *in.TaxRate
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (d *Deps) activeSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := d.Suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSupplierNotFound)
	}
	if supplier.Status == model.PartnerArchived {
		return nil, ErrPartnerArchived
	}
	return supplier, nil
}

// newPurchaseOrder numbers, prices and stores a draft purchase order.
func (d *Deps) newPurchaseOrder(ctx context.Context, po *model.PurchaseOrder, inputs []PurchaseLineInput) error {
	if _, err := d.activeSupplier(ctx, po.SupplierID); err != nil {
		return err
	}
	lines, err := d.purchaseLines(ctx, inputs)
	if err != nil {
		return err
	}
	po.ID = uuid.New()
	po.Status = model.PurchaseOrderDraft
	if err := po.ReplaceLines(lines); err != nil {
		return err
	}
	if po.Number, err = d.Sequences.NextNumber(ctx, repository.PrefixPurchaseOrder); err != nil {
		return err
	}
	return d.Purchases.CreateOrder(ctx, po)
}

// ConvertRequestToPurchaseOrder orders an approved request from a supplier.
// UnitPrices overrides the product cost per product.
type ConvertRequestToPurchaseOrder struct {
	Actor        string                        `json:"-"`
	RequestID    uuid.UUID                     `json:"-" validate:"uuid_required"`
	SupplierID   uuid.UUID                     `json:"supplier_id" validate:"uuid_required"`
	ExpectedDate *time.Time                    `json:"expected_date"`
	UnitPrices   map[uuid.UUID]decimal.Decimal `json:"unit_prices"`
}

type ConvertRequestToPurchaseOrderHandler struct{ *Deps }

func (h ConvertRequestToPurchaseOrderHandler) Handle(ctx context.Context, cmd ConvertRequestToPurchaseOrder) (*model.PurchaseOrder, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	po := &model.PurchaseOrder{SupplierID: cmd.SupplierID, ExpectedDate: cmd.ExpectedDate}
	po.Touch(cmd.Actor)
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		request, err := h.Purchases.FindRequest(ctx, cmd.RequestID)
		if err != nil {
			return notFound(err, ErrPurchaseRequestNotFound)
		}
		if request.Status != model.PurchaseRequestApproved {
			return model.ErrInvalidTransition.WithParams(map[string]any{"From": string(request.Status), "To": string(model.PurchaseRequestConverted)})
		}
		inputs := make([]PurchaseLineInput, len(request.Lines))
		for i, l := range request.Lines {
			inputs[i] = PurchaseLineInput{ProductID: l.ProductID, Description: l.Notes, Quantity: l.Quantity}
			if price, ok := cmd.UnitPrices[l.ProductID]; ok {
				p := price
				inputs[i].UnitPrice = &p
			}
		}
		po.PurchaseRequestID = &request.ID
		if err := h.newPurchaseOrder(ctx, po, inputs); err != nil {
			return err
		}
		if err := request.TransitionTo(model.PurchaseRequestConverted); err != nil {
			return err
		}
		request.PurchaseOrderID = &po.ID
		request.Touch(cmd.Actor)
		if err := h.Purchases.SaveRequest(ctx, request); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("order_created", po.ID, po.Number, string(po.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("purchase_order")
	return po, nil
}

type CreatePurchaseOrder struct {
	Actor        string              `json:"-"`
	SupplierID   uuid.UUID           `json:"supplier_id" validate:"uuid_required"`
	ExpectedDate *time.Time          `json:"expected_date"`
	Notes        string              `json:"notes"`
	Lines        []PurchaseLineInput `json:"lines" validate:"dive"`
}

type CreatePurchaseOrderHandler struct{ *Deps }

func (h CreatePurchaseOrderHandler) Handle(ctx context.Context, cmd CreatePurchaseOrder) (*model.PurchaseOrder, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	po := &model.PurchaseOrder{SupplierID: cmd.SupplierID, ExpectedDate: cmd.ExpectedDate, Notes: cmd.Notes}
	po.Touch(cmd.Actor)
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if err := h.newPurchaseOrder(ctx, po, cmd.Lines); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("order_created", po.ID, po.Number, string(po.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("purchase_order")
	return po, nil
}

type UpdatePurchaseOrderLines struct {
	Actor        string              `json:"-"`
	ID           uuid.UUID           `json:"-" validate:"uuid_required"`
	ExpectedDate *time.Time          `json:"expected_date"`
	Notes        *string             `json:"notes"`
	Lines        []PurchaseLineInput `json:"lines" validate:"dive"`
}

type UpdatePurchaseOrderLinesHandler struct{ *Deps }

func (h UpdatePurchaseOrderLinesHandler) Handle(ctx context.Context, cmd UpdatePurchaseOrderLines) (*model.PurchaseOrder, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var po *model.PurchaseOrder
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		po, err = h.Purchases.LockOrder(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrPurchaseOrderNotFound)
		}
		lines, err := h.purchaseLines(ctx, cmd.Lines)
		if err != nil {
			return err
		}
		if err := po.ReplaceLines(lines); err != nil {
			return err
		}
		if cmd.ExpectedDate != nil {
			po.ExpectedDate = cmd.ExpectedDate
		}
		if cmd.Notes != nil {
			po.Notes = *cmd.Notes
		}
		po.Touch(cmd.Actor)
		if err := h.Purchases.SaveOrder(ctx, po); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("order_updated", po.ID, po.Number, string(po.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return po, nil
}

type PurchaseOrderAction struct {
	Actor string
	ID    uuid.UUID
}

type (
	SendPurchaseOrder    struct{ PurchaseOrderAction }
	ConfirmPurchaseOrder struct{ PurchaseOrderAction }
	CancelPurchaseOrder  struct{ PurchaseOrderAction }
)

func (d *Deps) changePurchaseOrder(ctx context.Context, cmd PurchaseOrderAction, target model.PurchaseOrderStatus) (*model.PurchaseOrder, error) {
	var po *model.PurchaseOrder
	err := d.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		po, err = d.Purchases.LockOrder(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrPurchaseOrderNotFound)
		}
		if target == model.PurchaseOrderCancelled && po.HasReceipts() {
			return model.ErrPurchaseHasReceipts
		}
		if err := po.TransitionTo(target); err != nil {
			return err
		}
		po.Touch(cmd.Actor)
		if err := d.Purchases.SaveOrderHeader(ctx, po); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("order_"+string(target), po.ID, po.Number, string(target), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return po, nil
}

type SendPurchaseOrderHandler struct{ *Deps }

func (h SendPurchaseOrderHandler) Handle(ctx context.Context, cmd SendPurchaseOrder) (*model.PurchaseOrder, error) {
	return h.changePurchaseOrder(ctx, cmd.PurchaseOrderAction, model.PurchaseOrderSent)
}

type ConfirmPurchaseOrderHandler struct{ *Deps }

func (h ConfirmPurchaseOrderHandler) Handle(ctx context.Context, cmd ConfirmPurchaseOrder) (*model.PurchaseOrder, error) {
	return h.changePurchaseOrder(ctx, cmd.PurchaseOrderAction, model.PurchaseOrderConfirmed)
}

type CancelPurchaseOrderHandler struct{ *Deps }

func (h CancelPurchaseOrderHandler) Handle(ctx context.Context, cmd CancelPurchaseOrder) (*model.PurchaseOrder, error) {
	return h.changePurchaseOrder(ctx, cmd.PurchaseOrderAction, model.PurchaseOrderCancelled)
}

type ReceiptLineInput struct {
	PurchaseOrderLineID uuid.UUID       `json:"purchase_order_line_id" validate:"uuid_required"`
	Quantity            decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// CreatePurchaseReceipt books received goods into stock at LocationID and
// moves the product cost to the weighted average.
type CreatePurchaseReceipt struct {
	Actor           string             `json:"-"`
	PurchaseOrderID uuid.UUID          `json:"-" validate:"uuid_required"`
	LocationID      uuid.UUID          `json:"location_id" validate:"uuid_required"`
	ReceivedAt      *time.Time         `json:"received_at"`
	Notes           string             `json:"notes"`
	Lines           []ReceiptLineInput `json:"lines" validate:"min=1,dive"`
}

type CreatePurchaseReceiptHandler struct{ *Deps }

func (h CreatePurchaseReceiptHandler) Handle(ctx context.Context, cmd CreatePurchaseReceipt) (*model.PurchaseReceipt, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	receipt := &model.PurchaseReceipt{
		BaseModel:       model.BaseModel{ID: uuid.New()},
		PurchaseOrderID: cmd.PurchaseOrderID,
		LocationID:      cmd.LocationID,
		ReceivedAt:      h.now(),
		Notes:           cmd.Notes,
	}
	if cmd.ReceivedAt != nil {
		receipt.ReceivedAt = *cmd.ReceivedAt
	}
	receipt.Touch(cmd.Actor)

	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		po, err := h.Purchases.LockOrder(ctx, cmd.PurchaseOrderID)
		if err != nil {
			return notFound(err, ErrPurchaseOrderNotFound)
		}
		if !po.Status.CanReceive() {
			return model.ErrInvalidTransition.WithParams(map[string]any{"From": string(po.Status), "To": string(model.PurchaseOrderReceived)})
		}
		if _, err := h.Stock.FindLocation(ctx, cmd.LocationID); err != nil {
			return notFound(err, ErrLocationNotFound)
		}
		if receipt.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixReceipt); err != nil {
			return err
		}

		lines := make(map[uuid.UUID]*model.PurchaseOrderLine, len(po.Lines))
		for i := range po.Lines {
			lines[po.Lines[i].ID] = &po.Lines[i]
		}
		for _, in := range cmd.Lines {
			line, ok := lines[in.PurchaseOrderLineID]
			if !ok {
				return ErrReceiptLineMismatch
			}
			if err := line.AddReceived(in.Quantity); err != nil {
				return err
			}
			if err := h.Purchases.SaveOrderLine(ctx, line); err != nil {
				return err
			}
			if err := h.receiveAtCost(ctx, line, in.Quantity, receipt, cmd.Actor, events); err != nil {
				return err
			}
			receipt.Lines = append(receipt.Lines, model.PurchaseReceiptLine{
				PurchaseReceiptID:   receipt.ID,
				PurchaseOrderLineID: line.ID,
				ProductID:           line.ProductID,
				Quantity:            in.Quantity,
				UnitCost:            line.UnitPrice,
			})
		}
		if err := h.Purchases.CreateReceipt(ctx, receipt); err != nil {
			return err
		}

		target := model.PurchaseOrderPartiallyReceived
		if po.FullyReceived() {
			target = model.PurchaseOrderReceived
		}
		if err := po.TransitionTo(target); err != nil {
			return err
		}
		po.Touch(cmd.Actor)
		if err := h.Purchases.SaveOrderHeader(ctx, po); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("received", po.ID, po.Number, string(po.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("purchase_receipt")
	h.invalidateDashboard(ctx)
	logger.FromContext(ctx).Info("purchase receipt booked", zap.String("receipt", receipt.Number), zap.Int("lines", len(receipt.Lines)))
	return receipt, nil
}

// receiveAtCost books qty into stock and updates the product's average cost.
func (d *Deps) receiveAtCost(ctx context.Context, line *model.PurchaseOrderLine, qty decimal.Decimal, receipt *model.PurchaseReceipt, actor string, events *[]ws.Event) error {
	product, err := d.Products.FindByID(ctx, line.ProductID)
	if err != nil {
		return notFound(err, ErrProductNotFound)
	}
	onHand, err := d.Stock.OnHand(ctx, product.ID)
	if err != nil {
		return err
	}
	avg := product.AverageCost(onHand, qty, line.UnitPrice)
	if err := d.applyPriceAndCost(ctx, product, nil, &avg, actor, "receipt "+receipt.Number); err != nil {
		return err
	}
	product.Touch(actor)
	if err := d.Products.Save(ctx, product); err != nil {
		return err
	}

	item, err := d.lockItem(ctx, StockKey{ProductID: product.ID, LocationID: receipt.LocationID})
	if err != nil {
		return err
	}
	if err := item.Receive(qty); err != nil {
		return err
	}
	ref := stockRef{Type: "purchase_receipt", ID: &receipt.ID, Note: receipt.Number}
	_, err = d.saveMovement(ctx, item, model.MovementEntry, qty, ref, actor, events)
	return err
}

type CreateSupplierInvoice struct {
	Actor             string          `json:"-"`
	SupplierID        uuid.UUID       `json:"supplier_id" validate:"uuid_required"`
	PurchaseOrderID   uuid.UUID       `json:"purchase_order_id" validate:"uuid_required"`
	PurchaseReceiptID *uuid.UUID      `json:"purchase_receipt_id"`
	SupplierReference string          `json:"supplier_reference" validate:"max=60"`
	InvoiceDate       time.Time       `json:"invoice_date" validate:"required"`
	DueDate           *time.Time      `json:"due_date"`
	Subtotal          decimal.Decimal `json:"subtotal" validate:"gte=0"`
	TaxTotal          decimal.Decimal `json:"tax_total" validate:"gte=0"`
}

type CreateSupplierInvoiceHandler struct{ *Deps }

func (h CreateSupplierInvoiceHandler) Handle(ctx context.Context, cmd CreateSupplierInvoice) (*model.SupplierInvoice, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	invoice := &model.SupplierInvoice{
		SupplierReference: cmd.SupplierReference,
		SupplierID:        cmd.SupplierID,
		PurchaseOrderID:   cmd.PurchaseOrderID,
		PurchaseReceiptID: cmd.PurchaseReceiptID,
		InvoiceDate:       cmd.InvoiceDate,
		Status:            model.SupplierInvoiceDraft,
		MatchingStatus:    model.MatchingUnmatched,
		Totals: model.Totals{
			Subtotal: model.Round2(cmd.Subtotal),
			TaxTotal: model.Round2(cmd.TaxTotal),
		},
	}
	invoice.Total = invoice.Subtotal.Add(invoice.TaxTotal)
	invoice.Touch(cmd.Actor)

	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		supplier, err := h.Suppliers.FindByID(ctx, cmd.SupplierID)
		if err != nil {
			return notFound(err, ErrSupplierNotFound)
		}
		po, err := h.Purchases.FindOrder(ctx, cmd.PurchaseOrderID)
		if err != nil {
			return notFound(err, ErrPurchaseOrderNotFound)
		}
		if po.SupplierID != supplier.ID {
			return ErrPurchaseOrderNotFound
		}
		if cmd.PurchaseReceiptID != nil {
			receipt, err := h.Purchases.FindReceipt(ctx, *cmd.PurchaseReceiptID)
			if err != nil {
				return notFound(err, ErrReceiptNotFound)
			}
			if receipt.PurchaseOrderID != po.ID {
				return ErrReceiptNotFound
			}
		}
		invoice.DueDate = cmd.InvoiceDate.AddDate(0, 0, supplier.PaymentTermsDays)
		if cmd.DueDate != nil {
			invoice.DueDate = *cmd.DueDate
		}
		if invoice.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixSupplierInvoice); err != nil {
			return err
		}
		if err := h.Purchases.CreateSupplierInvoice(ctx, invoice); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("supplier_invoice_created", invoice.ID, invoice.Number, string(invoice.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("supplier_invoice")
	return invoice, nil
}

type MatchSupplierInvoice struct {
	Actor string
	ID    uuid.UUID
}

type MatchSupplierInvoiceResult struct {
	Invoice *model.SupplierInvoice `json:"invoice"`
	Match   MatchResult            `json:"match"`
}

type MatchSupplierInvoiceHandler struct{ *Deps }

func (h MatchSupplierInvoiceHandler) Handle(ctx context.Context, cmd MatchSupplierInvoice) (*MatchSupplierInvoiceResult, error) {
	result := &MatchSupplierInvoiceResult{}
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		invoice, err := h.Purchases.FindSupplierInvoice(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrSupplierInvoiceNotFound)
		}
		if invoice.Status != model.SupplierInvoiceDraft {
			return model.ErrInvalidTransition.WithParams(map[string]any{"From": string(invoice.Status), "To": "matched"})
		}
		po, err := h.Purchases.FindOrder(ctx, invoice.PurchaseOrderID)
		if err != nil {
			return notFound(err, ErrPurchaseOrderNotFound)
		}
		var receipt *model.PurchaseReceipt
		if invoice.PurchaseReceiptID != nil {
			if receipt, err = h.Purchases.FindReceipt(ctx, *invoice.PurchaseReceiptID); err != nil {
				return notFound(err, ErrReceiptNotFound)
			}
		}
		match := ThreeWayMatch(invoice.Subtotal, po, receipt)
		now := h.now()
		invoice.MatchingStatus = match.Status
		invoice.MatchingNotes = match.notes()
		invoice.MatchedBy = cmd.Actor
		invoice.MatchedAt = &now
		invoice.Touch(cmd.Actor)
		if err := h.Purchases.SaveSupplierInvoice(ctx, invoice); err != nil {
			return err
		}
		result.Invoice, result.Match = invoice, match
		*events = append(*events, purchaseEvent("supplier_invoice_"+string(match.Status), invoice.ID, invoice.Number, string(invoice.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordInvoiceMatch(string(result.Match.Status))
	logger.FromContext(ctx).Info("supplier invoice matched",
		zap.String("invoice", result.Invoice.Number), zap.String("status", string(result.Match.Status)))
	return result, nil
}

type ApproveSupplierInvoice struct {
	Actor string
	ID    uuid.UUID
}

type ApproveSupplierInvoiceHandler struct{ *Deps }

func (h ApproveSupplierInvoiceHandler) Handle(ctx context.Context, cmd ApproveSupplierInvoice) (*model.SupplierInvoice, error) {
	var invoice *model.SupplierInvoice
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		invoice, err = h.Purchases.FindSupplierInvoice(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrSupplierInvoiceNotFound)
		}
		if err := invoice.Approve(); err != nil {
			return err
		}
		invoice.Touch(cmd.Actor)
		if err := h.Purchases.SaveSupplierInvoice(ctx, invoice); err != nil {
			return err
		}
		*events = append(*events, purchaseEvent("supplier_invoice_approved", invoice.ID, invoice.Number, string(invoice.Status), cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return invoice, nil
}

type GetPurchaseRequest struct{ ID uuid.UUID }

type GetPurchaseRequestHandler struct{ *Deps }

func (h GetPurchaseRequestHandler) Handle(ctx context.Context, q GetPurchaseRequest) (*model.PurchaseRequest, error) {
	request, err := h.Purchases.FindRequest(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrPurchaseRequestNotFound)
	}
	return request, nil
}

type ListPurchaseRequests struct {
	Filter repository.PurchaseFilter
	Page   repository.PageRequest
}

type ListPurchaseRequestsHandler struct{ *Deps }

func (h ListPurchaseRequestsHandler) Handle(ctx context.Context, q ListPurchaseRequests) (repository.Page[model.PurchaseRequest], error) {
	page, err := h.Purchases.ListRequests(ctx, q.Filter, q.Page)
	return page, internal(err)
}

type GetPurchaseOrder struct{ ID uuid.UUID }

type GetPurchaseOrderHandler struct{ *Deps }

func (h GetPurchaseOrderHandler) Handle(ctx context.Context, q GetPurchaseOrder) (*model.PurchaseOrder, error) {
	po, err := h.Purchases.FindOrder(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrPurchaseOrderNotFound)
	}
	return po, nil
}

type ListPurchaseOrders struct {
	Filter repository.PurchaseFilter
	Page   repository.PageRequest
}

type ListPurchaseOrdersHandler struct{ *Deps }

func (h ListPurchaseOrdersHandler) Handle(ctx context.Context, q ListPurchaseOrders) (repository.Page[model.PurchaseOrder], error) {
	page, err := h.Purchases.ListOrders(ctx, q.Filter, q.Page)
	return page, internal(err)
}

type GetPurchaseReceipt struct{ ID uuid.UUID }

type GetPurchaseReceiptHandler struct{ *Deps }

func (h GetPurchaseReceiptHandler) Handle(ctx context.Context, q GetPurchaseReceipt) (*model.PurchaseReceipt, error) {
	receipt, err := h.Purchases.FindReceipt(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrReceiptNotFound)
	}
	return receipt, nil
}

type ListPurchaseReceipts struct {
	PurchaseOrderID *uuid.UUID
	Page            repository.PageRequest
}

type ListPurchaseReceiptsHandler struct{ *Deps }

func (h ListPurchaseReceiptsHandler) Handle(ctx context.Context, q ListPurchaseReceipts) (repository.Page[model.PurchaseReceipt], error) {
	page, err := h.Purchases.ListReceipts(ctx, q.PurchaseOrderID, q.Page)
	return page, internal(err)
}

type GetSupplierInvoice struct{ ID uuid.UUID }

type GetSupplierInvoiceHandler struct{ *Deps }

func (h GetSupplierInvoiceHandler) Handle(ctx context.Context, q GetSupplierInvoice) (*model.SupplierInvoice, error) {
	invoice, err := h.Purchases.FindSupplierInvoice(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrSupplierInvoiceNotFound)
	}
	return invoice, nil
}

type ListSupplierInvoices struct {
	Filter repository.PurchaseFilter
	Page   repository.PageRequest
}

type ListSupplierInvoicesHandler struct{ *Deps }

func (h ListSupplierInvoicesHandler) Handle(ctx context.Context, q ListSupplierInvoices) (repository.Page[model.SupplierInvoice], error) {
	page, err := h.Purchases.ListSupplierInvoices(ctx, q.Filter, q.Page)
	return page, internal(err)
}

func purchaseEvent(action string, id uuid.UUID, number, status, actor string) ws.Event {
	return ws.Event{
		Type:   ws.EventPurchase,
		Action: action,
		User:   actor,
		Data:   map[string]any{"id": id, "number": number, "status": status},
	}
}
