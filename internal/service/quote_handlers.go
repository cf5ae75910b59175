package service

import (
	"context"
	"encoding/json"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateQuote struct {
	Actor      string      `json:"-"`
	CustomerID uuid.UUID   `json:"customer_id" validate:"uuid_required"`
	ValidUntil *time.Time  `json:"valid_until"`
	Notes      string      `json:"notes"`
	Lines      []LineInput `json:"lines" validate:"dive"`
}

type CreateQuoteHandler struct{ *Deps }

func (h CreateQuoteHandler) Handle(ctx context.Context, cmd CreateQuote) (*model.Quote, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	quote := &model.Quote{CustomerID: cmd.CustomerID, Status: model.QuoteDraft, Version: 1, ValidUntil: cmd.ValidUntil, Notes: cmd.Notes}
	quote.Touch(cmd.Actor)

	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if _, err := h.activeCustomer(ctx, cmd.CustomerID); err != nil {
			return err
		}
		priced, err := h.priceLines(ctx, cmd.CustomerID, cmd.Lines)
		if err != nil {
			return err
		}
		if quote.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixQuote); err != nil {
			return err
		}
		quote.ID = uuid.New()
		quote.ReplaceLines(quoteLines(priced))
		if err := h.Quotes.Create(ctx, quote); err != nil {
			return err
		}
		*events = append(*events, quoteEvent("created", quote, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("quote")
	return quote, nil
}

// UpdateQuote replaces the lines of a draft quote. A sent quote is first
// snapshotted into a QuoteVersion and goes back to draft under the next version.
type UpdateQuote struct {
	Actor      string      `json:"-"`
	ID         uuid.UUID   `json:"-" validate:"uuid_required"`
	ValidUntil *time.Time  `json:"valid_until"`
	Notes      *string     `json:"notes"`
	Lines      []LineInput `json:"lines" validate:"dive"`
}

type UpdateQuoteHandler struct{ *Deps }

func (h UpdateQuoteHandler) Handle(ctx context.Context, cmd UpdateQuote) (*model.Quote, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var quote *model.Quote
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		quote, err = h.Quotes.Lock(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrQuoteNotFound)
		}
		snapshot, err := json.Marshal(quote)
		if err != nil {
			return err
		}
		previous := quote.Version
		revised, err := quote.BeginRevision()
		if err != nil {
			return err
		}
		if revised {
			version := &model.QuoteVersion{QuoteID: quote.ID, Version: previous, Snapshot: string(snapshot)}
			version.Touch(cmd.Actor)
			if err := h.Quotes.AddVersion(ctx, version); err != nil {
				return err
			}
		}
		priced, err := h.priceLines(ctx, quote.CustomerID, cmd.Lines)
		if err != nil {
			return err
		}
		if cmd.ValidUntil != nil {
			quote.ValidUntil = cmd.ValidUntil
		}
		if cmd.Notes != nil {
			quote.Notes = *cmd.Notes
		}
		quote.ReplaceLines(quoteLines(priced))
		quote.Touch(cmd.Actor)
		if err := h.Quotes.Save(ctx, quote); err != nil {
			return err
		}
		action := "updated"
		if revised {
			action = "revised"
		}
		*events = append(*events, quoteEvent(action, quote, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return quote, nil
}

// QuoteAction is the body-less command shared by the quote status changes.
type QuoteAction struct {
	Actor string
	ID    uuid.UUID
}

type (
	SendQuote   struct{ QuoteAction }
	AcceptQuote struct{ QuoteAction }
	RejectQuote struct{ QuoteAction }
	CancelQuote struct{ QuoteAction }
)

// changeQuote locks the quote, applies mutate and saves the header.
func (d *Deps) changeQuote(ctx context.Context, cmd QuoteAction, action string, mutate func(q *model.Quote) error) (*model.Quote, error) {
	var quote *model.Quote
	err := d.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		quote, err = d.Quotes.Lock(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrQuoteNotFound)
		}
		if err := mutate(quote); err != nil {
			return err
		}
		quote.Touch(cmd.Actor)
		if err := d.Quotes.SaveHeader(ctx, quote); err != nil {
			return err
		}
		*events = append(*events, quoteEvent(action, quote, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return quote, nil
}

type SendQuoteHandler struct{ *Deps }

func (h SendQuoteHandler) Handle(ctx context.Context, cmd SendQuote) (*model.Quote, error) {
	return h.changeQuote(ctx, cmd.QuoteAction, "sent", func(q *model.Quote) error { return q.Send(h.now()) })
}

type AcceptQuoteHandler struct{ *Deps }

func (h AcceptQuoteHandler) Handle(ctx context.Context, cmd AcceptQuote) (*model.Quote, error) {
	return h.changeQuote(ctx, cmd.QuoteAction, "accepted", func(q *model.Quote) error { return q.Accept(h.now()) })
}

type RejectQuoteHandler struct{ *Deps }

func (h RejectQuoteHandler) Handle(ctx context.Context, cmd RejectQuote) (*model.Quote, error) {
	return h.changeQuote(ctx, cmd.QuoteAction, "rejected", (*model.Quote).Reject)
}

type CancelQuoteHandler struct{ *Deps }

func (h CancelQuoteHandler) Handle(ctx context.Context, cmd CancelQuote) (*model.Quote, error) {
	return h.changeQuote(ctx, cmd.QuoteAction, "cancelled", (*model.Quote).Cancel)
}

// ConvertQuoteToOrder turns an accepted quote into a draft order with the same lines.
type ConvertQuoteToOrder struct {
	Actor      string    `json:"-"`
	QuoteID    uuid.UUID `json:"-" validate:"uuid_required"`
	LocationID uuid.UUID `json:"location_id" validate:"uuid_required"`
}

type ConvertQuoteToOrderHandler struct{ *Deps }

func (h ConvertQuoteToOrderHandler) Handle(ctx context.Context, cmd ConvertQuoteToOrder) (*model.Order, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var order *model.Order
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		quote, err := h.Quotes.Lock(ctx, cmd.QuoteID)
		if err != nil {
			return notFound(err, ErrQuoteNotFound)
		}
		if quote.Status != model.QuoteAccepted {
			return model.ErrQuoteNotAccepted.WithParams(map[string]any{"Status": string(quote.Status)})
		}
		if _, err := h.Stock.FindLocation(ctx, cmd.LocationID); err != nil {
			return notFound(err, ErrLocationNotFound)
		}

		order = &model.Order{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			CustomerID: quote.CustomerID,
			QuoteID:    &quote.ID,
			LocationID: cmd.LocationID,
			Status:     model.OrderDraft,
			Notes:      quote.Notes,
		}
		order.Touch(cmd.Actor)
		if order.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixOrder); err != nil {
			return err
		}
		lines := make([]pricedLine, len(quote.Lines))
		for i, l := range quote.Lines {
			lines[i] = pricedLine{ProductID: l.ProductID, VariantID: l.VariantID, Description: l.Description, PriceSource: l.PriceSource, Amounts: l.LineAmounts}
		}
		if err := order.ReplaceLines(orderLines(lines)); err != nil {
			return err
		}
		if err := h.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := quote.MarkConverted(order.ID); err != nil {
			return err
		}
		quote.Touch(cmd.Actor)
		if err := h.Quotes.SaveHeader(ctx, quote); err != nil {
			return err
		}
		*events = append(*events, quoteEvent("converted", quote, cmd.Actor), orderEvent("created", order, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("order")
	h.invalidateDashboard(ctx)
	logger.FromContext(ctx).Info("quote converted", zap.String("order", order.Number), zap.String("actor", cmd.Actor))
	return order, nil
}

type GetQuote struct {
	ID uuid.UUID
}

type GetQuoteHandler struct{ *Deps }

func (h GetQuoteHandler) Handle(ctx context.Context, q GetQuote) (*model.Quote, error) {
	quote, err := h.Quotes.FindByID(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrQuoteNotFound)
	}
	return quote, nil
}

type ListQuotes struct {
	Filter repository.SalesFilter
	Page   repository.PageRequest
}

type ListQuotesHandler struct{ *Deps }

func (h ListQuotesHandler) Handle(ctx context.Context, q ListQuotes) (repository.Page[model.Quote], error) {
	page, err := h.Quotes.List(ctx, q.Filter, q.Page)
	return page, internal(err)
}

type ListQuoteVersions struct {
	QuoteID uuid.UUID
}

type ListQuoteVersionsHandler struct{ *Deps }

func (h ListQuoteVersionsHandler) Handle(ctx context.Context, q ListQuoteVersions) ([]model.QuoteVersion, error) {
	if _, err := h.Quotes.FindByID(ctx, q.QuoteID); err != nil {
		return nil, notFound(err, ErrQuoteNotFound)
	}
	versions, err := h.Quotes.Versions(ctx, q.QuoteID)
	return versions, internal(err)
}

func quoteEvent(action string, q *model.Quote, actor string) ws.Event {
	return ws.Event{
		Type:   ws.EventQuoteStatus,
		Action: action,
		User:   actor,
		Data:   map[string]any{"id": q.ID, "number": q.Number, "status": q.Status, "version": q.Version, "total": q.Total},
	}
}
