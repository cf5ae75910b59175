package service

import (
	"context"
	"errors"

	"erp-backend/internal/apperr"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateOrder struct {
	Actor      string      `json:"-"`
	CustomerID uuid.UUID   `json:"customer_id" validate:"uuid_required"`
	LocationID uuid.UUID   `json:"location_id" validate:"uuid_required"`
	Notes      string      `json:"notes"`
	Lines      []LineInput `json:"lines" validate:"dive"`
}

type CreateOrderHandler struct{ *Deps }

func (h CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrder) (*model.Order, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	order := &model.Order{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		CustomerID: cmd.CustomerID,
		LocationID: cmd.LocationID,
		Status:     model.OrderDraft,
		Notes:      cmd.Notes,
	}
	order.Touch(cmd.Actor)

	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if _, err := h.activeCustomer(ctx, cmd.CustomerID); err != nil {
			return err
		}
		if _, err := h.Stock.FindLocation(ctx, cmd.LocationID); err != nil {
			return notFound(err, ErrLocationNotFound)
		}
		priced, err := h.priceLines(ctx, cmd.CustomerID, cmd.Lines)
		if err != nil {
			return err
		}
		if err := order.ReplaceLines(orderLines(priced)); err != nil {
			return err
		}
		if order.Number, err = h.Sequences.NextNumber(ctx, repository.PrefixOrder); err != nil {
			return err
		}
		if err := h.Orders.Create(ctx, order); err != nil {
			return err
		}
		*events = append(*events, orderEvent("created", order, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordDocument("order")
	h.invalidateDashboard(ctx)
	return order, nil
}

type UpdateOrderLines struct {
	Actor string      `json:"-"`
	ID    uuid.UUID   `json:"-" validate:"uuid_required"`
	Notes *string     `json:"notes"`
	Lines []LineInput `json:"lines" validate:"dive"`
}

type UpdateOrderLinesHandler struct{ *Deps }

func (h UpdateOrderLinesHandler) Handle(ctx context.Context, cmd UpdateOrderLines) (*model.Order, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var order *model.Order
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		order, err = h.Orders.Lock(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if order.Status != model.OrderDraft {
			return model.ErrOrderNotEditable
		}
		priced, err := h.priceLines(ctx, order.CustomerID, cmd.Lines)
		if err != nil {
			return err
		}
		if err := order.ReplaceLines(orderLines(priced)); err != nil {
			return err
		}
		if cmd.Notes != nil {
			order.Notes = *cmd.Notes
		}
		order.Touch(cmd.Actor)
		if err := h.Orders.Save(ctx, order); err != nil {
			return err
		}
		*events = append(*events, orderEvent("updated", order, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return order, nil
}

// OrderAction is the body-less command shared by the order status changes.
type OrderAction struct {
	Actor string
	ID    uuid.UUID
}

type (
	ConfirmOrder   struct{ OrderAction }
	MarkOrderReady struct{ OrderAction }
	ShipOrder      struct{ OrderAction }
	DeliverOrder   struct{ OrderAction }
	CancelOrder    struct{ OrderAction }
)

// changeOrder locks the order and its lines, runs mutate, then moves the
// order to target. mutate runs inside the same transaction.
func (d *Deps) changeOrder(ctx context.Context, cmd OrderAction, target model.OrderStatus, mutate func(ctx context.Context, o *model.Order, events *[]ws.Event) error) (*model.Order, error) {
	var order *model.Order
	err := d.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		order, err = d.Orders.Lock(ctx, cmd.ID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		from := order.Status
		if err := order.TransitionTo(target, d.now()); err != nil {
			return err
		}
		if mutate != nil {
			order.Status = from
			if err := mutate(ctx, order, events); err != nil {
				return err
			}
			order.Status = target
		}
		order.Touch(cmd.Actor)
		if err := d.Orders.SaveHeader(ctx, order); err != nil {
			return err
		}
		*events = append(*events, orderEvent(string(target), order, cmd.Actor))
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	d.invalidateDashboard(ctx)
	return order, nil
}

func (o OrderAction) lineKey(order *model.Order, line model.OrderLine) StockKey {
	key := StockKey{ProductID: line.ProductID, LocationID: order.LocationID}
	if line.VariantID != uuid.Nil {
		v := line.VariantID
		key.VariantID = &v
	}
	return key
}

// ConfirmOrderHandler reserves every line at the order's location. One
// short line rolls back the reservations already made.
type ConfirmOrderHandler struct{ *Deps }

func (h ConfirmOrderHandler) Handle(ctx context.Context, cmd ConfirmOrder) (*model.Order, error) {
	order, err := h.changeOrder(ctx, cmd.OrderAction, model.OrderConfirmed, func(ctx context.Context, o *model.Order, events *[]ws.Event) error {
		for i := range o.Lines {
			line := &o.Lines[i]
			item, err := h.lockItem(ctx, cmd.lineKey(o, *line))
			if err != nil {
				return err
			}
			item, err = h.reserve(ctx, item, line.Quantity)
			if err != nil {
				if appErr, ok := asInsufficient(err); ok {
					return appErr.WithParams(map[string]any{
						"Line":      line.Position,
						"Requested": line.Quantity.String(),
						"Available": appErr.Params["Available"],
					})
				}
				return err
			}
			line.ReservedQuantity = line.Quantity
			if err := h.Orders.SaveLine(ctx, line); err != nil {
				return err
			}
			*events = append(*events, stockEvents(item, "reserve", cmd.Actor)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.Metrics.RecordOrderConfirmed()
	logger.FromContext(ctx).Info("order confirmed", zap.String("order", order.Number), zap.String("actor", cmd.Actor))
	return order, nil
}

type MarkOrderReadyHandler struct{ *Deps }

func (h MarkOrderReadyHandler) Handle(ctx context.Context, cmd MarkOrderReady) (*model.Order, error) {
	return h.changeOrder(ctx, cmd.OrderAction, model.OrderReady, nil)
}

// ShipOrderHandler turns the reservations into exit movements.
type ShipOrderHandler struct{ *Deps }

func (h ShipOrderHandler) Handle(ctx context.Context, cmd ShipOrder) (*model.Order, error) {
	return h.changeOrder(ctx, cmd.OrderAction, model.OrderShipped, func(ctx context.Context, o *model.Order, events *[]ws.Event) error {
		for i := range o.Lines {
			line := &o.Lines[i]
			item, err := h.lockItem(ctx, cmd.lineKey(o, *line))
			if err != nil {
				return err
			}
			if err := item.Consume(line.Quantity); err != nil {
				return err
			}
			ref := stockRef{Type: "order", ID: &o.ID, Note: o.Number}
			if _, err := h.saveMovement(ctx, item, model.MovementExit, line.Quantity.Neg(), ref, cmd.Actor, events); err != nil {
				return err
			}
			line.ReservedQuantity = decimal.Zero
			if err := h.Orders.SaveLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
}

type DeliverOrderHandler struct{ *Deps }

func (h DeliverOrderHandler) Handle(ctx context.Context, cmd DeliverOrder) (*model.Order, error) {
	return h.changeOrder(ctx, cmd.OrderAction, model.OrderDelivered, func(ctx context.Context, o *model.Order, _ *[]ws.Event) error {
		if o.Status != model.OrderShipped {
			return model.ErrInvalidTransition.WithParams(map[string]any{"From": string(o.Status), "To": string(model.OrderDelivered)})
		}
		for i := range o.Lines {
			o.Lines[i].DeliveredQuantity = o.Lines[i].Quantity
			if err := h.Orders.SaveLine(ctx, &o.Lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// CancelOrderHandler releases whatever the order still holds.
type CancelOrderHandler struct{ *Deps }

func (h CancelOrderHandler) Handle(ctx context.Context, cmd CancelOrder) (*model.Order, error) {
	return h.changeOrder(ctx, cmd.OrderAction, model.OrderCancelled, func(ctx context.Context, o *model.Order, events *[]ws.Event) error {
		if !o.Status.HoldsReservations() {
			return nil
		}
		for i := range o.Lines {
			line := &o.Lines[i]
			if !line.ReservedQuantity.IsPositive() {
				continue
			}
			item, err := h.lockItem(ctx, cmd.lineKey(o, *line))
			if err != nil {
				return err
			}
			item.Release(line.ReservedQuantity)
			item.Touch(cmd.Actor)
			if err := h.Stock.SaveItem(ctx, item); err != nil {
				return err
			}
			line.ReservedQuantity = decimal.Zero
			if err := h.Orders.SaveLine(ctx, line); err != nil {
				return err
			}
			*events = append(*events, stockEvents(item, "release", cmd.Actor)...)
		}
		return nil
	})
}

type GetOrder struct {
	ID uuid.UUID
}

type GetOrderHandler struct{ *Deps }

func (h GetOrderHandler) Handle(ctx context.Context, q GetOrder) (*model.Order, error) {
	order, err := h.Orders.FindByID(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

type ListOrders struct {
	Filter repository.SalesFilter
	Page   repository.PageRequest
}

type ListOrdersHandler struct{ *Deps }

func (h ListOrdersHandler) Handle(ctx context.Context, q ListOrders) (repository.Page[model.Order], error) {
	page, err := h.Orders.List(ctx, q.Filter, q.Page)
	return page, internal(err)
}

func orderEvent(action string, o *model.Order, actor string) ws.Event {
	return ws.Event{
		Type:   ws.EventOrderStatus,
		Action: action,
		User:   actor,
		Data:   map[string]any{"id": o.ID, "number": o.Number, "status": o.Status, "total": o.Total},
	}
}

func asInsufficient(err error) (*apperr.Error, bool) {
	if !errors.Is(err, model.ErrInsufficientStock) {
		return nil, false
	}
	return apperr.As(err)
}
