package service

import (
	"context"
	"strings"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockKey identifies a stock item. A nil VariantID is the plain product.
type StockKey struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"uuid_required"`
	VariantID  *uuid.UUID `json:"variant_id"`
	LocationID uuid.UUID  `json:"location_id" validate:"uuid_required"`
}

func (k StockKey) variant() uuid.UUID {
	if k.VariantID == nil {
		return uuid.Nil
	}
	return *k.VariantID
}

// stockRef links a movement to the document that caused it.
type stockRef struct {
	Type string
	ID   *uuid.UUID
	Note string
}

// lockItem returns the row-locked stock item for key, creating it when missing.
func (d *Deps) lockItem(ctx context.Context, key StockKey) (*model.StockItem, error) {
	item, err := d.Stock.EnsureItem(ctx, key.ProductID, key.variant(), key.LocationID)
	if err != nil {
		return nil, err
	}
	return d.Stock.LockItem(ctx, item.ID)
}

// checkStockKey verifies that the product, variant and location exist.
func (d *Deps) checkStockKey(ctx context.Context, key StockKey) error {
	if _, err := d.Products.FindByID(ctx, key.ProductID); err != nil {
		return notFound(err, ErrProductNotFound)
	}
	if key.VariantID != nil && *key.VariantID != uuid.Nil {
		variant, err := d.Products.FindVariant(ctx, *key.VariantID)
		if err != nil {
			return notFound(err, ErrVariantNotFound)
		}
		if variant.ProductID != key.ProductID {
			return ErrVariantNotFound
		}
	}
	if _, err := d.Stock.FindLocation(ctx, key.LocationID); err != nil {
		return notFound(err, ErrLocationNotFound)
	}
	return nil
}

// saveMovement persists item and its audit row and queues the matching events.
func (d *Deps) saveMovement(ctx context.Context, item *model.StockItem, typ model.MovementType, qty decimal.Decimal, ref stockRef, actor string, events *[]ws.Event) (*model.StockMovement, error) {
	item.Touch(actor)
	if err := d.Stock.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	movement := model.NewMovement(item, typ, qty, ref.Type, ref.ID, ref.Note, actor)
	movement.CreatedAt = d.now()
	if err := d.Stock.AddMovement(ctx, movement); err != nil {
		return nil, err
	}
	d.Metrics.RecordMovement(string(typ))
	*events = append(*events, stockEvents(item, string(typ), actor)...)
	return movement, nil
}

func stockEvents(item *model.StockItem, action, actor string) []ws.Event {
	data := map[string]any{
		"stock_item_id":     item.ID,
		"product_id":        item.ProductID,
		"location_id":       item.LocationID,
		"physical_quantity": item.PhysicalQuantity,
		"reserved_quantity": item.ReservedQuantity,
		"available":         item.Available(),
	}
	events := []ws.Event{{Type: ws.EventStockUpdate, Action: action, User: actor, Data: data}}
	if level := item.AlertLevel(); level != model.AlertNone {
		events = append(events, ws.Event{Type: ws.EventStockAlert, Action: string(level), User: actor, Data: data})
	}
	return events
}

// reserve claims qty on the item with a conditional update so concurrent
// reservations can never push reserved above physical.
func (d *Deps) reserve(ctx context.Context, item *model.StockItem, qty decimal.Decimal) (*model.StockItem, error) {
	if !qty.IsPositive() {
		return nil, model.ErrInvalidQuantity
	}
	ok, err := d.Stock.TryReserve(ctx, item.ID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		d.Metrics.RecordReservationFailed()
		return nil, model.ErrInsufficientStock.WithParams(map[string]any{
			"Requested": qty.String(),
			"Available": item.Available().String(),
		})
	}
	return d.Stock.LockItem(ctx, item.ID)
}

type CreateLocation struct {
	Actor string `json:"-"`
	Code  string `json:"code" validate:"required,max=30"`
	Name  string `json:"name" validate:"required,max=120"`
}

type CreateLocationHandler struct{ *Deps }

func (h CreateLocationHandler) Handle(ctx context.Context, cmd CreateLocation) (*model.StockLocation, error) {
	cmd.Code = strings.TrimSpace(cmd.Code)
	if err := validate(cmd); err != nil {
		return nil, err
	}
	location := &model.StockLocation{Code: cmd.Code, Name: cmd.Name, Active: true}
	location.Touch(cmd.Actor)
	if err := h.Stock.CreateLocation(ctx, location); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateCode.WithParams(map[string]any{"Code": cmd.Code})
		}
		return nil, internal(err)
	}
	return location, nil
}

type ListLocations struct{}

type ListLocationsHandler struct{ *Deps }

func (h ListLocationsHandler) Handle(ctx context.Context, _ ListLocations) ([]model.StockLocation, error) {
	locations, err := h.Stock.ListLocations(ctx)
	return locations, internal(err)
}

type EnsureStockItem struct {
	Actor string `json:"-"`
	StockKey
}

type EnsureStockItemHandler struct{ *Deps }

func (h EnsureStockItemHandler) Handle(ctx context.Context, cmd EnsureStockItem) (*model.StockItem, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if err := h.checkStockKey(ctx, cmd.StockKey); err != nil {
		return nil, err
	}
	item, err := h.Stock.EnsureItem(ctx, cmd.ProductID, cmd.variant(), cmd.LocationID)
	return item, internal(err)
}

type SetStockThresholds struct {
	Actor        string          `json:"-"`
	ItemID       uuid.UUID       `json:"-" validate:"uuid_required"`
	MinQuantity  decimal.Decimal `json:"min_quantity" validate:"gte=0"`
	MaxQuantity  decimal.Decimal `json:"max_quantity" validate:"gte=0"`
	ReorderPoint decimal.Decimal `json:"reorder_point" validate:"gte=0"`
}

type SetStockThresholdsHandler struct{ *Deps }

func (h SetStockThresholdsHandler) Handle(ctx context.Context, cmd SetStockThresholds) (*model.StockItem, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if cmd.MaxQuantity.IsPositive() && cmd.MaxQuantity.LessThan(cmd.MinQuantity) {
		return nil, ErrTierRange
	}
	var item *model.StockItem
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		var err error
		item, err = h.Stock.LockItem(ctx, cmd.ItemID)
		if err != nil {
			return notFound(err, ErrStockItemNotFound)
		}
		item.MinQuantity = cmd.MinQuantity
		item.MaxQuantity = cmd.MaxQuantity
		item.ReorderPoint = cmd.ReorderPoint
		item.Touch(cmd.Actor)
		if err := h.Stock.SaveItem(ctx, item); err != nil {
			return err
		}
		*events = append(*events, stockEvents(item, "thresholds", cmd.Actor)...)
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return item, nil
}

// StockQuantity is the body shared by the quantity commands.
type StockQuantity struct {
	Actor string `json:"-"`
	StockKey
	Quantity      decimal.Decimal `json:"quantity" validate:"gt=0"`
	ReferenceType string          `json:"reference_type" validate:"max=40"`
	ReferenceID   *uuid.UUID      `json:"reference_id"`
	Note          string          `json:"note"`
}

func (q StockQuantity) ref() stockRef {
	return stockRef{Type: q.ReferenceType, ID: q.ReferenceID, Note: q.Note}
}

type ReserveStock struct{ StockQuantity }

type ReserveStockHandler struct{ *Deps }

func (h ReserveStockHandler) Handle(ctx context.Context, cmd ReserveStock) (*model.StockItem, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var item *model.StockItem
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if err := h.checkStockKey(ctx, cmd.StockKey); err != nil {
			return err
		}
		locked, err := h.lockItem(ctx, cmd.StockKey)
		if err != nil {
			return err
		}
		item, err = h.reserve(ctx, locked, cmd.Quantity)
		if err != nil {
			return err
		}
		*events = append(*events, stockEvents(item, "reserve", cmd.Actor)...)
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return item, nil
}

// ReleaseStock gives back a reservation. Releasing more than is reserved
// floors the reservation at zero.
type ReleaseStock struct{ StockQuantity }

type ReleaseStockHandler struct{ *Deps }

func (h ReleaseStockHandler) Handle(ctx context.Context, cmd ReleaseStock) (*model.StockItem, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var item *model.StockItem
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		existing, err := h.Stock.FindItem(ctx, cmd.ProductID, cmd.variant(), cmd.LocationID)
		if err != nil {
			return notFound(err, ErrStockItemNotFound)
		}
		item, err = h.Stock.LockItem(ctx, existing.ID)
		if err != nil {
			return err
		}
		item.Release(cmd.Quantity)
		item.Touch(cmd.Actor)
		if err := h.Stock.SaveItem(ctx, item); err != nil {
			return err
		}
		*events = append(*events, stockEvents(item, "release", cmd.Actor)...)
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return item, nil
}

// AdjustStock sets the counted physical quantity after an inventory count.
type AdjustStock struct {
	Actor string `json:"-"`
	StockKey
	CountedQuantity decimal.Decimal `json:"counted_quantity" validate:"gte=0"`
	Note            string          `json:"note"`
}

type AdjustStockHandler struct{ *Deps }

func (h AdjustStockHandler) Handle(ctx context.Context, cmd AdjustStock) (*model.StockMovement, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var movement *model.StockMovement
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if err := h.checkStockKey(ctx, cmd.StockKey); err != nil {
			return err
		}
		item, err := h.lockItem(ctx, cmd.StockKey)
		if err != nil {
			return err
		}
		delta, err := item.Adjust(cmd.CountedQuantity)
		if err != nil {
			return err
		}
		movement, err = h.saveMovement(ctx, item, model.MovementAdjustment, delta, stockRef{Note: cmd.Note}, cmd.Actor, events)
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return movement, nil
}

type ReceiveStock struct{ StockQuantity }

type ReceiveStockHandler struct{ *Deps }

func (h ReceiveStockHandler) Handle(ctx context.Context, cmd ReceiveStock) (*model.StockMovement, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var movement *model.StockMovement
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if err := h.checkStockKey(ctx, cmd.StockKey); err != nil {
			return err
		}
		item, err := h.lockItem(ctx, cmd.StockKey)
		if err != nil {
			return err
		}
		if err := item.Receive(cmd.Quantity); err != nil {
			return err
		}
		movement, err = h.saveMovement(ctx, item, model.MovementEntry, cmd.Quantity, cmd.ref(), cmd.Actor, events)
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return movement, nil
}

// IssueStock removes unreserved stock outside of an order.
type IssueStock struct{ StockQuantity }

type IssueStockHandler struct{ *Deps }

func (h IssueStockHandler) Handle(ctx context.Context, cmd IssueStock) (*model.StockMovement, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	var movement *model.StockMovement
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		existing, err := h.Stock.FindItem(ctx, cmd.ProductID, cmd.variant(), cmd.LocationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return model.ErrInsufficientStock
			}
			return err
		}
		item, err := h.Stock.LockItem(ctx, existing.ID)
		if err != nil {
			return err
		}
		if err := item.Issue(cmd.Quantity); err != nil {
			return err
		}
		movement, err = h.saveMovement(ctx, item, model.MovementExit, cmd.Quantity.Neg(), cmd.ref(), cmd.Actor, events)
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	h.invalidateDashboard(ctx)
	return movement, nil
}

type TransferStock struct {
	Actor          string          `json:"-"`
	ProductID      uuid.UUID       `json:"product_id" validate:"uuid_required"`
	VariantID      *uuid.UUID      `json:"variant_id"`
	FromLocationID uuid.UUID       `json:"from_location_id" validate:"uuid_required"`
	ToLocationID   uuid.UUID       `json:"to_location_id" validate:"uuid_required"`
	Quantity       decimal.Decimal `json:"quantity" validate:"gt=0"`
	Note           string          `json:"note"`
}

// TransferResult holds the outbound and inbound movements.
type TransferResult struct {
	Out *model.StockMovement `json:"out"`
	In  *model.StockMovement `json:"in"`
}

type TransferStockHandler struct{ *Deps }

func (h TransferStockHandler) Handle(ctx context.Context, cmd TransferStock) (*TransferResult, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if cmd.FromLocationID == cmd.ToLocationID {
		return nil, ErrSameLocation
	}
	from := StockKey{ProductID: cmd.ProductID, VariantID: cmd.VariantID, LocationID: cmd.FromLocationID}
	to := StockKey{ProductID: cmd.ProductID, VariantID: cmd.VariantID, LocationID: cmd.ToLocationID}

	result := &TransferResult{}
	err := h.inTx(ctx, func(ctx context.Context, events *[]ws.Event) error {
		if err := h.checkStockKey(ctx, to); err != nil {
			return err
		}
		existing, err := h.Stock.FindItem(ctx, cmd.ProductID, from.variant(), cmd.FromLocationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return model.ErrInsufficientStock
			}
			return err
		}
		source, err := h.Stock.LockItem(ctx, existing.ID)
		if err != nil {
			return err
		}
		if err := source.Issue(cmd.Quantity); err != nil {
			return err
		}
		target, err := h.lockItem(ctx, to)
		if err != nil {
			return err
		}
		if err := target.Receive(cmd.Quantity); err != nil {
			return err
		}
		ref := stockRef{Type: "transfer", ID: &target.LocationID, Note: cmd.Note}
		if result.Out, err = h.saveMovement(ctx, source, model.MovementTransfer, cmd.Quantity.Neg(), ref, cmd.Actor, events); err != nil {
			return err
		}
		ref.ID = &source.LocationID
		result.In, err = h.saveMovement(ctx, target, model.MovementTransfer, cmd.Quantity, ref, cmd.Actor, events)
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	logger.FromContext(ctx).Info("stock transferred",
		zap.String("product_id", cmd.ProductID.String()), zap.String("quantity", cmd.Quantity.String()))
	return result, nil
}

type GetStockItem struct {
	ID uuid.UUID
}

type GetStockItemHandler struct{ *Deps }

func (h GetStockItemHandler) Handle(ctx context.Context, q GetStockItem) (*model.StockItem, error) {
	item, err := h.Stock.FindItemByID(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrStockItemNotFound)
	}
	return item, nil
}

type ListStockItems struct {
	Filter repository.StockFilter
	Page   repository.PageRequest
}

type ListStockItemsHandler struct{ *Deps }

func (h ListStockItemsHandler) Handle(ctx context.Context, q ListStockItems) (repository.Page[model.StockItem], error) {
	page, err := h.Stock.ListItems(ctx, q.Filter, q.Page)
	return page, internal(err)
}

type StockAlert struct {
	Level model.AlertLevel `json:"level"`
	Item  model.StockItem  `json:"item"`
}

// ListStockAlerts returns every item with an alert, optionally of one level.
type ListStockAlerts struct {
	Level model.AlertLevel
}

type ListStockAlertsHandler struct{ *Deps }

func (h ListStockAlertsHandler) Handle(ctx context.Context, q ListStockAlerts) ([]StockAlert, error) {
	items, err := h.Stock.AllItems(ctx)
	if err != nil {
		return nil, internal(err)
	}
	alerts := make([]StockAlert, 0)
	for _, item := range items {
		level := item.AlertLevel()
		if level == model.AlertNone || (q.Level != "" && q.Level != level) {
			continue
		}
		alerts = append(alerts, StockAlert{Level: level, Item: item})
	}
	return alerts, nil
}

type ListMovements struct {
	Filter repository.MovementFilter
	Page   repository.PageRequest
}

type ListMovementsHandler struct{ *Deps }

func (h ListMovementsHandler) Handle(ctx context.Context, q ListMovements) (repository.Page[model.StockMovement], error) {
	page, err := h.Stock.ListMovements(ctx, q.Filter, q.Page)
	return page, internal(err)
}
