package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/ws"
	"erp-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type testEnv struct {
	*Deps
	events *ws.Recorder
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	env := &testEnv{events: &ws.Recorder{}, clock: time.Now().UTC().Truncate(time.Second)}
	env.Deps = NewDeps(db, env.events, nil, nil, time.Minute)
	env.Now = func() time.Time { return env.clock }
	return env
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func (e *testEnv) product(t *testing.T, code, price, cost string) *model.Product {
	t.Helper()
	p, err := CreateProductHandler{e.Deps}.Handle(context.Background(), CreateProduct{
		Actor: "test", Code: code, Name: "Product " + code,
		Price: dec(price), Cost: dec(cost), TaxRate: dec("20"), UnitOfMeasure: "pcs",
	})
	if err != nil {
		t.Fatalf("create product %s: %v", code, err)
	}
	return p
}

func (e *testEnv) location(t *testing.T) *model.StockLocation {
	t.Helper()
	loc, err := CreateLocationHandler{e.Deps}.Handle(context.Background(), CreateLocation{Actor: "test", Code: "WH-" + uuid.NewString()[:6], Name: "Main"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return loc
}

func (e *testEnv) customer(t *testing.T, typ model.CustomerType, discount string) *model.Customer {
	t.Helper()
	c, err := CreateCustomerHandler{e.Deps}.Handle(context.Background(), CreateCustomer{
		Actor: "test", Code: "C-" + uuid.NewString()[:6], Type: typ, Name: "Acme",
		CompanyName: "Acme SAS", DefaultDiscountPercent: dec(discount),
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func (e *testEnv) receive(t *testing.T, product, location uuid.UUID, qty string) {
	t.Helper()
	_, err := ReceiveStockHandler{e.Deps}.Handle(context.Background(), ReceiveStock{StockQuantity{
		Actor: "test", StockKey: StockKey{ProductID: product, LocationID: location}, Quantity: dec(qty),
	}})
	if err != nil {
		t.Fatalf("receive stock: %v", err)
	}
}

func (e *testEnv) stockItem(t *testing.T, product, location uuid.UUID) *model.StockItem {
	t.Helper()
	item, err := EnsureStockItemHandler{e.Deps}.Handle(context.Background(), EnsureStockItem{StockKey: StockKey{ProductID: product, LocationID: location}})
	if err != nil {
		t.Fatalf("load stock item: %v", err)
	}
	return item
}

func TestReserveStockNeverExceedsPhysical(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "P1", "10", "5")
	loc := env.location(t)
	env.receive(t, p.ID, loc.ID, "10")

	key := StockKey{ProductID: p.ID, LocationID: loc.ID}
	if _, err := (ReserveStockHandler{env.Deps}).Handle(ctx, ReserveStock{StockQuantity{StockKey: key, Quantity: dec("7")}}); err != nil {
		t.Fatalf("first reservation: %v", err)
	}
	_, err := ReserveStockHandler{env.Deps}.Handle(ctx, ReserveStock{StockQuantity{StockKey: key, Quantity: dec("4")}})
	if !errors.Is(err, model.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	item := env.stockItem(t, p.ID, loc.ID)
	if !item.ReservedQuantity.Equal(dec("7")) || !item.PhysicalQuantity.Equal(dec("10")) {
		t.Fatalf("failed reservation changed state: physical %s reserved %s", item.PhysicalQuantity, item.ReservedQuantity)
	}
}

func TestConfirmOrderIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.product(t, "A", "10", "5")
	b := env.product(t, "B", "10", "5")
	loc := env.location(t)
	env.receive(t, a.ID, loc.ID, "10")
	env.receive(t, b.ID, loc.ID, "1")
	cust := env.customer(t, model.CustomerB2C, "0")

	order, err := CreateOrderHandler{env.Deps}.Handle(ctx, CreateOrder{
		CustomerID: cust.ID, LocationID: loc.ID,
		Lines: []LineInput{{ProductID: a.ID, Quantity: dec("5")}, {ProductID: b.ID, Quantity: dec("3")}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	_, err = ConfirmOrderHandler{env.Deps}.Handle(ctx, ConfirmOrder{OrderAction{ID: order.ID}})
	if !errors.Is(err, model.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if item := env.stockItem(t, a.ID, loc.ID); !item.ReservedQuantity.IsZero() {
		t.Fatalf("expected first line reservation rolled back, reserved %s", item.ReservedQuantity)
	}
	got, err := GetOrderHandler{env.Deps}.Handle(ctx, GetOrder{ID: order.ID})
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != model.OrderDraft {
		t.Fatalf("expected order to stay draft, got %s", got.Status)
	}
}

func TestOnlyAcceptedQuotesConvert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Q1", "100", "60")
	loc := env.location(t)
	cust := env.customer(t, model.CustomerB2C, "0")

	quote, err := CreateQuoteHandler{env.Deps}.Handle(ctx, CreateQuote{
		CustomerID: cust.ID, Lines: []LineInput{{ProductID: p.ID, Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	convert := ConvertQuoteToOrderHandler{env.Deps}
	if _, err := convert.Handle(ctx, ConvertQuoteToOrder{QuoteID: quote.ID, LocationID: loc.ID}); !errors.Is(err, model.ErrQuoteNotAccepted) {
		t.Fatalf("draft quote: expected ErrQuoteNotAccepted, got %v", err)
	}
	if _, err := (SendQuoteHandler{env.Deps}).Handle(ctx, SendQuote{QuoteAction{ID: quote.ID}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := convert.Handle(ctx, ConvertQuoteToOrder{QuoteID: quote.ID, LocationID: loc.ID}); !errors.Is(err, model.ErrQuoteNotAccepted) {
		t.Fatalf("sent quote: expected ErrQuoteNotAccepted, got %v", err)
	}
	if _, err := (AcceptQuoteHandler{env.Deps}).Handle(ctx, AcceptQuote{QuoteAction{ID: quote.ID}}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	order, err := convert.Handle(ctx, ConvertQuoteToOrder{QuoteID: quote.ID, LocationID: loc.ID})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if order.Status != model.OrderDraft || !order.Total.Equal(quote.Total) {
		t.Fatalf("unexpected order %s total %s, quote total %s", order.Status, order.Total, quote.Total)
	}

	again, err := GetQuoteHandler{env.Deps}.Handle(ctx, GetQuote{ID: quote.ID})
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if again.Status != model.QuoteConverted {
		t.Fatalf("expected converted quote, got %s", again.Status)
	}
	if _, err := convert.Handle(ctx, ConvertQuoteToOrder{QuoteID: quote.ID, LocationID: loc.ID}); !errors.Is(err, model.ErrQuoteNotAccepted) {
		t.Fatalf("second conversion: expected ErrQuoteNotAccepted, got %v", err)
	}
}

func TestRevisingSentQuoteKeepsPreviousVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "QV", "10", "4")
	cust := env.customer(t, model.CustomerB2C, "0")

	quote, err := CreateQuoteHandler{env.Deps}.Handle(ctx, CreateQuote{
		CustomerID: cust.ID, Lines: []LineInput{{ProductID: p.ID, Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if _, err := (SendQuoteHandler{env.Deps}).Handle(ctx, SendQuote{QuoteAction{ID: quote.ID}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	revised, err := UpdateQuoteHandler{env.Deps}.Handle(ctx, UpdateQuote{
		ID: quote.ID, Lines: []LineInput{{ProductID: p.ID, Quantity: dec("3")}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if revised.Version != 2 || revised.Status != model.QuoteDraft {
		t.Fatalf("expected draft version 2, got %s version %d", revised.Status, revised.Version)
	}
	if !revised.Subtotal.Equal(dec("30")) {
		t.Fatalf("expected subtotal 30, got %s", revised.Subtotal)
	}
	versions, err := ListQuoteVersionsHandler{env.Deps}.Handle(ctx, ListQuoteVersions{QuoteID: quote.ID})
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 || versions[0].Version != 1 {
		t.Fatalf("expected one snapshot of version 1, got %+v", versions)
	}
}

func TestPromotionBeatsVolumeTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "PR", "100", "50")

	if _, err := (CreateVolumeTierHandler{env.Deps}).Handle(ctx, CreateVolumeTier{ProductID: p.ID, MinQuantity: dec("10"), Price: dec("80")}); err != nil {
		t.Fatalf("tier: %v", err)
	}
	if _, err := (CreatePromotionHandler{env.Deps}).Handle(ctx, CreatePromotion{
		ProductID: p.ID, Name: "Spring", Price: dec("70"),
		StartsAt: env.clock.Add(-time.Hour), EndsAt: env.clock.Add(24 * time.Hour),
	}); err != nil {
		t.Fatalf("promotion: %v", err)
	}

	res, err := GetPriceHandler{env.Deps}.Handle(ctx, GetPrice{ProductID: p.ID, Quantity: dec("20")})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if res.Source != SourcePromotion || !res.FinalPrice.Equal(dec("70")) {
		t.Fatalf("expected promotion at 70, got %s at %s", res.Source, res.FinalPrice)
	}
}

func TestB2BCustomerDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "B2B", "100", "50")
	cust := env.customer(t, model.CustomerB2B, "5")

	res, err := GetPriceHandler{env.Deps}.Handle(ctx, GetPrice{ProductID: p.ID, CustomerID: &cust.ID, Quantity: dec("1")})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if res.Source != SourceCustomerDiscount || res.FinalPrice.StringFixed(2) != "95.00" {
		t.Fatalf("expected 95.00 from customer discount, got %s from %s", res.FinalPrice.StringFixed(2), res.Source)
	}
}

func TestB2BCustomerRequiresCompany(t *testing.T) {
	env := newTestEnv(t)
	_, err := CreateCustomerHandler{env.Deps}.Handle(context.Background(), CreateCustomer{Code: "NOCO", Type: model.CustomerB2B, Name: "Bob"})
	if !errors.Is(err, ErrCompanyRequired) {
		t.Fatalf("expected ErrCompanyRequired, got %v", err)
	}
}

func TestProductRoundTripAndPriceHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.product(t, "RT-1", "12.50", "7.25")

	got, err := GetProductHandler{env.Deps}.Handle(ctx, GetProduct{ID: created.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "RT-1" || !got.Price.Equal(dec("12.50")) || !got.Cost.Equal(dec("7.25")) || got.Status != model.ProductActive {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := (CreateProductHandler{env.Deps}).Handle(ctx, CreateProduct{Code: "RT-1", Name: "dup"}); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	if _, err := (UpdateProductHandler{env.Deps}).Handle(ctx, UpdateProduct{ID: created.ID, Price: ptr(dec("14")), Reason: "supplier increase"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	history, err := GetPriceHistoryHandler{env.Deps}.Handle(ctx, GetPriceHistory{ProductID: created.ID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	found := false
	for _, h := range history {
		if h.OldValue.Equal(dec("12.50")) && h.NewValue.Equal(dec("14")) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a 12.50 -> 14 price change in %+v", history)
	}
}

func TestSalesFlowInvoicePaymentAndAging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "S1", "100", "60")
	loc := env.location(t)
	env.receive(t, p.ID, loc.ID, "10")
	cust := env.customer(t, model.CustomerB2C, "0")

	order, err := CreateOrderHandler{env.Deps}.Handle(ctx, CreateOrder{
		CustomerID: cust.ID, LocationID: loc.ID, Lines: []LineInput{{ProductID: p.ID, Quantity: dec("4")}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	action := OrderAction{Actor: "test", ID: order.ID}
	steps := []func() error{
		func() error { _, err := (ConfirmOrderHandler{env.Deps}).Handle(ctx, ConfirmOrder{action}); return err },
		func() error {
			_, err := (MarkOrderReadyHandler{env.Deps}).Handle(ctx, MarkOrderReady{action})
			return err
		},
		func() error { _, err := (ShipOrderHandler{env.Deps}).Handle(ctx, ShipOrder{action}); return err },
		func() error { _, err := (DeliverOrderHandler{env.Deps}).Handle(ctx, DeliverOrder{action}); return err },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	item := env.stockItem(t, p.ID, loc.ID)
	if !item.PhysicalQuantity.Equal(dec("6")) || !item.ReservedQuantity.IsZero() {
		t.Fatalf("after shipping expected physical 6 reserved 0, got %s %s", item.PhysicalQuantity, item.ReservedQuantity)
	}

	invoice, err := CreateInvoiceFromOrderHandler{env.Deps}.Handle(ctx, CreateInvoiceFromOrder{OrderID: order.ID})
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if !invoice.Total.Equal(dec("480")) {
		t.Fatalf("expected invoice total 480, got %s", invoice.Total)
	}
	if _, err := (CreateInvoiceFromOrderHandler{env.Deps}).Handle(ctx, CreateInvoiceFromOrder{OrderID: order.ID}); err == nil {
		t.Fatalf("expected second invoice for the order to be refused")
	}
	if _, err := (IssueInvoiceHandler{env.Deps}).Handle(ctx, IssueInvoice{ID: invoice.ID}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = RecordPaymentHandler{env.Deps}.Handle(ctx, RecordPayment{
		CustomerID: cust.ID, Amount: dec("100"), Method: "bank_transfer",
		Allocations: []AllocationInput{{InvoiceID: invoice.ID, Amount: dec("150")}},
	})
	if !errors.Is(err, ErrAllocationsExceed) {
		t.Fatalf("expected ErrAllocationsExceed, got %v", err)
	}
	payment, err := RecordPaymentHandler{env.Deps}.Handle(ctx, RecordPayment{
		CustomerID: cust.ID, Amount: dec("200"), Method: "bank_transfer",
		Allocations: []AllocationInput{{InvoiceID: invoice.ID, Amount: dec("200")}},
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if len(payment.Allocations) != 1 {
		t.Fatalf("expected one allocation, got %d", len(payment.Allocations))
	}
	paid, err := GetInvoiceHandler{env.Deps}.Handle(ctx, GetInvoice{ID: invoice.ID})
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if paid.Status != model.InvoicePartiallyPaid || !paid.Balance().Equal(dec("280")) {
		t.Fatalf("expected partially paid with 280 left, got %s %s", paid.Status, paid.Balance())
	}

	env.clock = env.clock.AddDate(0, 0, 30+45)
	overdue, err := ListOverdueInvoicesHandler{env.Deps}.Handle(ctx, ListOverdueInvoices{})
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].DaysOverdue != 45 {
		t.Fatalf("expected one invoice 45 days overdue, got %+v", overdue)
	}
	aging, err := GetAgingReportHandler{env.Deps}.Handle(ctx, GetAgingReport{})
	if err != nil {
		t.Fatalf("aging: %v", err)
	}
	if !aging.Totals.Days60.Equal(dec("280")) || !aging.Totals.Total.Equal(dec("280")) {
		t.Fatalf("expected 280 in the 31-60 bucket, got %+v", aging.Totals)
	}
	if len(aging.Customers) != 1 || aging.Customers[0].CustomerID != cust.ID {
		t.Fatalf("expected one customer row, got %+v", aging.Customers)
	}
}

func TestPurchaseOrderTotalsReceiptAndMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.product(t, "PA", "80", "40")
	b := env.product(t, "PB", "50", "30")
	loc := env.location(t)
	env.receive(t, a.ID, loc.ID, "10")
	supplier, err := CreateSupplierHandler{env.Deps}.Handle(ctx, CreateSupplier{Code: "SUP", Name: "Supplies Ltd"})
	if err != nil {
		t.Fatalf("supplier: %v", err)
	}

	po, err := CreatePurchaseOrderHandler{env.Deps}.Handle(ctx, CreatePurchaseOrder{
		SupplierID: supplier.ID,
		Lines: []PurchaseLineInput{
			{ProductID: a.ID, Quantity: dec("10"), UnitPrice: ptr(dec("50"))},
			{ProductID: b.ID, Quantity: dec("5"), UnitPrice: ptr(dec("30"))},
		},
	})
	if err != nil {
		t.Fatalf("purchase order: %v", err)
	}
	if !po.Subtotal.Equal(dec("650")) || !po.TaxTotal.Equal(dec("130")) || !po.Total.Equal(dec("780")) {
		t.Fatalf("expected 650/130/780, got %s/%s/%s", po.Subtotal, po.TaxTotal, po.Total)
	}

	action := PurchaseOrderAction{ID: po.ID}
	if _, err := (SendPurchaseOrderHandler{env.Deps}).Handle(ctx, SendPurchaseOrder{action}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := (ConfirmPurchaseOrderHandler{env.Deps}).Handle(ctx, ConfirmPurchaseOrder{action}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	var lineA uuid.UUID
	for _, l := range po.Lines {
		if l.ProductID == a.ID {
			lineA = l.ID
		}
	}
	receipt, err := CreatePurchaseReceiptHandler{env.Deps}.Handle(ctx, CreatePurchaseReceipt{
		PurchaseOrderID: po.ID, LocationID: loc.ID,
		Lines: []ReceiptLineInput{{PurchaseOrderLineID: lineA, Quantity: dec("10")}},
	})
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}

	product, err := GetProductHandler{env.Deps}.Handle(ctx, GetProduct{ID: a.ID})
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if !product.Cost.Equal(dec("45")) {
		t.Fatalf("expected average cost 45, got %s", product.Cost)
	}
	if item := env.stockItem(t, a.ID, loc.ID); !item.PhysicalQuantity.Equal(dec("20")) {
		t.Fatalf("expected 20 on hand, got %s", item.PhysicalQuantity)
	}
	reloaded, err := GetPurchaseOrderHandler{env.Deps}.Handle(ctx, GetPurchaseOrder{ID: po.ID})
	if err != nil {
		t.Fatalf("get purchase order: %v", err)
	}
	if reloaded.Status != model.PurchaseOrderPartiallyReceived {
		t.Fatalf("expected partially received, got %s", reloaded.Status)
	}

	invoice, err := CreateSupplierInvoiceHandler{env.Deps}.Handle(ctx, CreateSupplierInvoice{
		SupplierID: supplier.ID, PurchaseOrderID: po.ID, PurchaseReceiptID: &receipt.ID,
		SupplierReference: "INV-77", InvoiceDate: env.clock, Subtotal: dec("500"), TaxTotal: dec("100"),
	})
	if err != nil {
		t.Fatalf("supplier invoice: %v", err)
	}
	res, err := MatchSupplierInvoiceHandler{env.Deps}.Handle(ctx, MatchSupplierInvoice{ID: invoice.ID})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Match.Status != model.MatchingPartial {
		t.Fatalf("expected partial match, got %s (%v)", res.Match.Status, res.Match.Notes)
	}
}
