package repository

import (
	"context"
	"strings"
	"sync"
	"testing"

	"erp-backend/internal/model"
	"erp-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedStockItem(t *testing.T, db *gorm.DB, physical int64) *model.StockItem {
	t.Helper()
	ctx := context.Background()
	product := &model.Product{Code: "P-" + uuid.NewString()[:8], Name: "Widget", Price: decimal.NewFromInt(10), Status: model.ProductActive}
	if err := NewProductRepo(db).Create(ctx, product); err != nil {
		t.Fatalf("create product: %v", err)
	}
	location := &model.StockLocation{Code: "L-" + uuid.NewString()[:8], Name: "Main", Active: true}
	stock := NewStockRepo(db)
	if err := stock.CreateLocation(ctx, location); err != nil {
		t.Fatalf("create location: %v", err)
	}
	item, err := stock.EnsureItem(ctx, product.ID, uuid.Nil, location.ID)
	if err != nil {
		t.Fatalf("ensure item: %v", err)
	}
	item.PhysicalQuantity = decimal.NewFromInt(physical)
	if err := stock.SaveItem(ctx, item); err != nil {
		t.Fatalf("save item: %v", err)
	}
	return item
}

func TestTryReserveNeverExceedsAvailable(t *testing.T) {
	db := newTestDB(t)
	stock := NewStockRepo(db)
	item := seedStockItem(t, db, 10)
	ctx := context.Background()

	ok, err := stock.TryReserve(ctx, item.ID, decimal.NewFromInt(7))
	if err != nil || !ok {
		t.Fatalf("expected first reservation to succeed, got %v %v", ok, err)
	}
	ok, err = stock.TryReserve(ctx, item.ID, decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatalf("expected reservation beyond available to be refused")
	}

	got, err := stock.FindItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.ReservedQuantity.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected reserved 7, got %s", got.ReservedQuantity)
	}
}

func TestTryReserveConcurrent(t *testing.T) {
	db := newTestDB(t)
	stock := NewStockRepo(db)
	item := seedStockItem(t, db, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := stock.TryReserve(ctx, item.ID, decimal.NewFromInt(1))
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Fatalf("expected exactly 5 reservations granted, got %d", granted)
	}
	got, _ := stock.FindItemByID(ctx, item.ID)
	if got.ReservedQuantity.GreaterThan(got.PhysicalQuantity) {
		t.Fatalf("reserved %s exceeds physical %s", got.ReservedQuantity, got.PhysicalQuantity)
	}
}

func TestEnsureItemIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	stock := NewStockRepo(db)
	item := seedStockItem(t, db, 3)

	again, err := stock.EnsureItem(context.Background(), item.ProductID, uuid.Nil, item.LocationID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if again.ID != item.ID {
		t.Fatalf("expected the existing row, got a new one")
	}
	if !again.PhysicalQuantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("ensure must not reset quantities, got %s", again.PhysicalQuantity)
	}
}

func TestNextNumberIsSequentialPerPrefix(t *testing.T) {
	db := newTestDB(t)
	seq := NewSequenceRepo(db)
	ctx := context.Background()

	first, err := seq.NextNumber(ctx, PrefixOrder)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	second, _ := seq.NextNumber(ctx, PrefixOrder)
	other, _ := seq.NextNumber(ctx, PrefixQuote)

	if !strings.HasPrefix(first, "SO-") || !strings.HasSuffix(first, "-00001") {
		t.Fatalf("unexpected first number %q", first)
	}
	if !strings.HasSuffix(second, "-00002") {
		t.Fatalf("unexpected second number %q", second)
	}
	if !strings.HasSuffix(other, "-00001") {
		t.Fatalf("prefixes must count independently, got %q", other)
	}
}

func TestPaginate(t *testing.T) {
	db := newTestDB(t)
	products := NewProductRepo(db)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		p := &model.Product{Code: "C" + uuid.NewString()[:6], Name: "Item", Price: decimal.NewFromInt(1), Status: model.ProductActive}
		if err := products.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := products.List(ctx, ProductFilter{}, PageRequest{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pagination.Total != 25 || page.Pagination.TotalPages != 3 || len(page.Items) != 5 {
		t.Fatalf("unexpected page %+v with %d items", page.Pagination, len(page.Items))
	}

	clamped := PageRequest{Page: 0, PageSize: 1000}.Normalize()
	if clamped.Page != 1 || clamped.PageSize != MaxPageSize {
		t.Fatalf("unexpected normalization %+v", clamped)
	}
}

func TestAddAddressKeepsSingleDefault(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customers := NewCustomerRepo(db)
	book := NewAddressBook(db)

	c := &model.Customer{Code: "CUST1", Type: model.CustomerB2C, Name: "Ada", Status: model.PartnerActive}
	if err := customers.Create(ctx, c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	for _, city := range []string{"Paris", "Lyon"} {
		a := &model.Address{OwnerID: c.ID, OwnerType: OwnerCustomers, Line1: "1 rue", City: city, Country: "FR", IsDefaultBilling: true}
		if err := book.AddAddress(ctx, a); err != nil {
			t.Fatalf("add address: %v", err)
		}
	}

	got, err := customers.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	defaults := 0
	for _, a := range got.Addresses {
		if a.IsDefaultBilling {
			defaults++
			if a.City != "Lyon" {
				t.Fatalf("expected the latest address to be default, got %s", a.City)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected one default billing address, got %d", defaults)
	}
}
