package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/xid"
)

var memSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:sqlstore_test_%d?mode=memory&cache=shared", memSeq.Add(1))
	s, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProduct(t *testing.T, s *Store, name string, price int64, stock int) domain.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), domain.Product{
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Cost:     decimal.NewFromInt(price / 2),
		IsActive: true,
	}, stock)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return *p
}

func stockOf(t *testing.T, s *Store, productID string) int {
	t.Helper()
	records, err := s.ListInventory(context.Background())
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}
	for _, r := range records {
		if r.ProductID == productID {
			return r.Stock
		}
	}
	t.Fatalf("no inventory row for %s", productID)
	return 0
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func saleFor(p domain.Product, qty int, discount decimal.Decimal) domain.Sale {
	line := p.Price.Mul(decimal.NewFromInt(int64(qty)))
	return domain.Sale{
		ID:            xid.New("sale"),
		PaymentMethod: domain.PaymentCash,
		Date:          time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Subtotal:      line,
		DiscountTotal: discount,
		Total:         line.Sub(discount),
		Items: []domain.SaleItem{{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			Price:       p.Price,
			Cost:        p.Cost,
			Discount:    discount,
			Total:       line,
		}},
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	n, err := s.CountTables(context.Background())
	if err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if n != 13 {
		t.Fatalf("expected 13 tables, got %d", n)
	}
}

func TestCreateProductCreatesInventoryRow(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Whole Chicken", 350, 12)

	if got := stockOf(t, s, p.ID); got != 12 {
		t.Fatalf("expected stock 12, got %d", got)
	}
	got, err := s.GetProduct(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if !got.Price.Equal(decimal.NewFromInt(350)) || got.Name != "Whole Chicken" {
		t.Fatalf("unexpected product %+v", got)
	}
}

func TestRecordSaleDecrementsStockAndPersistsRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Liempo", 50, 10)

	sale := saleFor(p, 2, decimal.Zero)
	untracked, err := s.RecordSale(ctx, sale, nil)
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if len(untracked) != 0 {
		t.Fatalf("expected no untracked products, got %v", untracked)
	}
	if got := stockOf(t, s, p.ID); got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}

	saved, err := s.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if len(saved.Items) != 1 || saved.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", saved.Items)
	}
	if !saved.Total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected total 100, got %s", saved.Total)
	}
	if len(saved.Discounts) != 0 || countRows(t, s, "discounts") != 0 {
		t.Fatalf("expected no discount row")
	}
}

func TestRecordSaleClampsStockAtZero(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Paa", 60, 1)

	if _, err := s.RecordSale(context.Background(), saleFor(p, 5, decimal.Zero), nil); err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if got := stockOf(t, s, p.ID); got != 0 {
		t.Fatalf("expected stock clamped to 0, got %d", got)
	}
}

func TestRecordSaleReportsUntrackedProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Pecho", 80, 3)
	if _, err := s.db.Exec(`DELETE FROM inventory WHERE product_id = ?`, p.ID); err != nil {
		t.Fatalf("delete inventory row: %v", err)
	}

	untracked, err := s.RecordSale(ctx, saleFor(p, 1, decimal.Zero), nil)
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if len(untracked) != 1 || untracked[0] != p.ID {
		t.Fatalf("expected %s untracked, got %v", p.ID, untracked)
	}
	if countRows(t, s, "inventory") != 0 {
		t.Fatalf("expected no inventory row to be created")
	}
}

func TestRecordSaleWritesDiscountRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Whole Chicken", 100, 5)

	sale := saleFor(p, 1, decimal.NewFromInt(20))
	discount := &domain.Discount{Type: domain.DiscountSenior, IDNumber: "SC-1", Amount: decimal.NewFromInt(20)}
	if _, err := s.RecordSale(ctx, sale, discount); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	saved, err := s.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if len(saved.Discounts) != 1 || !saved.Discounts[0].Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected discounts %+v", saved.Discounts)
	}
	if saved.Discounts[0].IDNumber != "SC-1" {
		t.Fatalf("expected id number SC-1, got %q", saved.Discounts[0].IDNumber)
	}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	uses, err := s.CountDiscountUses(ctx, "SC-1", from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("count uses: %v", err)
	}
	if uses != 1 {
		t.Fatalf("expected 1 use, got %d", uses)
	}
}

func TestRecordSaleRollsBackOnMidTransactionFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Whole Chicken", 100, 5)

	_, err := s.db.Exec(`CREATE TRIGGER fail_discount BEFORE INSERT ON discounts BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	sale := saleFor(p, 2, decimal.NewFromInt(20))
	_, err = s.RecordSale(ctx, sale, &domain.Discount{Type: domain.DiscountWholeChicken, Amount: decimal.NewFromInt(20)})
	var se *store.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}

	if countRows(t, s, "sales") != 0 || countRows(t, s, "sale_items") != 0 {
		t.Fatalf("expected sale rows to be rolled back")
	}
	if got := stockOf(t, s, p.ID); got != 5 {
		t.Fatalf("expected stock unchanged at 5, got %d", got)
	}
}

func TestListSalesFiltersByHalfOpenRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Liempo", 50, 100)

	for _, day := range []int{1, 2, 3} {
		sale := saleFor(p, 1, decimal.Zero)
		sale.Date = time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC)
		if _, err := s.RecordSale(ctx, sale, nil); err != nil {
			t.Fatalf("record sale: %v", err)
		}
	}

	from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	sales, err := s.ListSales(ctx, domain.SaleFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 1 || sales[0].Date.Day() != 2 {
		t.Fatalf("expected only the day-2 sale, got %+v", sales)
	}
	if len(sales[0].Items) != 1 {
		t.Fatalf("expected items attached")
	}
}

func TestRecordLossDecrementsWithClamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Atay", 30, 2)

	tracked, err := s.RecordLoss(ctx, domain.Loss{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    4,
		Reason:      "spoiled",
		Cost:        decimal.NewFromInt(15),
	})
	if err != nil {
		t.Fatalf("record loss: %v", err)
	}
	if !tracked {
		t.Fatalf("expected tracked product")
	}
	if got := stockOf(t, s, p.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
	losses, err := s.ListLosses(ctx, nil, nil)
	if err != nil || len(losses) != 1 {
		t.Fatalf("expected one loss, got %d (%v)", len(losses), err)
	}
}

func TestUpsertInventoryUnknownProduct(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpsertInventory(context.Background(), "prd-missing", 1, 1, time.Now())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertInventoryOverwrites(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Liempo", 50, 3)

	rec, err := s.UpsertInventory(context.Background(), p.ID, 20, 17, time.Now())
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.Beginning != 20 || rec.Stock != 17 || rec.ProductName != "Liempo" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if countRows(t, s, "inventory") != 1 {
		t.Fatalf("expected a single inventory row")
	}
}

func TestDeleteProductKeepsSaleHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Liempo", 50, 3)
	sale := saleFor(p, 1, decimal.Zero)
	if _, err := s.RecordSale(ctx, sale, nil); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if countRows(t, s, "inventory") != 0 {
		t.Fatalf("expected inventory row to cascade")
	}
	saved, err := s.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if saved.Items[0].ProductName != "Liempo" {
		t.Fatalf("expected snapshot name to survive")
	}
	if err := s.DeleteProduct(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPurchaseOrderLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	po := domain.PurchaseOrder{
		ID:       xid.New("po"),
		PONumber: "PO-001",
		Supplier: "Bounty Farms",
		Status:   domain.POStatusPending,
		Date:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Total:    decimal.NewFromInt(500),
		Items: []domain.PurchaseOrderItem{
			{ProductID: "prd-1", ProductName: "Whole Chicken", Quantity: 5, UnitCost: decimal.NewFromInt(100), Total: decimal.NewFromInt(500)},
		},
	}
	if err := s.CreatePurchaseOrder(ctx, po); err != nil {
		t.Fatalf("create po: %v", err)
	}

	dup := po
	dup.ID = xid.New("po")
	if err := s.CreatePurchaseOrder(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate po_number, got %v", err)
	}

	po.Status = domain.POStatusReceived
	po.Items = []domain.PurchaseOrderItem{
		{ProductID: "prd-1", ProductName: "Whole Chicken", Quantity: 2, UnitCost: decimal.NewFromInt(100), Total: decimal.NewFromInt(200)},
		{ProductID: "prd-2", ProductName: "Liempo", Quantity: 3, UnitCost: decimal.NewFromInt(50), Total: decimal.NewFromInt(150)},
	}
	if err := s.UpdatePurchaseOrder(ctx, po, true); err != nil {
		t.Fatalf("update po: %v", err)
	}

	got, err := s.GetPurchaseOrder(ctx, po.ID)
	if err != nil {
		t.Fatalf("get po: %v", err)
	}
	if got.Status != domain.POStatusReceived || len(got.Items) != 2 || got.Items[1].ProductName != "Liempo" {
		t.Fatalf("unexpected po %+v", got)
	}

	if err := s.DeletePurchaseOrder(ctx, po.ID); err != nil {
		t.Fatalf("delete po: %v", err)
	}
	if countRows(t, s, "purchase_order_items") != 0 {
		t.Fatalf("expected items to cascade")
	}
}

func TestSettingsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutSetting(ctx, "store_name", "Mr. Chooks", time.Now()); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutSetting(ctx, "store_name", "Mr. Chooks QC", time.Now()); err != nil {
		t.Fatalf("put again: %v", err)
	}
	value, _, err := s.GetSetting(ctx, "store_name")
	if err != nil || value != "Mr. Chooks QC" {
		t.Fatalf("unexpected setting %q (%v)", value, err)
	}
	if _, _, err := s.GetSetting(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := domain.UserAccount{Username: "Admin", Password: "hash", Role: domain.RoleAdmin, Active: true}

	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, user); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 1 || users[0].Username != "admin" {
		t.Fatalf("unexpected users %+v (%v)", users, err)
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("file:x?mode=memory")
	want := "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if got != want {
		t.Fatalf("unexpected dsn %q", got)
	}
	if sqliteDSN("") != "mrchooks.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite" {
		t.Fatalf("unexpected default dsn")
	}
}
