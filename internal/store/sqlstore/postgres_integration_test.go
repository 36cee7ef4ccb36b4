package sqlstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/domain"
)

func TestPostgresRecordSaleDecrementsStock(t *testing.T) {
	databaseURL := os.Getenv("MRCHOOKS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set MRCHOOKS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := Open(ctx, DriverPostgres, databaseURL)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	p, err := s.CreateProduct(ctx, domain.Product{
		ID:       fmt.Sprintf("prd-it-%d", stamp),
		Name:     "Integration Chicken",
		Price:    decimal.NewFromInt(50),
		Cost:     decimal.NewFromInt(30),
		IsActive: true,
	}, 10)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	sale := saleFor(*p, 3, decimal.Zero)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, sale.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, p.ID)
	})

	untracked, err := s.RecordSale(ctx, sale, nil)
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if len(untracked) != 0 {
		t.Fatalf("expected tracked product, got %v", untracked)
	}

	var stock int
	if err := s.db.GetContext(ctx, &stock, `SELECT stock FROM inventory WHERE product_id = $1`, p.ID); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock 7, got %d", stock)
	}

	saved, err := s.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if !saved.Subtotal.Equal(decimal.NewFromInt(150)) || len(saved.Items) != 1 {
		t.Fatalf("unexpected sale %+v", saved)
	}
}
