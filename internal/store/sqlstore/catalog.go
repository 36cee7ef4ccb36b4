package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/xid"
)

const productColumns = `id, name, price, cost, description, is_active, created_at, updated_at`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 32)
	err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, store.Wrap("list products", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.GetContext(ctx, &product, s.rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.Wrap("get product", err)
	}
	return &product, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, store.Wrap("get products", err)
	}
	var products []domain.Product
	if err := s.db.SelectContext(ctx, &products, s.rebind(query), args...); err != nil {
		return nil, store.Wrap("get products", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// CreateProduct inserts the product and its inventory row in one transaction.
func (s *Store) CreateProduct(ctx context.Context, product domain.Product, initialStock int) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || initialStock < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = product.CreatedAt

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, store.Wrap("create product", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO products (id, name, price, cost, description, is_active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
	`), product.ID, product.Name, product.Price, product.Cost, product.Description, product.IsActive, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, store.Wrap("create product", err)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO inventory (id, product_id, beginning, stock, updated_at)
		VALUES (?,?,?,?,?)
	`), xid.New("inv"), product.ID, initialStock, initialStock, product.CreatedAt)
	if err != nil {
		return nil, store.Wrap("create product inventory", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, store.Wrap("create product", err)
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || strings.TrimSpace(product.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	product.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE products
		SET name = ?, price = ?, cost = ?, description = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`), product.Name, product.Price, product.Cost, product.Description, product.IsActive, product.UpdatedAt, product.ID)
	if err != nil {
		return nil, store.Wrap("update product", err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return nil, store.Wrap("update product", err)
	}
	return s.GetProduct(ctx, product.ID)
}

// DeleteProduct removes the product; its inventory row goes with it through
// the cascade while sale, loss and PO history keep their snapshots.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return store.Wrap("delete product", err)
	}
	return store.Wrap("delete product", rowsAffectedOrNotFound(res))
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	records := make([]domain.InventoryRecord, 0, 32)
	err := s.db.SelectContext(ctx, &records, `
		SELECT i.id, i.product_id, COALESCE(p.name, '') AS product_name, i.beginning, i.stock, i.updated_at
		FROM inventory i
		LEFT JOIN products p ON p.id = i.product_id
		ORDER BY product_name ASC
	`)
	if err != nil {
		return nil, store.Wrap("list inventory", err)
	}
	return records, nil
}

// UpsertInventory sets beginning and stock for a product, creating the row
// when the product has none yet.
func (s *Store) UpsertInventory(ctx context.Context, productID string, beginning int, stock int, at time.Time) (*domain.InventoryRecord, error) {
	if productID == "" || beginning < 0 || stock < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	at = at.UTC()

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO inventory (id, product_id, beginning, stock, updated_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT (product_id)
		DO UPDATE SET beginning = excluded.beginning, stock = excluded.stock, updated_at = excluded.updated_at
	`), xid.New("inv"), productID, beginning, stock, at)
	if err != nil {
		return nil, store.Wrap("upsert inventory", err)
	}

	var record domain.InventoryRecord
	err = s.db.GetContext(ctx, &record, s.rebind(`
		SELECT i.id, i.product_id, COALESCE(p.name, '') AS product_name, i.beginning, i.stock, i.updated_at
		FROM inventory i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.product_id = ?
	`), productID)
	if err != nil {
		return nil, store.Wrap("upsert inventory", err)
	}
	return &record, nil
}

// decrementStock lowers a product's stock by qty, never below zero. It
// reports false when the product has no inventory row.
func decrementStock(ctx context.Context, tx *sqlx.Tx, productID string, qty int, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE inventory
		SET stock = CASE WHEN stock > ? THEN stock - ? ELSE 0 END, updated_at = ?
		WHERE product_id = ?
	`), qty, qty, at.UTC(), productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
