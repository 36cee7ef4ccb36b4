package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/xid"
)

const poItemColumns = `id, po_id, product_id, product_name, quantity, unit_cost, total`

func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	if po.ID == "" || po.PONumber == "" || po.Supplier == "" {
		return store.ErrInvalidInput
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return store.Wrap("create purchase order", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO purchase_orders (id, po_number, supplier, status, date, total)
		VALUES (?,?,?,?,?,?)
	`), po.ID, po.PONumber, po.Supplier, po.Status, po.Date.UTC(), po.Total)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return store.Wrap("create purchase order", err)
	}
	if err := insertPOItems(ctx, tx, po.ID, po.Items); err != nil {
		return err
	}

	return store.Wrap("create purchase order", tx.Commit())
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := s.db.GetContext(ctx, &po, s.rebind(`
		SELECT id, po_number, supplier, status, date, total
		FROM purchase_orders
		WHERE id = ?
	`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.Wrap("get purchase order", err)
	}

	po.Items = make([]domain.PurchaseOrderItem, 0, 8)
	err = s.db.SelectContext(ctx, &po.Items, s.rebind(`
		SELECT `+poItemColumns+`
		FROM purchase_order_items
		WHERE po_id = ?
		ORDER BY line_no ASC
	`), id)
	if err != nil {
		return nil, store.Wrap("get purchase order items", err)
	}
	return &po, nil
}

// ListPurchaseOrders returns every order, newest first, with its items.
func (s *Store) ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	orders := make([]domain.PurchaseOrder, 0, 16)
	err := s.db.SelectContext(ctx, &orders, `
		SELECT id, po_number, supplier, status, date, total
		FROM purchase_orders
		ORDER BY date DESC, po_number ASC
	`)
	if err != nil {
		return nil, store.Wrap("list purchase orders", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, po := range orders {
		ids = append(ids, po.ID)
		index[po.ID] = i
		orders[i].Items = []domain.PurchaseOrderItem{}
	}
	query, args, err := sqlx.In(`
		SELECT `+poItemColumns+`
		FROM purchase_order_items
		WHERE po_id IN (?)
		ORDER BY po_id, line_no
	`, ids)
	if err != nil {
		return nil, store.Wrap("list purchase order items", err)
	}
	var items []domain.PurchaseOrderItem
	if err := s.db.SelectContext(ctx, &items, s.rebind(query), args...); err != nil {
		return nil, store.Wrap("list purchase order items", err)
	}
	for _, item := range items {
		i := index[item.POID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, nil
}

// UpdatePurchaseOrder rewrites the header and, when replaceItems is set,
// swaps the full item list.
func (s *Store) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, replaceItems bool) error {
	if po.ID == "" || po.PONumber == "" || po.Supplier == "" {
		return store.ErrInvalidInput
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return store.Wrap("update purchase order", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE purchase_orders
		SET po_number = ?, supplier = ?, status = ?, date = ?, total = ?
		WHERE id = ?
	`), po.PONumber, po.Supplier, po.Status, po.Date.UTC(), po.Total, po.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return store.Wrap("update purchase order", err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return store.Wrap("update purchase order", err)
	}

	if replaceItems {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM purchase_order_items WHERE po_id = ?`), po.ID); err != nil {
			return store.Wrap("replace purchase order items", err)
		}
		if err := insertPOItems(ctx, tx, po.ID, po.Items); err != nil {
			return err
		}
	}

	return store.Wrap("update purchase order", tx.Commit())
}

func (s *Store) DeletePurchaseOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM purchase_orders WHERE id = ?`), id)
	if err != nil {
		return store.Wrap("delete purchase order", err)
	}
	return store.Wrap("delete purchase order", rowsAffectedOrNotFound(res))
}

func insertPOItems(ctx context.Context, tx *sqlx.Tx, poID string, items []domain.PurchaseOrderItem) error {
	for lineNo, item := range items {
		if item.ID == "" {
			item.ID = xid.New("poi")
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO purchase_order_items (id, po_id, line_no, product_id, product_name, quantity, unit_cost, total)
			VALUES (?,?,?,?,?,?,?,?)
		`), item.ID, poID, lineNo, item.ProductID, item.ProductName, item.Quantity, item.UnitCost, item.Total)
		if err != nil {
			return store.Wrap("insert purchase order item", err)
		}
	}
	return nil
}
