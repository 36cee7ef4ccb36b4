package sqlstore

import (
	"context"
	"strings"
	"time"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/xid"
)

// RecordLoss inserts the loss and decrements stock in one transaction. It
// reports false when the product has no inventory row to decrement.
func (s *Store) RecordLoss(ctx context.Context, loss domain.Loss) (bool, error) {
	if loss.ProductID == "" || loss.Quantity <= 0 || strings.TrimSpace(loss.Reason) == "" {
		return false, store.ErrInvalidInput
	}
	if loss.ID == "" {
		loss.ID = xid.New("loss")
	}
	if loss.Date.IsZero() {
		loss.Date = time.Now().UTC()
	}
	loss.Date = loss.Date.UTC()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return false, store.Wrap("record loss", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO losses (id, product_id, product_name, quantity, reason, remarks, cost, date)
		VALUES (?,?,?,?,?,?,?,?)
	`), loss.ID, loss.ProductID, loss.ProductName, loss.Quantity, loss.Reason, loss.Remarks, loss.Cost, loss.Date)
	if err != nil {
		return false, store.Wrap("record loss", err)
	}

	tracked, err := decrementStock(ctx, tx, loss.ProductID, loss.Quantity, loss.Date)
	if err != nil {
		return false, store.Wrap("decrement stock", err)
	}

	if err := tx.Commit(); err != nil {
		return false, store.Wrap("record loss commit", err)
	}
	return tracked, nil
}

func (s *Store) ListLosses(ctx context.Context, from *time.Time, to *time.Time) ([]domain.Loss, error) {
	clauses, args := rangeClauses("date", from, to)
	losses := make([]domain.Loss, 0, 16)
	err := s.db.SelectContext(ctx, &losses, s.rebind(`
		SELECT id, product_id, product_name, quantity, reason, remarks, cost, date
		FROM losses`+whereClause(clauses)+`
		ORDER BY date DESC`), args...)
	if err != nil {
		return nil, store.Wrap("list losses", err)
	}
	return losses, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) error {
	if expense.ID == "" || strings.TrimSpace(expense.Category) == "" {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO expenses (id, date, category, description, amount, remarks)
		VALUES (?,?,?,?,?,?)
	`), expense.ID, expense.Date.UTC(), expense.Category, expense.Description, expense.Amount, expense.Remarks)
	return store.Wrap("create expense", err)
}

func (s *Store) ListExpenses(ctx context.Context, from *time.Time, to *time.Time) ([]domain.Expense, error) {
	clauses, args := rangeClauses("date", from, to)
	expenses := make([]domain.Expense, 0, 16)
	err := s.db.SelectContext(ctx, &expenses, s.rebind(`
		SELECT id, date, category, description, amount, remarks
		FROM expenses`+whereClause(clauses)+`
		ORDER BY date DESC`), args...)
	if err != nil {
		return nil, store.Wrap("list expenses", err)
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM expenses WHERE id = ?`), id)
	if err != nil {
		return store.Wrap("delete expense", err)
	}
	return store.Wrap("delete expense", rowsAffectedOrNotFound(res))
}

func (s *Store) CreateDelivery(ctx context.Context, delivery domain.Delivery) error {
	if delivery.ID == "" || strings.TrimSpace(delivery.Driver) == "" {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO deliveries (id, date, description, amount, driver, remarks)
		VALUES (?,?,?,?,?,?)
	`), delivery.ID, delivery.Date.UTC(), delivery.Description, delivery.Amount, delivery.Driver, delivery.Remarks)
	return store.Wrap("create delivery", err)
}

func (s *Store) ListDeliveries(ctx context.Context, from *time.Time, to *time.Time) ([]domain.Delivery, error) {
	clauses, args := rangeClauses("date", from, to)
	deliveries := make([]domain.Delivery, 0, 16)
	err := s.db.SelectContext(ctx, &deliveries, s.rebind(`
		SELECT id, date, description, amount, driver, remarks
		FROM deliveries`+whereClause(clauses)+`
		ORDER BY date DESC`), args...)
	if err != nil {
		return nil, store.Wrap("list deliveries", err)
	}
	return deliveries, nil
}

func (s *Store) DeleteDelivery(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM deliveries WHERE id = ?`), id)
	if err != nil {
		return store.Wrap("delete delivery", err)
	}
	return store.Wrap("delete delivery", rowsAffectedOrNotFound(res))
}

func (s *Store) CreateUnsold(ctx context.Context, unsold domain.UnsoldProduct) error {
	if unsold.ID == "" || unsold.ProductID == "" || unsold.Quantity <= 0 {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO unsold_products (id, product_id, product_name, quantity, price, reason, date, recorded_by)
		VALUES (?,?,?,?,?,?,?,?)
	`), unsold.ID, unsold.ProductID, unsold.ProductName, unsold.Quantity, unsold.Price, unsold.Reason, unsold.Date.UTC(), unsold.RecordedBy)
	return store.Wrap("create unsold", err)
}

func (s *Store) ListUnsold(ctx context.Context) ([]domain.UnsoldProduct, error) {
	unsold := make([]domain.UnsoldProduct, 0, 16)
	err := s.db.SelectContext(ctx, &unsold, `
		SELECT id, product_id, product_name, quantity, price, reason, date, recorded_by
		FROM unsold_products
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, store.Wrap("list unsold", err)
	}
	return unsold, nil
}
