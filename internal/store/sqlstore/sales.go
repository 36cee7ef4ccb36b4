package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/xid"
)

const saleColumns = `id, COALESCE(employee_id, '') AS employee_id, payment_method,
	COALESCE(gcash_reference, '') AS gcash_reference, date, subtotal, discount_total, total`

const discountColumns = `id, sale_id, type, COALESCE(id_number, '') AS id_number, amount, date,
	COALESCE(employee_name, '') AS employee_name`

// RecordSale persists the header, every line, the optional discount row and
// the stock decrements in a single transaction. The returned slice lists the
// products that had no inventory row and were therefore not decremented.
func (s *Store) RecordSale(ctx context.Context, sale domain.Sale, discount *domain.Discount) ([]string, error) {
	if sale.ID == "" || sale.PaymentMethod == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}
	sale.Date = sale.Date.UTC()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, store.Wrap("record sale", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO sales (id, employee_id, payment_method, gcash_reference, date, subtotal, discount_total, total)
		VALUES (?,?,?,?,?,?,?,?)
	`), sale.ID, nullIfEmpty(sale.EmployeeID), sale.PaymentMethod, nullIfEmpty(sale.GCashReference), sale.Date, sale.Subtotal, sale.DiscountTotal, sale.Total)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, store.Wrap("record sale header", err)
	}

	var untracked []string
	for lineNo, item := range sale.Items {
		if item.ID == "" {
			item.ID = xid.New("item")
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO sale_items (id, sale_id, line_no, product_id, product_name, quantity, price, cost, discount, total)
			VALUES (?,?,?,?,?,?,?,?,?,?)
		`), item.ID, sale.ID, lineNo, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Cost, item.Discount, item.Total)
		if err != nil {
			return nil, store.Wrap("record sale item", err)
		}

		tracked, err := decrementStock(ctx, tx, item.ProductID, item.Quantity, sale.Date)
		if err != nil {
			return nil, store.Wrap("decrement stock", err)
		}
		if !tracked {
			untracked = append(untracked, item.ProductID)
		}
	}

	if discount != nil && discount.Amount.IsPositive() {
		if discount.ID == "" {
			discount.ID = xid.New("disc")
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO discounts (id, sale_id, type, id_number, amount, date, employee_name)
			VALUES (?,?,?,?,?,?,?)
		`), discount.ID, sale.ID, discount.Type, nullIfEmpty(discount.IDNumber), discount.Amount, sale.Date, nullIfEmpty(discount.EmployeeName))
		if err != nil {
			return nil, store.Wrap("record discount", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, store.Wrap("record sale commit", err)
	}
	return untracked, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.GetContext(ctx, &sale, s.rebind(`SELECT `+saleColumns+` FROM sales WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.Wrap("get sale", err)
	}

	sales := []domain.Sale{sale}
	if err := s.attachSaleDetails(ctx, sales); err != nil {
		return nil, err
	}
	return &sales[0], nil
}

// ListSales returns sales ordered oldest first with their items and discounts.
func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	clauses, args := rangeClauses("date", filter.From, filter.To)
	query := `SELECT ` + saleColumns + ` FROM sales` + whereClause(clauses) + ` ORDER BY date ASC, id ASC`

	sales := make([]domain.Sale, 0, 64)
	if err := s.db.SelectContext(ctx, &sales, s.rebind(query), args...); err != nil {
		return nil, store.Wrap("list sales", err)
	}
	if err := s.attachSaleDetails(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) attachSaleDetails(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, 0, len(sales))
	index := make(map[string]int, len(sales))
	for i, sale := range sales {
		ids = append(ids, sale.ID)
		index[sale.ID] = i
		sales[i].Items = []domain.SaleItem{}
		sales[i].Discounts = []domain.Discount{}
	}

	query, args, err := sqlx.In(`
		SELECT id, sale_id, product_id, product_name, quantity, price, cost, discount, total
		FROM sale_items
		WHERE sale_id IN (?)
		ORDER BY sale_id, line_no
	`, ids)
	if err != nil {
		return store.Wrap("list sale items", err)
	}
	var items []domain.SaleItem
	if err := s.db.SelectContext(ctx, &items, s.rebind(query), args...); err != nil {
		return store.Wrap("list sale items", err)
	}
	for _, item := range items {
		i := index[item.SaleID]
		sales[i].Items = append(sales[i].Items, item)
	}

	query, args, err = sqlx.In(`SELECT `+discountColumns+` FROM discounts WHERE sale_id IN (?) ORDER BY date ASC`, ids)
	if err != nil {
		return store.Wrap("list discounts", err)
	}
	var discounts []domain.Discount
	if err := s.db.SelectContext(ctx, &discounts, s.rebind(query), args...); err != nil {
		return store.Wrap("list discounts", err)
	}
	for _, d := range discounts {
		i := index[d.SaleID]
		sales[i].Discounts = append(sales[i].Discounts, d)
	}
	return nil
}

// CountDiscountUses counts discount rows carrying idNumber in [from, to).
func (s *Store) CountDiscountUses(ctx context.Context, idNumber string, from time.Time, to time.Time) (int, error) {
	if idNumber == "" {
		return 0, store.ErrInvalidInput
	}
	var n int
	err := s.db.GetContext(ctx, &n, s.rebind(`
		SELECT COUNT(*) FROM discounts
		WHERE id_number = ? AND date >= ? AND date < ?
	`), idNumber, from.UTC(), to.UTC())
	if err != nil {
		return 0, store.Wrap("count discount uses", err)
	}
	return n, nil
}
