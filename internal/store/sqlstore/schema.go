package sqlstore

// schema is written in the SQL subset shared by SQLite and Postgres so a
// single list serves both drivers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		cost NUMERIC(12,2) NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL UNIQUE REFERENCES products(id) ON DELETE CASCADE,
		beginning INTEGER NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		employee_id TEXT,
		payment_method TEXT NOT NULL,
		gcash_reference TEXT,
		date TIMESTAMP NOT NULL,
		subtotal NUMERIC(12,2) NOT NULL,
		discount_total NUMERIC(12,2) NOT NULL DEFAULT 0,
		total NUMERIC(12,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (date)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL DEFAULT 0,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price NUMERIC(12,2) NOT NULL,
		cost NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount NUMERIC(12,2) NOT NULL DEFAULT 0,
		total NUMERIC(12,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items (sale_id)`,
	`CREATE TABLE IF NOT EXISTS discounts (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		id_number TEXT,
		amount NUMERIC(12,2) NOT NULL,
		date TIMESTAMP NOT NULL,
		employee_name TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_discounts_sale ON discounts (sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_discounts_id_number ON discounts (id_number, date)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		date TIMESTAMP NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		remarks TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses (date)`,
	`CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		date TIMESTAMP NOT NULL,
		description TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		driver TEXT NOT NULL,
		remarks TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id TEXT PRIMARY KEY,
		po_number TEXT NOT NULL UNIQUE,
		supplier TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		date TIMESTAMP NOT NULL,
		total NUMERIC(12,2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_order_items (
		id TEXT PRIMARY KEY,
		po_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL DEFAULT 0,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost NUMERIC(12,2) NOT NULL,
		total NUMERIC(12,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_po_items_po ON purchase_order_items (po_id)`,
	`CREATE TABLE IF NOT EXISTS losses (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		reason TEXT NOT NULL,
		remarks TEXT NOT NULL DEFAULT '',
		cost NUMERIC(12,2) NOT NULL,
		date TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_losses_date ON losses (date)`,
	`CREATE TABLE IF NOT EXISTS unsold_products (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		reason TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		recorded_by TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}
