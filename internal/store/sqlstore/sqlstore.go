// Package sqlstore implements store.Repository on database/sql through sqlx.
// SQLite (modernc.org/sqlite) is the default backend; Postgres is reachable
// through the pgx stdlib driver with the same schema and queries.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"mrchooks/backend/internal/store"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Store struct {
	db     *sqlx.DB
	driver string
}

var _ store.Repository = (*Store)(nil)

// Open connects, verifies the connection and applies the schema.
func Open(ctx context.Context, driver string, dsn string) (*Store, error) {
	switch driver {
	case "", DriverSQLite, "sqlite3":
		driver = DriverSQLite
		dsn = sqliteDSN(dsn)
	case DriverPostgres, "postgres", "postgresql":
		driver = DriverPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// One writer at a time; sale transactions serialise on this connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxIdleConns(8)
		db.SetMaxOpenConns(30)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, driver: driver}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Ping(ctx context.Context) error {
	return store.Wrap("ping", s.db.PingContext(ctx))
}

func (s *Store) CountTables(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
	if s.driver == DriverPostgres {
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema()`
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query); err != nil {
		return 0, store.Wrap("count tables", err)
	}
	return n, nil
}

// Migrate creates any missing table or index.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return store.Wrap("migrate", fmt.Errorf("%w\n%s", err, firstLine(stmt)))
		}
	}
	return nil
}

func (s *Store) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	var opts *sql.TxOptions
	if s.driver == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return s.db.BeginTxx(ctx, opts)
}

func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// sqliteDSN adds the connection options every SQLite handle needs unless the
// caller already set them.
func sqliteDSN(dsn string) string {
	if strings.TrimSpace(dsn) == "" {
		dsn = "mrchooks.db"
	}
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if idx := strings.IndexByte(stmt, '\n'); idx > 0 {
		return stmt[:idx]
	}
	return stmt
}

// rangeClauses builds the optional date bounds shared by the ledger listings.
func rangeClauses(column string, from *time.Time, to *time.Time) ([]string, []any) {
	var (
		clauses []string
		args    []any
	)
	if from != nil {
		clauses = append(clauses, column+" >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		clauses = append(clauses, column+" < ?")
		args = append(args, to.UTC())
	}
	return clauses, args
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
