// Package sqlstore implements the movement store on database/sql, backed by
// SQLite (github.com/mattn/go-sqlite3) or PostgreSQL (github.com/lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/store"
)

// dialect captures what differs between the two engines.
type dialect struct {
	name       string
	driverName string
	schema     string
	// numbered placeholders ($1, $2) instead of ?.
	numbered bool
	// Postgres sums NUMERIC exactly and can add in a single UPDATE ... RETURNING.
	// SQLite would sum TEXT as REAL, so sums and increments happen in Go.
	nativeDecimal bool
}

var (
	sqliteDialect   = dialect{name: store.DriverSQLite, driverName: "sqlite3", schema: sqliteSchema}
	postgresDialect = dialect{name: store.DriverPostgres, driverName: "postgres", schema: postgresSchema, numbered: true, nativeDecimal: true}
)

// Store is a SQL-backed movement store.
type Store struct {
	db      *sql.DB
	dialect dialect
}

var _ store.Store = (*Store)(nil)

// Open connects to driver ("sqlite" or "postgres") at dsn and creates the
// schema if it does not exist. For SQLite, dsn is a file path or a file: URI;
// foreign keys and immediate write locks are enforced either way.
func Open(driver, dsn string) (*Store, error) {
	var d dialect
	switch driver {
	case store.DriverSQLite:
		d = sqliteDialect
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	case store.DriverPostgres:
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", d.name, err)
	}

	s := &Store{db: db, dialect: d}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// sqliteRequired are forced onto every SQLite DSN: foreign keys back the
// cascades, and an immediate write lock keeps read-modify-write increments
// from interleaving.
var sqliteRequired = map[string]string{
	"_foreign_keys": "on",
	"_txlock":       "immediate",
}

// sqliteDefaults apply unless the DSN sets them.
var sqliteDefaults = map[string]string{
	"_journal_mode": "WAL",
	"_busy_timeout": "5000",
}

// sqliteDSN turns a file path or a file: URI into a go-sqlite3 DSN carrying
// the required and default connection parameters.
func sqliteDSN(dsn string) (string, error) {
	path, rawQuery, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parsing sqlite dsn parameters: %w", err)
	}
	for k, v := range sqliteRequired {
		params.Set(k, v)
	}
	for k, v := range sqliteDefaults {
		if !params.Has(k) {
			params.Set(k, v)
		}
	}
	return "file:" + path + "?" + params.Encode(), nil
}

// Migrate creates all tables and indexes that do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("initializing %s schema: %w", s.dialect.name, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Transaction runs fn inside a database transaction, committing when fn
// returns nil and rolling back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// q rewrites ? placeholders for the dialect.
func (s *Store) q(query string) string {
	if !s.dialect.numbered {
		return query
	}
	return rebind(query)
}

func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// mapError converts driver constraint errors to store sentinels. self names the
// row being written; parentKind and parentID name the row a foreign key
// pointed at.
func mapError(err error, self string, parentKind, parentID string) error {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%s: %w", self, store.ErrConflict)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s %s: %w", parentKind, parentID, store.ErrNotFound)
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", self, store.ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", parentKind, parentID, store.ErrNotFound)
		}
	}
	return err
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// sum totals column over the rows matching where. Postgres sums in SQL;
// SQLite rows are added up here to stay exact.
func (s *Store) sum(ctx context.Context, column, table, where string, args ...any) (decimal.Decimal, error) {
	if s.dialect.nativeDecimal {
		var total decimal.Decimal
		query := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM %s WHERE %s", column, table, where)
		if err := s.db.QueryRowContext(ctx, s.q(query), args...).Scan(&total); err != nil {
			return decimal.Zero, err
		}
		return total, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", column, table, where)
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v decimal.Decimal
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, rows.Err()
}

const dateFormat = "2006-01-02"
