package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
    clerk_id TEXT NOT NULL PRIMARY KEY,
    first_name TEXT,
    last_name TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Both Postgres (9.5+) and SQLite (3.24+) accept this upsert form.
const upsertProfile = `INSERT INTO profiles (clerk_id, first_name, last_name) VALUES (?, ?, ?)
ON CONFLICT (clerk_id) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name, updated_at = CURRENT_TIMESTAMP`

const selectProfile = `SELECT clerk_id, first_name, last_name FROM profiles WHERE clerk_id = ?`

const deleteProfile = `DELETE FROM profiles WHERE clerk_id = ?`

// OpenSQL opens and pings a database for dialect. SQLite is limited to a single connection
// so concurrent upserts queue instead of failing with SQLITE_BUSY.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	var driver string
	switch dialect {
	case DialectPostgres:
		driver = "pgx"
	case DialectSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %s", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// SQLRepository stores profiles in a relational table named profiles.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLRepository wraps an open database handle.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Migrate creates the profiles table when missing.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProfilesTable); err != nil {
		return fmt.Errorf("migrate profiles: %w", err)
	}
	return nil
}

func (r *SQLRepository) Upsert(ctx context.Context, p Profile) error {
	if p.ClerkID == "" {
		return ErrMissingClerkID
	}
	_, err := r.db.ExecContext(ctx, r.rebind(upsertProfile), p.ClerkID, nullable(p.FirstName), nullable(p.LastName))
	if err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, clerkID string) (*Profile, error) {
	var (
		p     Profile
		first sql.NullString
		last  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.rebind(selectProfile), clerkID).Scan(&p.ClerkID, &first, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	if first.Valid {
		p.FirstName = &first.String
	}
	if last.Valid {
		p.LastName = &last.String
	}
	return &p, nil
}

func (r *SQLRepository) Delete(ctx context.Context, clerkID string) error {
	if _, err := r.db.ExecContext(ctx, r.rebind(deleteProfile), clerkID); err != nil {
		return fmt.Errorf("exec delete: %w", err)
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
