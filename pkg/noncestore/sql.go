package noncestore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-softwarelab/common/pkg/to"
)

// DefaultTableName is the table used by SQLStore unless configured otherwise.
const DefaultTableName = "exchange_nonces"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStoreConfig configures a SQLStore.
type SQLStoreConfig struct {
	TableName string
	Now       func() time.Time
}

// WithTableName overrides the nonce table name.
func WithTableName(name string) func(*SQLStoreConfig) {
	return func(c *SQLStoreConfig) {
		c.TableName = name
	}
}

// WithClock overrides the time source, mostly useful in tests.
func WithClock(now func() time.Time) func(*SQLStoreConfig) {
	return func(c *SQLStoreConfig) {
		c.Now = now
	}
}

// SQLStore keeps nonces in a PostgreSQL table, so that several server instances
// share replay protection. Check and record happen in a single upsert statement.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time

	createQuery string
	upsertQuery string
	pruneQuery  string
}

// NewSQLStore creates a SQLStore on top of an open database handle.
func NewSQLStore(db *sql.DB, opts ...func(*SQLStoreConfig)) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("nonce store requires a database handle")
	}

	cfg := to.OptionsWithDefault(SQLStoreConfig{
		TableName: DefaultTableName,
		Now:       time.Now,
	}, opts...)

	if !tableNamePattern.MatchString(cfg.TableName) {
		return nil, fmt.Errorf("invalid nonce table name %q", cfg.TableName)
	}

	table := cfg.TableName
	return &SQLStore{
		db:  db,
		now: cfg.Now,
		createQuery: fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (nonce TEXT PRIMARY KEY, seen_at TIMESTAMPTZ NOT NULL)`, table),
		upsertQuery: fmt.Sprintf(
			`INSERT INTO %[1]s (nonce, seen_at) VALUES ($1, $2) `+
				`ON CONFLICT (nonce) DO UPDATE SET seen_at = EXCLUDED.seen_at WHERE %[1]s.seen_at < $3`, table),
		pruneQuery: fmt.Sprintf(`DELETE FROM %s WHERE seen_at < $1`, table),
	}, nil
}

// Migrate creates the nonce table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.createQuery); err != nil {
		return fmt.Errorf("failed to create nonce table: %w", err)
	}
	return nil
}

// CheckAndRecord inserts the nonce, or refreshes a record older than window.
// A conflicting record inside the window leaves no affected rows and means replay.
func (s *SQLStore) CheckAndRecord(ctx context.Context, nonce string, window time.Duration) (bool, error) {
	if err := validate(nonce, window); err != nil {
		return false, err
	}

	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx, s.upsertQuery, nonce, now, now.Add(-window))
	if err != nil {
		return false, fmt.Errorf("failed to record nonce: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read nonce record result: %w", err)
	}
	return affected == 1, nil
}

// Prune deletes nonces recorded longer than retention ago and returns how many were removed.
func (s *SQLStore) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.pruneQuery, s.now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune nonces: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}
	return removed, nil
}
