package ingestcache

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// SQLiteCache is a Cache backed by a local SQLite database, one table per
// logical space's "_ic" role.
type SQLiteCache struct {
	db    *sql.DB
	path  string
	table string
}

// OpenSQLite opens (or creates) a SQLite-backed ingest cache at path.
// Use ":memory:" for an in-memory database in tests (Persist is then the
// only way to externalize state).
func OpenSQLite(path, tableName string) (*SQLiteCache, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store/ingestcache: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	c := &SQLiteCache{db: db, path: path, table: tableName}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    cache_key TEXT PRIMARY KEY,
    value     TEXT NOT NULL
);`, c.table)
	if _, err := c.db.Exec(ddl); err != nil {
		return fmt.Errorf("store/ingestcache: migrate %s: %w", c.table, err)
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	q := fmt.Sprintf(`SELECT value FROM %s WHERE cache_key = ?`, c.table)
	var value string
	err := c.db.QueryRowContext(ctx, q, key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("store/ingestcache: get: %w", err)
	default:
		return value, true, nil
	}
}

func (c *SQLiteCache) Put(ctx context.Context, key, value string) error {
	q := fmt.Sprintf(`
INSERT INTO %s (cache_key, value) VALUES (?, ?)
ON CONFLICT(cache_key) DO UPDATE SET value = excluded.value`, c.table)
	if _, err := c.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("store/ingestcache: put: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE cache_key = ?`, c.table)
	if _, err := c.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("store/ingestcache: delete: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Clear(ctx context.Context) error {
	q := fmt.Sprintf(`DELETE FROM %s`, c.table)
	if _, err := c.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("store/ingestcache: clear: %w", err)
	}
	return nil
}

// Persist writes a copy of the current database to path using SQLite's
// VACUUM INTO, which modernc.org/sqlite supports, for on-disk and
// in-memory (":memory:") caches alike.
func (c *SQLiteCache) Persist(ctx context.Context, path string) error {
	q := fmt.Sprintf(`VACUUM INTO ?`)
	if _, err := c.db.ExecContext(ctx, q, path); err != nil {
		return fmt.Errorf("store/ingestcache: persist to %s: %w", path, err)
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("store/ingestcache: close: %w", err)
	}
	return nil
}

// RestoreFile stages a previously Persisted snapshot at dst before Open is
// called on it, the counterpart read path to Persist's write path.
func RestoreFile(dst, src string) error {
	return copyFile(dst, src)
}

// copyFile is the raw file copy RestoreFile wraps.
func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
