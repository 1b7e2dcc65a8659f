package document

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// SQLiteStore is a Store backed by a local SQLite database, one table per
// logical space.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (or creates) a SQLite-backed document store at path,
// using tableName (the space's "_doc" table) for this space's rows.
// Use ":memory:" for an in-memory database in tests.
func OpenSQLite(path, tableName string) (*SQLiteStore, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store/document: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: tableName}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    ref_doc_id TEXT PRIMARY KEY,
    hash       TEXT NOT NULL,
    text       TEXT NOT NULL
);`, s.table)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store/document: migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, refDocID string) (bool, error) {
	q := fmt.Sprintf(`SELECT 1 FROM %s WHERE ref_doc_id = ?`, s.table)
	var dummy int
	err := s.db.QueryRowContext(ctx, q, refDocID).Scan(&dummy)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("store/document: exists: %w", err)
	default:
		return true, nil
	}
}

func (s *SQLiteStore) CurrentHash(ctx context.Context, refDocID string) (string, bool, error) {
	q := fmt.Sprintf(`SELECT hash FROM %s WHERE ref_doc_id = ?`, s.table)
	var hash string
	err := s.db.QueryRowContext(ctx, q, refDocID).Scan(&hash)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("store/document: current_hash: %w", err)
	default:
		return hash, true, nil
	}
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) error {
	q := fmt.Sprintf(`
INSERT INTO %s (ref_doc_id, hash, text) VALUES (?, ?, ?)
ON CONFLICT(ref_doc_id) DO UPDATE SET hash = excluded.hash, text = excluded.text`, s.table)
	if _, err := s.db.ExecContext(ctx, q, rec.RefDocID, rec.Hash, rec.Text); err != nil {
		return fmt.Errorf("store/document: upsert %s: %w", rec.RefDocID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteByRefDocIDs(ctx context.Context, refDocIDs []string) error {
	if len(refDocIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(refDocIDs))
	args := make([]interface{}, len(refDocIDs))
	for i, id := range refDocIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE ref_doc_id IN (%s)`, s.table, join(placeholders, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store/document: delete by ref_doc_ids: %w", err)
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context, fn func(Record) error) error {
	q := fmt.Sprintf(`SELECT ref_doc_id, hash, text FROM %s`, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("store/document: all: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RefDocID, &rec.Hash, &rec.Text); err != nil {
			return fmt.Errorf("store/document: all scan: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store/document: all rows: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store/document: close: %w", err)
	}
	return nil
}

func join(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
