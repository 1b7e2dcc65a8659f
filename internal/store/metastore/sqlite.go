package metastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/raggify/raggify-go/internal/metadata"
)

// SQLiteStore is a Store backed by a local SQLite database, one table per
// logical space's "_meta" role.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (or creates) a SQLite-backed meta store at path and
// establishes the required indexes: a unique index on fingerprint (so a
// duplicate commit fails fast instead of silently double-counting), a
// descending index on node_lastmod_at (fingerprint-cache rehydration order),
// and an index on base_source (cascading delete lookups).
func OpenSQLite(path, tableName string) (*SQLiteStore, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store/metastore: open %s: %w", path, err)
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
CREATE TABLE IF NOT EXISTS %[1]s (
    node_id          TEXT PRIMARY KEY,
    ref_doc_id       TEXT NOT NULL,
    base_source      TEXT NOT NULL,
    fingerprint      TEXT NOT NULL,
    modality         TEXT NOT NULL,
    node_lastmod_at  INTEGER NOT NULL,
    meta_json        TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_fingerprint ON %[1]s (fingerprint);
CREATE INDEX IF NOT EXISTS idx_%[1]s_lastmod ON %[1]s (node_lastmod_at DESC);
CREATE INDEX IF NOT EXISTS idx_%[1]s_base_source ON %[1]s (base_source);
`, s.table)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store/metastore: migrate %s: %w", s.table, err)
	}
	return nil
}

// UpsertBatch writes all rows in a single transaction: a fingerprint
// collision (UNIQUE constraint violation) aborts and rolls back the whole
// batch, matching the pipeline's "commit writes all four stores or none"
// invariant at the meta-store layer.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store/metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op if committed

	q := fmt.Sprintf(`
INSERT INTO %s (node_id, ref_doc_id, base_source, fingerprint, modality, node_lastmod_at, meta_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(node_id) DO UPDATE SET
    ref_doc_id = excluded.ref_doc_id,
    base_source = excluded.base_source,
    fingerprint = excluded.fingerprint,
    modality = excluded.modality,
    node_lastmod_at = excluded.node_lastmod_at,
    meta_json = excluded.meta_json`, s.table)

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("store/metastore: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		metaJSON, err := json.Marshal(r.Meta)
		if err != nil {
			return fmt.Errorf("store/metastore: marshal meta for %s: %w", r.NodeID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.NodeID, r.RefDocID, r.BaseSource, r.Fingerprint,
			string(r.Modality), r.NodeLastModAt, string(metaJSON)); err != nil {
			return fmt.Errorf("store/metastore: upsert %s: %w", r.NodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store/metastore: commit batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SelectRecent(ctx context.Context, limit int) ([]Row, error) {
	q := fmt.Sprintf(`
SELECT node_id, ref_doc_id, base_source, fingerprint, modality, node_lastmod_at, meta_json
FROM %s ORDER BY node_lastmod_at DESC LIMIT ?`, s.table)

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("store/metastore: select recent: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var modality, metaJSON string
		if err := rows.Scan(&r.NodeID, &r.RefDocID, &r.BaseSource, &r.Fingerprint,
			&modality, &r.NodeLastModAt, &metaJSON); err != nil {
			return nil, fmt.Errorf("store/metastore: select recent scan: %w", err)
		}
		r.Modality = metadata.Modality(modality)
		if err := json.Unmarshal([]byte(metaJSON), &r.Meta); err != nil {
			return nil, fmt.Errorf("store/metastore: unmarshal meta for %s: %w", r.NodeID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store/metastore: select recent rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) FingerprintExists(ctx context.Context, fingerprint string) (bool, error) {
	q := fmt.Sprintf(`SELECT 1 FROM %s WHERE fingerprint = ?`, s.table)
	var dummy int
	err := s.db.QueryRowContext(ctx, q, fingerprint).Scan(&dummy)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("store/metastore: fingerprint_exists: %w", err)
	default:
		return true, nil
	}
}

// DeleteByBaseSource removes every row for baseSource in a single
// transaction and returns the distinct ref_doc_ids it touched, so the
// caller can cascade the delete to the vector store, document store, and
// ingest cache.
func (s *SQLiteStore) DeleteByBaseSource(ctx context.Context, baseSource string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store/metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op if committed

	selectQ := fmt.Sprintf(`SELECT DISTINCT ref_doc_id FROM %s WHERE base_source = ?`, s.table)
	rows, err := tx.QueryContext(ctx, selectQ, baseSource)
	if err != nil {
		return nil, fmt.Errorf("store/metastore: select by base_source: %w", err)
	}
	var refDocIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store/metastore: select by base_source scan: %w", err)
		}
		refDocIDs = append(refDocIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("store/metastore: select by base_source rows: %w", err)
	}
	rows.Close()

	deleteQ := fmt.Sprintf(`DELETE FROM %s WHERE base_source = ?`, s.table)
	if _, err := tx.ExecContext(ctx, deleteQ, baseSource); err != nil {
		return nil, fmt.Errorf("store/metastore: delete by base_source: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store/metastore: commit delete: %w", err)
	}
	return refDocIDs, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store/metastore: close: %w", err)
	}
	return nil
}
