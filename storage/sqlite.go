package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists registry snapshots to a single database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (creating if needed) a snapshot database at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS indexes (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			dimension INTEGER NOT NULL,
			metric TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS namespaces (
			index_name TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (index_name, name)
		);
		CREATE TABLE IF NOT EXISTS vectors (
			index_name TEXT NOT NULL,
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT,
			PRIMARY KEY (index_name, namespace, id)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}

// Save replaces the stored snapshot with the given one in a single
// transaction. A crash mid-save leaves the previous snapshot intact.
func (s *SQLite) Save(ctx context.Context, indexes []IndexSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"vectors", "namespaces", "indexes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	idxStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO indexes (name, id, dimension, metric, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer idxStmt.Close()

	nsStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO namespaces (index_name, name) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer nsStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO vectors (index_name, namespace, id, embedding, metadata) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for _, snap := range indexes {
		createdAt := snap.CreatedAt.UTC().Format(time.RFC3339Nano)
		if _, err := idxStmt.ExecContext(ctx, snap.Name, snap.ID, snap.Dimension, snap.Metric, createdAt); err != nil {
			return err
		}
		for ns, records := range snap.Namespaces {
			if _, err := nsStmt.ExecContext(ctx, snap.Name, ns); err != nil {
				return err
			}
			for _, rec := range records {
				embBytes := encodeFloat32Slice(rec.Values)
				var metaJSON []byte
				if rec.Metadata != nil {
					metaJSON, err = json.Marshal(rec.Metadata)
					if err != nil {
						return fmt.Errorf("encoding metadata for %q: %w", rec.ID, err)
					}
				}
				if _, err := vecStmt.ExecContext(ctx, snap.Name, ns, rec.ID, embBytes, metaJSON); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

// Load returns the stored snapshot. An empty database yields an empty slice.
func (s *SQLite) Load(ctx context.Context) ([]IndexSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, id, dimension, metric, created_at FROM indexes ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*IndexSnapshot)
	var order []string
	for rows.Next() {
		var snap IndexSnapshot
		var createdAt string
		if err := rows.Scan(&snap.Name, &snap.ID, &snap.Dimension, &snap.Metric, &createdAt); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			snap.CreatedAt = ts
		}
		snap.Namespaces = make(map[string][]Record)
		byName[snap.Name] = &snap
		order = append(order, snap.Name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	nsRows, err := s.db.QueryContext(ctx, "SELECT index_name, name FROM namespaces")
	if err != nil {
		return nil, err
	}
	defer nsRows.Close()
	for nsRows.Next() {
		var indexName, ns string
		if err := nsRows.Scan(&indexName, &ns); err != nil {
			return nil, err
		}
		if snap, ok := byName[indexName]; ok {
			if _, exists := snap.Namespaces[ns]; !exists {
				snap.Namespaces[ns] = []Record{}
			}
		}
	}
	if err := nsRows.Err(); err != nil {
		return nil, err
	}

	vecRows, err := s.db.QueryContext(ctx,
		"SELECT index_name, namespace, id, embedding, metadata FROM vectors")
	if err != nil {
		return nil, err
	}
	defer vecRows.Close()
	for vecRows.Next() {
		var indexName, ns string
		var rec Record
		var embBytes []byte
		var metaJSON sql.NullString
		if err := vecRows.Scan(&indexName, &ns, &rec.ID, &embBytes, &metaJSON); err != nil {
			return nil, err
		}
		rec.Values = decodeFloat32Slice(embBytes)
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata for %q: %w", rec.ID, err)
			}
		}
		if snap, ok := byName[indexName]; ok {
			snap.Namespaces[ns] = append(snap.Namespaces[ns], rec)
		}
	}
	if err := vecRows.Err(); err != nil {
		return nil, err
	}

	out := make([]IndexSnapshot, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// encodeFloat32Slice converts []float32 to little-endian bytes.
func encodeFloat32Slice(f []float32) []byte {
	buf := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeFloat32Slice converts little-endian bytes back to []float32.
func decodeFloat32Slice(b []byte) []float32 {
	f := make([]float32, len(b)/4)
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return f
}
