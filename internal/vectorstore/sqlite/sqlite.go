// Package sqlite stores vector collections in a single SQLite file and
// searches them by brute-force cosine similarity.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"complaintrag/internal/domain"
	"complaintrag/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	dimension  INTEGER NOT NULL,
	metric     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	collection  TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
	chunk_id    TEXT NOT NULL,
	document_id TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	text        TEXT NOT NULL,
	metadata    TEXT NOT NULL,
	vector      BLOB NOT NULL,
	PRIMARY KEY (collection, chunk_id)
);
`

// Storage is a SQLite-backed vector store.
type Storage struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Storage{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Storage) Path() string { return s.path }

func (s *Storage) Close() error { return s.db.Close() }

func (s *Storage) Create(ctx context.Context, name string, dimension int, metric vectorstore.Metric) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	if metric != vectorstore.Cosine {
		return fmt.Errorf("unsupported metric %q", metric)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("clearing collection %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO collections (name, dimension, metric, created_at) VALUES (?, ?, ?, ?)`,
		name, dimension, string(metric), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return tx.Commit()
}

func (s *Storage) Upsert(ctx context.Context, name string, entries []domain.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dim, err := dimension(ctx, tx, name)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (collection, chunk_id, document_id, chunk_index, total, text, metadata, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			chunk_index = excluded.chunk_index,
			total       = excluded.total,
			text        = excluded.text,
			metadata    = excluded.metadata,
			vector      = excluded.vector`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(e.Vector), dim)
		}
		meta, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", e.Chunk.ID, err)
		}
		c := e.Chunk
		if _, err := stmt.ExecContext(ctx, name, c.ID, c.DocumentID, c.Index, c.Total, c.Text, string(meta), encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("writing entry %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error) {
	dim, err := dimension(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(vector), dim)
	}
	entries, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return vectorstore.TopK(entries, vector, k), nil
}

func (s *Storage) Entries(ctx context.Context, name string) ([]domain.Entry, error) {
	if _, err := dimension(ctx, s.db, name); err != nil {
		return nil, err
	}
	return s.load(ctx, name)
}

func (s *Storage) Count(ctx context.Context, name string) (int, error) {
	if _, err := dimension(ctx, s.db, name); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE collection = ?`, name).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Drop removes the collection and its entries. Dropping a missing collection is not an error.
func (s *Storage) Drop(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Storage) load(ctx context.Context, name string) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, chunk_index, total, text, metadata, vector
		FROM entries WHERE collection = ? ORDER BY rowid`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		var (
			c    domain.Chunk
			meta string
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Total, &c.Text, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", c.ID, err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding vector for %s: %w", c.ID, err)
		}
		out = append(out, domain.Entry{Chunk: c, Vector: vec})
	}
	return out, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func dimension(ctx context.Context, q queryer, name string) (int, error) {
	var dim int
	err := q.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	return dim, err
}

// encodeVector packs v as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
