// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperfuse/internal/dedupe"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// DefaultIndexPath is the index database location when unconfigured.
const DefaultIndexPath = "data/index.db"

// Store persists indexed papers and their vectors in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the index database at path and creates the
// schema if it does not exist.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultIndexPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			key TEXT PRIMARY KEY,
			id TEXT,
			source TEXT,
			title TEXT,
			year INTEGER,
			doi TEXT,
			data TEXT NOT NULL,
			added_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			key TEXT PRIMARY KEY REFERENCES papers(key) ON DELETE CASCADE,
			dim INTEGER NOT NULL,
			vector BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save upserts papers and their vectors in one transaction.
func (s *Store) Save(ctx context.Context, papers []*types.Paper, vecs [][]float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, p := range papers {
		key := dedupe.Key(p)
		meta := *p
		meta.Scores = types.ScoreComponents{}
		meta.Reasons = nil
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encoding paper %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO papers (key, id, source, title, year, doi, data, added_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET
				id=excluded.id, source=excluded.source, title=excluded.title,
				year=excluded.year, doi=excluded.doi, data=excluded.data`,
			key, p.ID, p.Source, p.Title, p.Year, p.DOI, string(data), now,
		)
		if err != nil {
			return fmt.Errorf("upserting paper %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO embeddings (key, dim, vector) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET dim=excluded.dim, vector=excluded.vector`,
			key, len(vecs[i]), encodeVector(vecs[i]),
		)
		if err != nil {
			return fmt.Errorf("upserting embedding %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadAll returns every stored paper with its vector, in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]*types.Paper, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.data, e.vector FROM papers p JOIN embeddings e ON e.key = p.key ORDER BY p.rowid`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var papers []*types.Paper
	var vecs [][]float32
	for rows.Next() {
		var data string
		var blob []byte
		if err := rows.Scan(&data, &blob); err != nil {
			return nil, nil, fmt.Errorf("scanning row: %w", err)
		}
		var p types.Paper
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, nil, fmt.Errorf("decoding paper: %w", err)
		}
		v, err := decodeVector(blob)
		if err != nil {
			return nil, nil, err
		}
		papers = append(papers, &p)
		vecs = append(vecs, v)
	}
	return papers, vecs, rows.Err()
}

// Count returns the number of stored papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
