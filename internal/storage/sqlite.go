package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/neurosim/internal/metrics"
)

// SQLiteStore is a single-file run ledger. Samples are stored long-form,
// one row per (run, iteration, metric).
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, meta RunMetadata, series *metrics.Series) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	meta = prepare(meta)
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, sim, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sim = excluded.sim,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, meta.ID, meta.Sim, meta.Timestamp.UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", meta.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE run_id = ?`, meta.ID); err != nil {
		return "", err
	}

	if series != nil && series.Len() > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO samples (run_id, seq, iteration, sample_time, metric, value)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return "", err
		}
		defer stmt.Close()

		names := series.Names()
		for i := 0; i < series.Len(); i++ {
			for _, name := range names {
				if _, err := stmt.ExecContext(ctx, meta.ID, i, series.Iterations[i], series.Times[i], name, series.Values[name][i]); err != nil {
					return "", fmt.Errorf("insert sample %s/%d: %w", meta.ID, i, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadSeries(ctx context.Context, runID string) (*metrics.Series, error) {
	if _, err := s.Load(ctx, runID); err != nil {
		return nil, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT seq, iteration, sample_time, metric, value
		FROM samples
		WHERE run_id = ?
		ORDER BY seq, metric
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := metrics.NewSeries()
	last := -1
	for rows.Next() {
		var (
			row, iteration int
			t, value       float64
			metric         string
		)
		if err := rows.Scan(&row, &iteration, &t, &metric, &value); err != nil {
			return nil, err
		}
		if row != last {
			series.Iterations = append(series.Iterations, iteration)
			series.Times = append(series.Times, t)
			last = row
		}
		series.Values[metric] = append(series.Values[metric], value)
	}
	return series, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			sim TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			iteration INTEGER NOT NULL,
			sample_time REAL NOT NULL,
			metric TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, seq, metric)
		);
	`)
	return err
}
