package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/neurosim/internal/metrics"
)

var ErrRunNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID        string             `json:"id"`
	Sim       string             `json:"sim"`
	Session   string             `json:"session"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Speed     float64            `json:"speed"`
	Intensity float64            `json:"intensity"`
	Ticks     int                `json:"ticks"`
	Options   map[string]string  `json:"options,omitempty"`
	Params    map[string]float64 `json:"params,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// RunStore persists the record of a finished headless run. Records are
// write-once; nothing is ever restored into a live session.
type RunStore interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, meta RunMetadata, series *metrics.Series) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, runID string) (*RunMetadata, error)
	LoadSeries(ctx context.Context, runID string) (*metrics.Series, error)
	Close() error
}

// New opens the backend named by kind under dir.
func New(kind, dir string) (RunStore, error) {
	switch kind {
	case "", "file":
		return NewFileStore(dir), nil
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dir, "runs.db")), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// NewRunID returns a short unique id prefixed with the simulation name.
func NewRunID(sim string) string {
	return fmt.Sprintf("%s_%s", sim, uuid.NewString()[:8])
}

func prepare(meta RunMetadata) RunMetadata {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Sim)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if meta.Metrics == nil {
		meta.Metrics = map[string]float64{}
	}
	return meta
}
