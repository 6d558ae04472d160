package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/metrics"
	"github.com/san-kum/neurosim/internal/sim"
)

// Result is everything a headless run produced.
type Result struct {
	Sim     string
	Session string
	Ticks   int
	Final   entity.Frame
	Series  *metrics.Series
	Summary map[string]float64
}

type Experiment struct {
	cfg     *config.Config
	session *sim.Session
	metrics []metrics.Metric
	logger  *slog.Logger
}

// New builds a session for cfg.Sim with the configured options and
// parameters applied.
func New(reg *Registry, cfg *config.Config, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factory, simCfg, err := reg.Factory(cfg)
	if err != nil {
		return nil, err
	}
	opts := []sim.Option{}
	if logger != nil {
		opts = append(opts, sim.WithLogger(logger))
	}
	s, err := sim.NewSession(factory(), simCfg, opts...)
	if err != nil {
		return nil, err
	}
	if v, ok := s.Simulation().(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s store: %w", cfg.Sim, err)
		}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Experiment{
		cfg:     cfg,
		session: s,
		metrics: reg.DefaultMetrics(cfg.Sim),
		logger:  logger,
	}, nil
}

func (e *Experiment) Session() *sim.Session { return e.session }

// AddMetric registers an extra run summary.
func (e *Experiment) AddMetric(m metrics.Metric) {
	e.metrics = append(e.metrics, m)
}

// Run resets the session and ticks it up to ticks times, recording every
// frame. The run ends early at the iteration ceiling or when the simulation
// finishes.
func (e *Experiment) Run(ctx context.Context, ticks int) (*Result, error) {
	e.session.Reset()
	for _, m := range e.metrics {
		m.Reset()
	}

	series := metrics.NewSeries()
	observe := func(f entity.Frame) {
		series.Append(f)
		for _, m := range e.metrics {
			m.Observe(f)
		}
	}

	observe(e.session.Frame())
	e.session.Start()

	done := 0
	for done < ticks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.session.Tick() {
			break
		}
		done++
		observe(e.session.Frame())
	}
	e.session.Pause()

	e.logger.Info("run finished", "sim", e.cfg.Sim, "ticks", done, "requested", ticks)

	return &Result{
		Sim:     e.cfg.Sim,
		Session: e.session.ID(),
		Ticks:   done,
		Final:   e.session.Frame(),
		Series:  series,
		Summary: metrics.Summarize(e.metrics),
	}, nil
}

// Ensemble runs numRuns independent copies of cfg with consecutive seeds and
// returns their final frames.
func Ensemble(ctx context.Context, reg *Registry, cfg *config.Config, numRuns, ticks int) ([]entity.Frame, error) {
	factory, simCfg, err := reg.Factory(cfg)
	if err != nil {
		return nil, err
	}
	return sim.NewEnsemble(factory, simCfg, numRuns, cfg.Seed).Run(ctx, ticks)
}
