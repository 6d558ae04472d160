package experiment

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"sort"

	"github.com/san-kum/neurosim/internal/ann"
	"github.com/san-kum/neurosim/internal/bnn"
	"github.com/san-kum/neurosim/internal/brain"
	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/metrics"
	"github.com/san-kum/neurosim/internal/ml"
	"github.com/san-kum/neurosim/internal/sim"
)

var ErrUnknownSimulation = errors.New("experiment: unknown simulation")

type entry struct {
	build       func() sim.Simulation
	description string
}

type Registry struct {
	sims map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{sims: make(map[string]entry)}

	r.sims["bnn"] = entry{
		build:       func() sim.Simulation { return bnn.NewNetwork() },
		description: "spiking neurons with synapses and action potentials",
	}
	r.sims["ann"] = entry{
		build:       func() sim.Simulation { return ann.NewNetwork() },
		description: "feed-forward network with synthetic training metrics",
	}
	r.sims["ml"] = entry{
		build:       func() sim.Simulation { return ml.NewLab() },
		description: "regression, backprop, decision tree and digit classifier",
	}
	r.sims["brain"] = entry{
		build:       func() sim.Simulation { return brain.NewModel() },
		description: "brain regions driven by stimuli along functional pathways",
	}

	return r
}

func (r *Registry) Get(name string) (sim.Simulation, error) {
	e, ok := r.sims[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSimulation, name)
	}
	return e.build(), nil
}

func (r *Registry) Describe(name string) string {
	return r.sims[name].description
}

func (r *Registry) ListSims() []string {
	names := make([]string, 0, len(r.sims))
	for name := range r.sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory returns a constructor for cfg.Sim with the configured options and
// simulation parameters applied, and the session settings with any session
// parameters folded in. Options are applied before parameters.
func (r *Registry) Factory(cfg *config.Config) (func() sim.Simulation, sim.Config, error) {
	e, ok := r.sims[cfg.Sim]
	if !ok {
		return nil, sim.Config{}, fmt.Errorf("%w: %s", ErrUnknownSimulation, cfg.Sim)
	}

	simCfg := cfg.SimConfig()
	params := make(map[string]float64, len(cfg.Params))
	for name, v := range cfg.Params {
		switch name {
		case "speed":
			simCfg.Speed = v
		case "intensity":
			simCfg.Intensity = math.Max(0, math.Min(1, v))
		case "max_iterations":
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, sim.Config{}, sim.InvalidParam(name, v)
			}
			simCfg.MaxIterations = int(v)
		default:
			params[name] = v
		}
	}
	if err := simCfg.Validate(); err != nil {
		return nil, sim.Config{}, err
	}

	name := cfg.Sim
	options := maps.Clone(cfg.Options)
	build := func() (sim.Simulation, error) {
		s := e.build()
		if err := configure(s, options, params); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return s, nil
	}
	if _, err := build(); err != nil {
		return nil, sim.Config{}, err
	}

	// The factory owns copies of the options and params, and configure is
	// deterministic over them, so every later build succeeds like this one.
	return func() sim.Simulation {
		s, err := build()
		if err != nil {
			panic(fmt.Sprintf("experiment: rebuild of validated %s failed: %v", name, err))
		}
		return s
	}, simCfg, nil
}

func configure(s sim.Simulation, options map[string]string, params map[string]float64) error {
	if len(options) > 0 {
		sel, ok := s.(sim.Selectable)
		if !ok {
			return sim.UnknownOption(firstKey(options), "")
		}
		for _, name := range sortedKeys(options) {
			if _, err := sel.SetOption(name, options[name]); err != nil {
				return err
			}
		}
	}
	if len(params) > 0 {
		c, ok := s.(sim.Configurable)
		if !ok {
			return sim.UnknownParam(firstKey(params))
		}
		for _, name := range sortedKeys(params) {
			if err := c.SetParam(name, params[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstKey[V any](m map[string]V) string {
	return sortedKeys(m)[0]
}

// DefaultMetrics returns the run summaries reported for a simulation.
func (r *Registry) DefaultMetrics(name string) []metrics.Metric {
	ms := []metrics.Metric{
		metrics.NewActiveFraction(),
		metrics.NewSignalLoad(),
	}
	switch name {
	case "bnn":
		ms = append(ms,
			metrics.NewMean("firing_rate"),
			metrics.NewMean("mean_potential"),
			metrics.NewPeak("signals"),
			metrics.NewFinal("total_spikes"),
		)
	case "ann":
		ms = append(ms,
			metrics.NewFinal("loss"),
			metrics.NewFinal("accuracy"),
			metrics.NewPeak("accuracy"),
		)
	case "ml":
		ms = append(ms,
			metrics.NewFinal("cost"),
			metrics.NewFinal("accuracy"),
			metrics.NewFinal("confidence"),
		)
	case "brain":
		ms = append(ms,
			metrics.NewMean("mean_activity"),
			metrics.NewPeak("active_regions"),
			metrics.NewFinal("processed"),
		)
	}
	return ms
}
