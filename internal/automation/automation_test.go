package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/experiment"
)

const scenarioYAML = `
name: tour
description: one short run per simulation
steps:
  - name: cortex
    sim: brain
    preset: visual
    ticks: 40
  - sim: bnn
    ticks: 30
    seed: 7
    intensity: 0.9
    params:
      noise: 1.0
  - sim: ml
    ticks: 200
    options:
      algorithm: tree
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "tour", sc.Name)
	require.Len(t, sc.Steps, 3)
	require.NotNil(t, sc.Steps[1].Seed)
	assert.Equal(t, int64(7), *sc.Steps[1].Seed)
	assert.Nil(t, sc.Steps[0].Intensity)

	tests := []struct {
		name string
		data string
	}{
		{"no steps", "name: empty\n"},
		{"missing sim", "steps:\n  - ticks: 3\n"},
		{"negative ticks", "steps:\n  - sim: bnn\n    ticks: -1\n"},
		{"bad yaml", "steps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tour.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 3)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStepConfig(t *testing.T) {
	base := config.DefaultConfig()
	base.Storage.Dir = "elsewhere"

	cfg, err := ScenarioStep{Sim: "brain", Preset: "visual", Ticks: 10}.Config(base)
	require.NoError(t, err)
	assert.Equal(t, "visual", cfg.Options["mode"])
	assert.Equal(t, 10, cfg.Ticks)
	assert.Equal(t, "elsewhere", cfg.Storage.Dir)

	_, err = ScenarioStep{Sim: "brain", Preset: "dreaming"}.Config(base)
	assert.Error(t, err)

	cfg, err = ScenarioStep{Sim: "bnn", Params: map[string]float64{"noise": 2}}.Config(base)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Params["noise"])
	assert.Nil(t, base.Params, "base config is not modified")
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), config.DefaultConfig(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 40, results[0].Result.Ticks)
	assert.Equal(t, "brain", results[0].Result.Final.Sim)
	assert.Equal(t, 30, results[1].Result.Ticks)
	assert.Less(t, results[2].Result.Ticks, 200, "tree finishes before the tick budget")
}

func TestRunScenarioStopsAtFailingStep(t *testing.T) {
	sc := &Scenario{Name: "broken", Steps: []ScenarioStep{
		{Sim: "brain", Ticks: 5},
		{Sim: "cerebellum", Ticks: 5},
		{Sim: "bnn", Ticks: 5},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), config.DefaultConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	assert.Len(t, results, 1)
}

func TestRunSweep(t *testing.T) {
	base := config.DefaultConfig()
	base.Sim = "brain"
	base.Intensity = 1

	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base:      base,
		ParamName: "spawn_rate",
		ParamMin:  0,
		ParamMax:  1,
		NumSteps:  3,
		Ticks:     100,
	}, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0.0, results[0].ParamValue)
	assert.Equal(t, 0.5, results[1].ParamValue)
	assert.Equal(t, 1.0, results[2].ParamValue)
	assert.Equal(t, 0.0, results[0].Final["processed"])
	assert.Greater(t, results[2].Final["processed"], results[0].Final["processed"])
	assert.Nil(t, base.Params)

	_, err = RunSweep(context.Background(), &ParameterSweep{Base: base, ParamName: "gain", NumSteps: 2, Ticks: 5}, experiment.NewRegistry(), nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &ParameterSweep{Base: base, ParamName: "decay"}, experiment.NewRegistry(), nil)
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sim = "bnn"

	res, err := RunMonteCarlo(context.Background(), experiment.NewRegistry(), cfg, 4, 50)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Trials)
	assert.Contains(t, res.Names(), "total_spikes")
	for _, name := range res.Names() {
		s := res.Metrics[name]
		assert.LessOrEqual(t, s.Min, s.Mean, name)
		assert.GreaterOrEqual(t, s.Max, s.Mean, name)
		assert.GreaterOrEqual(t, s.Std, 0.0, name)
	}

	_, err = RunMonteCarlo(context.Background(), experiment.NewRegistry(), cfg, 0, 50)
	assert.Error(t, err)
}

func TestSpread(t *testing.T) {
	s := spread([]float64{1, 3})
	assert.Equal(t, MetricSpread{Mean: 2, Std: 1, Min: 1, Max: 3}, s)
}
