package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/experiment"
)

// Scenario defines a scripted sequence of headless runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. A preset, when named, is the base config
// and the remaining fields override it.
type ScenarioStep struct {
	Name      string             `yaml:"name"`
	Sim       string             `yaml:"sim"`
	Preset    string             `yaml:"preset"`
	Ticks     int                `yaml:"ticks"`
	Seed      *int64             `yaml:"seed"`
	Speed     float64            `yaml:"speed"`
	Intensity *float64           `yaml:"intensity"`
	Params    map[string]float64 `yaml:"params"`
	Options   map[string]string  `yaml:"options"`
	SaveAs    string             `yaml:"save_as"`
}

// StepResult pairs a step with its run.
type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *experiment.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	for i, step := range scenario.Steps {
		if step.Sim == "" {
			return nil, fmt.Errorf("step %d: sim must be set", i+1)
		}
		if step.Ticks < 0 {
			return nil, fmt.Errorf("step %d: ticks must not be negative", i+1)
		}
	}
	return &scenario, nil
}

// Config resolves the step against its preset and base.
func (s ScenarioStep) Config(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	cfg.Sim = s.Sim
	if s.Preset != "" {
		p := config.GetPreset(s.Sim, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", s.Sim, s.Preset)
		}
		p.Storage, p.Log = base.Storage, base.Log
		cfg = p
	}
	if s.Ticks > 0 {
		cfg.Ticks = s.Ticks
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if s.Speed > 0 {
		cfg.Speed = s.Speed
	}
	if s.Intensity != nil {
		cfg.Intensity = *s.Intensity
	}
	if len(s.Params) > 0 {
		if cfg.Params == nil {
			cfg.Params = map[string]float64{}
		}
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	if len(s.Options) > 0 {
		if cfg.Options == nil {
			cfg.Options = map[string]string{}
		}
		for k, v := range s.Options {
			cfg.Options[k] = v
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. Results of completed steps are
// returned alongside the first error.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, base *config.Config, logger *slog.Logger) ([]StepResult, error) {
	logger = orDiscard(logger)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "sim", step.Sim)

		cfg, err := step.Config(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(reg, cfg, logger)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx, cfg.Ticks)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Step: step, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs the same config across a range of one parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Ticks     int
}

// SweepResult holds one point of a sweep
type SweepResult struct {
	ParamValue float64
	Ticks      int
	Summary    map[string]float64
	Final      map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	logger = orDiscard(logger)
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if cfg.Params == nil {
			cfg.Params = map[string]float64{}
		}
		cfg.Params[sweep.ParamName] = paramVal

		exp, err := experiment.New(reg, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}
		result, err := exp.Run(ctx, sweep.Ticks)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Ticks:      result.Ticks,
			Summary:    result.Summary,
			Final:      result.Final.Metrics,
		})

		logger.Info("sweep", "step", i+1, "of", sweep.NumSteps, "param", sweep.ParamName, "value", paramVal)
	}

	return results, nil
}

// MetricSpread summarizes one final-frame metric across trials.
type MetricSpread struct {
	Mean, Std, Min, Max float64
}

// MonteCarloResult holds statistics from repeated runs with consecutive
// seeds.
type MonteCarloResult struct {
	Trials  int
	Metrics map[string]MetricSpread
}

// RunMonteCarlo runs trials independent copies of cfg and summarizes their
// final metrics.
func RunMonteCarlo(ctx context.Context, reg *experiment.Registry, cfg *config.Config, trials, ticks int) (*MonteCarloResult, error) {
	if trials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", trials)
	}
	frames, err := experiment.Ensemble(ctx, reg, cfg, trials, ticks)
	if err != nil {
		return nil, err
	}

	values := map[string][]float64{}
	for _, f := range frames {
		for k, v := range f.Metrics {
			values[k] = append(values[k], v)
		}
	}

	out := &MonteCarloResult{Trials: len(frames), Metrics: make(map[string]MetricSpread, len(values))}
	for k, vs := range values {
		out.Metrics[k] = spread(vs)
	}
	return out, nil
}

// Names returns the summarized metric names in sorted order.
func (r *MonteCarloResult) Names() []string {
	names := make([]string, 0, len(r.Metrics))
	for k := range r.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func spread(vs []float64) MetricSpread {
	s := MetricSpread{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range vs {
		s.Mean += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean /= float64(len(vs))
	for _, v := range vs {
		s.Std += (v - s.Mean) * (v - s.Mean)
	}
	s.Std = math.Sqrt(s.Std / float64(len(vs)))
	return s
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
