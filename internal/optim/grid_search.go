package optim

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/experiment"
)

// GridSearch tries every combination of parameter values and keeps the one
// with the best run summary.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Objective names the summary metric to optimize.
type Objective struct {
	Metric   string
	Maximize bool
}

func (o Objective) better(v, best float64) bool {
	if o.Maximize {
		return v > best
	}
	return v < best
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
}

// Search runs base once per grid point for ticks ticks. Trials come back in
// grid order; best is the first trial with the best value.
func (g *GridSearch) Search(
	ctx context.Context,
	reg *experiment.Registry,
	base *config.Config,
	ticks int,
	obj Objective,
) (best Trial, trials []Trial, err error) {
	if len(g.paramNames) != len(g.ranges) {
		return Trial{}, nil, fmt.Errorf("%d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	bestVal := math.Inf(1)
	if obj.Maximize {
		bestVal = math.Inf(-1)
	}

	err = g.searchRecursive(ctx, 0, make(map[string]float64), func(current map[string]float64) error {
		cfg := base.Clone()
		if cfg.Params == nil {
			cfg.Params = map[string]float64{}
		}
		for k, v := range current {
			cfg.Params[k] = v
		}

		exp, err := experiment.New(reg, cfg, nil)
		if err != nil {
			return err
		}
		result, err := exp.Run(ctx, ticks)
		if err != nil {
			return err
		}

		val, ok := result.Summary[obj.Metric]
		if !ok {
			return fmt.Errorf("run summary has no metric %q", obj.Metric)
		}
		t := Trial{Params: current, Value: val}
		trials = append(trials, t)
		if obj.better(val, bestVal) {
			bestVal = val
			best = t
		}
		return nil
	})
	if err != nil {
		return Trial{}, trials, err
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(map[string]float64) error,
) error {
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}

// ParseRange reads "name=min:max:steps" or "name=v1,v2,...".
func ParseRange(s string) (string, []float64, error) {
	name, values, ok := strings.Cut(s, "=")
	if !ok || name == "" || values == "" {
		return "", nil, fmt.Errorf("expected name=min:max:steps or name=v1,v2, got %q", s)
	}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		steps, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || steps < 1 {
			return "", nil, fmt.Errorf("bad range %q", values)
		}
		if steps == 1 {
			return name, []float64{lo}, nil
		}
		vals := make([]float64, steps)
		for i := range vals {
			vals[i] = lo + (hi-lo)*float64(i)/float64(steps-1)
		}
		return name, vals, nil
	}

	var vals []float64
	for _, p := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad value %q in %q", p, s)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}
