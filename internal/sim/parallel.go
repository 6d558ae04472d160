package sim

import (
	"context"
	"sync"

	"github.com/san-kum/neurosim/internal/entity"
)

// Ensemble runs independent sessions of the same simulation with
// consecutive seeds. Each run owns its own store and clock.
type Ensemble struct {
	factory   func() Simulation
	cfg       Config
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory func() Simulation, cfg Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, cfg: cfg, numRuns: numRuns, seedStart: seedStart}
}

// Run ticks every session up to ticks times and returns their final frames
// in seed order.
func (e *Ensemble) Run(ctx context.Context, ticks int) ([]entity.Frame, error) {
	frames := make([]entity.Frame, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.cfg
			cfg.Seed = e.seedStart + int64(idx)

			s, err := NewSession(e.factory(), cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			s.Start()
			for n := 0; n < ticks; n++ {
				if err := ctx.Err(); err != nil {
					errs[idx] = err
					return
				}
				if !s.Tick() {
					break
				}
			}
			frames[idx] = s.Frame()
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return frames, nil
}
