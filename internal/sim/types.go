package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/neurosim/internal/entity"
)

// Tick carries everything an update rule may read for one advance of the
// clock. Now is the simulated time at the end of this tick.
type Tick struct {
	Index     int
	Now       float64
	Dt        float64
	Speed     float64
	Intensity float64
	Rng       *rand.Rand
}

type Simulation interface {
	Name() string
	// Reset discards the whole store and rebuilds it from rng.
	Reset(rng *rand.Rand)
	Step(t Tick)
	Frame() entity.Frame
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Selectable exposes discrete selectors such as the activation function or
// the algorithm. SetOption reports whether the store must be rebuilt.
type Selectable interface {
	Options() map[string]string
	SetOption(name, value string) (rebuild bool, err error)
}

type Inspector interface {
	Inspect(id string) (Detail, bool)
}

// Finisher is implemented by simulations that can run out of work before any
// iteration ceiling, such as a fully grown tree.
type Finisher interface {
	Finished() bool
}

// Detail is a read-only description of one entity.
type Detail struct {
	ID     string             `json:"id"`
	Kind   string             `json:"kind"`
	Values map[string]float64 `json:"values"`
	Labels map[string]string  `json:"labels,omitempty"`
}

type Config struct {
	Seed          int64
	Dt            float64
	Speed         float64
	Intensity     float64
	MaxIterations int
	Period        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Seed:      42,
		Dt:        1.0,
		Speed:     1.0,
		Intensity: 0.5,
		Period:    50 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Speed <= 0 || math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("speed must be positive, got %f", c.Speed)
	}
	if c.Intensity < 0 || c.Intensity > 1 {
		return fmt.Errorf("intensity must be within [0,1], got %f", c.Intensity)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max iterations must not be negative, got %d", c.MaxIterations)
	}
	if c.Period < 0 {
		return fmt.Errorf("period must not be negative, got %s", c.Period)
	}
	return nil
}
