package metrics

import "github.com/san-kum/neurosim/internal/entity"

// Metric accumulates one scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(f entity.Frame)
	Value() float64
	Reset()
}

// Summarize evaluates every metric into a name -> value map.
func Summarize(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
