package metrics

import (
	"math"
	"slices"

	"github.com/san-kum/neurosim/internal/entity"
)

// Series is the per-tick history of every frame metric of a run.
type Series struct {
	Iterations []int
	Times      []float64
	Values     map[string][]float64
}

func NewSeries() *Series {
	return &Series{Values: make(map[string][]float64)}
}

// Append records one frame. A metric that first appears late is back-filled
// with zeros so every column stays aligned with Times.
func (s *Series) Append(f entity.Frame) {
	n := len(s.Times)
	for k, v := range f.Metrics {
		col, ok := s.Values[k]
		if !ok {
			col = make([]float64, n, n+1)
		}
		s.Values[k] = append(col, v)
	}
	for k, col := range s.Values {
		if len(col) == n {
			s.Values[k] = append(col, 0)
		}
	}
	s.Iterations = append(s.Iterations, f.Iteration)
	s.Times = append(s.Times, f.Time)
}

func (s *Series) Len() int { return len(s.Times) }

// Names returns the recorded metric names in sorted order.
func (s *Series) Names() []string {
	names := make([]string, 0, len(s.Values))
	for k := range s.Values {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func (s *Series) Column(name string) ([]float64, bool) {
	col, ok := s.Values[name]
	return col, ok
}

// Stats summarizes one column.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Last float64 `json:"last"`
}

func (s *Series) Stats(name string) (Stats, bool) {
	col, ok := s.Values[name]
	if !ok || len(col) == 0 {
		return Stats{}, false
	}
	st := Stats{Min: math.Inf(1), Max: math.Inf(-1), Last: col[len(col)-1]}
	for _, v := range col {
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
		st.Mean += v
	}
	st.Mean /= float64(len(col))
	return st, true
}
