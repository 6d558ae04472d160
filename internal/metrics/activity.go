package metrics

import "github.com/san-kum/neurosim/internal/entity"

// ActiveFraction is the mean share of nodes whose activity exceeds their
// threshold.
type ActiveFraction struct {
	sum     float64
	samples int
}

func NewActiveFraction() *ActiveFraction {
	return &ActiveFraction{}
}

func (a *ActiveFraction) Name() string {
	return "active_fraction"
}

func (a *ActiveFraction) Observe(f entity.Frame) {
	if len(f.Nodes) == 0 {
		return
	}
	active := 0
	for _, n := range f.Nodes {
		if n.Activity > n.Threshold {
			active++
		}
	}
	a.sum += float64(active) / float64(len(f.Nodes))
	a.samples++
}

func (a *ActiveFraction) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *ActiveFraction) Reset() {
	a.sum = 0
	a.samples = 0
}

// SignalLoad is the mean number of signals in flight per frame.
type SignalLoad struct {
	total   int
	samples int
}

func NewSignalLoad() *SignalLoad {
	return &SignalLoad{}
}

func (s *SignalLoad) Name() string { return "signal_load" }

func (s *SignalLoad) Observe(f entity.Frame) {
	s.total += len(f.Signals)
	s.samples++
}

func (s *SignalLoad) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.total) / float64(s.samples)
}

func (s *SignalLoad) Reset() {
	s.total = 0
	s.samples = 0
}
