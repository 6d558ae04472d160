package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/neurosim/internal/entity"
)

func frame(iter int, metrics map[string]float64) entity.Frame {
	return entity.Frame{Iteration: iter, Time: float64(iter), Metrics: metrics}
}

func TestMean(t *testing.T) {
	m := NewMean("loss")
	m.Observe(frame(0, map[string]float64{"loss": 1}))
	m.Observe(frame(1, map[string]float64{"loss": 3}))
	m.Observe(frame(2, map[string]float64{"other": 100}))

	if m.Name() != "mean_loss" {
		t.Errorf("unexpected name %s", m.Name())
	}
	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("expected mean 2, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestPeakHandlesNegatives(t *testing.T) {
	p := NewPeak("mean_potential")
	p.Observe(frame(0, map[string]float64{"mean_potential": -70}))
	p.Observe(frame(1, map[string]float64{"mean_potential": -62}))
	p.Observe(frame(2, map[string]float64{"mean_potential": -68}))

	if p.Value() != -62 {
		t.Errorf("expected peak -62, got %f", p.Value())
	}
}

func TestActiveFraction(t *testing.T) {
	a := NewActiveFraction()
	a.Observe(entity.Frame{Nodes: []entity.Node{
		{ID: "a", Activity: 0.5, Threshold: 0.3},
		{ID: "b", Activity: 0.1, Threshold: 0.3},
	}})
	a.Observe(entity.Frame{})

	if a.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", a.Value())
	}
}

func TestSignalLoad(t *testing.T) {
	s := NewSignalLoad()
	s.Observe(entity.Frame{Signals: make([]entity.Signal, 4)})
	s.Observe(entity.Frame{})
	if s.Value() != 2 {
		t.Errorf("expected 2, got %f", s.Value())
	}
}

func TestSummarize(t *testing.T) {
	ms := []Metric{NewMean("x"), NewFinal("x")}
	for i, v := range []float64{1, 2, 6} {
		for _, m := range ms {
			m.Observe(frame(i, map[string]float64{"x": v}))
		}
	}
	got := Summarize(ms)
	if got["mean_x"] != 3 || got["final_x"] != 6 {
		t.Errorf("unexpected summary %v", got)
	}
}

func TestSeriesAlignment(t *testing.T) {
	s := NewSeries()
	s.Append(frame(0, map[string]float64{"a": 1}))
	s.Append(frame(1, map[string]float64{"a": 2, "b": 5}))
	s.Append(frame(2, map[string]float64{"b": 7}))

	if s.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", s.Len())
	}
	for _, name := range s.Names() {
		col, _ := s.Column(name)
		if len(col) != 3 {
			t.Errorf("column %s has %d rows", name, len(col))
		}
	}
	b, _ := s.Column("b")
	if b[0] != 0 || b[1] != 5 || b[2] != 7 {
		t.Errorf("unexpected column b %v", b)
	}

	st, ok := s.Stats("b")
	if !ok {
		t.Fatal("expected stats for b")
	}
	if st.Min != 0 || st.Max != 7 || st.Last != 7 || st.Mean != 4 {
		t.Errorf("unexpected stats %+v", st)
	}
	if _, ok := s.Stats("missing"); ok {
		t.Error("expected no stats for missing column")
	}
}
