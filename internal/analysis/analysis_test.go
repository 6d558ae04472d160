package analysis

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/neurosim/internal/brain"
	"github.com/san-kum/neurosim/internal/sim"
)

func sine(n int, period float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*float64(i)/period)
	}
	return out
}

func TestFFTPadsToPowerOfTwo(t *testing.T) {
	if got := len(FFT(make([]float64, 5))); got != 8 {
		t.Errorf("expected 8 bins, got %d", got)
	}
	if got := len(FFT(nil)); got != 0 {
		t.Errorf("expected no bins, got %d", got)
	}
}

func TestDominantRhythm(t *testing.T) {
	r, ok := DominantRhythm(sine(64, 8), 1)
	if !ok {
		t.Fatal("expected a rhythm")
	}
	if r.Bin != 8 {
		t.Errorf("expected bin 8, got %d", r.Bin)
	}
	if math.Abs(r.Period-8) > 1e-9 {
		t.Errorf("expected period 8, got %f", r.Period)
	}

	r, ok = DominantRhythm(sine(64, 8), 0.5)
	if !ok || math.Abs(r.Period-4) > 1e-9 {
		t.Errorf("expected period 4 at dt 0.5, got %+v", r)
	}
}

func TestDominantRhythmFlat(t *testing.T) {
	flat := make([]float64, 32)
	for i := range flat {
		flat[i] = 0.7
	}
	if _, ok := DominantRhythm(flat, 1); ok {
		t.Error("flat series has no rhythm")
	}
	if _, ok := DominantRhythm([]float64{1, 2}, 1); ok {
		t.Error("short series has no rhythm")
	}
}

func TestCrossings(t *testing.T) {
	got := Crossings([]float64{0, 1, 0, 0.4, 0.6, 0.8, 0.2, 0.9}, 0.5)
	want := []int{1, 4, 7}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestPhasePortrait(t *testing.T) {
	p := NewPhasePortrait("loss", []float64{1, 0.5, 0.25, math.NaN()}, "accuracy", []float64{0.1, 0.5, 0.8})
	if len(p.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(p.Points))
	}
	art := PhasePortraitToASCII(p, 20, 10)
	if strings.Count(art, "\n") != 10 {
		t.Errorf("expected 10 rows, got %q", art)
	}
	if !strings.Contains(art, "•") {
		t.Error("expected plotted points")
	}
	if PhasePortraitToASCII(nil, 20, 10) != "" {
		t.Error("expected empty output for nil portrait")
	}
}

func TestResponseDiagram(t *testing.T) {
	factory := func() sim.Simulation { return brain.NewModel() }
	cfg := sim.DefaultConfig()
	cfg.Intensity = 1

	data, err := ResponseDiagram(context.Background(), factory, cfg, "spawn_rate", 0, 1, 3, "active_regions", 20, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 3 {
		t.Fatalf("expected 3 points, got %d", len(data))
	}
	if data[0].Param != 0 || data[2].Param != 1 {
		t.Errorf("unexpected params %v %v", data[0].Param, data[2].Param)
	}
	if len(data[0].Values) != 1 {
		t.Errorf("no stimuli means one resting value, got %v", data[0].Values)
	}
	if len(data[2].Values) != 1 || data[2].Values[0] != 12 {
		t.Errorf("full spawn rate should pin the active region count, got %v", data[2].Values)
	}

	processed, err := ResponseDiagram(context.Background(), factory, cfg, "spawn_rate", 0, 1, 2, "processed", 20, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(processed[0].Values) != 1 || processed[0].Values[0] != 0 {
		t.Errorf("nothing is processed without stimuli, got %v", processed[0].Values)
	}
	if len(processed[1].Values) < 2 {
		t.Errorf("expected a growing processed count at full spawn rate, got %v", processed[1].Values)
	}
	if ResponseToASCII(data, 30, 8) == "" {
		t.Error("expected a plot")
	}

	if _, err := ResponseDiagram(context.Background(), factory, cfg, "spawn_rate", 0, 1, 2, "nope", 1, 1); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := ResponseDiagram(context.Background(), factory, cfg, "gain", 0, 1, 2, "spikes", 1, 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}
