package sim

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/san-kum/neurosim/internal/entity"
)

type counterSim struct {
	steps    int
	value    float64
	last     Tick
	gain     float64
	mode     string
	finishAt int
}

func newCounterSim() *counterSim { return &counterSim{gain: 1, mode: "up"} }

func (c *counterSim) Name() string { return "counter" }

func (c *counterSim) Reset(rng *rand.Rand) {
	c.steps = 0
	c.value = rng.Float64()
}

func (c *counterSim) Step(t Tick) {
	c.steps++
	c.last = t
	if c.mode == "up" {
		c.value += c.gain * t.Dt
	} else {
		c.value -= c.gain * t.Dt
	}
}

func (c *counterSim) Frame() entity.Frame {
	return entity.NewFrame(c.Name(),
		[]entity.Node{{ID: "n0", Activity: c.value}},
		nil, nil, nil,
		map[string]float64{"steps": float64(c.steps)})
}

func (c *counterSim) GetParams() map[string]float64 { return map[string]float64{"gain": c.gain} }

func (c *counterSim) SetParam(name string, v float64) error {
	if name != "gain" {
		return UnknownParam(name)
	}
	c.gain = v
	return nil
}

func (c *counterSim) Options() map[string]string { return map[string]string{"mode": c.mode} }

func (c *counterSim) SetOption(name, value string) (bool, error) {
	if name != "mode" || (value != "up" && value != "down") {
		return false, UnknownOption(name, value)
	}
	c.mode = value
	return true, nil
}

func (c *counterSim) Inspect(id string) (Detail, bool) {
	if id != "n0" {
		return Detail{}, false
	}
	return Detail{ID: id, Kind: "counter", Values: map[string]float64{"value": c.value}}, true
}

func (c *counterSim) Finished() bool { return c.finishAt > 0 && c.steps >= c.finishAt }

func newTestSession(t *testing.T, cfg Config) (*Session, *counterSim) {
	t.Helper()
	c := newCounterSim()
	s, err := NewSession(c, cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, c
}

func TestSessionTickWhilePaused(t *testing.T) {
	s, c := newTestSession(t, DefaultConfig())

	if s.Tick() {
		t.Error("tick advanced a paused session")
	}
	if c.steps != 0 {
		t.Errorf("expected 0 steps, got %d", c.steps)
	}
}

func TestSessionSpeedScalesTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 0.5
	s, c := newTestSession(t, cfg)
	if err := s.SetSpeed(4); err != nil {
		t.Fatal(err)
	}
	s.Start()
	for i := 0; i < 3; i++ {
		s.Tick()
	}

	if s.Now() != 6 {
		t.Errorf("expected simulated time 6, got %f", s.Now())
	}
	if c.last.Dt != 2 || c.last.Speed != 4 || c.last.Now != 6 {
		t.Errorf("unexpected tick %+v", c.last)
	}
	if c.last.Index != 2 {
		t.Errorf("expected tick index 2, got %d", c.last.Index)
	}
}

func TestSessionCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 5
	s, c := newTestSession(t, cfg)
	s.Start()

	for i := 0; i < 5; i++ {
		if !s.Tick() {
			t.Fatalf("tick %d did not advance", i)
		}
	}
	if s.Iteration() != 5 || !s.Running() {
		t.Fatalf("expected iteration 5 and running, got %d/%v", s.Iteration(), s.Running())
	}

	if s.Tick() {
		t.Error("tick advanced past the ceiling")
	}
	if s.Running() {
		t.Error("running flag not flipped at the ceiling")
	}

	for i := 0; i < 10; i++ {
		s.Tick()
	}
	s.SetRunning(true)
	if s.Running() || s.Tick() {
		t.Error("session resumed beyond the ceiling")
	}
	if c.steps != 5 {
		t.Errorf("expected 5 steps, got %d", c.steps)
	}

	if err := s.SetMaxIterations(7); err != nil {
		t.Fatal(err)
	}
	s.SetRunning(true)
	if !s.Running() {
		t.Fatal("raising the ceiling did not allow resuming")
	}
	for s.Tick() {
	}
	if s.Iteration() != 7 {
		t.Errorf("expected iteration 7, got %d", s.Iteration())
	}

	s.Reset()
	s.Start()
	if !s.Tick() {
		t.Error("reset did not clear the ceiling")
	}
}

func TestSessionFinisher(t *testing.T) {
	s, c := newTestSession(t, DefaultConfig())
	c.finishAt = 3
	s.Start()
	n := 0
	for s.Tick() {
		n++
	}
	if n != 3 {
		t.Errorf("expected 3 ticks, got %d", n)
	}
	if s.Running() {
		t.Error("finished simulation still running")
	}
}

func TestSessionResetIsReproducible(t *testing.T) {
	s, _ := newTestSession(t, DefaultConfig())
	s.Start()
	for i := 0; i < 4; i++ {
		s.Tick()
	}

	s.Reset()
	first := s.Frame()
	s.Reset()
	second := s.Frame()

	if first.Nodes[0].Activity != second.Nodes[0].Activity {
		t.Errorf("reset not reproducible: %f vs %f", first.Nodes[0].Activity, second.Nodes[0].Activity)
	}
	if first.Iteration != 0 || first.Time != 0 || first.Running {
		t.Errorf("reset did not rewind: %+v", first)
	}
}

func TestSessionParameters(t *testing.T) {
	s, c := newTestSession(t, DefaultConfig())

	tests := []struct {
		name    string
		value   float64
		wantErr error
	}{
		{"speed", 2, nil},
		{"speed", 0, ErrInvalidValue},
		{"speed", -1, ErrInvalidValue},
		{"intensity", 0.3, nil},
		{"max_iterations", 10, nil},
		{"max_iterations", -1, ErrInvalidValue},
		{"gain", 3, nil},
		{"bogus", 1, ErrUnknownParam},
	}

	for _, tt := range tests {
		err := s.SetParameter(tt.name, tt.value)
		if tt.wantErr == nil && err != nil {
			t.Errorf("%s=%v: unexpected error %v", tt.name, tt.value, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("%s=%v: expected %v, got %v", tt.name, tt.value, tt.wantErr, err)
		}
	}

	if c.gain != 3 {
		t.Errorf("gain not forwarded, got %f", c.gain)
	}
	if err := s.SetIntensity(7); err != nil || s.Config().Intensity != 1 {
		t.Errorf("intensity not clamped: %f, %v", s.Config().Intensity, err)
	}
	params := s.Params()
	if params["gain"] != 3 || params["speed"] != 2 {
		t.Errorf("unexpected params %v", params)
	}
}

func TestSessionOptionRebuilds(t *testing.T) {
	s, c := newTestSession(t, DefaultConfig())
	s.Start()
	s.Tick()

	if err := s.SetOption("mode", "down"); err != nil {
		t.Fatal(err)
	}
	if c.mode != "down" || s.Iteration() != 0 || s.Running() {
		t.Errorf("option did not rebuild the session")
	}
	if err := s.SetOption("mode", "sideways"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("expected unknown option, got %v", err)
	}
}

func TestSessionSelectEntity(t *testing.T) {
	s, c := newTestSession(t, DefaultConfig())
	before := c.value

	d, err := s.SelectEntity("n0")
	if err != nil {
		t.Fatal(err)
	}
	if d.Values["value"] != before || c.value != before {
		t.Error("selection mutated the store")
	}
	if s.Frame().Selected != "n0" {
		t.Error("selected id not recorded in frame")
	}

	if _, err := s.SelectEntity("nope"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("expected unknown entity, got %v", err)
	}
	if s.Selected() != "n0" {
		t.Error("failed selection cleared the previous one")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a, _ := newTestSession(t, DefaultConfig())
	b, _ := newTestSession(t, DefaultConfig())
	if a.ID() == b.ID() {
		t.Error("sessions share an id")
	}
	a.Start()
	a.Tick()
	if b.Iteration() != 0 || b.Running() {
		t.Error("ticking one session affected another")
	}
}

func TestNewSessionInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Speed: 1}},
		{"zero speed", Config{Dt: 1, Speed: 0}},
		{"intensity above one", Config{Dt: 1, Speed: 1, Intensity: 2}},
		{"negative ceiling", Config{Dt: 1, Speed: 1, MaxIterations: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(newCounterSim(), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEnsembleSeeds(t *testing.T) {
	ens := NewEnsemble(func() Simulation { return newCounterSim() }, DefaultConfig(), 3, 10)
	frames, err := ens.Run(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if f.Iteration != 5 {
			t.Errorf("run %d: expected 5 iterations, got %d", i, f.Iteration)
		}
	}
	if frames[0].Nodes[0].Activity == frames[1].Nodes[0].Activity {
		t.Error("runs with different seeds produced identical state")
	}
}
