package sim

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/san-kum/neurosim/internal/entity"
)

// Session owns the clock, run flag, seeded RNG and user controls of one
// visualization instance. Sessions never share state with each other.
type Session struct {
	id        string
	sim       Simulation
	cfg       Config
	rng       *rand.Rand
	iteration int
	now       float64
	running   bool
	selected  string
	logger    *slog.Logger
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSession(s Simulation, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sess := &Session{
		id:     uuid.NewString(),
		sim:    s,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(sess)
	}
	sess.logger = sess.logger.With("session", sess.id, "sim", s.Name())
	sess.Reset()
	return sess, nil
}

func (s *Session) ID() string             { return s.id }
func (s *Session) Simulation() Simulation { return s.sim }
func (s *Session) Config() Config         { return s.cfg }
func (s *Session) Iteration() int         { return s.iteration }
func (s *Session) Now() float64           { return s.now }
func (s *Session) Running() bool          { return s.running }
func (s *Session) Selected() string       { return s.selected }

// Reset rebuilds the store from the configured seed and rewinds the clock.
func (s *Session) Reset() {
	s.rng = rand.New(rand.NewSource(s.cfg.Seed))
	s.sim.Reset(s.rng)
	s.iteration = 0
	s.now = 0
	s.running = false
	s.selected = ""
	s.logger.Debug("reset", "seed", s.cfg.Seed)
}

// SetRunning starts or pauses ticking. Starting is a no-op once the
// iteration ceiling has been reached.
func (s *Session) SetRunning(on bool) {
	if !on {
		s.running = false
		return
	}
	if s.atCeiling() {
		s.logger.Debug("start ignored at ceiling", "iteration", s.iteration, "max", s.cfg.MaxIterations)
		return
	}
	if !s.running {
		s.logger.Info("session started", "iteration", s.iteration)
	}
	s.running = true
}

func (s *Session) Start() { s.SetRunning(true) }
func (s *Session) Pause() { s.SetRunning(false) }
func (s *Session) Stop()  { s.SetRunning(false) }

// Tick advances the simulation by one step. It returns false when nothing
// happened: the session is paused, or the ceiling was reached, in which
// case running flips to false and stays false.
func (s *Session) Tick() bool {
	if !s.running {
		return false
	}
	if s.atCeiling() {
		s.running = false
		s.logger.Info("ceiling reached", "iteration", s.iteration, "max", s.cfg.MaxIterations)
		return false
	}

	dt := s.cfg.Dt * s.cfg.Speed
	next := s.now + dt
	s.sim.Step(Tick{
		Index:     s.iteration,
		Now:       next,
		Dt:        dt,
		Speed:     s.cfg.Speed,
		Intensity: s.cfg.Intensity,
		Rng:       s.rng,
	})
	s.iteration++
	s.now = next
	return true
}

func (s *Session) atCeiling() bool {
	if s.cfg.MaxIterations > 0 && s.iteration >= s.cfg.MaxIterations {
		return true
	}
	if f, ok := s.sim.(Finisher); ok && f.Finished() {
		return true
	}
	return false
}

func (s *Session) SetSpeed(v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid("speed", v)
	}
	s.cfg.Speed = v
	return nil
}

// SetIntensity clamps v into [0,1].
func (s *Session) SetIntensity(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid("intensity", v)
	}
	s.cfg.Intensity = entity.Clamp(v, 0, 1)
	return nil
}

// SetMaxIterations changes the ceiling; 0 removes it.
func (s *Session) SetMaxIterations(n int) error {
	if n < 0 {
		return invalid("max_iterations", n)
	}
	s.cfg.MaxIterations = n
	return nil
}

// SetParameter routes session controls to the session and everything else
// to the simulation.
func (s *Session) SetParameter(name string, value float64) error {
	switch name {
	case "speed":
		return s.SetSpeed(value)
	case "intensity":
		return s.SetIntensity(value)
	case "max_iterations":
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return invalid(name, value)
		}
		return s.SetMaxIterations(int(value))
	}
	c, ok := s.sim.(Configurable)
	if !ok {
		return unknownParam(name)
	}
	return c.SetParam(name, value)
}

func (s *Session) Params() map[string]float64 {
	params := map[string]float64{
		"speed":          s.cfg.Speed,
		"intensity":      s.cfg.Intensity,
		"max_iterations": float64(s.cfg.MaxIterations),
	}
	if c, ok := s.sim.(Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
		}
	}
	return params
}

func ParamNames(params map[string]float64) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetOption changes a discrete selector. Selectors that alter the shape of
// the store trigger a reset.
func (s *Session) SetOption(name, value string) error {
	sel, ok := s.sim.(Selectable)
	if !ok {
		return UnknownOption(name, value)
	}
	rebuild, err := sel.SetOption(name, value)
	if err != nil {
		return err
	}
	if rebuild {
		s.Reset()
	}
	return nil
}

func (s *Session) Options() map[string]string {
	if sel, ok := s.sim.(Selectable); ok {
		return sel.Options()
	}
	return map[string]string{}
}

// SelectEntity looks up an entity without touching the store; the only side
// effect is remembering the selected id.
func (s *Session) SelectEntity(id string) (Detail, error) {
	insp, ok := s.sim.(Inspector)
	if !ok {
		return Detail{}, &ParamError{Name: "id", Value: id, Wrapped: ErrUnknownEntity}
	}
	d, ok := insp.Inspect(id)
	if !ok {
		return Detail{}, &ParamError{Name: "id", Value: id, Wrapped: ErrUnknownEntity}
	}
	s.selected = id
	return d, nil
}

// Frame returns a sanitized snapshot of the store.
func (s *Session) Frame() entity.Frame {
	f := s.sim.Frame()
	f.Sim = s.sim.Name()
	f.Session = s.id
	f.Iteration = s.iteration
	f.Time = s.now
	f.Running = s.running
	f.Selected = s.selected
	if n := f.Sanitize(); n > 0 {
		s.logger.Warn("non-finite values replaced in frame", "count", n, "iteration", s.iteration)
	}
	return f
}
