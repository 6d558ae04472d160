package brain

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/sim"
)

const (
	DefaultDecay         = 0.02
	DefaultSpawnRate     = 0.15
	DefaultStimulusDelay = 3.0
	DefaultTaskDuration  = 40.0

	EntryBoost    = 0.3
	HopBoost      = 0.25
	SpikeRate     = 0.08
	activeCutoff  = 0.3
	amplitudeLow  = 0.5
	amplitudeHigh = 1.0
)

// Stimulus is pending input travelling along a pathway. It is processed
// once its delay has elapsed and then removed.
type Stimulus struct {
	ID        string
	Pathway   string
	Hop       int
	Amplitude float64
	Created   float64
}

// Model drives region activity from stimuli spawned along functional
// pathways.
type Model struct {
	Mode          string
	Decay         float64
	SpawnRate     float64
	StimulusDelay float64
	TaskDuration  float64

	Regions  []Region
	Stimuli  []Stimulus
	Spikes   []entity.Signal
	Edges    []entity.Edge
	TaskFrom float64
	TaskOn   bool

	idx        entity.Index
	adj        entity.Adjacency
	nextID     int
	processed  int
	tickSpikes int
}

func NewModel() *Model {
	return &Model{
		Mode:          "all",
		Decay:         DefaultDecay,
		SpawnRate:     DefaultSpawnRate,
		StimulusDelay: DefaultStimulusDelay,
		TaskDuration:  DefaultTaskDuration,
	}
}

func (m *Model) Name() string { return "brain" }

func (m *Model) Reset(rng *rand.Rand) {
	m.Regions = make([]Region, len(regionTable))
	copy(m.Regions, regionTable)
	for i := range m.Regions {
		m.Regions[i].Activity = m.Regions[i].Baseline
	}
	m.idx = entity.NewIndex(m.Regions)

	m.Edges = m.Edges[:0]
	seen := map[string]bool{}
	for _, p := range pathways {
		for i := 0; i+1 < len(p.Regions); i++ {
			id := p.Regions[i] + ">" + p.Regions[i+1]
			if seen[id] {
				continue
			}
			seen[id] = true
			m.Edges = append(m.Edges, entity.Edge{ID: id, Source: p.Regions[i], Target: p.Regions[i+1], Weight: 1})
		}
	}
	m.adj = entity.NewAdjacency(m.Edges)

	m.Stimuli = nil
	m.Spikes = nil
	m.TaskOn = false
	m.TaskFrom = 0
	m.nextID = 0
	m.processed = 0
	m.tickSpikes = 0
}

func (m *Model) allowed(p Pathway) bool {
	return m.Mode == "all" || m.Mode == p.Name
}

func (m *Model) region(id string) *Region {
	i, ok := m.idx.Lookup(id)
	if !ok {
		return nil
	}
	return &m.Regions[i]
}

func (m *Model) boost(id string, v float64) {
	if r := m.region(id); r != nil {
		r.Activity = entity.Clamp(r.Activity+v, 0, 1)
	}
}

func (m *Model) newID(prefix string) string {
	id := fmt.Sprintf("%s%d", prefix, m.nextID)
	m.nextID++
	return id
}

func (m *Model) Step(t sim.Tick) {
	now := t.Now

	for i := range m.Regions {
		r := &m.Regions[i]
		switch {
		case r.Activity > r.Baseline:
			r.Activity = math.Max(r.Baseline, r.Activity-m.Decay)
		case r.Activity < r.Baseline:
			r.Activity = math.Min(r.Baseline, r.Activity+m.Decay)
		}
	}

	if m.TaskOn && now-m.TaskFrom >= m.TaskDuration {
		m.TaskOn = false
	}

	for _, p := range pathways {
		if !m.allowed(p) {
			continue
		}
		if p.Name == "cognitive" && m.TaskOn {
			continue
		}
		if !sim.Chance(t.Rng, m.SpawnRate*t.Intensity) {
			continue
		}
		m.spawn(p, sim.Uniform(t.Rng, amplitudeLow, amplitudeHigh), now)
	}

	m.tickSpikes = 0
	kept := m.Stimuli[:0]
	var followOn []Stimulus
	for _, s := range m.Stimuli {
		if now-s.Created < m.StimulusDelay {
			kept = append(kept, s)
			continue
		}
		if next, ok := m.process(s, now); ok {
			followOn = append(followOn, next)
		}
	}
	m.Stimuli = append(kept, followOn...)

	for i := range m.Spikes {
		m.Spikes[i].Advance(SpikeRate * t.Speed)
	}
	m.Spikes, _ = entity.Sweep(m.Spikes, now, 0)

	for i := range m.Regions {
		m.Regions[i].Activity = entity.Clamp(m.Regions[i].Activity, 0, 1)
	}
}

// spawn boosts the pathway entry and queues a stimulus for the next hop.
func (m *Model) spawn(p Pathway, amp, now float64) {
	m.boost(p.Regions[0], EntryBoost)
	if p.Name == "cognitive" {
		m.TaskOn = true
		m.TaskFrom = now
	}
	m.Stimuli = append(m.Stimuli, Stimulus{
		ID:        m.newID("st"),
		Pathway:   p.Name,
		Hop:       1,
		Amplitude: amp,
		Created:   now,
	})
}

// process delivers s to its target region, emits the visual spike and
// returns the follow-on stimulus for the next hop, if any.
func (m *Model) process(s Stimulus, now float64) (Stimulus, bool) {
	p, ok := lookupPathway(s.Pathway)
	if !ok || s.Hop <= 0 || s.Hop >= len(p.Regions) {
		return Stimulus{}, false
	}
	src, dst := p.Regions[s.Hop-1], p.Regions[s.Hop]
	m.boost(dst, HopBoost*s.Amplitude)
	m.processed++
	m.tickSpikes++
	m.Spikes = append(m.Spikes, entity.Signal{
		ID:        m.newID("sp"),
		Source:    src,
		Target:    dst,
		Born:      now,
		Amplitude: s.Amplitude,
		Kind:      s.Pathway,
	})

	if s.Hop+1 >= len(p.Regions) {
		return Stimulus{}, false
	}
	return Stimulus{
		ID:        m.newID("st"),
		Pathway:   s.Pathway,
		Hop:       s.Hop + 1,
		Amplitude: s.Amplitude,
		Created:   now,
	}, true
}

func (m *Model) Frame() entity.Frame {
	nodes := make([]entity.Node, len(m.Regions))
	for i, r := range m.Regions {
		nodes[i] = entity.Node{
			ID:        r.ID,
			Kind:      r.Lobe,
			Label:     r.Label,
			Pos:       r.Pos,
			Activity:  r.Activity,
			Threshold: activeCutoff,
			Min:       0,
			Max:       1,
		}
	}

	edges := make([]entity.Edge, len(m.Edges))
	copy(edges, m.Edges)
	for i := range edges {
		for _, s := range m.Spikes {
			if s.Source == edges[i].Source && s.Target == edges[i].Target {
				edges[i].Active = true
				edges[i].LastActivated = math.Max(edges[i].LastActivated, s.Born)
			}
		}
	}

	return entity.NewFrame(m.Name(), nodes, edges, m.Spikes, nil, m.Metrics())
}

func (m *Model) Metrics() map[string]float64 {
	mean, active := 0.0, 0
	for _, r := range m.Regions {
		mean += r.Activity
		if r.Activity > activeCutoff {
			active++
		}
	}
	if len(m.Regions) > 0 {
		mean /= float64(len(m.Regions))
	}
	task := 0.0
	if m.TaskOn {
		task = 1
	}
	return map[string]float64{
		"mean_activity":  mean,
		"active_regions": float64(active),
		"stimuli":        float64(len(m.Stimuli)),
		"spikes":         float64(len(m.Spikes)),
		"processed":      float64(m.processed),
		"task_active":    task,
	}
}

func (m *Model) Validate() error {
	f := m.Frame()
	return entity.ValidateEdges(f.Nodes, f.Edges)
}

func (m *Model) Inspect(id string) (sim.Detail, bool) {
	r := m.region(id)
	if r == nil {
		return sim.Detail{}, false
	}
	var member []string
	for _, p := range pathways {
		if slices.Contains(p.Regions, id) {
			member = append(member, p.Name)
		}
	}
	return sim.Detail{
		ID:   r.ID,
		Kind: "region",
		Values: map[string]float64{
			"activity":   r.Activity,
			"baseline":   r.Baseline,
			"in_degree":  float64(len(m.adj.In[id])),
			"out_degree": float64(len(m.adj.Out[id])),
		},
		Labels: map[string]string{
			"label":    r.Label,
			"lobe":     r.Lobe,
			"pathways": fmt.Sprint(member),
		},
	}, true
}

func (m *Model) GetParams() map[string]float64 {
	return map[string]float64{
		"decay":          m.Decay,
		"spawn_rate":     m.SpawnRate,
		"stimulus_delay": m.StimulusDelay,
		"task_duration":  m.TaskDuration,
	}
}

func (m *Model) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return sim.InvalidParam(name, value)
	}
	switch name {
	case "decay":
		if value > 1 {
			return sim.InvalidParam(name, value)
		}
		m.Decay = value
	case "spawn_rate":
		if value > 1 {
			return sim.InvalidParam(name, value)
		}
		m.SpawnRate = value
	case "stimulus_delay":
		m.StimulusDelay = value
	case "task_duration":
		m.TaskDuration = value
	default:
		return sim.UnknownParam(name)
	}
	return nil
}

func (m *Model) Options() map[string]string {
	return map[string]string{"mode": m.Mode}
}

// SetOption restricts spawning to one pathway. Stimuli already in flight
// finish their route.
func (m *Model) SetOption(name, value string) (bool, error) {
	if name != "mode" || !slices.Contains(Modes, value) {
		return false, sim.UnknownOption(name, value)
	}
	m.Mode = value
	return false, nil
}
