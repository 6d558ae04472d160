package bnn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/sim"
)

// Network is a small spiking network of point neurons connected by
// directed synapses. Action potentials travel along synapses as signals.
type Network struct {
	Neurons  []Neuron
	Synapses []Synapse
	Signals  []entity.Signal

	NumNeurons   int
	Noise        float64
	Decay        float64
	Refractory   float64
	StimulusKick float64

	neuronIdx  entity.Index
	synapseIdx map[string]int
	outDegree  map[string]int
	inDegree   map[string]int

	nextSignal  int
	tickSpikes  int
	totalSpikes int
}

func NewNetwork() *Network {
	return &Network{
		NumNeurons:   DefaultNeurons,
		Noise:        DefaultNoise,
		Decay:        DefaultDecay,
		Refractory:   DefaultRefractory,
		StimulusKick: DefaultStimulusKick,
	}
}

func (n *Network) Name() string { return "bnn" }

func (n *Network) Reset(rng *rand.Rand) {
	count := n.NumNeurons
	if count < 1 {
		count = 1
	}

	n.Neurons = make([]Neuron, count)
	for i := range n.Neurons {
		n.Neurons[i] = Neuron{
			ID:   fmt.Sprintf("n%d", i),
			Type: pickType(rng.Float64()),
			Pos: entity.Vec2{
				X: sim.Uniform(rng, fieldMargin, FieldWidth-fieldMargin),
				Y: sim.Uniform(rng, fieldMargin, FieldHeight-fieldMargin),
			},
			Potential: RestingPotential,
			Phase:     Resting,
		}
	}

	n.Synapses = n.Synapses[:0]
	for i := range n.Neurons {
		fanout := 1 + rng.Intn(3)
		if fanout > count-1 {
			fanout = count - 1
		}
		picked := 0
		for _, j := range rng.Perm(count) {
			if picked == fanout {
				break
			}
			if j == i {
				continue
			}
			n.Synapses = append(n.Synapses, Synapse{
				ID:       fmt.Sprintf("s%d", len(n.Synapses)),
				Source:   n.Neurons[i].ID,
				Target:   n.Neurons[j].ID,
				Strength: sim.Uniform(rng, 0.3, 1.0),
			})
			picked++
		}
	}

	n.Signals = nil
	n.nextSignal = 0
	n.tickSpikes = 0
	n.totalSpikes = 0
	n.reindex()
}

// reindex rebuilds the id lookups after the store changes shape.
func (n *Network) reindex() {
	n.neuronIdx = entity.NewIndex(n.Neurons)
	n.synapseIdx = make(map[string]int, len(n.Synapses))
	n.outDegree = make(map[string]int, len(n.Neurons))
	n.inDegree = make(map[string]int, len(n.Neurons))
	for i, s := range n.Synapses {
		n.synapseIdx[s.Source+">"+s.Target] = i
		n.outDegree[s.Source]++
		n.inDegree[s.Target]++
	}
}

// Step advances the network one tick. Every decision reads the state at the
// start of the tick; the new state replaces it only at the end.
func (n *Network) Step(t sim.Tick) {
	now := t.Now
	next := make([]Neuron, len(n.Neurons))
	copy(next, n.Neurons)

	synapses := make([]Synapse, len(n.Synapses))
	copy(synapses, n.Synapses)
	for i := range synapses {
		if synapses[i].Active && now >= synapses[i].ActiveUntil {
			synapses[i].Active = false
		}
	}

	// Signals move first so synapses reached this tick feed this tick's
	// integration.
	synInput := make([]float64, len(n.Neurons))
	signals := make([]entity.Signal, len(n.Signals), len(n.Signals)+len(n.Neurons))
	copy(signals, n.Signals)
	for i := range signals {
		before := signals[i].Progress
		signals[i].Advance(SignalRate * t.Speed)
		if before >= NearArrival || signals[i].Progress < NearArrival {
			continue
		}
		si, ok := n.synapseIdx[signals[i].Source+">"+signals[i].Target]
		if !ok || synapses[si].cooling(now) {
			continue
		}
		syn := &synapses[si]
		syn.Active = true
		syn.Activated = true
		syn.LastActivated = now
		syn.ActiveUntil = now + ActiveDuration

		kick := SynapticKick * syn.Strength
		if src, ok := n.neuronIdx.Lookup(syn.Source); ok && n.Neurons[src].Type == Interneuron {
			kick = -kick
		}
		if dst, ok := n.neuronIdx.Lookup(syn.Target); ok {
			synInput[dst] += kick
		}
	}

	n.tickSpikes = 0
	for i, cur := range n.Neurons {
		nu := &next[i]

		if cur.canFire(now, n.Refractory) {
			nu.Potential = PeakPotential
			nu.LastFired = now
			nu.HasFired = true
			nu.Phase = Firing
			nu.Spikes++
			n.tickSpikes++
			signals = n.emit(signals, cur, now)
			continue
		}

		if cur.Phase == Firing {
			nu.Potential = RestingPotential
			nu.Phase = Refractory
			continue
		}

		kick := 0.0
		if sim.Chance(t.Rng, StimulusProbability*t.Intensity) {
			kick = sim.Uniform(t.Rng, StimulusMin, StimulusMax) * n.StimulusKick
		}
		noise := sim.Jitter(t.Rng, n.Noise)

		v := cur.Potential
		v += (RestingPotential-v)*n.Decay + noise + kick + synInput[i]
		nu.Potential = entity.Clamp(v, RestingPotential, PeakPotential)

		switch {
		case cur.inRefractory(now, n.Refractory):
			nu.Phase = Refractory
		case nu.Potential > RestingPotential+2:
			nu.Phase = Depolarizing
		default:
			nu.Phase = Resting
		}
	}
	n.totalSpikes += n.tickSpikes

	signals, _ = entity.Sweep(signals, now, SignalMaxAge)

	n.Neurons = next
	n.Synapses = synapses
	n.Signals = signals
}

// emit launches one action potential per outgoing synapse, or a single
// axonal signal when the neuron has none.
func (n *Network) emit(signals []entity.Signal, from Neuron, now float64) []entity.Signal {
	emitted := 0
	for _, s := range n.Synapses {
		if s.Source != from.ID {
			continue
		}
		signals = append(signals, n.newSignal(from.ID, s.Target, "ap", s.Strength, now))
		emitted++
	}
	if emitted == 0 {
		signals = append(signals, n.newSignal(from.ID, "", "axon", 1, now))
	}
	return signals
}

func (n *Network) newSignal(src, dst, kind string, amp, now float64) entity.Signal {
	id := fmt.Sprintf("ap%d", n.nextSignal)
	n.nextSignal++
	return entity.Signal{ID: id, Source: src, Target: dst, Born: now, Amplitude: amp, Kind: kind}
}

// Validate reports a synapse that references a missing neuron.
func (n *Network) Validate() error {
	f := n.Frame()
	return entity.ValidateEdges(f.Nodes, f.Edges)
}

func (n *Network) Frame() entity.Frame {
	nodes := make([]entity.Node, len(n.Neurons))
	for i, nu := range n.Neurons {
		nodes[i] = entity.Node{
			ID:        nu.ID,
			Kind:      string(nu.Type),
			Label:     string(nu.Phase),
			Pos:       nu.Pos,
			Activity:  nu.Potential,
			Threshold: Threshold,
			Min:       RestingPotential,
			Max:       PeakPotential,
		}
	}

	edges := make([]entity.Edge, len(n.Synapses))
	for i, s := range n.Synapses {
		edges[i] = entity.Edge{
			ID:            s.ID,
			Source:        s.Source,
			Target:        s.Target,
			Weight:        s.Strength,
			Active:        s.Active,
			LastActivated: s.LastActivated,
		}
	}

	return entity.NewFrame(n.Name(), nodes, edges, n.Signals, nil, n.Metrics())
}

func (n *Network) Metrics() map[string]float64 {
	mean, active := 0.0, 0
	for _, nu := range n.Neurons {
		mean += nu.Potential
	}
	if len(n.Neurons) > 0 {
		mean /= float64(len(n.Neurons))
	}
	for _, s := range n.Synapses {
		if s.Active {
			active++
		}
	}
	rate := 0.0
	if len(n.Neurons) > 0 {
		rate = float64(n.tickSpikes) / float64(len(n.Neurons))
	}
	return map[string]float64{
		"spikes":          float64(n.tickSpikes),
		"total_spikes":    float64(n.totalSpikes),
		"firing_rate":     rate,
		"mean_potential":  mean,
		"active_synapses": float64(active),
		"signals":         float64(len(n.Signals)),
	}
}

func (n *Network) Inspect(id string) (sim.Detail, bool) {
	i, ok := n.neuronIdx.Lookup(id)
	if !ok {
		return n.inspectSynapse(id)
	}
	nu := n.Neurons[i]
	lastFired := -1.0
	if nu.HasFired {
		lastFired = nu.LastFired
	}
	return sim.Detail{
		ID:   nu.ID,
		Kind: "neuron",
		Values: map[string]float64{
			"potential":  nu.Potential,
			"last_fired": lastFired,
			"spikes":     float64(nu.Spikes),
			"in_degree":  float64(n.inDegree[nu.ID]),
			"out_degree": float64(n.outDegree[nu.ID]),
		},
		Labels: map[string]string{
			"type":  string(nu.Type),
			"phase": string(nu.Phase),
		},
	}, true
}

func (n *Network) inspectSynapse(id string) (sim.Detail, bool) {
	for _, s := range n.Synapses {
		if s.ID != id {
			continue
		}
		active := 0.0
		if s.Active {
			active = 1
		}
		return sim.Detail{
			ID:     s.ID,
			Kind:   "synapse",
			Values: map[string]float64{"strength": s.Strength, "active": active, "last_activated": s.LastActivated},
			Labels: map[string]string{"source": s.Source, "target": s.Target},
		}, true
	}
	return sim.Detail{}, false
}

func (n *Network) GetParams() map[string]float64 {
	return map[string]float64{
		"neurons":       float64(n.NumNeurons),
		"noise":         n.Noise,
		"decay":         n.Decay,
		"refractory":    n.Refractory,
		"stimulus_kick": n.StimulusKick,
	}
}

// SetParam changes a dynamics constant. The neuron count applies on the
// next reset.
func (n *Network) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return sim.InvalidParam(name, value)
	}
	switch name {
	case "neurons":
		if value < 1 || value > 500 {
			return sim.InvalidParam(name, value)
		}
		n.NumNeurons = int(value)
	case "noise":
		if value < 0 {
			return sim.InvalidParam(name, value)
		}
		n.Noise = value
	case "decay":
		if value < 0 || value > 1 {
			return sim.InvalidParam(name, value)
		}
		n.Decay = value
	case "refractory":
		if value < 0 {
			return sim.InvalidParam(name, value)
		}
		n.Refractory = value
	case "stimulus_kick":
		if value < 0 {
			return sim.InvalidParam(name, value)
		}
		n.StimulusKick = value
	default:
		return sim.UnknownParam(name)
	}
	return nil
}
