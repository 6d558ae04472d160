package bnn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/sim"
)

func seeded(n *Network, seed int64) *rand.Rand {
	rng := rand.New(rand.NewSource(seed))
	n.Reset(rng)
	return rng
}

func run(n *Network, rng *rand.Rand, ticks int, intensity float64) {
	for i := 0; i < ticks; i++ {
		n.Step(sim.Tick{
			Index:     i,
			Now:       float64(i + 1),
			Dt:        1,
			Speed:     1,
			Intensity: intensity,
			Rng:       rng,
		})
	}
}

func pair(srcType NeuronType) *Network {
	n := NewNetwork()
	n.Noise = 0
	n.Neurons = []Neuron{
		{ID: "a", Type: srcType, Potential: RestingPotential, Phase: Resting},
		{ID: "b", Type: Pyramidal, Potential: -60, Phase: Resting},
	}
	n.Synapses = []Synapse{{ID: "s0", Source: "a", Target: "b", Strength: 1}}
	n.reindex()
	return n
}

func TestNetworkBuild(t *testing.T) {
	n := NewNetwork()
	seeded(n, 7)

	require.Len(t, n.Neurons, DefaultNeurons)
	require.NoError(t, n.Validate())

	out := map[string]map[string]bool{}
	for _, s := range n.Synapses {
		assert.NotEqual(t, s.Source, s.Target, "self synapse %s", s.ID)
		assert.GreaterOrEqual(t, s.Strength, 0.3)
		assert.LessOrEqual(t, s.Strength, 1.0)
		if out[s.Source] == nil {
			out[s.Source] = map[string]bool{}
		}
		assert.False(t, out[s.Source][s.Target], "duplicate synapse %s", s.ID)
		out[s.Source][s.Target] = true
	}
	for _, nu := range n.Neurons {
		deg := len(out[nu.ID])
		assert.True(t, deg >= 1 && deg <= 3, "neuron %s has %d synapses", nu.ID, deg)
		assert.True(t, nu.Pos.X >= 0 && nu.Pos.X <= FieldWidth)
		assert.True(t, nu.Pos.Y >= 0 && nu.Pos.Y <= FieldHeight)
	}
}

func TestNetworkTypeMix(t *testing.T) {
	tests := []struct {
		u    float64
		want NeuronType
	}{
		{0.0, Pyramidal},
		{0.59, Pyramidal},
		{0.60, Interneuron},
		{0.84, Interneuron},
		{0.85, Motor},
		{0.99, Motor},
	}
	for _, tt := range tests {
		if got := pickType(tt.u); got != tt.want {
			t.Errorf("pickType(%v) = %s, want %s", tt.u, got, tt.want)
		}
	}
}

func TestSilentNeuron(t *testing.T) {
	n := NewNetwork()
	n.NumNeurons = 1
	rng := seeded(n, 1)
	require.Empty(t, n.Synapses)

	for i := 0; i < 1000; i++ {
		run(n, rng, 1, 0)
		v := n.Neurons[0].Potential
		require.GreaterOrEqual(t, v, RestingPotential)
		require.Less(t, v, Threshold, "tick %d", i)
	}
	assert.Zero(t, n.Neurons[0].Spikes)
	assert.Empty(t, n.Signals)
}

func TestPotentialStaysInRange(t *testing.T) {
	n := NewNetwork()
	rng := seeded(n, 3)

	for i := 0; i < 500; i++ {
		run(n, rng, 1, 1)
		for _, nu := range n.Neurons {
			require.GreaterOrEqual(t, nu.Potential, RestingPotential)
			require.LessOrEqual(t, nu.Potential, PeakPotential)
		}
		for _, s := range n.Signals {
			require.GreaterOrEqual(t, s.Progress, 0.0)
			require.Less(t, s.Progress, 1.0)
		}
	}
	assert.Positive(t, n.Metrics()["total_spikes"])
}

func TestFiringEmitsPerSynapse(t *testing.T) {
	n := NewNetwork()
	n.Noise = 0
	rng := seeded(n, 5)

	n.Neurons[0].Potential = -50
	out := n.outDegree[n.Neurons[0].ID]

	n.Step(sim.Tick{Now: 1, Dt: 1, Speed: 1, Rng: rng})

	nu := n.Neurons[0]
	assert.Equal(t, Firing, nu.Phase)
	assert.Equal(t, PeakPotential, nu.Potential)
	assert.Equal(t, 1.0, nu.LastFired)
	assert.True(t, nu.HasFired)
	assert.Len(t, n.Signals, out)
	for _, s := range n.Signals {
		assert.Equal(t, nu.ID, s.Source)
		assert.Equal(t, "ap", s.Kind)
	}

	// Refractory on the following ticks even though the potential is at peak.
	n.Step(sim.Tick{Now: 2, Dt: 1, Speed: 1, Rng: rng})
	assert.Equal(t, Refractory, n.Neurons[0].Phase)
	assert.Equal(t, RestingPotential, n.Neurons[0].Potential)
	assert.Equal(t, 1, n.Neurons[0].Spikes)
}

func TestAxonalSignalWithoutSynapses(t *testing.T) {
	n := NewNetwork()
	n.NumNeurons = 1
	rng := seeded(n, 2)
	n.Neurons[0].Potential = -40

	n.Step(sim.Tick{Now: 1, Dt: 1, Speed: 1, Rng: rng})

	require.Len(t, n.Signals, 1)
	assert.Equal(t, "axon", n.Signals[0].Kind)
	assert.Empty(t, n.Signals[0].Target)
}

func TestSynapticInputUsesStartOfTickState(t *testing.T) {
	n := pair(Pyramidal)
	rng := rand.New(rand.NewSource(1))
	n.Signals = []entity.Signal{{ID: "x", Source: "a", Target: "b", Progress: 0.88, Kind: "ap"}}

	n.Step(sim.Tick{Now: 1, Dt: 1, Speed: 1, Rng: rng})

	b := n.Neurons[1]
	assert.InDelta(t, -49.0, b.Potential, 1e-9)
	assert.Equal(t, Depolarizing, b.Phase, "crossed threshold this tick but fires only on the next")
	assert.True(t, n.Synapses[0].Active)

	n.Step(sim.Tick{Now: 2, Dt: 1, Speed: 1, Rng: rng})
	assert.Equal(t, Firing, n.Neurons[1].Phase)
	assert.Equal(t, 2.0, n.Neurons[1].LastFired)
}

func TestInhibitorySynapse(t *testing.T) {
	n := pair(Interneuron)
	rng := rand.New(rand.NewSource(1))
	n.Signals = []entity.Signal{{ID: "x", Source: "a", Target: "b", Progress: 0.88, Kind: "ap"}}

	n.Step(sim.Tick{Now: 1, Dt: 1, Speed: 1, Rng: rng})

	assert.Equal(t, RestingPotential, n.Neurons[1].Potential)
}

func TestSynapseCooldown(t *testing.T) {
	n := pair(Pyramidal)
	rng := rand.New(rand.NewSource(1))
	n.Signals = []entity.Signal{
		{ID: "x", Source: "a", Target: "b", Progress: 0.88, Kind: "ap"},
		{ID: "y", Source: "a", Target: "b", Progress: 0.86, Kind: "ap"},
	}

	n.Step(sim.Tick{Now: 1, Dt: 1, Speed: 1, Rng: rng})

	assert.InDelta(t, -49.0, n.Neurons[1].Potential, 1e-9, "second arrival falls in the cooldown")

	for now := 2.0; now <= 4; now++ {
		n.Step(sim.Tick{Now: now, Dt: 1, Speed: 1, Rng: rng})
	}
	assert.False(t, n.Synapses[0].Active, "synapse stays active only for its active duration")
}

func TestSignalsAreSwept(t *testing.T) {
	n := pair(Pyramidal)
	rng := rand.New(rand.NewSource(1))
	n.Neurons[1].Potential = RestingPotential
	n.Signals = []entity.Signal{
		{ID: "done", Source: "a", Target: "b", Progress: 0.97},
		{ID: "old", Source: "a", Target: "b", Progress: 0.1, Born: -200},
		{ID: "live", Source: "a", Target: "b", Progress: 0.1, Born: 0},
	}

	n.Step(sim.Tick{Now: 1, Dt: 1, Speed: 1, Rng: rng})

	require.Len(t, n.Signals, 1)
	assert.Equal(t, "live", n.Signals[0].ID)
}

func TestResetReproducible(t *testing.T) {
	a, b := NewNetwork(), NewNetwork()
	ra, rb := seeded(a, 11), seeded(b, 11)
	run(a, ra, 200, 0.8)
	run(b, rb, 200, 0.8)

	assert.Equal(t, a.Frame(), b.Frame())
}

func TestInspect(t *testing.T) {
	n := NewNetwork()
	seeded(n, 4)

	d, ok := n.Inspect("n0")
	require.True(t, ok)
	assert.Equal(t, "neuron", d.Kind)
	assert.Equal(t, float64(n.outDegree["n0"]), d.Values["out_degree"])
	assert.Equal(t, -1.0, d.Values["last_fired"])

	d, ok = n.Inspect("s0")
	require.True(t, ok)
	assert.Equal(t, "synapse", d.Kind)

	_, ok = n.Inspect("missing")
	assert.False(t, ok)
}

func TestSetParam(t *testing.T) {
	n := NewNetwork()

	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"noise", 2, false},
		{"noise", -1, true},
		{"decay", 0.5, false},
		{"decay", 1.5, true},
		{"refractory", 3, false},
		{"stimulus_kick", 0.5, false},
		{"neurons", 20, false},
		{"neurons", 0, true},
		{"voltage", 1, true},
	}
	for _, tt := range tests {
		err := n.SetParam(tt.name, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetParam(%s, %v) error = %v, wantErr %v", tt.name, tt.value, err, tt.wantErr)
		}
	}

	seeded(n, 1)
	assert.Len(t, n.Neurons, 20)
	assert.Equal(t, 2.0, n.GetParams()["noise"])
}
