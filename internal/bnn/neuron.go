package bnn

import "github.com/san-kum/neurosim/internal/entity"

const (
	RestingPotential = -70.0
	Threshold        = -55.0
	PeakPotential    = 40.0

	DefaultDecay        = 0.1
	DefaultNoise        = 1.0
	DefaultRefractory   = 5.0
	DefaultStimulusKick = 1.0
	DefaultNeurons      = 12

	StimulusProbability = 0.3
	StimulusMin         = 8.0
	StimulusMax         = 15.0

	SignalRate      = 0.05
	SignalMaxAge    = 100.0
	NearArrival     = 0.9
	SynapseCooldown = 5.0
	ActiveDuration  = 3.0
	SynapticKick    = 12.0

	FieldWidth  = 800.0
	FieldHeight = 600.0
	fieldMargin = 40.0
)

type NeuronType string

const (
	Pyramidal   NeuronType = "pyramidal"
	Interneuron NeuronType = "interneuron"
	Motor       NeuronType = "motor"
)

type Phase string

const (
	Resting      Phase = "resting"
	Depolarizing Phase = "depolarizing"
	Firing       Phase = "firing"
	Refractory   Phase = "refractory"
)

type Neuron struct {
	ID        string
	Type      NeuronType
	Pos       entity.Vec2
	Potential float64
	Phase     Phase
	LastFired float64
	HasFired  bool
	Spikes    int
}

func (n Neuron) Key() string { return n.ID }

// canFire checks the pre-update potential against threshold and refractory.
func (n Neuron) canFire(now, refractory float64) bool {
	if n.Potential <= Threshold {
		return false
	}
	return !n.HasFired || now-n.LastFired >= refractory
}

func (n Neuron) inRefractory(now, refractory float64) bool {
	return n.HasFired && now-n.LastFired < refractory
}

type Synapse struct {
	ID            string
	Source        string
	Target        string
	Strength      float64
	Active        bool
	Activated     bool
	LastActivated float64
	ActiveUntil   float64
}

func (s Synapse) Key() string { return s.ID }

func (s Synapse) cooling(now float64) bool {
	return s.Activated && now-s.LastActivated < SynapseCooldown
}

func pickType(u float64) NeuronType {
	switch {
	case u < 0.60:
		return Pyramidal
	case u < 0.85:
		return Interneuron
	default:
		return Motor
	}
}
