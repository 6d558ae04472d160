package config

import "sort"

var Presets = map[string]map[string]*Config{
	"bnn": {
		"quiet": {
			Sim: "bnn", Dt: 1, Speed: 1, Intensity: 0.1, Ticks: 500,
		},
		"active": {
			Sim: "bnn", Dt: 1, Speed: 1, Intensity: 0.8, Ticks: 500,
			Params: map[string]float64{"noise": 1.5},
		},
		"dense": {
			Sim: "bnn", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 1000,
			Params: map[string]float64{"neurons": 30},
		},
	},
	"ann": {
		"perceptron": {
			Sim: "ann", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 200,
			Options: map[string]string{"architecture": "perceptron", "activation": "sigmoid"},
			ANN:     ANNConfig{Epochs: 200},
		},
		"shallow": {
			Sim: "ann", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 200,
			Options: map[string]string{"architecture": "shallow", "activation": "sigmoid"},
			ANN:     ANNConfig{Epochs: 200},
		},
		"deep": {
			Sim: "ann", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 300,
			Options: map[string]string{"architecture": "deep", "activation": "relu"},
			Params:  map[string]float64{"learning_rate": 0.05},
			ANN:     ANNConfig{Epochs: 300},
		},
	},
	"ml": {
		"regression": {
			Sim: "ml", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 1000,
			Options: map[string]string{"algorithm": "regression"},
		},
		"backprop": {
			Sim: "ml", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 200,
			Options: map[string]string{"algorithm": "backprop"},
		},
		"tree": {
			Sim: "ml", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 100,
			Options: map[string]string{"algorithm": "tree"},
		},
		"digits": {
			Sim: "ml", Dt: 1, Speed: 1, Intensity: 0.5, Ticks: 160,
			Options: map[string]string{"algorithm": "digits"},
		},
	},
	"brain": {
		"resting": {
			Sim: "brain", Dt: 1, Speed: 1, Intensity: 0.1, Ticks: 500,
			Options: map[string]string{"mode": "all"},
		},
		"visual": {
			Sim: "brain", Dt: 1, Speed: 1, Intensity: 0.7, Ticks: 500,
			Options: map[string]string{"mode": "visual"},
		},
		"language": {
			Sim: "brain", Dt: 1, Speed: 1, Intensity: 0.7, Ticks: 500,
			Options: map[string]string{"mode": "auditory"},
		},
		"motor": {
			Sim: "brain", Dt: 1, Speed: 1, Intensity: 0.7, Ticks: 500,
			Options: map[string]string{"mode": "motor"},
		},
		"thinking": {
			Sim: "brain", Dt: 1, Speed: 1, Intensity: 0.9, Ticks: 500,
			Options: map[string]string{"mode": "cognitive"},
		},
	},
}

// GetPreset returns a copy of the preset with defaults filled in, or nil.
func GetPreset(simName, preset string) *Config {
	simPresets, ok := Presets[simName]
	if !ok {
		return nil
	}
	p, ok := simPresets[preset]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	def := DefaultConfig()
	cfg.Seed = def.Seed
	cfg.PeriodMs = def.PeriodMs
	cfg.Storage = def.Storage
	cfg.Log = def.Log
	if cfg.ANN.Epochs == 0 {
		cfg.ANN.Epochs = def.ANN.Epochs
	}
	return cfg
}

func ListPresets(simName string) []string {
	simPresets, ok := Presets[simName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(simPresets))
	for name := range simPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
