package ann

import (
	"math"
	"sort"
)

type Activation func(float64) float64

const LeakySlope = 0.01

var activations = map[string]Activation{
	"sigmoid": Sigmoid,
	"relu": func(x float64) float64 {
		return math.Max(0, x)
	},
	"tanh": math.Tanh,
	"leaky_relu": func(x float64) float64 {
		if x < 0 {
			return LeakySlope * x
		}
		return x
	},
	"identity": func(x float64) float64 { return x },
}

func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func LookupActivation(name string) (Activation, bool) {
	f, ok := activations[name]
	return f, ok
}

func ActivationNames() []string {
	names := make([]string, 0, len(activations))
	for k := range activations {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
