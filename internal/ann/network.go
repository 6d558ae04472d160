package ann

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/sim"
)

const (
	DefaultLearningRate = 0.1
	DefaultActivation   = "sigmoid"
	DefaultPreset       = "shallow"

	fieldWidth  = 800.0
	fieldHeight = 600.0
	fieldMargin = 80.0
)

// Network is a fully connected feed-forward network. Training does not
// compute gradients: each epoch jitters the weights and reports a loss and
// accuracy curve that decays with the epoch count.
type Network struct {
	Layers       []int
	Activation   string
	LearningRate float64

	// Weights[l][j][i] connects neuron i of layer l to neuron j of layer l+1.
	Weights [][][]float64
	// Biases[l] belongs to layer l+1.
	Biases [][]float64
	Values [][]float64

	Epoch    int
	Loss     float64
	Accuracy float64

	act Activation
	idx entity.Index
}

func NewNetwork() *Network {
	n := &Network{
		Layers:       append([]int(nil), presets[DefaultPreset]...),
		Activation:   DefaultActivation,
		LearningRate: DefaultLearningRate,
	}
	n.act, _ = LookupActivation(n.Activation)
	return n
}

func (n *Network) Name() string { return "ann" }

func (n *Network) Reset(rng *rand.Rand) {
	n.Values = make([][]float64, len(n.Layers))
	for l, size := range n.Layers {
		n.Values[l] = make([]float64, size)
	}
	for i := range n.Values[0] {
		n.Values[0][i] = rng.Float64()
	}

	n.Weights = make([][][]float64, len(n.Layers)-1)
	n.Biases = make([][]float64, len(n.Layers)-1)
	for l := 0; l < len(n.Layers)-1; l++ {
		n.Weights[l] = make([][]float64, n.Layers[l+1])
		n.Biases[l] = make([]float64, n.Layers[l+1])
		for j := range n.Weights[l] {
			n.Weights[l][j] = make([]float64, n.Layers[l])
			for i := range n.Weights[l][j] {
				n.Weights[l][j][i] = sim.Uniform(rng, -1, 1)
			}
			n.Biases[l][j] = sim.Uniform(rng, -0.5, 0.5)
		}
	}

	n.Epoch = 0
	n.Loss, n.Accuracy = syntheticLoss(0), syntheticAccuracy(0)
	n.Forward()
	n.idx = entity.NewIndex(n.nodes())
}

// Forward computes act(sum(w * a) + bias) for every layer after the input.
func (n *Network) Forward() {
	for l := 0; l < len(n.Weights); l++ {
		src := n.Values[l]
		for j, row := range n.Weights[l] {
			sum := n.Biases[l][j]
			for i, w := range row {
				sum += w * src[i]
			}
			n.Values[l+1][j] = n.act(sum)
		}
	}
}

func (n *Network) Output() []float64 {
	if len(n.Values) == 0 {
		return nil
	}
	return append([]float64(nil), n.Values[len(n.Values)-1]...)
}

// Step runs one synthetic training epoch.
func (n *Network) Step(t sim.Tick) {
	amp := n.LearningRate * 0.1
	for l := range n.Weights {
		for j := range n.Weights[l] {
			for i := range n.Weights[l][j] {
				n.Weights[l][j][i] += sim.Jitter(t.Rng, amp)
			}
		}
	}
	n.Forward()
	n.Epoch++
	n.Loss = math.Max(0, syntheticLoss(n.Epoch)+sim.Jitter(t.Rng, 0.02))
	n.Accuracy = entity.Clamp(syntheticAccuracy(n.Epoch)+sim.Jitter(t.Rng, 0.02), 0, 1)
}

func syntheticLoss(epoch int) float64 {
	return 0.9*math.Exp(-float64(epoch)/30) + 0.05
}

func syntheticAccuracy(epoch int) float64 {
	return 1 - 0.85*math.Exp(-float64(epoch)/25) - 0.05
}

func nodeID(layer, i int) string { return fmt.Sprintf("L%dN%d", layer, i) }

func (n *Network) kind(layer int) string {
	switch layer {
	case 0:
		return "input"
	case len(n.Layers) - 1:
		return "output"
	default:
		return "hidden"
	}
}

func (n *Network) position(layer, i int) entity.Vec2 {
	x := fieldWidth / 2
	if len(n.Layers) > 1 {
		x = fieldMargin + float64(layer)*(fieldWidth-2*fieldMargin)/float64(len(n.Layers)-1)
	}
	y := float64(i+1) * fieldHeight / float64(n.Layers[layer]+1)
	return entity.Vec2{X: x, Y: y}
}

func (n *Network) nodes() []entity.Node {
	var nodes []entity.Node
	for l, vals := range n.Values {
		for i, v := range vals {
			nodes = append(nodes, entity.Node{
				ID:       nodeID(l, i),
				Kind:     n.kind(l),
				Label:    fmt.Sprintf("%.2f", v),
				Pos:      n.position(l, i),
				Activity: v,
			})
		}
	}
	return nodes
}

func (n *Network) edges() []entity.Edge {
	var edges []entity.Edge
	for l, layer := range n.Weights {
		for j, row := range layer {
			for i, w := range row {
				edges = append(edges, entity.Edge{
					ID:     fmt.Sprintf("W%d_%d_%d", l, j, i),
					Source: nodeID(l, i),
					Target: nodeID(l+1, j),
					Weight: w,
					Active: math.Abs(w*n.Values[l][i]) > 0.5,
				})
			}
		}
	}
	return edges
}

func (n *Network) Validate() error {
	return entity.ValidateEdges(n.nodes(), n.edges())
}

func (n *Network) Frame() entity.Frame {
	return entity.NewFrame(n.Name(), n.nodes(), n.edges(), nil, nil, n.Metrics())
}

func (n *Network) Metrics() map[string]float64 {
	mean := 0.0
	out := n.Output()
	for _, v := range out {
		mean += v
	}
	if len(out) > 0 {
		mean /= float64(len(out))
	}
	return map[string]float64{
		"epoch":       float64(n.Epoch),
		"loss":        n.Loss,
		"accuracy":    n.Accuracy,
		"mean_output": mean,
	}
}

func (n *Network) Inspect(id string) (sim.Detail, bool) {
	pos, ok := n.idx.Lookup(id)
	if !ok {
		return sim.Detail{}, false
	}
	layer, index := 0, pos
	for layer < len(n.Layers) && index >= n.Layers[layer] {
		index -= n.Layers[layer]
		layer++
	}
	if layer >= len(n.Layers) {
		return sim.Detail{}, false
	}

	bias, in, out := 0.0, 0, 0
	if layer > 0 {
		bias = n.Biases[layer-1][index]
		in = n.Layers[layer-1]
	}
	if layer < len(n.Layers)-1 {
		out = n.Layers[layer+1]
	}
	return sim.Detail{
		ID:   id,
		Kind: n.kind(layer),
		Values: map[string]float64{
			"layer":      float64(layer),
			"index":      float64(index),
			"bias":       bias,
			"activation": n.Values[layer][index],
			"in_degree":  float64(in),
			"out_degree": float64(out),
		},
		Labels: map[string]string{"activation_fn": n.Activation},
	}, true
}

func (n *Network) GetParams() map[string]float64 {
	return map[string]float64{"learning_rate": n.LearningRate}
}

func (n *Network) SetParam(name string, value float64) error {
	if name != "learning_rate" {
		return sim.UnknownParam(name)
	}
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return sim.InvalidParam(name, value)
	}
	n.LearningRate = value
	return nil
}

func (n *Network) Options() map[string]string {
	return map[string]string{
		"activation":   n.Activation,
		"architecture": FormatArchitecture(n.Layers),
	}
}

// SetOption swaps the activation in place. A new architecture changes the
// shape of the store, so it asks for a rebuild.
func (n *Network) SetOption(name, value string) (bool, error) {
	switch name {
	case "activation":
		f, ok := LookupActivation(value)
		if !ok {
			return false, sim.UnknownOption(name, value)
		}
		n.Activation, n.act = value, f
		if len(n.Values) > 0 {
			n.Forward()
		}
		return false, nil
	case "architecture":
		layers, err := ParseArchitecture(value)
		if err != nil {
			return false, fmt.Errorf("%w: %v", sim.UnknownOption(name, value), err)
		}
		n.Layers = layers
		return true, nil
	}
	return false, sim.UnknownOption(name, value)
}
