package ml

import "math"

var DefaultBackpropShape = []int{3, 4, 4, 2}

// BackpropDisplay animates forward and backward passes over a fixed
// network. Nothing is learned: every value is a pure function of the
// iteration index, so the animation replays identically.
type BackpropDisplay struct {
	Shape        []int
	LearningRate float64
	Iteration    int
}

func NewBackpropDisplay(shape []int, lr float64) *BackpropDisplay {
	return &BackpropDisplay{Shape: append([]int(nil), shape...), LearningRate: lr}
}

// Phase returns the pass direction and the layer being highlighted. A cycle
// is len(Shape) forward phases followed by len(Shape) backward phases.
func (b *BackpropDisplay) Phase() (forward bool, layer int) {
	L := len(b.Shape)
	if L == 0 {
		return true, 0
	}
	p := b.Iteration % (2 * L)
	if p < L {
		return true, p
	}
	return false, 2*L - 1 - p
}

func (b *BackpropDisplay) Activation(layer, n int) float64 {
	i := float64(b.Iteration)
	return 0.5 + 0.5*math.Sin(0.3*i+1.7*float64(n)+0.9*float64(layer))
}

func (b *BackpropDisplay) Gradient(layer, n int) float64 {
	i := float64(b.Iteration)
	return 0.1 * math.Cos(0.2*i+1.3*float64(n)+0.7*float64(layer)) * math.Exp(-i/500)
}

// Weight connects neuron a of layer to neuron b of layer+1.
func (b *BackpropDisplay) Weight(layer, a, c int) float64 {
	return math.Sin(1.1*float64(a) + 0.7*float64(c) + float64(layer))
}

func (b *BackpropDisplay) Loss() float64 {
	return 1 / (1 + 0.05*float64(b.Iteration))
}

func (b *BackpropDisplay) GradNorm() float64 {
	sum := 0.0
	for l, size := range b.Shape {
		for n := 0; n < size; n++ {
			g := b.Gradient(l, n)
			sum += g * g
		}
	}
	return math.Sqrt(sum)
}

func (b *BackpropDisplay) WeightUpdate() float64 {
	return b.LearningRate * b.GradNorm()
}

func (b *BackpropDisplay) Step() { b.Iteration++ }
