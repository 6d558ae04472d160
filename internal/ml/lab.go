package ml

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/sim"
)

const (
	DefaultAlgorithm = "regression"
	DefaultGlyphHold = 20

	fieldWidth  = 800.0
	fieldHeight = 600.0
	fieldMargin = 80.0
)

var algorithms = []string{"regression", "backprop", "tree", "digits"}

func Algorithms() []string { return append([]string(nil), algorithms...) }

// Lab hosts the four algorithm demos. Only the selected one holds entities;
// switching algorithms rebuilds it from the session seed.
type Lab struct {
	Algorithm    string
	LearningRate float64
	MaxDepth     int
	MinSamples   int
	GlyphHold    int

	Regression *Regression
	Backprop   *BackpropDisplay
	Samples    []Sample
	Grower     *TreeGrower

	Glyph      int
	Grid       *Grid
	Prediction Prediction
}

func NewLab() *Lab {
	return &Lab{
		Algorithm:    DefaultAlgorithm,
		LearningRate: DefaultLearningRate,
		MaxDepth:     DefaultMaxDepth,
		MinSamples:   DefaultMinSamples,
		GlyphHold:    DefaultGlyphHold,
	}
}

func (l *Lab) Name() string { return "ml" }

func (l *Lab) Reset(rng *rand.Rand) {
	l.Regression, l.Backprop, l.Samples, l.Grower, l.Grid = nil, nil, nil, nil, nil
	l.Prediction = Prediction{}

	switch l.Algorithm {
	case "regression":
		l.Regression = NewRegression(rng, RegressionSamples, l.LearningRate)
	case "backprop":
		l.Backprop = NewBackpropDisplay(DefaultBackpropShape, l.LearningRate)
	case "tree":
		l.Samples = GenerateSamples(rng, TreeSamples)
		l.Grower = NewTreeGrower(l.Samples, l.MaxDepth, l.MinSamples)
	case "digits":
		l.Glyph = 0
		l.showGlyph(rng)
	}
}

func (l *Lab) showGlyph(rng *rand.Rand) {
	l.Grid = Glyph(GlyphDigits[l.Glyph])
	Speckle(l.Grid, rng, 0.05)
	l.Prediction = Classify(l.Grid)
}

func (l *Lab) Step(t sim.Tick) {
	switch l.Algorithm {
	case "regression":
		l.Regression.Step()
	case "backprop":
		l.Backprop.Step()
	case "tree":
		l.Grower.Grow()
	case "digits":
		hold := max(l.GlyphHold, 1)
		if (t.Index+1)%hold == 0 {
			l.Glyph = (l.Glyph + 1) % len(GlyphDigits)
			l.showGlyph(t.Rng)
		}
	}
}

// Finished reports a fully grown tree. The other algorithms run until the
// iteration ceiling.
func (l *Lab) Finished() bool {
	return l.Algorithm == "tree" && l.Grower != nil && l.Grower.Done()
}

func (l *Lab) Frame() entity.Frame {
	var (
		nodes   []entity.Node
		edges   []entity.Edge
		points  []entity.Point
		metrics map[string]float64
	)
	switch l.Algorithm {
	case "regression":
		nodes, edges, points, metrics = l.regressionFrame()
	case "backprop":
		nodes, edges, metrics = l.backpropFrame()
	case "tree":
		nodes, edges, points, metrics = l.treeFrame()
	case "digits":
		nodes, points, metrics = l.digitsFrame()
	}
	return entity.NewFrame(l.Name(), nodes, edges, nil, points, metrics)
}

func (l *Lab) regressionFrame() ([]entity.Node, []entity.Edge, []entity.Point, map[string]float64) {
	r := l.Regression
	points := make([]entity.Point, len(r.X))
	for i := range r.X {
		points[i] = entity.Point{X: r.X[i], Y: r.Y[i]}
	}
	nodes := []entity.Node{
		{ID: "fit0", Kind: "fit", Pos: entity.Vec2{X: 0, Y: r.Predict(0)}, Activity: r.Predict(0)},
		{ID: "fit1", Kind: "fit", Pos: entity.Vec2{X: regressionXMax, Y: r.Predict(regressionXMax)}, Activity: r.Predict(regressionXMax)},
	}
	edges := []entity.Edge{{ID: "fit", Source: "fit0", Target: "fit1", Weight: r.Slope, Active: true}}
	return nodes, edges, points, map[string]float64{
		"iteration": float64(r.Iteration),
		"slope":     r.Slope,
		"intercept": r.Intercept,
		"cost":      r.Cost,
	}
}

func layerPos(layer, layers, i, size int) entity.Vec2 {
	x := fieldWidth / 2
	if layers > 1 {
		x = fieldMargin + float64(layer)*(fieldWidth-2*fieldMargin)/float64(layers-1)
	}
	return entity.Vec2{X: x, Y: float64(i+1) * fieldHeight / float64(size+1)}
}

func layerKind(layer, layers int) string {
	switch layer {
	case 0:
		return "input"
	case layers - 1:
		return "output"
	default:
		return "hidden"
	}
}

func (l *Lab) backpropFrame() ([]entity.Node, []entity.Edge, map[string]float64) {
	b := l.Backprop
	forward, phase := b.Phase()
	L := len(b.Shape)

	var nodes []entity.Node
	for layer, size := range b.Shape {
		for n := 0; n < size; n++ {
			nodes = append(nodes, entity.Node{
				ID:       fmt.Sprintf("L%dN%d", layer, n),
				Kind:     layerKind(layer, L),
				Pos:      layerPos(layer, L, n, size),
				Activity: b.Activation(layer, n),
				Min:      0,
				Max:      1,
			})
		}
	}

	var edges []entity.Edge
	for layer := 0; layer < L-1; layer++ {
		active := (forward && layer+1 == phase) || (!forward && layer == phase)
		for a := 0; a < b.Shape[layer]; a++ {
			for c := 0; c < b.Shape[layer+1]; c++ {
				edges = append(edges, entity.Edge{
					ID:     fmt.Sprintf("W%d_%d_%d", layer, a, c),
					Source: fmt.Sprintf("L%dN%d", layer, a),
					Target: fmt.Sprintf("L%dN%d", layer+1, c),
					Weight: b.Weight(layer, a, c),
					Active: active,
				})
			}
		}
	}

	dir := 0.0
	if forward {
		dir = 1
	}
	return nodes, edges, map[string]float64{
		"iteration":     float64(b.Iteration),
		"loss":          b.Loss(),
		"grad_norm":     b.GradNorm(),
		"weight_update": b.WeightUpdate(),
		"phase_layer":   float64(phase),
		"forward":       dir,
	}
}

func treeNodeID(id int) string { return fmt.Sprintf("t%d", id) }

func (l *Lab) treeFrame() ([]entity.Node, []entity.Edge, []entity.Point, map[string]float64) {
	g := l.Grower
	points := make([]entity.Point, len(l.Samples))
	for i, s := range l.Samples {
		points[i] = entity.Point{X: s.X, Y: s.Y, Label: s.Label, Value: 1}
	}

	pos := map[int]entity.Vec2{}
	var place func(n *TreeNode, x, spread float64)
	place = func(n *TreeNode, x, spread float64) {
		if n == nil {
			return
		}
		pos[n.ID] = entity.Vec2{X: x, Y: fieldMargin + float64(n.Depth)*110}
		if !n.Leaf {
			place(n.Left, x-spread, spread/2)
			place(n.Right, x+spread, spread/2)
		}
	}
	place(g.Root, fieldWidth/2, fieldWidth/4)

	var (
		nodes  []entity.Node
		edges  []entity.Edge
		leaves int
	)
	for _, n := range g.Nodes() {
		node := entity.Node{
			ID:       treeNodeID(n.ID),
			Pos:      pos[n.ID],
			Activity: float64(n.Samples),
		}
		if n.Leaf {
			leaves++
			node.Kind = "leaf"
			node.Label = fmt.Sprintf("class %d", n.Label)
		} else {
			node.Kind = "split"
			node.Label = fmt.Sprintf("%s < %g", n.FeatureName(), n.Threshold)
			node.Threshold = n.Threshold
			edges = append(edges,
				entity.Edge{ID: fmt.Sprintf("%s-l", node.ID), Source: node.ID, Target: treeNodeID(n.Left.ID), Weight: float64(n.Left.Samples)},
				entity.Edge{ID: fmt.Sprintf("%s-r", node.ID), Source: node.ID, Target: treeNodeID(n.Right.ID), Weight: float64(n.Right.Samples)},
			)
		}
		nodes = append(nodes, node)
	}

	done := 0.0
	if g.Done() {
		done = 1
	}
	return nodes, edges, points, map[string]float64{
		"nodes":    float64(len(nodes)),
		"leaves":   float64(leaves),
		"depth":    float64(TreeDepth(g.Root)),
		"accuracy": Accuracy(g.Root, l.Samples),
		"done":     done,
	}
}

func (l *Lab) digitsFrame() ([]entity.Node, []entity.Point, map[string]float64) {
	var points []entity.Point
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if v := l.Grid[r][c]; v > 0 {
				points = append(points, entity.Point{X: float64(c), Y: float64(r), Value: v})
			}
		}
	}

	nodes := make([]entity.Node, 10)
	for d := range nodes {
		nodes[d] = entity.Node{
			ID:       fmt.Sprintf("d%d", d),
			Kind:     "digit",
			Label:    fmt.Sprintf("%d", d),
			Pos:      entity.Vec2{X: fieldMargin + float64(d)*(fieldWidth-2*fieldMargin)/9, Y: fieldHeight - fieldMargin},
			Activity: l.Prediction.Probs[d],
			Min:      0,
			Max:      1,
		}
	}

	p := l.Prediction
	glyph := GlyphDigits[l.Glyph]
	return nodes, points, map[string]float64{
		"glyph":          float64(glyph),
		"predicted":      float64(p.Digit),
		"confidence":     p.Confidence,
		"correct":        indicator(p.Digit == glyph),
		"low_confidence": indicator(p.LowConfidence),
		"holes":          float64(p.Features.Holes),
		"aspect":         p.Features.Aspect,
		"v_symmetry":     p.Features.VSym,
		"h_symmetry":     p.Features.HSym,
	}
}

func (l *Lab) Inspect(id string) (sim.Detail, bool) {
	switch l.Algorithm {
	case "regression":
		if id == "fit" || id == "fit0" || id == "fit1" {
			r := l.Regression
			return sim.Detail{ID: id, Kind: "fit", Values: map[string]float64{
				"slope": r.Slope, "intercept": r.Intercept, "cost": r.Cost,
			}}, true
		}
	case "backprop":
		var layer, n int
		if _, err := fmt.Sscanf(id, "L%dN%d", &layer, &n); err == nil &&
			layer >= 0 && layer < len(l.Backprop.Shape) && n >= 0 && n < l.Backprop.Shape[layer] {
			return sim.Detail{ID: id, Kind: layerKind(layer, len(l.Backprop.Shape)), Values: map[string]float64{
				"layer":      float64(layer),
				"index":      float64(n),
				"activation": l.Backprop.Activation(layer, n),
				"gradient":   l.Backprop.Gradient(layer, n),
			}}, true
		}
	case "tree":
		for _, n := range l.Grower.Nodes() {
			if treeNodeID(n.ID) != id {
				continue
			}
			d := sim.Detail{ID: id, Kind: "leaf", Values: map[string]float64{
				"depth":   float64(n.Depth),
				"samples": float64(n.Samples),
				"label":   float64(n.Label),
			}}
			if !n.Leaf {
				d.Kind = "split"
				d.Values["threshold"] = n.Threshold
				d.Values["score"] = n.Score
				d.Labels = map[string]string{"feature": n.FeatureName()}
			}
			if parent := l.Grower.Parent(n.ID); parent != nil {
				if d.Labels == nil {
					d.Labels = map[string]string{}
				}
				d.Labels["parent"] = treeNodeID(parent.ID)
				d.Values["parent_threshold"] = parent.Threshold
			}
			return d, true
		}
	case "digits":
		var digit int
		if _, err := fmt.Sscanf(id, "d%d", &digit); err == nil && digit >= 0 && digit <= 9 {
			return sim.Detail{ID: id, Kind: "digit", Values: map[string]float64{
				"probability": l.Prediction.Probs[digit],
			}}, true
		}
	}
	return sim.Detail{}, false
}

func (l *Lab) GetParams() map[string]float64 {
	return map[string]float64{
		"learning_rate": l.LearningRate,
		"max_depth":     float64(l.MaxDepth),
		"min_samples":   float64(l.MinSamples),
		"glyph_hold":    float64(l.GlyphHold),
	}
}

// SetParam applies the learning rate immediately; the tree limits take
// effect on the next reset.
func (l *Lab) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return sim.InvalidParam(name, value)
	}
	switch name {
	case "learning_rate":
		if value <= 0 || value > 1 {
			return sim.InvalidParam(name, value)
		}
		l.LearningRate = value
		if l.Regression != nil {
			l.Regression.LearningRate = value
		}
		if l.Backprop != nil {
			l.Backprop.LearningRate = value
		}
	case "max_depth":
		if value < 0 || value > 10 {
			return sim.InvalidParam(name, value)
		}
		l.MaxDepth = int(value)
	case "min_samples":
		if value < 1 {
			return sim.InvalidParam(name, value)
		}
		l.MinSamples = int(value)
	case "glyph_hold":
		if value < 1 {
			return sim.InvalidParam(name, value)
		}
		l.GlyphHold = int(value)
	default:
		return sim.UnknownParam(name)
	}
	return nil
}

func (l *Lab) Options() map[string]string {
	return map[string]string{"algorithm": l.Algorithm}
}

func (l *Lab) SetOption(name, value string) (bool, error) {
	if name != "algorithm" {
		return false, sim.UnknownOption(name, value)
	}
	if !slices.Contains(algorithms, value) {
		return false, sim.UnknownOption(name, value)
	}
	changed := l.Algorithm != value
	l.Algorithm = value
	return changed, nil
}
