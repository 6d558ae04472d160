package ml

import (
	"math"
	"math/rand"
)

const (
	TreeSamples       = 60
	TreeClasses       = 3
	DefaultMaxDepth   = 4
	DefaultMinSamples = 5
	treeGridMax       = 10
)

type Sample struct {
	X, Y  float64
	Label int
}

func (s Sample) feature(f int) float64 {
	if f == 0 {
		return s.X
	}
	return s.Y
}

var featureNames = [2]string{"x", "y"}

// TreeNode is either a split on Feature < Threshold or a leaf.
type TreeNode struct {
	ID        int
	Depth     int
	Leaf      bool
	Label     int
	Feature   int
	Threshold float64
	Score     float64
	Samples   int
	Left      *TreeNode
	Right     *TreeNode
}

func (n *TreeNode) FeatureName() string { return featureNames[n.Feature] }

// Predict walks the tree from n to a leaf.
func (n *TreeNode) Predict(x, y float64) int {
	cur := n
	for cur != nil && !cur.Leaf {
		v := x
		if cur.Feature == 1 {
			v = y
		}
		if v < cur.Threshold {
			cur = cur.Left
		} else {
			cur = cur.Right
		}
	}
	if cur == nil {
		return -1
	}
	return cur.Label
}

// GenerateSamples draws labeled points on the integer grid. The class is
// a function of position with a little label noise so the tree has
// something to separate.
func GenerateSamples(rng *rand.Rand, n int) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		x := float64(rng.Intn(treeGridMax + 1))
		y := float64(rng.Intn(treeGridMax + 1))
		label := 2
		switch {
		case x < 4:
			label = 0
		case y < 5:
			label = 1
		}
		if rng.Float64() < 0.1 {
			label = rng.Intn(TreeClasses)
		}
		samples[i] = Sample{X: x, Y: y, Label: label}
	}
	return samples
}

// bestSplit tries feature x then y with thresholds 1..9. The score favours
// balanced partitions; empty partitions are skipped and ties keep the first
// candidate.
func bestSplit(samples []Sample) (feature int, threshold, score float64, ok bool) {
	n := float64(len(samples))
	score = math.Inf(-1)
	for f := 0; f < 2; f++ {
		for t := 1; t <= 9; t++ {
			th := float64(t)
			left := 0
			for _, s := range samples {
				if s.feature(f) < th {
					left++
				}
			}
			right := len(samples) - left
			if left == 0 || right == 0 {
				continue
			}
			sc := 1 - math.Abs(float64(left-right))/n
			if sc > score {
				feature, threshold, score, ok = f, th, sc, true
			}
		}
	}
	return feature, threshold, score, ok
}

// majority returns the most common label; ties go to the label seen first.
// It returns -1 for no samples.
func majority(samples []Sample) int {
	counts := map[int]int{}
	var order []int
	for _, s := range samples {
		if _, seen := counts[s.Label]; !seen {
			order = append(order, s.Label)
		}
		counts[s.Label]++
	}
	best, bestCount := -1, 0
	for _, l := range order {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}

func partition(samples []Sample, feature int, threshold float64) (left, right []Sample) {
	for _, s := range samples {
		if s.feature(feature) < threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return left, right
}

type pending struct {
	node    *TreeNode
	samples []Sample
}

// TreeGrower builds a decision tree one node per call in breadth-first
// order. Nodes waiting in the queue are provisional majority leaves, so the
// partial tree can already predict.
type TreeGrower struct {
	Root       *TreeNode
	MaxDepth   int
	MinSamples int

	queue  []pending
	nextID int
	nodes  []*TreeNode
}

func NewTreeGrower(samples []Sample, maxDepth, minSamples int) *TreeGrower {
	g := &TreeGrower{MaxDepth: maxDepth, MinSamples: minSamples}
	g.Root = g.newNode(samples, 0)
	g.queue = []pending{{node: g.Root, samples: samples}}
	return g
}

func (g *TreeGrower) newNode(samples []Sample, depth int) *TreeNode {
	n := &TreeNode{ID: g.nextID, Depth: depth, Leaf: true, Label: majority(samples), Samples: len(samples)}
	g.nextID++
	g.nodes = append(g.nodes, n)
	return n
}

// Grow settles the next queued node as a split or a leaf. It returns false
// once the queue is empty.
func (g *TreeGrower) Grow() bool {
	if len(g.queue) == 0 {
		return false
	}
	p := g.queue[0]
	g.queue = g.queue[1:]

	if p.node.Depth >= g.MaxDepth || len(p.samples) < g.MinSamples {
		return true
	}
	f, th, sc, ok := bestSplit(p.samples)
	if !ok {
		return true
	}
	left, right := partition(p.samples, f, th)

	n := p.node
	n.Leaf = false
	n.Feature, n.Threshold, n.Score = f, th, sc
	n.Left = g.newNode(left, n.Depth+1)
	n.Right = g.newNode(right, n.Depth+1)
	g.queue = append(g.queue, pending{n.Left, left}, pending{n.Right, right})
	return true
}

func (g *TreeGrower) Done() bool { return len(g.queue) == 0 }

// Nodes returns every node created so far in breadth-first order.
func (g *TreeGrower) Nodes() []*TreeNode { return g.nodes }

func (g *TreeGrower) Parent(id int) *TreeNode {
	for _, n := range g.nodes {
		if n.Leaf {
			continue
		}
		if n.Left.ID == id || n.Right.ID == id {
			return n
		}
	}
	return nil
}

// BuildTree grows the complete tree at once.
func BuildTree(samples []Sample, maxDepth, minSamples int) *TreeNode {
	g := NewTreeGrower(samples, maxDepth, minSamples)
	for g.Grow() {
	}
	return g.Root
}

func TreeDepth(n *TreeNode) int {
	if n == nil {
		return 0
	}
	if n.Leaf {
		return n.Depth
	}
	return max(TreeDepth(n.Left), TreeDepth(n.Right))
}

func Accuracy(root *TreeNode, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for _, s := range samples {
		if root.Predict(s.X, s.Y) == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}
