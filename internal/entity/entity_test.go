package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalAdvanceAndExpiry(t *testing.T) {
	s := Signal{ID: "s", Source: "a", Target: "b", Born: 0}
	for i := 0; i < 19; i++ {
		s.Advance(0.05)
	}
	assert.False(t, s.Expired(19, 100))

	s.Advance(0.5)
	assert.Equal(t, 1.0, s.Progress)
	assert.True(t, s.Expired(20, 100))

	old := Signal{Progress: 0.2, Born: 0}
	assert.True(t, old.Expired(101, 100))
	assert.False(t, old.Expired(101, 0))
}

func TestSweep(t *testing.T) {
	signals := []Signal{
		{ID: "a", Progress: 1},
		{ID: "b", Progress: 0.4},
		{ID: "c", Progress: 0.1, Born: -500},
		{ID: "d", Progress: 0.9},
	}
	kept, removed := Sweep(signals, 0, 100)
	require.Len(t, kept, 2)
	assert.Equal(t, 2, removed)
	assert.Equal(t, "b", kept[0].ID)
	assert.Equal(t, "d", kept[1].ID)
}

func TestValidateEdges(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}

	assert.NoError(t, ValidateEdges(nodes, []Edge{{ID: "e", Source: "a", Target: "b"}}))
	assert.Error(t, ValidateEdges(nodes, []Edge{{ID: "e", Source: "a", Target: "z"}}))
	assert.Error(t, ValidateEdges(nodes, []Edge{{ID: "e", Source: "z", Target: "a"}}))
}

func TestIndexAndAdjacency(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	idx := NewIndex(nodes)
	i, ok := idx.Lookup("c")
	require.True(t, ok)
	assert.Equal(t, 2, i)

	edges := []Edge{
		{ID: "ab", Source: "a", Target: "b"},
		{ID: "ac", Source: "a", Target: "c"},
		{ID: "bc", Source: "b", Target: "c"},
	}
	adj := NewAdjacency(edges)
	assert.Equal(t, []int{0, 1}, adj.Out["a"])
	assert.Equal(t, []int{1, 2}, adj.In["c"])
	assert.Empty(t, adj.In["a"])
}

func TestNodeClamp(t *testing.T) {
	n := Node{Activity: 2, Min: 0, Max: 1}
	n.Clamp()
	assert.Equal(t, 1.0, n.Activity)

	unbounded := Node{Activity: 42}
	unbounded.Clamp()
	assert.Equal(t, 42.0, unbounded.Activity)
}

func TestFrameSanitize(t *testing.T) {
	f := NewFrame("test",
		[]Node{{ID: "a", Pos: Vec2{X: math.NaN(), Y: 3}, Activity: math.Inf(1), Min: -70, Max: 40}},
		[]Edge{{ID: "e", Source: "a", Target: "a", Weight: math.NaN()}},
		nil,
		[]Point{{X: math.Inf(-1), Y: 1}},
		map[string]float64{"loss": math.NaN(), "ok": 1},
	)

	fixed := f.Sanitize()
	assert.Equal(t, 5, fixed)
	assert.Equal(t, 0.0, f.Nodes[0].Pos.X)
	assert.Equal(t, 3.0, f.Nodes[0].Pos.Y)
	assert.Equal(t, -70.0, f.Nodes[0].Activity)
	assert.Equal(t, 0.0, f.Edges[0].Weight)
	assert.Equal(t, 0.0, f.Points[0].X)
	assert.Equal(t, 0.0, f.Metrics["loss"])
	assert.Equal(t, 1.0, f.Metrics["ok"])
}

func TestFrameDoesNotAlias(t *testing.T) {
	nodes := []Node{{ID: "a", Activity: 1}}
	f := NewFrame("test", nodes, nil, nil, nil, nil)
	nodes[0].Activity = 99
	assert.Equal(t, 1.0, f.Nodes[0].Activity)
}

func TestSignalPos(t *testing.T) {
	f := NewFrame("test",
		[]Node{{ID: "a", Pos: Vec2{X: 0, Y: 0}}, {ID: "b", Pos: Vec2{X: 10, Y: 20}}},
		nil, nil, nil, nil)

	p := f.SignalPos(Signal{Source: "a", Target: "b", Progress: 0.5})
	assert.Equal(t, Vec2{X: 5, Y: 10}, p)

	p = f.SignalPos(Signal{Source: "b", Progress: 0.5})
	assert.Equal(t, Vec2{X: 10, Y: 20}, p)

	p = f.SignalPos(Signal{Source: "missing"})
	assert.Equal(t, Vec2{}, p)
}
