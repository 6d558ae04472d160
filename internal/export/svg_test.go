package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/metrics"
	"github.com/san-kum/neurosim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 2, viz.ThemeCortex))

	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(3, 5)
	out := CanvasToSVG(c, 2, viz.ThemePaper)

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, `fill="#fafafa"`)
	assert.Contains(t, out, `width="16" height="16"`)
}

func TestFrameToSVG(t *testing.T) {
	f := entity.Frame{
		Sim:       "bnn",
		Iteration: 7,
		Nodes: []entity.Node{
			{ID: "n0", Label: "<pyramidal>", Pos: entity.Vec2{X: 0, Y: 0}, Activity: 30, Threshold: -55, Min: -70, Max: 40},
			{ID: "n1", Pos: entity.Vec2{X: 50, Y: 50}, Activity: -70, Threshold: -55, Min: -70, Max: 40},
		},
		Edges: []entity.Edge{
			{ID: "n0>n1", Source: "n0", Target: "n1", Weight: 0.8, Active: true},
			{ID: "n1>n0", Source: "n1", Target: "n0", Weight: -0.5},
			{ID: "n1>x", Source: "n1", Target: "x", Weight: 1},
		},
		Signals:  []entity.Signal{{ID: "s0", Source: "n0", Target: "n1", Progress: 0.5}},
		Selected: "n1",
	}
	theme := viz.ThemeCortex
	out := FrameToSVG(f, 200, 100, theme)

	assert.Equal(t, 2, strings.Count(out, "<line"), "edges to unknown nodes are skipped")
	assert.Contains(t, out, string(theme.Inhibitory))
	assert.Contains(t, out, "stroke-dasharray")
	assert.Contains(t, out, `fill="`+string(theme.Firing)+`"`)
	assert.Contains(t, out, "&lt;pyramidal&gt;")
	assert.Contains(t, out, `r="11"`)
	assert.Contains(t, out, "iteration 7")
}

func TestSeriesToSVG(t *testing.T) {
	s := metrics.NewSeries()
	assert.Empty(t, SeriesToSVG(s, nil, 100, 50, viz.ThemeCortex))

	for i := 0; i < 5; i++ {
		s.Append(entity.Frame{Iteration: i, Time: float64(i), Metrics: map[string]float64{
			"loss":     1 / float64(i+1),
			"accuracy": float64(i) / 4,
		}})
	}

	out := SeriesToSVG(s, nil, 100, 50, viz.ThemeCortex)
	assert.Equal(t, 2, strings.Count(out, "<path"))
	assert.Contains(t, out, ">accuracy<")
	assert.Contains(t, out, ">loss<")

	names := []string{"loss", "missing"}
	out = SeriesToSVG(s, names, 100, 50, viz.ThemeCortex)
	assert.Equal(t, 1, strings.Count(out, "<path"))
	assert.Equal(t, []string{"loss", "missing"}, names)
}
