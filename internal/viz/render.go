package viz

import (
	"math"

	"github.com/san-kum/neurosim/internal/entity"
)

// Viewport maps a rectangle of frame coordinates onto a rectangle of canvas
// sub-pixels.
type Viewport struct {
	MinX, MinY, MaxX, MaxY float64
	X, Y, W, H             int
	FlipY                  bool
}

func (v Viewport) Map(p entity.Vec2) (int, int) {
	fx := (p.X - v.MinX) / (v.MaxX - v.MinX)
	fy := (p.Y - v.MinY) / (v.MaxY - v.MinY)
	if v.FlipY {
		fy = 1 - fy
	}
	return v.X + int(math.Round(fx*float64(v.W-1))), v.Y + int(math.Round(fy*float64(v.H-1)))
}

type bounds struct {
	minX, minY, maxX, maxY float64
	ok                     bool
}

func (b *bounds) add(x, y float64) {
	if !b.ok {
		*b = bounds{x, y, x, y, true}
		return
	}
	b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
	b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
}

func (b bounds) overlaps(o bounds) bool {
	return b.ok && o.ok && b.minX <= o.maxX && o.minX <= b.maxX && b.minY <= o.maxY && o.minY <= b.maxY
}

func (b bounds) union(o bounds) bounds {
	if !b.ok {
		return o
	}
	if o.ok {
		b.add(o.minX, o.minY)
		b.add(o.maxX, o.maxY)
	}
	return b
}

func (b bounds) viewport(x, y, w, h int, flip bool) Viewport {
	padX := (b.maxX - b.minX) * 0.05
	padY := (b.maxY - b.minY) * 0.05
	if padX == 0 {
		padX = 1
	}
	if padY == 0 {
		padY = 1
	}
	return Viewport{
		MinX: b.minX - padX, MaxX: b.maxX + padX,
		MinY: b.minY - padY, MaxY: b.maxY + padY,
		X: x, Y: y, W: w, H: h,
		FlipY: flip,
	}
}

// Layout picks viewports for the graph (nodes, edges, signals) and the
// sample points of a frame. Points that share the graph's coordinate space,
// such as regression data and its fit line, get one shared y-up viewport;
// otherwise the points take the left third of the canvas.
func Layout(f entity.Frame, pw, ph int) (graph, points Viewport) {
	var nb, pb bounds
	for _, n := range f.Nodes {
		nb.add(n.Pos.X, n.Pos.Y)
	}
	for _, p := range f.Points {
		pb.add(p.X, p.Y)
	}

	switch {
	case !pb.ok:
		graph = nb.viewport(0, 0, pw, ph, false)
		return graph, graph
	case !nb.ok:
		points = pb.viewport(0, 0, pw, ph, false)
		return points, points
	case nb.overlaps(pb):
		shared := nb.union(pb).viewport(0, 0, pw, ph, true)
		return shared, shared
	}
	split := pw / 3
	return nb.viewport(split, 0, pw-split, ph, false), pb.viewport(0, 0, split, ph, false)
}

// RenderFrame draws f onto c. Idle edges are dotted, nodes above threshold
// are filled and the selected entity gets a halo.
func RenderFrame(c *Canvas, f entity.Frame) {
	c.Clear()
	pw, ph := c.PixelSize()
	gv, pv := Layout(f, pw, ph)

	for _, p := range f.Points {
		x, y := pv.Map(entity.Vec2{X: p.X, Y: p.Y})
		c.Set(x, y)
	}

	idx := entity.NewIndex(f.Nodes)
	for _, e := range f.Edges {
		si, ok1 := idx.Lookup(e.Source)
		ti, ok2 := idx.Lookup(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		x0, y0 := gv.Map(f.Nodes[si].Pos)
		x1, y1 := gv.Map(f.Nodes[ti].Pos)
		if e.Active {
			c.DrawLine(x0, y0, x1, y1)
		} else {
			c.DrawDotted(x0, y0, x1, y1)
		}
	}

	for _, n := range f.Nodes {
		x, y := gv.Map(n.Pos)
		if NodeLevel(n) > 0.5 {
			c.Disc(x, y, 2)
		} else {
			c.Ring(x, y, 2)
		}
		if n.ID == f.Selected {
			c.Ring(x, y, 4)
		}
	}

	for _, s := range f.Signals {
		x, y := gv.Map(f.SignalPos(s))
		c.Disc(x, y, 1)
	}
}

// NodeLevel is a node's activity on a 0..1 scale. Nodes without a range
// report 1 when above their threshold.
func NodeLevel(n entity.Node) float64 {
	if n.Max > n.Min {
		if n.Threshold > n.Min && n.Threshold < n.Max && n.Activity > n.Threshold {
			return 1
		}
		return entity.Clamp((n.Activity-n.Min)/(n.Max-n.Min), 0, 1)
	}
	if n.Activity > n.Threshold {
		return 1
	}
	return 0
}
