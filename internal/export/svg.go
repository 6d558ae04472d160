package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/metrics"
	"github.com/san-kum/neurosim/internal/viz"
)

// Braille dot-to-bit mapping
var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func header(sb *strings.Builder, width, height float64, bg string) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, bg))
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64, theme viz.Theme) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	header(&sb, width, height, string(theme.Background))
	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", theme.Node))

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius))
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FrameToSVG draws a frame as vector shapes using the same layout as the
// terminal view. Inhibitory edges (negative weight) use the theme's
// inhibitory color and idle edges are dashed.
func FrameToSVG(f entity.Frame, width, height int, theme viz.Theme) string {
	var sb strings.Builder
	header(&sb, float64(width), float64(height), string(theme.Background))

	gv, pv := viz.Layout(f, width, height)
	idx := entity.NewIndex(f.Nodes)
	sb.WriteString("<g stroke-width=\"1\">\n")
	for _, e := range f.Edges {
		si, ok1 := idx.Lookup(e.Source)
		ti, ok2 := idx.Lookup(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		x0, y0 := gv.Map(f.Nodes[si].Pos)
		x1, y1 := gv.Map(f.Nodes[ti].Pos)
		color := theme.Edge
		if e.Weight < 0 {
			color = theme.Inhibitory
		}
		dash := ""
		if !e.Active {
			dash = ` stroke-dasharray="3,3"`
		}
		sb.WriteString(fmt.Sprintf("<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"%s\"%s/>\n", x0, y0, x1, y1, color, dash))
	}
	sb.WriteString("</g>\n")

	if len(f.Points) > 0 {
		sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", theme.Secondary))
		for _, p := range f.Points {
			x, y := pv.Map(entity.Vec2{X: p.X, Y: p.Y})
			sb.WriteString(fmt.Sprintf("<circle cx=\"%d\" cy=\"%d\" r=\"2\"/>\n", x, y))
		}
		sb.WriteString("</g>\n")
	}

	for _, n := range f.Nodes {
		x, y := gv.Map(n.Pos)
		level := viz.NodeLevel(n)
		fill := theme.Node
		if level > 0.5 {
			fill = theme.Firing
		}
		sb.WriteString(fmt.Sprintf("<circle cx=\"%d\" cy=\"%d\" r=\"%.1f\" fill=\"%s\" fill-opacity=\"%.2f\"><title>%s</title></circle>\n",
			x, y, 4+4*level, fill, 0.4+0.6*level, escape(nodeTitle(n))))
		if n.ID == f.Selected {
			sb.WriteString(fmt.Sprintf("<circle cx=\"%d\" cy=\"%d\" r=\"11\" fill=\"none\" stroke=\"%s\"/>\n", x, y, theme.Primary))
		}
	}

	if len(f.Signals) > 0 {
		sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", theme.Signal))
		for _, s := range f.Signals {
			x, y := gv.Map(f.SignalPos(s))
			sb.WriteString(fmt.Sprintf("<circle cx=\"%d\" cy=\"%d\" r=\"2\"/>\n", x, y))
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString(fmt.Sprintf("<text x=\"8\" y=\"16\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s  iteration %d  t=%.1f</text>\n",
		theme.Text, escape(f.Sim), f.Iteration, f.Time))
	sb.WriteString("</svg>")
	return sb.String()
}

func nodeTitle(n entity.Node) string {
	label := n.ID
	if n.Label != "" {
		label = n.Label
	}
	return fmt.Sprintf("%s %.3f", label, n.Activity)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}

// SeriesToSVG plots recorded metric columns against iteration, one path per
// metric, each normalized to the plot height.
func SeriesToSVG(series *metrics.Series, names []string, width, height int, theme viz.Theme) string {
	if series == nil || series.Len() < 2 {
		return ""
	}
	if len(names) == 0 {
		names = series.Names()
	} else {
		names = append([]string(nil), names...)
		sort.Strings(names)
	}

	palette := []string{string(theme.Primary), string(theme.Secondary), string(theme.Signal), string(theme.Firing), string(theme.Warning)}

	var sb strings.Builder
	header(&sb, float64(width), float64(height), string(theme.Background))

	n := series.Len()
	for i, name := range names {
		col, ok := series.Column(name)
		if !ok || len(col) != n {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range col {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		span := hi - lo
		if span == 0 {
			span = 1
		}

		color := palette[i%len(palette)]
		sb.WriteString(fmt.Sprintf("<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"M", color))
		for j, v := range col {
			x := float64(j) / float64(n-1) * float64(width)
			y := float64(height) - (v-lo)/span*float64(height-20) - 10
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf("<text x=\"8\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"11\">%s</text>\n", 16+14*i, color, escape(name)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
