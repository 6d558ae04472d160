package ml

import (
	"math"
	"math/rand"
)

// GlyphDigits lists the built-in sample digits the lab cycles through.
var GlyphDigits = []int{0, 1, 7, 8}

func ellipseRing(g *Grid, cr, cc, rr, rc, inner float64) {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			dr := (float64(r) - cr) / rr
			dc := (float64(c) - cc) / rc
			d := math.Sqrt(dr*dr + dc*dc)
			if d >= inner && d <= 1 {
				g[r][c] = 1
			}
		}
	}
}

// Glyph draws a clean rendition of digit. Digits without a built-in glyph
// return an empty grid.
func Glyph(digit int) *Grid {
	var g Grid
	switch digit {
	case 0:
		ellipseRing(&g, 13.5, 13.5, 10, 7, 0.7)
	case 1:
		for r := 4; r <= 23; r++ {
			g[r][13], g[r][14] = 1, 1
		}
	case 7:
		for c := 7; c <= 20; c++ {
			g[4][c], g[5][c] = 1, 1
		}
		for r := 6; r <= 23; r++ {
			c := 20 - (r-6)*9/17
			g[r][c], g[r][c+1] = 1, 1
		}
	case 8:
		ellipseRing(&g, 9, 13.5, 4.5, 5, 0.55)
		ellipseRing(&g, 19, 13.5, 5.5, 6, 0.6)
	}
	return &g
}

// Speckle adds faint background noise below the ink threshold to roughly
// frac of the cells.
func Speckle(g *Grid, rng *rand.Rand, frac float64) {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if g[r][c] == 0 && rng.Float64() < frac {
				g[r][c] = rng.Float64() * 0.2
			}
		}
	}
}
