package ml

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/neurosim/internal/entity"
)

const (
	GridSize      = 28
	InkThreshold  = 0.3
	MinHoleCells  = 3
	MinTotalInk   = 1.0
	uniformChance = 0.1
)

type Grid [GridSize][GridSize]float64

func (g *Grid) Total() float64 {
	sum := 0.0
	for r := range g {
		for c := range g[r] {
			sum += g[r][c]
		}
	}
	return sum
}

// sanitized copies g with every cell forced into [0,1]; non-finite cells
// become background.
func (g *Grid) sanitized() Grid {
	var out Grid
	for r := range g {
		for c, v := range g[r] {
			out[r][c] = clamp01(entity.Finite(v, 0))
		}
	}
	return out
}

func (g *Grid) ink(r, c int) bool { return g[r][c] >= InkThreshold }

// Features are the hand-picked shape measurements the classifier scores.
type Features struct {
	Holes     int     `json:"holes"`
	HoleY     float64 `json:"hole_y"`
	HoleArea  float64 `json:"hole_area"`
	VSym      float64 `json:"v_symmetry"`
	HSym      float64 `json:"h_symmetry"`
	Aspect    float64 `json:"aspect"`
	TopInk    float64 `json:"top_ink"`
	Ink       float64 `json:"ink"`
	MinR      int     `json:"-"`
	MaxR      int     `json:"-"`
	MinC      int     `json:"-"`
	MaxC      int     `json:"-"`
	Populated bool    `json:"-"`
}

type Prediction struct {
	Digit         int         `json:"digit"`
	Confidence    float64     `json:"confidence"`
	Probs         [10]float64 `json:"probs"`
	LowConfidence bool        `json:"low_confidence"`
	Features      Features    `json:"features"`
}

var dirs = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Extract measures enclosed regions, symmetry and proportions of the ink.
func Extract(g *Grid) Features {
	f := Features{Ink: g.Total(), MinR: GridSize, MinC: GridSize, MaxR: -1, MaxC: -1}
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if !g.ink(r, c) {
				continue
			}
			f.MinR, f.MaxR = min(f.MinR, r), max(f.MaxR, r)
			f.MinC, f.MaxC = min(f.MinC, c), max(f.MaxC, c)
		}
	}
	if f.MaxR < 0 {
		return f
	}
	f.Populated = true

	height := f.MaxR - f.MinR + 1
	width := f.MaxC - f.MinC + 1
	f.Aspect = float64(width) / float64(height)

	f.countHoles(g, width*height)
	f.VSym, f.HSym = symmetry(g, f.MinR, f.MaxR, f.MinC, f.MaxC)

	top, total := 0.0, 0.0
	cut := f.MinR + height/4
	for r := f.MinR; r <= f.MaxR; r++ {
		for c := f.MinC; c <= f.MaxC; c++ {
			if !g.ink(r, c) {
				continue
			}
			total += g[r][c]
			if r <= cut {
				top += g[r][c]
			}
		}
	}
	if total > 0 {
		f.TopInk = top / total
	}
	return f
}

// countHoles flood fills the background from the border; whatever
// background is left unreached is enclosed by ink.
func (f *Features) countHoles(g *Grid, bboxArea int) {
	var seen [GridSize][GridSize]bool
	fill := func(sr, sc int) (cells int, sumR float64) {
		stack := [][2]int{{sr, sc}}
		seen[sr][sc] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cells++
			sumR += float64(p[0])
			for _, d := range dirs {
				r, c := p[0]+d[0], p[1]+d[1]
				if r < 0 || r >= GridSize || c < 0 || c >= GridSize {
					continue
				}
				if seen[r][c] || g.ink(r, c) {
					continue
				}
				seen[r][c] = true
				stack = append(stack, [2]int{r, c})
			}
		}
		return cells, sumR
	}

	for i := 0; i < GridSize; i++ {
		for _, p := range [][2]int{{0, i}, {GridSize - 1, i}, {i, 0}, {i, GridSize - 1}} {
			if !seen[p[0]][p[1]] && !g.ink(p[0], p[1]) {
				fill(p[0], p[1])
			}
		}
	}

	largest := 0
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if seen[r][c] || g.ink(r, c) {
				continue
			}
			cells, sumR := fill(r, c)
			if cells < MinHoleCells {
				continue
			}
			f.Holes++
			if cells > largest {
				largest = cells
				height := float64(f.MaxR - f.MinR + 1)
				f.HoleY = (sumR/float64(cells) - float64(f.MinR) + 0.5) / height
				f.HoleArea = float64(cells) / float64(bboxArea)
			}
		}
	}
}

// symmetry compares the ink with its left-right and top-bottom mirror
// images inside the bounding box.
func symmetry(g *Grid, r0, r1, c0, c1 int) (vertical, horizontal float64) {
	n := float64((r1 - r0 + 1) * (c1 - c0 + 1))
	var dv, dh float64
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			dv += math.Abs(g[r][c] - g[r][c0+c1-c])
			dh += math.Abs(g[r][c] - g[r0+r1-r][c])
		}
	}
	return 1 - dv/n, 1 - dh/n
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

// Scores are hand-tuned evidence per digit; higher is more likely.
func Scores(f Features) [10]float64 {
	h0 := indicator(f.Holes == 0)
	h1 := indicator(f.Holes == 1)
	h2 := indicator(f.Holes >= 2)

	mid := 1 - clamp01(math.Abs(f.HoleY-0.5)*4)
	upper := clamp01((0.45 - f.HoleY) * 5)
	lower := clamp01((f.HoleY - 0.55) * 5)
	narrow := clamp01((0.5 - f.Aspect) / 0.3)
	big := clamp01(f.HoleArea / 0.3)

	var s [10]float64
	s[0] = h1*(2+2*mid+2*big) + f.VSym + f.HSym - 2*narrow
	s[1] = h0*(1+5*narrow) - 2*(1-h0)
	s[2] = h0*(1.5+(1-f.VSym)) - 2*narrow
	s[3] = h0*(1.2+f.HSym) - 2*narrow
	s[4] = h1*(2+2*upper*(1-big)) - narrow
	s[5] = h0*(1.3+0.5*(1-f.HSym)) - 2*narrow
	s[6] = h1*(2+3*lower*(1-big)) - narrow
	s[7] = h0*(1+4*f.TopInk) - 2*narrow
	s[8] = 6*h2 + f.VSym
	s[9] = h1*(2+3*upper*(1-big)) - narrow
	return s
}

// Softmax subtracts the maximum before exponentiating so large scores do
// not overflow.
func Softmax(s []float64) []float64 {
	if len(s) == 0 {
		return nil
	}
	m := s[0]
	for _, v := range s[1:] {
		m = math.Max(m, v)
	}
	out := make([]float64, len(s))
	sum := 0.0
	for i, v := range s {
		out[i] = math.Exp(v - m)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Classify returns a probability per digit. A grid with almost no ink gets
// the uniform distribution and Digit -1.
func Classify(g *Grid) Prediction {
	clean := g.sanitized()
	f := Extract(&clean)
	if f.Ink < MinTotalInk || !f.Populated {
		p := Prediction{Digit: -1, Confidence: uniformChance, LowConfidence: true, Features: f}
		for i := range p.Probs {
			p.Probs[i] = uniformChance
		}
		return p
	}

	s := Scores(f)
	probs := Softmax(s[:])
	p := Prediction{Features: f}
	copy(p.Probs[:], probs)
	for i, v := range p.Probs {
		if v > p.Probs[p.Digit] {
			p.Digit = i
		}
	}
	p.Confidence = p.Probs[p.Digit]
	return p
}

// ParseGrid reads up to 28 rows. A row is either 28 whitespace separated
// intensities or ASCII art where '#', '@' and 'X' are full ink, '+' half ink
// and anything else background. Missing cells stay empty.
func ParseGrid(r io.Reader) (*Grid, error) {
	var g Grid
	sc := bufio.NewScanner(r)
	row := 0
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if row >= GridSize {
			return nil, fmt.Errorf("grid has more than %d rows", GridSize)
		}
		if fields := strings.Fields(line); len(fields) == GridSize {
			if err := parseNumericRow(&g, row, fields); err == nil {
				row++
				continue
			}
		}
		if len(line) > GridSize {
			return nil, fmt.Errorf("row %d has %d columns, max %d", row+1, len(line), GridSize)
		}
		for c, ch := range []byte(line) {
			switch ch {
			case '#', '@', 'X':
				g[row][c] = 1
			case '+':
				g[row][c] = 0.5
			}
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	return &g, nil
}

func parseNumericRow(g *Grid, row int, fields []string) error {
	var vals [GridSize]float64
	for c, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		vals[c] = clamp01(v)
	}
	g[row] = vals
	return nil
}

func (g *Grid) String() string {
	var b strings.Builder
	for r := range g {
		for c := range g[r] {
			switch {
			case g[r][c] >= 0.75:
				b.WriteByte('#')
			case g[r][c] >= InkThreshold:
				b.WriteByte('+')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
