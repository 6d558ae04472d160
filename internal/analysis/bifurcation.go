package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/neurosim/internal/sim"
)

// ResponsePoint holds the distinct values a metric settled into for one
// parameter value.
type ResponsePoint struct {
	Param  float64
	Values []float64
}

// ResponseDiagram sweeps a parameter over [paramMin, paramMax] and, for each value,
// runs a fresh session for transient ticks before recording the distinct
// values of metric over the next record ticks. Values are quantized to three
// decimals before de-duplication.
func ResponseDiagram(
	ctx context.Context,
	factory func() sim.Simulation,
	cfg sim.Config,
	param string,
	paramMin, paramMax float64,
	steps int,
	metric string,
	transient, record int,
) ([]ResponsePoint, error) {
	if steps <= 1 {
		steps = 2
	}
	step := (paramMax - paramMin) / float64(steps-1)
	results := make([]ResponsePoint, 0, steps)

	for i := 0; i < steps; i++ {
		value := paramMin + float64(i)*step
		s, err := sim.NewSession(factory(), cfg)
		if err != nil {
			return nil, err
		}
		if err := s.SetParameter(param, value); err != nil {
			return nil, err
		}
		// structural parameters take effect on reset
		s.Reset()
		s.Start()

		for n := 0; n < transient; n++ {
			if !s.Tick() {
				break
			}
		}

		seen := make(map[int64]bool)
		values := make([]float64, 0, 16)
		for n := 0; n < record; n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !s.Tick() {
				break
			}
			v, ok := s.Frame().Metrics[metric]
			if !ok {
				return nil, fmt.Errorf("metric %q not reported by %s", metric, s.Simulation().Name())
			}
			key := int64(math.Round(v * 1000))
			if !seen[key] {
				seen[key] = true
				values = append(values, v)
			}
		}

		results = append(results, ResponsePoint{Param: value, Values: values})
	}

	return results, nil
}

// ResponseToASCII plots parameter on the x axis and the recorded values on
// the y axis.
func ResponseToASCII(data []ResponsePoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	found := false
	for _, p := range data {
		for _, v := range p.Values {
			if !found {
				minVal, maxVal = v, v
				found = true
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if !found {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := newCanvas(width, height)
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}
	return render(canvas)
}

func newCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	return canvas
}

func render(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
