package optim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/experiment"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		name string
		want []float64
		err  bool
	}{
		{"decay=0:1:3", "decay", []float64{0, 0.5, 1}, false},
		{"decay=0.2:1:1", "decay", []float64{0.2}, false},
		{"noise=0.5, 1,2", "noise", []float64{0.5, 1, 2}, false},
		{"noise", "", nil, true},
		{"noise=a,b", "", nil, true},
		{"noise=0:1:0", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, vals, err := ParseRange(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.want, vals)
		})
	}
}

func TestGridSearchMaximizesProcessed(t *testing.T) {
	base := config.DefaultConfig()
	base.Sim = "brain"
	base.Intensity = 1

	g := NewGridSearch([]string{"spawn_rate", "decay"}, [][]float64{{0, 1}, {0.02, 0.05}})
	best, trials, err := g.Search(context.Background(), experiment.NewRegistry(), base, 100,
		Objective{Metric: "final_processed", Maximize: true})
	require.NoError(t, err)

	require.Len(t, trials, 4)
	assert.Equal(t, 0.0, trials[0].Params["spawn_rate"])
	assert.Equal(t, 0.05, trials[1].Params["decay"])
	assert.Equal(t, 0.0, trials[0].Value)
	assert.Equal(t, 1.0, best.Params["spawn_rate"])
	assert.Positive(t, best.Value)
	assert.Nil(t, base.Params)
}

func TestGridSearchMinimizes(t *testing.T) {
	base := config.DefaultConfig()
	base.Sim = "brain"
	base.Intensity = 1

	g := NewGridSearch([]string{"spawn_rate"}, [][]float64{{1, 0.5, 0}})
	best, trials, err := g.Search(context.Background(), experiment.NewRegistry(), base, 100,
		Objective{Metric: "final_processed"})
	require.NoError(t, err)
	require.Len(t, trials, 3)
	assert.Equal(t, 0.0, best.Params["spawn_rate"])
	assert.Equal(t, 0.0, best.Value)
}

func TestGridSearchErrors(t *testing.T) {
	base := config.DefaultConfig()
	base.Sim = "brain"

	_, _, err := NewGridSearch([]string{"decay"}, nil).Search(context.Background(), experiment.NewRegistry(), base, 5, Objective{Metric: "final_processed"})
	assert.Error(t, err)

	_, _, err = NewGridSearch([]string{"gain"}, [][]float64{{1}}).Search(context.Background(), experiment.NewRegistry(), base, 5, Objective{Metric: "final_processed"})
	assert.Error(t, err)

	_, _, err = NewGridSearch([]string{"decay"}, [][]float64{{0.1}}).Search(context.Background(), experiment.NewRegistry(), base, 5, Objective{Metric: "nothing"})
	assert.Error(t, err)
}
