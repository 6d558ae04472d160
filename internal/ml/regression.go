package ml

import (
	"math/rand"

	"github.com/san-kum/neurosim/internal/sim"
)

const (
	RegressionSamples       = 50
	DefaultLearningRate     = 0.01
	regressionTrueSlope     = 2.0
	regressionTrueIntercept = 1.0
	regressionXMax          = 10.0
)

// Regression fits y = m x + b to noisy samples of y = 2x + 1 with batch
// gradient descent on the mean squared error.
type Regression struct {
	X, Y         []float64
	Slope        float64
	Intercept    float64
	LearningRate float64
	Cost         float64
	History      []float64
	Iteration    int
}

func NewRegression(rng *rand.Rand, n int, lr float64) *Regression {
	r := &Regression{LearningRate: lr}
	r.X = make([]float64, n)
	r.Y = make([]float64, n)
	for i := 0; i < n; i++ {
		x := rng.Float64() * regressionXMax
		r.X[i] = x
		r.Y[i] = regressionTrueSlope*x + regressionTrueIntercept + sim.Jitter(rng, 1)
	}
	r.Cost = r.MSE()
	r.History = []float64{r.Cost}
	return r
}

func (r *Regression) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

func (r *Regression) MSE() float64 {
	if len(r.X) == 0 {
		return 0
	}
	sum := 0.0
	for i, x := range r.X {
		e := r.Predict(x) - r.Y[i]
		sum += e * e
	}
	return sum / float64(len(r.X))
}

// Step performs one gradient descent update and returns the cost after it.
func (r *Regression) Step() float64 {
	n := float64(len(r.X))
	if n == 0 {
		return 0
	}
	var dm, db float64
	for i, x := range r.X {
		e := r.Predict(x) - r.Y[i]
		dm += e * x
		db += e
	}
	dm *= 2 / n
	db *= 2 / n

	r.Slope -= r.LearningRate * dm
	r.Intercept -= r.LearningRate * db
	r.Iteration++
	r.Cost = r.MSE()
	r.History = append(r.History, r.Cost)
	return r.Cost
}

// LeastSquares returns the closed-form optimum the descent converges to.
func LeastSquares(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	var sx, sy, sxx, sxy float64
	for i, x := range xs {
		sx += x
		sy += ys[i]
		sxx += x * x
		sxy += x * ys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, sy / n
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n
	return slope, intercept
}
