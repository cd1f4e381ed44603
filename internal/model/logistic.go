// Package model implements the binary risk classifier used by the probability strategy.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Model errors
var (
	ErrNotFitted          = errors.New("model not fitted")
	ErrEmptyTrainingSet   = errors.New("empty training set")
	ErrDimensionMismatch  = errors.New("feature dimension mismatch")
	ErrInvalidModelConfig = errors.New("invalid model config")
)

// Config holds training hyperparameters.
type Config struct {
	Seed         int64   // RNG seed for weight init and epoch shuffling
	Epochs       int     // full passes over the training set
	LearningRate float64 // SGD step size
	L2           float64 // ridge penalty on weights (bias is not penalized)
}

// DefaultConfig returns the hyperparameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		Seed:         42,
		Epochs:       200,
		LearningRate: 0.05,
		L2:           0.001,
	}
}

// Validate checks hyperparameters.
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be positive, got %d", ErrInvalidModelConfig, c.Epochs)
	}
	if c.LearningRate <= 0 || math.IsNaN(c.LearningRate) || math.IsInf(c.LearningRate, 0) {
		return fmt.Errorf("%w: learning rate must be positive, got %v", ErrInvalidModelConfig, c.LearningRate)
	}
	if c.L2 < 0 || math.IsNaN(c.L2) {
		return fmt.Errorf("%w: l2 must be non-negative, got %v", ErrInvalidModelConfig, c.L2)
	}
	return nil
}

// LogisticRegression is an L2-regularised logistic classifier trained by SGD.
// Inputs are z-score standardised with statistics captured during Fit.
// Training is fully determined by Config.Seed and the input order.
type LogisticRegression struct {
	cfg Config

	weights []float64
	bias    float64
	means   []float64
	stds    []float64
	fitted  bool
}

// NewLogisticRegression creates an unfitted model.
func NewLogisticRegression(cfg Config) *LogisticRegression {
	return &LogisticRegression{cfg: cfg}
}

// Fit trains the model on rows X with labels y (true = positive class).
func (m *LogisticRegression) Fit(X [][]float64, y []bool) error {
	if err := m.cfg.Validate(); err != nil {
		return err
	}
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, len(X), len(y))
	}

	dim := len(X[0])
	if dim == 0 {
		return fmt.Errorf("%w: zero-width rows", ErrDimensionMismatch)
	}
	for i, row := range X {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
	}

	m.means, m.stds = columnStats(X, dim)

	z := make([][]float64, len(X))
	for i, row := range X {
		z[i] = m.standardize(row)
	}

	rng := rand.New(rand.NewSource(m.cfg.Seed))
	weights := make([]float64, dim)
	for j := range weights {
		weights[j] = rng.NormFloat64() * 0.01
	}
	bias := 0.0

	lr := m.cfg.LearningRate
	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		for _, i := range rng.Perm(len(z)) {
			p := sigmoid(floats.Dot(weights, z[i]) + bias)
			grad := p
			if y[i] {
				grad -= 1
			}
			for j := range weights {
				weights[j] -= lr * (grad*z[i][j] + m.cfg.L2*weights[j])
			}
			bias -= lr * grad
		}
	}

	m.weights = weights
	m.bias = bias
	m.fitted = true
	return nil
}

// PredictProba returns the positive-class probability for one row.
func (m *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if !m.fitted {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.weights) {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(x), len(m.weights))
	}
	return sigmoid(floats.Dot(m.weights, m.standardize(x)) + m.bias), nil
}

// Weights returns a copy of the learned weights in standardised space.
func (m *LogisticRegression) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

func (m *LogisticRegression) standardize(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - m.means[j]) / m.stds[j]
	}
	return out
}

// columnStats returns per-column mean and standard deviation.
// Constant or single-row columns get std 1 so they standardise to 0.
func columnStats(X [][]float64, dim int) (means, stds []float64) {
	means = make([]float64, dim)
	stds = make([]float64, dim)
	col := make([]float64, len(X))
	for j := 0; j < dim; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
			std = 1
		}
		means[j] = mean
		stds[j] = std
	}
	return means, stds
}

// sigmoid is the logistic function, stable for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		e := math.Exp(-z)
		return 1 / (1 + e)
	}
	e := math.Exp(z)
	return e / (1 + e)
}
