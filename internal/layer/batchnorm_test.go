// Package layer provides unit tests for batch normalization.
package layer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/stat"
)

// TestBatchNormNormalizesBatch tests that each feature has zero mean and
// unit variance over the batch after normalization.
func TestBatchNormNormalizesBatch(t *testing.T) {
	rand.Seed(3)
	features, batch := 3, 64
	b := NewBatchNorm(features, 1e-5, 0.1)

	x := make([]float64, batch*features)
	for i := range x {
		x[i] = rand.NormFloat64()*2 + 5
	}

	out := b.Forward(x, batch)

	for f := 0; f < features; f++ {
		col := make([]float64, batch)
		for s := 0; s < batch; s++ {
			col[s] = out[s*features+f]
		}
		require.InDelta(t, 0, stat.Mean(col, nil), 1e-9, "feature %d mean", f)
		// stat.Variance is the unbiased estimator, the layer normalizes with
		// the biased one
		biased := stat.Variance(col, nil) * float64(batch-1) / float64(batch)
		require.InDelta(t, 1, biased, 1e-3, "feature %d variance", f)
	}
}

// TestBatchNormAffine tests that gamma scales and beta shifts the
// normalized output.
func TestBatchNormAffine(t *testing.T) {
	features, batch := 2, 16
	b := NewBatchNorm(features, 1e-5, 0.1)

	x := make([]float64, batch*features)
	for i := range x {
		x[i] = rand.Float64()
	}

	plain := append([]float64{}, b.Forward(x, batch)...)

	// gamma = 2, beta = 1
	params := b.Params()
	for f := 0; f < features; f++ {
		params[f] = 2.0
		params[features+f] = 1.0
	}
	b.SetParams(params)

	scaled := b.Forward(x, batch)
	for i := range plain {
		require.InDelta(t, 2*plain[i]+1, scaled[i], 1e-9)
	}
}

// TestBatchNormRunningStats tests the momentum update of the running
// statistics after one training forward.
func TestBatchNormRunningStats(t *testing.T) {
	features, batch := 1, 4
	momentum := 0.1
	b := NewBatchNorm(features, 1e-5, momentum)

	x := []float64{1, 2, 3, 4}
	b.Forward(x, batch)

	mean := 2.5
	variance := (1.5*1.5 + 0.5*0.5 + 0.5*0.5 + 1.5*1.5) / 4

	require.InDelta(t, momentum*mean, b.RunningMean()[0], 1e-12)
	require.InDelta(t, (1-momentum)*1.0+momentum*variance, b.RunningVar()[0], 1e-12)
}

// TestBatchNormInference tests that inference mode normalizes with the
// running statistics instead of the batch statistics.
func TestBatchNormInference(t *testing.T) {
	features := 1
	b := NewBatchNorm(features, 0, 1.0)

	// One training pass fixes runningMean=2, runningVar=1 (momentum 1).
	b.Forward([]float64{1, 3}, 2)
	require.InDelta(t, 2.0, b.RunningMean()[0], 1e-12)
	require.InDelta(t, 1.0, b.RunningVar()[0], 1e-12)

	b.SetTraining(false)
	out := b.Forward([]float64{4}, 1)

	// (4 - 2) / sqrt(1) = 2
	require.InDelta(t, 2.0, out[0], 1e-9)
}

// TestBatchNormInputGradient checks the backward pass through the batch
// statistics against central finite differences.
func TestBatchNormInputGradient(t *testing.T) {
	rand.Seed(5)
	features, batch := 3, 6
	b := NewBatchNorm(features, 1e-5, 0.1)

	// Non-trivial gamma and beta so their effect is part of the check.
	params := b.Params()
	for f := 0; f < features; f++ {
		params[f] = 1.0 + 0.2*float64(f)
		params[features+f] = -0.3 * float64(f)
	}
	b.SetParams(params)

	x := randomSlice(batch * features)
	c := randomSlice(batch * features)

	b.Forward(x, batch)
	b.ZeroGrads()
	analytic := append([]float64{}, b.Backward(c, batch)...)

	numeric := fd.Gradient(nil, func(xi []float64) float64 {
		out := b.Forward(xi, batch)
		sum := 0.0
		for i, v := range out {
			sum += c[i] * v
		}
		return sum
	}, x, &fd.Settings{Formula: fd.Central})

	for i := range analytic {
		require.InDelta(t, numeric[i], analytic[i], 1e-5, "input gradient %d", i)
	}
}

// TestBatchNormParamGradient checks the gamma and beta gradients against
// central finite differences.
func TestBatchNormParamGradient(t *testing.T) {
	rand.Seed(9)
	features, batch := 2, 8
	b := NewBatchNorm(features, 1e-5, 0.1)

	x := randomSlice(batch * features)
	c := randomSlice(batch * features)

	b.Forward(x, batch)
	b.ZeroGrads()
	b.Backward(c, batch)
	analytic := b.Gradients()

	params := b.Params()
	numeric := fd.Gradient(nil, func(p []float64) float64 {
		b.SetParams(p)
		out := b.Forward(x, batch)
		sum := 0.0
		for i, v := range out {
			sum += c[i] * v
		}
		return sum
	}, params, &fd.Settings{Formula: fd.Central})
	b.SetParams(params)

	for i := range analytic {
		require.InDelta(t, numeric[i], analytic[i], 1e-6, "param gradient %d", i)
	}
}

// TestBatchNormIdentityInit tests that a fresh layer starts with gamma=1,
// beta=0 and unit running variance.
func TestBatchNormIdentityInit(t *testing.T) {
	features := 4
	b := NewBatchNorm(features, 1e-5, 0.1)

	params := b.Params()
	for f := 0; f < features; f++ {
		if params[f] != 1 {
			t.Errorf("gamma[%d] = %v, want 1", f, params[f])
		}
		if params[features+f] != 0 {
			t.Errorf("beta[%d] = %v, want 0", f, params[features+f])
		}
	}
	for f := 0; f < features; f++ {
		if b.RunningVar()[f] != 1 {
			t.Errorf("runningVar[%d] = %v, want 1", f, b.RunningVar()[f])
		}
	}
}
