package layer

import (
	"math"
)

// BatchNorm normalizes each feature over the batch dimension, with learnable
// scale (gamma) and shift (beta). During training it uses the batch
// statistics and maintains running estimates with the given momentum; during
// inference it normalizes with the running statistics.
type BatchNorm struct {
	numFeatures int
	eps         float64
	momentum    float64

	training bool

	// Contiguous gamma + beta, with views into the halves.
	params    []float64
	gamma     []float64
	beta      []float64
	grads     []float64
	gradGamma []float64
	gradBeta  []float64

	runningMean []float64
	runningVar  []float64

	// Saved forward state for the backward pass.
	savedInput []float64
	savedMean  []float64
	savedStd   []float64

	outputBuf []float64
	gradInBuf []float64
}

// NewBatchNorm creates a batch normalization layer over numFeatures features.
func NewBatchNorm(numFeatures int, eps, momentum float64) *BatchNorm {
	b := &BatchNorm{
		numFeatures: numFeatures,
		eps:         eps,
		momentum:    momentum,
		training:    true,
		params:      make([]float64, numFeatures*2),
		grads:       make([]float64, numFeatures*2),
		runningMean: make([]float64, numFeatures),
		runningVar:  make([]float64, numFeatures),
		savedMean:   make([]float64, numFeatures),
		savedStd:    make([]float64, numFeatures),
	}
	b.gamma = b.params[:numFeatures]
	b.beta = b.params[numFeatures:]
	b.gradGamma = b.grads[:numFeatures]
	b.gradBeta = b.grads[numFeatures:]
	for i := 0; i < numFeatures; i++ {
		b.gamma[i] = 1.0
		b.runningVar[i] = 1.0
	}
	return b
}

// Forward normalizes the batch. In training mode the batch statistics are
// used and the running statistics updated; in inference mode the running
// statistics are used.
func (b *BatchNorm) Forward(x []float64, batch int) []float64 {
	f := b.numFeatures
	total := batch * f
	b.outputBuf = grow(b.outputBuf, total)
	out := b.outputBuf[:total]

	if !b.training {
		for s := 0; s < batch; s++ {
			base := s * f
			for i := 0; i < f; i++ {
				std := math.Sqrt(b.runningVar[i] + b.eps)
				norm := (x[base+i] - b.runningMean[i]) / std
				out[base+i] = b.gamma[i]*norm + b.beta[i]
			}
		}
		return out
	}

	b.savedInput = grow(b.savedInput, total)
	copy(b.savedInput, x[:total])

	n := float64(batch)
	for i := 0; i < f; i++ {
		sum := 0.0
		for s := 0; s < batch; s++ {
			sum += x[s*f+i]
		}
		mean := sum / n

		sumSq := 0.0
		for s := 0; s < batch; s++ {
			diff := x[s*f+i] - mean
			sumSq += diff * diff
		}
		variance := sumSq / n
		std := math.Sqrt(variance + b.eps)

		b.savedMean[i] = mean
		b.savedStd[i] = std
		b.runningMean[i] = (1-b.momentum)*b.runningMean[i] + b.momentum*mean
		b.runningVar[i] = (1-b.momentum)*b.runningVar[i] + b.momentum*variance

		for s := 0; s < batch; s++ {
			norm := (x[s*f+i] - mean) / std
			out[s*f+i] = b.gamma[i]*norm + b.beta[i]
		}
	}
	return out
}

// Backward propagates through the batch statistics, accumulating gamma and
// beta gradients summed over the batch.
func (b *BatchNorm) Backward(grad []float64, batch int) []float64 {
	f := b.numFeatures
	total := batch * f
	b.gradInBuf = grow(b.gradInBuf, total)
	gradIn := b.gradInBuf[:total]

	if !b.training {
		for s := 0; s < batch; s++ {
			base := s * f
			for i := 0; i < f; i++ {
				std := math.Sqrt(b.runningVar[i] + b.eps)
				gradIn[base+i] = grad[base+i] * b.gamma[i] / std
			}
		}
		return gradIn
	}

	n := float64(batch)
	for i := 0; i < f; i++ {
		mean := b.savedMean[i]
		std := b.savedStd[i]

		sumGrad := 0.0
		sumGradDiff := 0.0
		for s := 0; s < batch; s++ {
			diff := b.savedInput[s*f+i] - mean
			sumGrad += grad[s*f+i]
			sumGradDiff += grad[s*f+i] * diff
		}

		g := b.gamma[i]
		for s := 0; s < batch; s++ {
			diff := b.savedInput[s*f+i] - mean
			norm := diff / std
			gradIn[s*f+i] = g * (grad[s*f+i]/std - sumGrad/(n*std) - diff*sumGradDiff/(n*std*std*std))
			b.gradGamma[i] += grad[s*f+i] * norm
			b.gradBeta[i] += grad[s*f+i]
		}
	}
	return gradIn
}

// Params returns gamma followed by beta.
func (b *BatchNorm) Params() []float64 {
	params := make([]float64, len(b.params))
	copy(params, b.params)
	return params
}

// SetParams updates gamma and beta from a flat slice.
func (b *BatchNorm) SetParams(params []float64) {
	copy(b.params, params)
}

// Gradients returns gamma gradients followed by beta gradients.
func (b *BatchNorm) Gradients() []float64 {
	grads := make([]float64, len(b.grads))
	copy(grads, b.grads)
	return grads
}

// ZeroGrads clears the accumulated gradients.
func (b *BatchNorm) ZeroGrads() {
	for i := range b.grads {
		b.grads[i] = 0
	}
}

// SetTraining switches between batch and running statistics.
func (b *BatchNorm) SetTraining(training bool) {
	b.training = training
}

// InSize returns the number of features.
func (b *BatchNorm) InSize() int { return b.numFeatures }

// OutSize returns the number of features.
func (b *BatchNorm) OutSize() int { return b.numFeatures }

// RunningMean returns the running mean estimates.
func (b *BatchNorm) RunningMean() []float64 { return b.runningMean }

// RunningVar returns the running variance estimates.
func (b *BatchNorm) RunningVar() []float64 { return b.runningVar }
