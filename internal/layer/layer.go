// Package layer provides neural network layer implementations.
//
// Layers operate on batches: a batch of n samples with f features each is a
// row-major flattened slice of length n*f, sample i occupying x[i*f:(i+1)*f].
package layer

import (
	"math"
	"math/rand"

	"github.com/pdenet/heatmc/internal/activations"
)

// Layer is a neural network layer.
type Layer interface {
	// Forward computes the layer output for a batch of inputs.
	Forward(x []float64, batch int) []float64

	// Backward propagates the output gradient back through the layer,
	// accumulating parameter gradients, and returns the input gradient.
	Backward(grad []float64, batch int) []float64

	// Params returns the layer parameters as a flat slice.
	Params() []float64

	// SetParams overwrites the layer parameters from a flat slice.
	SetParams(params []float64)

	// Gradients returns the accumulated parameter gradients as a flat slice.
	Gradients() []float64

	// ZeroGrads clears the accumulated parameter gradients.
	ZeroGrads()

	// SetTraining switches between training and inference behavior.
	SetTraining(training bool)

	InSize() int
	OutSize() int
}

// Dense is a fully connected layer.
// Weights are stored row-major: the weight from input j to output o is at
// weights[o*in + j]. Buffers are pre-allocated and grown on demand so the
// training loop does not allocate.
type Dense struct {
	weights []float64
	biases  []float64
	act     activations.Activation
	inSize  int
	outSize int

	gradW []float64
	gradB []float64

	inputBuf  []float64
	preActBuf []float64
	outputBuf []float64
	gradInBuf []float64
}

// NewDense creates a dense layer with Xavier/Glorot uniform initialization.
func NewDense(in, out int, act activations.Activation) *Dense {
	weights := make([]float64, out*in)
	biases := make([]float64, out)

	scale := math.Sqrt(2.0 / (float64(in) + float64(out)))
	for i := range weights {
		weights[i] = rand.Float64()*2*scale - scale
	}

	return &Dense{
		weights: weights,
		biases:  biases,
		act:     act,
		inSize:  in,
		outSize: out,
		gradW:   make([]float64, out*in),
		gradB:   make([]float64, out),
	}
}

// Forward computes act(Wx + b) for every sample in the batch.
func (d *Dense) Forward(x []float64, batch int) []float64 {
	in, out := d.inSize, d.outSize
	d.inputBuf = grow(d.inputBuf, batch*in)
	d.preActBuf = grow(d.preActBuf, batch*out)
	d.outputBuf = grow(d.outputBuf, batch*out)
	copy(d.inputBuf, x[:batch*in])

	for s := 0; s < batch; s++ {
		xBase := s * in
		yBase := s * out
		for o := 0; o < out; o++ {
			sum := d.biases[o]
			wBase := o * in
			for j := 0; j < in; j++ {
				sum += d.weights[wBase+j] * x[xBase+j]
			}
			d.preActBuf[yBase+o] = sum
			d.outputBuf[yBase+o] = d.act.Activate(sum)
		}
	}
	return d.outputBuf[:batch*out]
}

// Backward accumulates weight and bias gradients summed over the batch and
// returns the gradient w.r.t. the layer input.
func (d *Dense) Backward(grad []float64, batch int) []float64 {
	in, out := d.inSize, d.outSize
	d.gradInBuf = grow(d.gradInBuf, batch*in)

	for s := 0; s < batch; s++ {
		xBase := s * in
		yBase := s * out
		for j := 0; j < in; j++ {
			d.gradInBuf[xBase+j] = 0
		}
		for o := 0; o < out; o++ {
			dz := grad[yBase+o] * d.act.Derivative(d.preActBuf[yBase+o])
			d.gradB[o] += dz
			wBase := o * in
			for j := 0; j < in; j++ {
				d.gradW[wBase+j] += dz * d.inputBuf[xBase+j]
				d.gradInBuf[xBase+j] += dz * d.weights[wBase+j]
			}
		}
	}
	return d.gradInBuf[:batch*in]
}

// Params returns weights followed by biases as one flat slice.
func (d *Dense) Params() []float64 {
	params := make([]float64, 0, len(d.weights)+len(d.biases))
	params = append(params, d.weights...)
	params = append(params, d.biases...)
	return params
}

// SetParams updates weights and biases from a flat slice.
func (d *Dense) SetParams(params []float64) {
	copy(d.weights, params[:len(d.weights)])
	copy(d.biases, params[len(d.weights):])
}

// Gradients returns weight gradients followed by bias gradients.
func (d *Dense) Gradients() []float64 {
	grads := make([]float64, 0, len(d.gradW)+len(d.gradB))
	grads = append(grads, d.gradW...)
	grads = append(grads, d.gradB...)
	return grads
}

// ZeroGrads clears the accumulated gradients.
func (d *Dense) ZeroGrads() {
	for i := range d.gradW {
		d.gradW[i] = 0
	}
	for i := range d.gradB {
		d.gradB[i] = 0
	}
}

// SetTraining is a no-op for Dense; it behaves identically in both modes.
func (d *Dense) SetTraining(training bool) {}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int { return d.inSize }

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int { return d.outSize }

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation { return d.act }

// SetWeight sets a single weight at (row, col).
func (d *Dense) SetWeight(row, col int, val float64) {
	d.weights[row*d.inSize+col] = val
}

// SetBias sets a single bias.
func (d *Dense) SetBias(idx int, val float64) {
	d.biases[idx] = val
}

func grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
