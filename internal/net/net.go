// Package net provides the core neural network type and its training loop.
package net

import (
	"github.com/pdenet/heatmc/internal/layer"
	"github.com/pdenet/heatmc/internal/loss"
	"github.com/pdenet/heatmc/internal/opt"
)

// Network is a collection of layers that can be forwarded and backwarded.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	opt    opt.Optimizer

	// Pre-allocated gradient buffer for training
	lossGradBuf []float64
}

// New creates a new neural network with the given layers.
func New(layers []layer.Layer, loss loss.Loss, optimizer opt.Optimizer) *Network {
	return &Network{
		layers: layers,
		loss:   loss,
		opt:    optimizer,
	}
}

// Forward performs a forward pass through all layers for a batch of samples.
func (n *Network) Forward(x []float64, batch int) []float64 {
	curr := x
	for i := range n.layers {
		curr = n.layers[i].Forward(curr, batch)
	}
	return curr
}

// Backward performs a backward pass through all layers, accumulating
// parameter gradients.
func (n *Network) Backward(grad []float64, batch int) []float64 {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		curr = n.layers[i].Backward(curr, batch)
	}
	return curr
}

// Step performs one optimization step using the stored optimizer. Each layer
// is its own parameter group so stateful optimizers keep per-layer moments.
func (n *Network) Step() {
	for i, l := range n.layers {
		params := l.Params()
		n.opt.Update(i, params, l.Gradients())
		l.SetParams(params)
	}
}

// TrainBatch performs one full-batch training step and returns the batch
// loss. Layer gradients are summed over the batch, and the loss gradient
// carries the 1/batch factor, so a single Step applies the gradient of the
// mean loss.
func (n *Network) TrainBatch(x, y []float64, batch int) float64 {
	for _, l := range n.layers {
		l.ZeroGrads()
	}

	yPred := n.Forward(x, batch)
	l := n.loss.Forward(yPred, y)

	if cap(n.lossGradBuf) < len(yPred) {
		n.lossGradBuf = make([]float64, len(yPred))
	}
	grad := n.lossGradBuf[:len(yPred)]

	if backwardInPlace, ok := n.loss.(loss.BackwardInPlacer); ok {
		backwardInPlace.BackwardInPlace(yPred, y, grad)
	} else {
		grad = n.loss.Backward(yPred, y)
	}

	_ = n.Backward(grad, batch)
	n.Step()

	return l
}

// Fit trains the network full-batch for the given number of epochs and
// returns the final training loss. Callbacks observe the loop; an
// EarlyStopping callback can end it before the epoch budget.
func (n *Network) Fit(x, y []float64, batch, epochs int, callbacks ...Callback) float64 {
	for _, c := range callbacks {
		c.OnTrainBegin(n)
	}

	var last float64
	for epoch := 0; epoch < epochs; epoch++ {
		for _, c := range callbacks {
			c.OnEpochBegin(epoch, n)
		}

		last = n.TrainBatch(x, y, batch)

		stopped := false
		for _, c := range callbacks {
			c.OnEpochEnd(epoch, last, n)
			if es, ok := c.(*EarlyStopping); ok && es.Stopped {
				stopped = true
			}
		}
		if stopped {
			break
		}
	}

	for _, c := range callbacks {
		c.OnTrainEnd(n)
	}
	return last
}

// SetTraining switches every layer between training and inference behavior.
func (n *Network) SetTraining(training bool) {
	for _, l := range n.layers {
		l.SetTraining(training)
	}
}

// Params returns all network parameters flattened (copy).
func (n *Network) Params() []float64 {
	var params []float64
	for _, l := range n.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// Gradients returns all network gradients flattened (copy).
func (n *Network) Gradients() []float64 {
	var gradients []float64
	for _, l := range n.layers {
		gradients = append(gradients, l.Gradients()...)
	}
	return gradients
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}
