// Package heatmc re-exports the public surface of the module: the network
// building blocks, the stochastic sampler, and the heat-equation formulas.
package heatmc

import (
	"io"

	"github.com/pdenet/heatmc/internal/activations"
	"github.com/pdenet/heatmc/internal/experiment"
	"github.com/pdenet/heatmc/internal/heat"
	"github.com/pdenet/heatmc/internal/layer"
	"github.com/pdenet/heatmc/internal/loss"
	"github.com/pdenet/heatmc/internal/net"
	"github.com/pdenet/heatmc/internal/opt"
	"github.com/pdenet/heatmc/internal/sde"
)

// Re-export common types for easier access
type (
	Network   = net.Network
	Layer     = layer.Layer
	Optimizer = opt.Optimizer
	Loss      = loss.Loss
	Callback  = net.Callback

	Sampler   = sde.Sampler
	Batch     = sde.Batch
	SDEConfig = sde.Config
	Config    = experiment.Config
	Result    = experiment.Result
)

// Model creation
func NewNetwork(layers []Layer, l Loss, optimizer Optimizer) *Network {
	return net.New(layers, l, optimizer)
}

// Activations
var (
	Tanh    = activations.Tanh{}
	Linear  = activations.Linear{}
	ReLU    = activations.ReLU{}
	Sigmoid = activations.Sigmoid{}
)

// Layers
func Dense(in, out int, act activations.Activation) Layer {
	return layer.NewDense(in, out, act)
}

func BatchNorm(numFeatures int) Layer {
	return layer.NewBatchNorm(numFeatures, 1e-5, 0.1)
}

// Optimizers
func SGD(lr float64) Optimizer {
	return opt.SGD{LearningRate: lr}
}

func Adam(lr float64) Optimizer {
	return opt.NewAdam(lr)
}

func AdamWithBetas(lr, beta1, beta2 float64) Optimizer {
	return opt.NewAdamWithBetas(lr, beta1, beta2)
}

// Losses
var MSE = loss.MSE{}

// Callbacks
func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func CSVLogger(filename string, append bool) Callback {
	return net.NewCSVLogger(filename, append)
}

func EarlyStopping(patience int, minDelta float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

// Sampling
func NewSampler(cfg SDEConfig, seed uint64) (*Sampler, error) {
	return sde.NewSampler(cfg, seed)
}

// Heat equation formulas
func Payoff(x []float64) float64 { return heat.Payoff(x) }

func Solution(x []float64, horizon float64) float64 { return heat.Solution(x, horizon) }

func ReferenceLoss(b *Batch, horizon float64) float64 { return heat.ReferenceLoss(b, horizon) }

// Experiment
func Run(cfg Config, out io.Writer) (Result, error) {
	return experiment.Run(cfg, out)
}

func DefaultConfig() Config {
	return experiment.Default()
}
