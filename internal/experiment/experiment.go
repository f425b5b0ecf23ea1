// Package experiment wires the sampler, network and trainer into the full
// Monte-Carlo regression run: draw paths, fit the network to the terminal
// payoff, and compare the converged loss against the closed-form reference.
package experiment

import (
	"fmt"
	"io"
	"time"

	"github.com/pdenet/heatmc/internal/activations"
	"github.com/pdenet/heatmc/internal/heat"
	"github.com/pdenet/heatmc/internal/layer"
	"github.com/pdenet/heatmc/internal/loss"
	"github.com/pdenet/heatmc/internal/net"
	"github.com/pdenet/heatmc/internal/opt"
	"github.com/pdenet/heatmc/internal/sde"
)

// Config holds the experiment parameters.
type Config struct {
	// Process parameters.
	Dim     int
	Horizon float64
	Steps   int

	// Training parameters.
	Samples      int
	Epochs       int
	LogEvery     int
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Seed         uint64

	// CSVPath, when non-empty, receives a per-epoch training log.
	CSVPath string
}

// Default returns the fixed experiment from the notebook: d=100, T=1, one
// Euler-Maruyama step, 1000 paths, 1000 full-batch Adam epochs.
func Default() Config {
	return Config{
		Dim:          100,
		Horizon:      1,
		Steps:        1,
		Samples:      1000,
		Epochs:       1000,
		LogEvery:     100,
		LearningRate: 0.01,
		Beta1:        0.99,
		Beta2:        0.999,
		Seed:         42,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	cfg := sde.Config{Dim: c.Dim, Horizon: c.Horizon, Steps: c.Steps}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.Samples <= 0 {
		return fmt.Errorf("experiment: samples must be positive, got %d", c.Samples)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("experiment: epochs must be positive, got %d", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("experiment: learning rate must be positive, got %v", c.LearningRate)
	}
	return nil
}

// Result summarizes a finished run.
type Result struct {
	FinalLoss     float64
	ReferenceLoss float64
	Epochs        int
	Elapsed       time.Duration
}

// BuildNetwork constructs the regression network for dimension d:
// batch normalization over the inputs, two tanh hidden layers of width d,
// and a linear scalar output.
func BuildNetwork(d int, l loss.Loss, optimizer opt.Optimizer) *net.Network {
	layers := []layer.Layer{
		layer.NewBatchNorm(d, 1e-5, 0.1),
		layer.NewDense(d, d, activations.Tanh{}),
		layer.NewDense(d, d, activations.Tanh{}),
		layer.NewDense(d, 1, activations.Linear{}),
	}
	return net.New(layers, l, optimizer)
}

// Run executes the experiment and writes progress to out.
func Run(cfg Config, out io.Writer) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	sampler, err := sde.NewSampler(sde.Config{Dim: cfg.Dim, Horizon: cfg.Horizon, Steps: cfg.Steps}, cfg.Seed)
	if err != nil {
		return Result{}, err
	}
	batch, err := sampler.Sample(cfg.Samples)
	if err != nil {
		return Result{}, err
	}
	targets := heat.Targets(batch)

	network := BuildNetwork(cfg.Dim, loss.MSE{}, opt.NewAdamWithBetas(cfg.LearningRate, cfg.Beta1, cfg.Beta2))

	callbacks := []net.Callback{
		net.Logger{
			Interval: cfg.LogEvery,
			Out: func(format string, a ...any) {
				fmt.Fprintf(out, format, a...)
			},
		},
	}
	if cfg.CSVPath != "" {
		callbacks = append(callbacks, net.NewCSVLogger(cfg.CSVPath, false))
	}

	fmt.Fprintf(out, "Training on %d paths in dimension %d for %d epochs\n", batch.N, batch.Dim, cfg.Epochs)

	start := time.Now()
	final := network.Fit(batch.X0, targets, batch.N, cfg.Epochs, callbacks...)
	elapsed := time.Since(start)

	ref := heat.ReferenceLoss(batch, cfg.Horizon)
	fmt.Fprintf(out, "Final training loss: %.6f\n", final)
	fmt.Fprintf(out, "Reference loss (exact solution): %.6f\n", ref)
	fmt.Fprintf(out, "Elapsed: %.2fs\n", elapsed.Seconds())

	return Result{
		FinalLoss:     final,
		ReferenceLoss: ref,
		Epochs:        cfg.Epochs,
		Elapsed:       elapsed,
	}, nil
}
