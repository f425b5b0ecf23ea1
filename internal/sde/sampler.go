// Package sde simulates the stochastic process behind the Feynman-Kac
// representation of the heat equation: Brownian motion scaled by sqrt(2),
// discretized with the Euler-Maruyama scheme.
package sde

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config describes the simulated process.
type Config struct {
	// Dim is the spatial dimension d.
	Dim int
	// Horizon is the time horizon T.
	Horizon float64
	// Steps is the number of Euler-Maruyama steps N over [0, T].
	Steps int
}

// DefaultConfig returns the 100-dimensional unit-horizon single-step setup.
func DefaultConfig() Config {
	return Config{Dim: 100, Horizon: 1, Steps: 1}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Dim <= 0 {
		return fmt.Errorf("sde: dimension must be positive, got %d", c.Dim)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("sde: horizon must be positive, got %v", c.Horizon)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("sde: steps must be positive, got %d", c.Steps)
	}
	return nil
}

// Batch holds n simulated paths: the initial conditions X0 and the terminal
// states XT, both row-major flattened [n*dim].
type Batch struct {
	N   int
	Dim int
	X0  []float64
	XT  []float64
}

// Initial returns sample i's initial condition as a view.
func (b *Batch) Initial(i int) []float64 {
	return b.X0[i*b.Dim : (i+1)*b.Dim]
}

// Terminal returns sample i's terminal state as a view.
func (b *Batch) Terminal(i int) []float64 {
	return b.XT[i*b.Dim : (i+1)*b.Dim]
}

// Sampler draws initial conditions uniformly from the unit hypercube and
// advances them through dX = sqrt(2) dW. Two samplers built from the same
// seed produce identical batches.
type Sampler struct {
	cfg     Config
	uniform distuv.Uniform
	noise   distuv.Normal
}

// NewSampler creates a Sampler for the given process and seed.
func NewSampler(cfg Config, seed uint64) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src := rand.NewSource(seed)
	dt := cfg.Horizon / float64(cfg.Steps)

	return &Sampler{
		cfg: cfg,
		uniform: distuv.Uniform{
			Min: 0,
			Max: 1,
			Src: src,
		},
		// sqrt(2) * dW with dW ~ Normal(0, dt) is Normal(0, 2*dt) elementwise.
		noise: distuv.Normal{
			Mu:    0,
			Sigma: math.Sqrt(2 * dt),
			Src:   src,
		},
	}, nil
}

// Config returns the sampler's process configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// Sample simulates n paths. Each path starts at an i.i.d. Uniform([0,1]^d)
// point and takes Steps Euler-Maruyama increments to the horizon.
func (s *Sampler) Sample(n int) (*Batch, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sde: sample count must be positive, got %d", n)
	}

	d := s.cfg.Dim
	b := &Batch{
		N:   n,
		Dim: d,
		X0:  make([]float64, n*d),
		XT:  make([]float64, n*d),
	}

	for i := range b.X0 {
		b.X0[i] = s.uniform.Rand()
	}
	copy(b.XT, b.X0)

	for step := 0; step < s.cfg.Steps; step++ {
		for i := range b.XT {
			b.XT[i] += s.noise.Rand()
		}
	}
	return b, nil
}
