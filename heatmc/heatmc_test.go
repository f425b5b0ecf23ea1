// Package heatmc provides smoke tests for the public facade.
package heatmc

import (
	"bytes"
	"strings"
	"testing"
)

// TestFacadeBuildsAndTrains wires a network from the facade and trains it
// on a tiny batch.
func TestFacadeBuildsAndTrains(t *testing.T) {
	d := 2
	network := NewNetwork([]Layer{
		BatchNorm(d),
		Dense(d, d, Tanh),
		Dense(d, 1, Linear),
	}, MSE, AdamWithBetas(0.01, 0.99, 0.999))

	x := []float64{0.1, 0.9, 0.8, 0.2, 0.5, 0.5}
	y := []float64{1, 2, 3}

	first := network.TrainBatch(x, y, 3)
	var last float64
	for i := 0; i < 100; i++ {
		last = network.TrainBatch(x, y, 3)
	}

	if last >= first {
		t.Errorf("loss did not decrease: first %v, last %v", first, last)
	}
}

// TestFacadeSamplerAndFormulas tests the sampling and heat-equation helpers.
func TestFacadeSamplerAndFormulas(t *testing.T) {
	s, err := NewSampler(SDEConfig{Dim: 3, Horizon: 1, Steps: 1}, 5)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	b, err := s.Sample(4)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	if Payoff([]float64{3, 4}) != 25 {
		t.Error("Payoff([3 4]) != 25")
	}
	if Solution(make([]float64, 3), 1) != 6 {
		t.Error("Solution(0, T=1, d=3) != 6")
	}
	if ReferenceLoss(b, 1) < 0 {
		t.Error("ReferenceLoss < 0")
	}
}

// TestFacadeRun runs a miniature experiment end to end.
func TestFacadeRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dim = 2
	cfg.Samples = 30
	cfg.Epochs = 10
	cfg.LogEvery = 5

	var out bytes.Buffer
	result, err := Run(cfg, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FinalLoss <= 0 {
		t.Errorf("final loss = %v, want > 0", result.FinalLoss)
	}
	if !strings.Contains(out.String(), "Final training loss:") {
		t.Error("summary missing from output")
	}
}
