// Package experiment provides an end-to-end test of the training run on a
// scaled-down instance of the problem.
package experiment

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/pdenet/heatmc/internal/loss"
	"github.com/pdenet/heatmc/internal/opt"
)

// TestBuildNetworkShape tests the experiment architecture: normalize, two
// tanh hidden layers of width d, scalar linear output.
func TestBuildNetworkShape(t *testing.T) {
	d := 6
	network := BuildNetwork(d, loss.MSE{}, opt.NewAdam(0.01))

	layers := network.Layers()
	if len(layers) != 4 {
		t.Fatalf("layer count = %d, want 4", len(layers))
	}
	if layers[0].InSize() != d || layers[0].OutSize() != d {
		t.Errorf("batch norm sizes = (%d, %d), want (%d, %d)",
			layers[0].InSize(), layers[0].OutSize(), d, d)
	}
	if layers[1].OutSize() != d || layers[2].OutSize() != d {
		t.Error("hidden layers must have width d")
	}
	if layers[3].OutSize() != 1 {
		t.Errorf("output width = %d, want 1", layers[3].OutSize())
	}

	x := make([]float64, 5*d)
	out := network.Forward(x, 5)
	if len(out) != 5 {
		t.Errorf("forward of 5 samples gave %d outputs, want 5", len(out))
	}
}

// TestRunConverges trains a scaled-down instance and checks that the loss
// drops toward the closed-form reference.
func TestRunConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping training run in short mode")
	}

	rand.Seed(42)
	cfg := Default()
	cfg.Dim = 10
	cfg.Samples = 300
	cfg.Epochs = 1000
	cfg.LogEvery = 0

	var out bytes.Buffer
	result, err := Run(cfg, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ReferenceLoss <= 0 {
		t.Fatalf("reference loss = %v, want > 0", result.ReferenceLoss)
	}
	if result.Elapsed <= 0 {
		t.Error("elapsed time not recorded")
	}

	// The labels are noisy Monte-Carlo draws, so the best achievable loss
	// is the reference loss, not zero. Untrained output starts several
	// multiples above it.
	if result.FinalLoss > 5*result.ReferenceLoss {
		t.Errorf("final loss %v did not approach reference %v", result.FinalLoss, result.ReferenceLoss)
	}
}

// TestRunReportsProgress tests the periodic loss reporting and summary.
func TestRunReportsProgress(t *testing.T) {
	rand.Seed(7)
	cfg := Default()
	cfg.Dim = 3
	cfg.Samples = 50
	cfg.Epochs = 20
	cfg.LogEvery = 10

	var out bytes.Buffer
	if _, err := Run(cfg, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Epoch 0:", "Epoch 10:", "Final training loss:", "Reference loss"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

// TestRunValidatesConfig tests that invalid configurations are rejected.
func TestRunValidatesConfig(t *testing.T) {
	var out bytes.Buffer

	bad := Default()
	bad.Samples = 0
	if _, err := Run(bad, &out); err == nil {
		t.Error("Run with zero samples succeeded, want error")
	}

	bad = Default()
	bad.Dim = -5
	if _, err := Run(bad, &out); err == nil {
		t.Error("Run with negative dimension succeeded, want error")
	}

	bad = Default()
	bad.LearningRate = 0
	if _, err := Run(bad, &out); err == nil {
		t.Error("Run with zero learning rate succeeded, want error")
	}
}

// TestDefaultMatchesExperiment tests the fixed experiment constants.
func TestDefaultMatchesExperiment(t *testing.T) {
	cfg := Default()

	if cfg.Dim != 100 || cfg.Horizon != 1 || cfg.Steps != 1 {
		t.Errorf("process = (%d, %v, %d), want (100, 1, 1)", cfg.Dim, cfg.Horizon, cfg.Steps)
	}
	if cfg.Epochs != 1000 || cfg.LearningRate != 0.01 {
		t.Errorf("training = (%d epochs, lr %v), want (1000, 0.01)", cfg.Epochs, cfg.LearningRate)
	}
	if cfg.Beta1 != 0.99 || cfg.Beta2 != 0.999 {
		t.Errorf("betas = (%v, %v), want (0.99, 0.999)", cfg.Beta1, cfg.Beta2)
	}
}
