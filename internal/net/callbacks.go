package net

import (
	"fmt"
	"math"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network) {}

func (c BaseCallback) OnTrainEnd(n *Network) {}

func (c BaseCallback) OnEpochBegin(epoch int, n *Network) {}

func (c BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}

// EarlyStopping stops training when the loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

// NewEarlyStopping creates an EarlyStopping callback that stops after
// patience epochs without an improvement larger than threshold.
func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		fmt.Printf("\nEarly stopping at epoch %d: loss %.6f did not improve for %d epochs\n", epoch, loss, c.Patience)
		c.Stopped = true
	}
}

// Logger logs training progress to a writer every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
	Out      func(format string, a ...any)
}

func (c Logger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.Interval <= 0 || epoch%c.Interval != 0 {
		return
	}
	if c.Out != nil {
		c.Out("Epoch %d: loss = %.6f\n", epoch, loss)
		return
	}
	fmt.Printf("Epoch %d: loss = %.6f\n", epoch, loss)
}
