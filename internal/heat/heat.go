// Package heat provides the payoff and closed-form solution of the linear
// heat equation with terminal condition phi(x) = |x|^2. By Feynman-Kac the
// solution is u(T, x) = E[phi(X_T) | X_0 = x] for dX = sqrt(2) dW, which for
// this payoff reduces to phi(x) + 2*T*d.
package heat

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pdenet/heatmc/internal/sde"
)

// Payoff computes phi(x) = sum of squares of x.
func Payoff(x []float64) float64 {
	return floats.Dot(x, x)
}

// Solution computes the closed-form value u(T, x) = phi(x) + 2*T*d for a
// point x in dimension d = len(x).
func Solution(x []float64, horizon float64) float64 {
	return Payoff(x) + 2*horizon*float64(len(x))
}

// Targets computes the regression labels phi(X_T) for every path in the
// batch. These are the Monte-Carlo estimates the network regresses onto.
func Targets(b *sde.Batch) []float64 {
	y := make([]float64, b.N)
	for i := 0; i < b.N; i++ {
		y[i] = Payoff(b.Terminal(i))
	}
	return y
}

// ReferenceLoss computes the mean squared error the exact solution itself
// incurs against the Monte-Carlo labels:
//
//	(1/n) * sum_i (phi(X_T,i) - u(T, X0,i))^2
//
// A perfectly trained network converges to this loss, not to zero, because
// the labels carry the simulation noise.
func ReferenceLoss(b *sde.Batch, horizon float64) float64 {
	var sum float64
	for i := 0; i < b.N; i++ {
		diff := Payoff(b.Terminal(i)) - Solution(b.Initial(i), horizon)
		sum += diff * diff
	}
	return sum / float64(b.N)
}
