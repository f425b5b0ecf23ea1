// Package opt provides first-order gradient optimizers.
package opt

import "math"

// Optimizer updates parameters in-place from gradients. The group index
// identifies a parameter group (one per layer) so stateful optimizers can
// keep per-group moment estimates across steps.
type Optimizer interface {
	Update(group int, params, gradients []float64)
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// Update applies params -= lr * gradients.
func (s SGD) Update(group int, params, gradients []float64) {
	for i := range params {
		params[i] -= s.LearningRate * gradients[i]
	}
}

// Adam optimizer with bias-corrected first and second moment estimates.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	groups map[int]*adamState
}

type adamState struct {
	m []float64
	v []float64
	t int
}

// NewAdam creates an Adam optimizer with the conventional 0.9/0.999 decay
// rates.
func NewAdam(learningRate float64) *Adam {
	return NewAdamWithBetas(learningRate, 0.9, 0.999)
}

// NewAdamWithBetas creates an Adam optimizer with explicit decay rates.
func NewAdamWithBetas(learningRate, beta1, beta2 float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        beta1,
		Beta2:        beta2,
		Epsilon:      1e-8,
		groups:       make(map[int]*adamState),
	}
}

// Update applies one Adam step to the group's parameters. Moment buffers are
// allocated lazily on the first step for each group.
func (a *Adam) Update(group int, params, gradients []float64) {
	if a.groups == nil {
		a.groups = make(map[int]*adamState)
	}
	st, ok := a.groups[group]
	if !ok {
		st = &adamState{
			m: make([]float64, len(params)),
			v: make([]float64, len(params)),
		}
		a.groups[group] = st
	}

	st.t++
	bias1 := 1.0 - math.Pow(a.Beta1, float64(st.t))
	bias2 := 1.0 - math.Pow(a.Beta2, float64(st.t))

	for i := range params {
		g := gradients[i]
		st.m[i] = a.Beta1*st.m[i] + (1.0-a.Beta1)*g
		st.v[i] = a.Beta2*st.v[i] + (1.0-a.Beta2)*g*g

		mHat := st.m[i] / bias1
		vHat := st.v[i] / bias2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}
