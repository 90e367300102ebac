package hh

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Jacobian returns the 4x4 Jacobian of the membrane equations at state s, ordered as
// [Vm, n, m, h], for an injected current iStim. It is computed by central differences.
func (n *Neuron) Jacobian(s State, iStim float64) *mat.Dense {
	vec := func(s State) []float64 { return []float64{s.Vm, s.N, s.M, s.H} }
	state := func(v []float64) State { return State{Vm: v[0], N: v[1], M: v[2], H: v[3]} }
	x := vec(s)
	J := mat.NewDense(4, 4, nil)
	for j := range x {
		δ := 1e-6 * math.Max(1, math.Abs(x[j]))
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[j] += δ
		xm[j] -= δ
		fp := vec(n.Derivative(state(xp), iStim))
		fm := vec(n.Derivative(state(xm), iStim))
		for i := range fp {
			J.Set(i, j, (fp[i]-fm[i])/(2*δ))
		}
	}
	return J
}

// EulerStepLimit returns the largest time step (ms) for which forward Euler is stable for the
// linearisation of the neuron around state s. It is only indicative far from an equilibrium,
// and Step never uses it.
func (n *Neuron) EulerStepLimit(s State, iStim float64) (float64, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(n.Jacobian(s, iStim), mat.EigenNone); !ok {
		return 0, errors.New("eigen decomposition of the Jacobian failed")
	}
	limit := math.Inf(1)
	for _, λ := range eig.Values(nil) {
		if real(λ) >= 0 {
			// Unstable or neutral mode: no step makes Euler contract it.
			continue
		}
		// |1 + dt*λ| < 1  <=>  dt < -2 Re(λ) / |λ|².
		abs := cmplx.Abs(λ)
		if dt := -2 * real(λ) / (abs * abs); dt < limit {
			limit = dt
		}
	}
	if math.IsInf(limit, 1) {
		return 0, errors.New("no decaying mode at this state")
	}
	return limit, nil
}
