package integrator

// Euler defines a fixed step forward Euler integrator.
type Euler struct {
	X0         float64    // The initial x0.
	StepSize   float64    // The step size.
	Integrator Integrable // What is to be integrated.
	partitions [][]int
}

// NewEuler returns a new Euler integrator instance.
// If inte also implements Partitioned, its groups are advanced in order at each step.
func NewEuler(x0 float64, stepSize float64, inte Integrable) (e *Euler) {
	if stepSize <= 0 {
		panic("config StepSize must be positive")
	}
	if inte == nil {
		panic("config Integrator may not be nil")
	}
	e = &Euler{X0: x0, StepSize: stepSize, Integrator: inte}
	if p, ok := inte.(Partitioned); ok {
		e.partitions = p.Partitions()
	}
	return
}

// Solve solves the configured Euler.
// Returns the number of iterations performed and the last X_i, or an error.
func (e *Euler) Solve() (uint64, float64, error) {
	iterNum := uint64(0)
	xi := e.X0
	for !e.Integrator.Stop(iterNum) {
		state := e.Integrator.GetState()
		newState := make([]float64, len(state))
		copy(newState, state)

		if e.partitions == nil {
			for i, y := range e.Integrator.Func(xi, state) {
				newState[i] = state[i] + e.StepSize*y
			}
		} else {
			for _, group := range e.partitions {
				f := e.Integrator.Func(xi, newState)
				for _, i := range group {
					newState[i] += e.StepSize * f[i]
				}
			}
		}
		e.Integrator.SetState(iterNum, newState)

		xi += e.StepSize
		iterNum++
	}

	return iterNum, xi, nil
}
