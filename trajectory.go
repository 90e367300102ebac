package hh

// Sample is the state of the neuron at a time step.
type Sample struct {
	Index int
	T     float64 // Time (ms).
	Stim  float64 // Injected current of this step.
	State
}

// Trajectory is the result of a run: one state per stimulus sample.
// States[0] is the initial state and States[i] is the state after the step driven by Stimulus[i].
type Trajectory struct {
	Dt       float64
	Stimulus Stimulus
	States   []State
}

// NewTrajectory returns an empty trajectory with room for every sample of stim.
func NewTrajectory(stim Stimulus, dt float64) *Trajectory {
	return &Trajectory{Dt: dt, Stimulus: stim, States: make([]State, 0, len(stim))}
}

// Len returns the number of recorded states.
func (t *Trajectory) Len() int {
	return len(t.States)
}

// Sample returns the i-th sample.
func (t *Trajectory) Sample(i int) Sample {
	var stim float64
	if i < len(t.Stimulus) {
		stim = t.Stimulus[i]
	}
	return Sample{Index: i, T: float64(i) * t.Dt, Stim: stim, State: t.States[i]}
}

// Times returns the time (ms) of each recorded state.
func (t *Trajectory) Times() []float64 {
	ts := make([]float64, len(t.States))
	for i := range ts {
		ts[i] = float64(i) * t.Dt
	}
	return ts
}

// Vm returns the voltage column.
func (t *Trajectory) Vm() []float64 {
	return t.column(func(s State) float64 { return s.Vm })
}

// N returns the potassium activation column.
func (t *Trajectory) N() []float64 {
	return t.column(func(s State) float64 { return s.N })
}

// M returns the sodium activation column.
func (t *Trajectory) M() []float64 {
	return t.column(func(s State) float64 { return s.M })
}

// H returns the sodium inactivation column.
func (t *Trajectory) H() []float64 {
	return t.column(func(s State) float64 { return s.H })
}

func (t *Trajectory) column(f func(State) float64) []float64 {
	col := make([]float64, len(t.States))
	for i, s := range t.States {
		col[i] = f(s)
	}
	return col
}

// Last returns the last recorded state.
func (t *Trajectory) Last() State {
	return t.States[len(t.States)-1]
}

// FirstNonFinite returns the index of the first state holding a NaN or an infinity, or -1.
func (t *Trajectory) FirstNonFinite() int {
	for i, s := range t.States {
		if !s.IsFinite() {
			return i
		}
	}
	return -1
}
