package hh

import (
	"fmt"
	"math"
)

// Params are the biophysical constants of the membrane.
type Params struct {
	Cm    float64 // Membrane capacitance (µF/cm²).
	ENa   float64 // Sodium reversal potential (mV).
	EK    float64 // Potassium reversal potential (mV).
	ELeak float64 // Leak reversal potential (mV).
	GNa   float64 // Maximal sodium conductance (mS/cm²).
	GK    float64 // Maximal potassium conductance (mS/cm²).
	GLeak float64 // Leak conductance (mS/cm²).
}

// DefaultParams returns the squid giant axon constants shifted to a -65 mV rest.
func DefaultParams() Params {
	return Params{Cm: 1, ENa: 50, EK: -77, ELeak: -54.4, GNa: 120, GK: 36, GLeak: 0.3}
}

// Validate returns an error if the parameters cannot describe a membrane.
func (p Params) Validate() error {
	if !(p.Cm > 0) {
		return fmt.Errorf("%w: Cm=%f must be positive", ErrInvalidParams, p.Cm)
	}
	names := [3]string{"gNa", "gK", "gLeak"}
	for i, g := range [3]float64{p.GNa, p.GK, p.GLeak} {
		if !(g >= 0) {
			return fmt.Errorf("%w: %s=%f must be non negative", ErrInvalidParams, names[i], g)
		}
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("Cm=%g ENa=%g EK=%g ELeak=%g gNa=%g gK=%g gLeak=%g", p.Cm, p.ENa, p.EK, p.ELeak, p.GNa, p.GK, p.GLeak)
}

// State is the dynamical state of the membrane.
type State struct {
	Vm float64 `yaml:"vm"` // Membrane voltage (mV).
	N  float64 `yaml:"n"`  // Potassium activation.
	M  float64 `yaml:"m"`  // Sodium activation.
	H  float64 `yaml:"h"`  // Sodium inactivation.
}

// DefaultState returns the initial state of a simulation.
func DefaultState() State {
	return State{Vm: -65, N: 0.6, M: 0.05, H: 0.32}
}

// IsFinite returns whether none of the state variables is NaN or infinite.
func (s State) IsFinite() bool {
	for _, v := range [4]float64{s.Vm, s.N, s.M, s.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) String() string {
	return fmt.Sprintf("Vm=%.4f n=%.4f m=%.4f h=%.4f", s.Vm, s.N, s.M, s.H)
}

// Neuron is a single point neuron: its state, its constants and how the
// activation rates handle their removable singularities.
// A Neuron is mutated by Step and must not be shared between runs.
type Neuron struct {
	State
	Params Params
	Policy SingularityPolicy
}

// NewNeuron returns a neuron at the default initial state with the default constants.
func NewNeuron() *Neuron {
	return &Neuron{State: DefaultState(), Params: DefaultParams(), Policy: Propagate}
}

// NewNeuronFromState returns a neuron starting at s with the constants p.
func NewNeuronFromState(s State, p Params) *Neuron {
	return &Neuron{State: s, Params: p, Policy: Propagate}
}

// Clone returns an independent copy of this neuron.
func (n *Neuron) Clone() *Neuron {
	c := *n
	return &c
}
