package hh

import "fmt"

// Currents are the ionic currents (µA/cm²) through the membrane. Positive is outward.
type Currents struct {
	Na, K, Leak float64
}

// Total returns the net ionic current.
func (c Currents) Total() float64 {
	return c.Na + c.K + c.Leak
}

func (c Currents) String() string {
	return fmt.Sprintf("INa=%.4f IK=%.4f ILeak=%.4f", c.Na, c.K, c.Leak)
}

// CurrentsAt returns the ionic currents of state s with constants p.
func CurrentsAt(s State, p Params) Currents {
	return Currents{
		Na:   p.GNa * s.M * s.M * s.M * s.H * (s.Vm - p.ENa),
		K:    p.GK * s.N * s.N * s.N * s.N * (s.Vm - p.EK),
		Leak: p.GLeak * (s.Vm - p.ELeak),
	}
}

// Currents returns the ionic currents of the current state of the neuron.
func (n *Neuron) Currents() Currents {
	return CurrentsAt(n.State, n.Params)
}
