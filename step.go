package hh

// Derivative returns the time derivative of state s under the constants and policy of
// the neuron, for an injected current iStim (µA/cm²). The neuron itself is not modified.
func (n *Neuron) Derivative(s State, iStim float64) State {
	r := n.Policy.Rates(s.Vm)
	c := CurrentsAt(s, n.Params)
	return State{
		Vm: (iStim - c.Na - c.K - c.Leak) / n.Params.Cm,
		N:  r.AlphaN*(1-s.N) - r.BetaN*s.N,
		M:  r.AlphaM*(1-s.M) - r.BetaM*s.M,
		H:  r.AlphaH*(1-s.H) - r.BetaH*s.H,
	}
}

// UpdateGates advances the three gates by dt with rates evaluated at the current voltage.
func (n *Neuron) UpdateGates(dt float64) {
	r := n.Policy.Rates(n.Vm)
	n.N += dt * (r.AlphaN*(1-n.N) - r.BetaN*n.N)
	n.M += dt * (r.AlphaM*(1-n.M) - r.BetaM*n.M)
	n.H += dt * (r.AlphaH*(1-n.H) - r.BetaH*n.H)
}

// UpdateVoltage advances the membrane voltage by dt using the current gates and
// the injected current iStim.
func (n *Neuron) UpdateVoltage(iStim, dt float64) {
	c := n.Currents()
	n.Vm += dt * ((iStim - c.Na - c.K - c.Leak) / n.Params.Cm)
}

// Step advances the neuron by dt (ms) under the injected current iStim (µA/cm²).
// The gates are updated first and the voltage update consumes the new gates.
// Nothing is checked: an unstable dt diverges and a singular voltage yields NaN
// under the Propagate policy.
func (n *Neuron) Step(iStim, dt float64) {
	n.UpdateGates(dt)
	n.UpdateVoltage(iStim, dt)
}
