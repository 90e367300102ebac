package hh

import (
	"fmt"
	"math"
	"strings"
)

const (
	// SingularVn is the voltage at which AlphaN is 0/0.
	SingularVn = -55.0
	// SingularVm is the voltage at which AlphaM is 0/0.
	SingularVm = -40.0
)

// SingularityPolicy defines how the activation rates are evaluated at their removable singularities.
type SingularityPolicy uint8

const (
	// Propagate evaluates the closed form everywhere: the rate is NaN at the singular voltages
	// and the NaN contaminates the rest of the run.
	Propagate SingularityPolicy = iota
	// Limit returns the limit of the rate at the exact singular voltages.
	Limit
)

func (p SingularityPolicy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case Limit:
		return "limit"
	}
	panic("cannot stringify unknown singularity policy")
}

// ParsePolicy returns the policy named s.
func ParsePolicy(s string) (SingularityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "propagate":
		return Propagate, nil
	case "limit":
		return Limit, nil
	}
	return Propagate, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Rates are the six voltage dependent rate constants (1/ms) of the gates.
type Rates struct {
	AlphaN, BetaN float64
	AlphaM, BetaM float64
	AlphaH, BetaH float64
}

// AlphaN is the opening rate of the potassium activation gate.
func AlphaN(v float64) float64 {
	return 0.01 * (v + 55) / (1 - math.Exp(-(v+55)/10))
}

// BetaN is the closing rate of the potassium activation gate.
func BetaN(v float64) float64 {
	return 0.125 * math.Exp(-(v+65)/80)
}

// AlphaM is the opening rate of the sodium activation gate.
func AlphaM(v float64) float64 {
	return 0.1 * (v + 40) / (1 - math.Exp(-(v+40)/10))
}

// BetaM is the closing rate of the sodium activation gate.
func BetaM(v float64) float64 {
	return 4 * math.Exp(-(v+65)/18)
}

// AlphaH is the recovery rate of the sodium inactivation gate.
func AlphaH(v float64) float64 {
	return 0.07 * math.Exp(-(v+65)/20)
}

// BetaH is the inactivation rate of the sodium inactivation gate.
func BetaH(v float64) float64 {
	return 1 / (1 + math.Exp(-(v+35)/10))
}

// RatesAt returns all the rates at voltage v, as written, with no special case.
func RatesAt(v float64) Rates {
	return Rates{
		AlphaN: AlphaN(v), BetaN: BetaN(v),
		AlphaM: AlphaM(v), BetaM: BetaM(v),
		AlphaH: AlphaH(v), BetaH: BetaH(v),
	}
}

// IsSingular returns whether one of the closed form rates is 0/0 at v.
func IsSingular(v float64) bool {
	return v == SingularVn || v == SingularVm
}

// Rates returns the rates at v under this policy.
func (p SingularityPolicy) Rates(v float64) Rates {
	r := RatesAt(v)
	if p == Limit {
		// L'Hôpital: lim x/(1-exp(-x/10)) = 10 when x -> 0.
		if v == SingularVn {
			r.AlphaN = 0.1
		}
		if v == SingularVm {
			r.AlphaM = 1
		}
	}
	return r
}

// SteadyState returns the asymptotic values of the gates held at voltage v.
func (r Rates) SteadyState() (nInf, mInf, hInf float64) {
	return r.AlphaN / (r.AlphaN + r.BetaN), r.AlphaM / (r.AlphaM + r.BetaM), r.AlphaH / (r.AlphaH + r.BetaH)
}

// TimeConstants returns the relaxation time constants (ms) of the gates held at voltage v.
func (r Rates) TimeConstants() (τn, τm, τh float64) {
	return 1 / (r.AlphaN + r.BetaN), 1 / (r.AlphaM + r.BetaM), 1 / (r.AlphaH + r.BetaH)
}
