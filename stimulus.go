package hh

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// ReferenceDt is the time step (ms) of the reference scenario.
	ReferenceDt = 0.001
	// ReferenceSteps is the number of samples of the reference scenario.
	ReferenceSteps = 100000
	// ReferenceAmplitude is the current (µA/cm²) of the reference pulse.
	ReferenceAmplitude = 30.0
	// ReferencePulseStart is the first sample of the reference pulse.
	ReferencePulseStart = 30000
	// ReferencePulseEnd is the first sample after the reference pulse.
	ReferencePulseEnd = 50000
)

// Stimulus is an injected current (µA/cm²), one value per time step.
type Stimulus []float64

// NewStimulus returns a null stimulus of count samples.
func NewStimulus(count int) Stimulus {
	return make(Stimulus, count)
}

// ReferenceStimulus returns the rectangular pulse of the reference scenario.
func ReferenceStimulus() Stimulus {
	return NewStimulus(ReferenceSteps).AddPulse(ReferencePulseStart, ReferencePulseEnd, ReferenceAmplitude)
}

// AddPulse adds amplitude to the samples in [start, end), clipped to the stimulus.
// Returns the stimulus to allow chaining.
func (s Stimulus) AddPulse(start, end int, amplitude float64) Stimulus {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	for i := start; i < end; i++ {
		s[i] += amplitude
	}
	return s
}

// AddNoise adds zero mean Gaussian noise of standard deviation sigma to every sample.
// The same seed always yields the same noise.
func (s Stimulus) AddNoise(sigma float64, seed uint64) Stimulus {
	if sigma <= 0 {
		return s
	}
	normal := distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, seed)}
	for i := range s {
		s[i] += normal.Rand()
	}
	return s
}

// Times returns the time (ms) of each sample for a step dt.
func (s Stimulus) Times(dt float64) []float64 {
	t := make([]float64, len(s))
	for i := range t {
		t[i] = float64(i) * dt
	}
	return t
}
