package hh

import (
	"testing"

	kitlog "github.com/go-kit/log"
)

// assertPanic fails the test if f does not panic.
func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("code did not panic")
		}
	}()
	f()
}

// pulseStimulus returns the reference stimulus shape with another amplitude.
func pulseStimulus(amplitude float64) Stimulus {
	return NewStimulus(ReferenceSteps).AddPulse(ReferencePulseStart, ReferencePulseEnd, amplitude)
}

var quietLogger = kitlog.NewNopLogger()

func newQuietSimulation(t *testing.T, name string, n *Neuron, stim Stimulus, dt float64, opts ...SimOption) *Simulation {
	t.Helper()
	opts = append([]SimOption{WithLogger(quietLogger)}, opts...)
	sim, err := NewSimulation(name, n, stim, dt, opts...)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	return sim
}

