package hh

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// restingState returns the equilibrium of the default membrane.
func restingState(t *testing.T) State {
	t.Helper()
	v, err := RestingPotential(DefaultParams(), -80, -60)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	n, m, h := RatesAt(v).SteadyState()
	return State{Vm: v, N: n, M: m, H: h}
}

func TestRunLength(t *testing.T) {
	n := NewNeuron()
	if traj := Run(n, Stimulus{}, 0.01); traj.Len() != 0 {
		t.Fatal("empty stimulus must give an empty trajectory")
	}
	traj := Run(n, Stimulus{100}, 0.01)
	if traj.Len() != 1 || traj.States[0] != DefaultState() || n.State != DefaultState() {
		t.Fatal("the first sample is the initial state and is never stepped")
	}
	n = NewNeuron()
	traj = Run(n, NewStimulus(10), 0.01)
	if traj.Len() != 10 {
		t.Fatalf("expected 10 states, got %d", traj.Len())
	}
	if traj.Last() != n.State {
		t.Fatal("the neuron must be left at the last recorded state")
	}
	if !floats.Equal(traj.Times(), []float64{0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09}) {
		t.Fatalf("incorrect times %v", traj.Times())
	}
}

func TestRestingEquilibrium(t *testing.T) {
	rest := restingState(t)
	if !floats.EqualWithinAbs(rest.Vm, -65, 0.01) {
		t.Fatalf("unexpected resting potential %f", rest.Vm)
	}
	traj := Run(NewNeuron(), NewStimulus(ReferenceSteps), ReferenceDt)
	for i := 60000; i < traj.Len(); i++ {
		s := traj.States[i]
		if !floats.EqualWithinAbs(s.Vm, rest.Vm, 0.5) {
			t.Fatalf("step %d: Vm=%f not at rest (%f)", i, s.Vm, rest.Vm)
		}
		if !floats.EqualWithinAbs(s.N, rest.N, 0.01) || !floats.EqualWithinAbs(s.M, rest.M, 0.01) || !floats.EqualWithinAbs(s.H, rest.H, 0.01) {
			t.Fatalf("step %d: gates %s not at rest %s", i, s, rest)
		}
	}
	stats, err := RestingStats(traj, 80000)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	if stats.StdDev.Vm > 1e-3 || stats.StdDev.H > 1e-5 {
		t.Fatalf("not steady: %+v", stats.StdDev)
	}
	if len(DetectSpikes(traj, SpikeThreshold)) != 0 {
		t.Fatal("no spike without a stimulus")
	}
}

func TestSubThresholdStimulus(t *testing.T) {
	rest := restingState(t)
	traj := Run(NewNeuron(), pulseStimulus(2), ReferenceDt)
	if spikes := DetectSpikes(traj, SpikeThreshold); len(spikes) != 0 {
		t.Fatalf("sub-threshold stimulus fired %d spikes", len(spikes))
	}
	vm := traj.Vm()
	peak := floats.Max(vm[ReferencePulseStart:])
	if peak < rest.Vm+1 || peak > -55 {
		t.Fatalf("expected a small bounded depolarization, peak at %f mV", peak)
	}
	for i := 90000; i < traj.Len(); i++ {
		if !floats.EqualWithinAbs(vm[i], rest.Vm, 0.5) {
			t.Fatalf("step %d: Vm=%f did not decay back to rest", i, vm[i])
		}
	}
}

func TestReferenceStimulusSpikes(t *testing.T) {
	rest := restingState(t)
	traj := Run(NewNeuron(), ReferenceStimulus(), ReferenceDt)
	if traj.Len() != ReferenceSteps {
		t.Fatalf("expected %d samples, got %d", ReferenceSteps, traj.Len())
	}
	if i := traj.FirstNonFinite(); i != -1 {
		t.Fatalf("non finite state at %d", i)
	}
	// A 20 ms pulse of 30 µA/cm² is long enough for the membrane to fire twice.
	spikes := DetectSpikes(traj, SpikeThreshold)
	if len(spikes) != 2 {
		t.Fatalf("expected 2 spikes, got %+v", spikes)
	}
	for _, s := range spikes {
		if s.Start < ReferencePulseStart || s.End >= ReferencePulseEnd {
			t.Fatalf("spike out of the stimulus window: %+v", s)
		}
	}
	first := spikes[0]
	if first.Peak < 31200 || first.Peak > 31280 || !floats.EqualWithinAbs(first.PeakVm, 42, 0.5) {
		t.Fatalf("unexpected first spike %+v", first)
	}
	if spikes[1].PeakVm >= first.PeakVm {
		t.Fatal("the second spike is smaller: the sodium channels are partly inactivated")
	}

	// Na inactivation falls during the depolarization, K activation peaks after the voltage.
	hTrough, vmPeak, nPeak := PeakOrder(traj, ReferencePulseStart, spikes[1].Start)
	if vmPeak != first.Peak {
		t.Fatalf("peak order window mismatch: %d vs %d", vmPeak, first.Peak)
	}
	if traj.States[first.Peak].H >= traj.States[first.Start].H {
		t.Fatal("h must fall during the upstroke")
	}
	if nPeak <= vmPeak {
		t.Fatalf("n peaks at %d, before the voltage at %d", nPeak, vmPeak)
	}
	if hTrough <= first.Start {
		t.Fatalf("h trough at %d precedes the spike onset %d", hTrough, first.Start)
	}

	// Back to rest once the pulse is over.
	if after := floats.Max(traj.Vm()[ReferencePulseEnd:]); after > -50 {
		t.Fatalf("spike after the stimulus: %f mV", after)
	}
	if last := traj.Last(); !floats.EqualWithinAbs(last.Vm, rest.Vm, 0.5) {
		t.Fatalf("did not return to rest: %s", last)
	}
}

func TestDeterminism(t *testing.T) {
	stim := ReferenceStimulus()
	a := Run(NewNeuron(), stim, ReferenceDt)
	b := Run(NewNeuron(), stim, ReferenceDt)
	for i := range a.States {
		if a.States[i] != b.States[i] {
			t.Fatalf("runs differ at %d: %s vs %s", i, a.States[i], b.States[i])
		}
	}
}

func TestReplayFromRecordedState(t *testing.T) {
	traj := Run(NewNeuron(), ReferenceStimulus(), ReferenceDt)
	for _, k := range []int{1, 30500, 31100, 99999} {
		replay := Replay(NewNeuron(), traj, k)
		if replay.Len() != traj.Len()-k+1 {
			t.Fatalf("k=%d: replay has %d states", k, replay.Len())
		}
		for j, s := range replay.States {
			if s != traj.States[k-1+j] {
				t.Fatalf("k=%d: replay diverges at %d", k, k-1+j)
			}
		}
	}
	assertPanic(t, func() {
		Replay(NewNeuron(), traj, 0)
	})
}

func TestSingularVoltage(t *testing.T) {
	for _, v := range []float64{SingularVn, SingularVm} {
		start := DefaultState()
		start.Vm = v

		n := NewNeuronFromState(start, DefaultParams())
		traj := Run(n, NewStimulus(5), 0.01)
		if traj.FirstNonFinite() != 1 {
			t.Fatalf("%f mV: expected the NaN to appear at the first step, got %d", v, traj.FirstNonFinite())
		}
		for _, s := range traj.States[1:] {
			if !math.IsNaN(s.Vm) {
				t.Fatalf("%f mV: the NaN must contaminate the rest of the run", v)
			}
		}

		n = NewNeuronFromState(start, DefaultParams())
		n.Policy = Limit
		if traj := Run(n, NewStimulus(5), 0.01); traj.FirstNonFinite() != -1 {
			t.Fatalf("%f mV: the limit policy must stay finite", v)
		}
	}
}

func TestRunKeepsDivergingTrajectory(t *testing.T) {
	// dt=0.5 ms is above the Euler stability limit: m leaves [0, 1] and the run blows up.
	stim := NewStimulus(200).AddPulse(0, 200, 30)
	traj := Run(NewNeuron(), stim, 0.5)
	if traj.Len() != 200 {
		t.Fatalf("the run must go on to the end, got %d states", traj.Len())
	}
	if m := traj.States[2].M; m >= 0 {
		t.Fatalf("expected a negative m at step 2, got %f", m)
	}
	for _, k := range []int{2, 11} {
		c := NewNeuronFromState(traj.States[k-1], DefaultParams())
		c.Step(stim[k], 0.5)
		if c.State != traj.States[k] {
			t.Fatalf("step %d was altered: %s vs %s", k, traj.States[k], c.State)
		}
	}
	if traj.States[11].M <= 1 {
		t.Fatalf("expected m above 1 at step 11, got %f", traj.States[11].M)
	}
	if i := traj.FirstNonFinite(); i < 12 || i >= traj.Len() {
		t.Fatalf("expected the run to overflow after step 11, got %d", i)
	}
}
