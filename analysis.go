package hh

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Spike is a supra-threshold excursion of the membrane voltage.
type Spike struct {
	Start  int     `yaml:"start"` // First sample above threshold.
	Peak   int     `yaml:"peak"`  // Sample of maximal voltage.
	End    int     `yaml:"end"`   // First sample back at or below threshold, or the last sample.
	PeakT  float64 `yaml:"peak_ms"`
	PeakVm float64 `yaml:"peak_mv"`
}

// DetectSpikes returns every upward crossing of threshold (mV) by the voltage, with its peak.
func DetectSpikes(traj *Trajectory, threshold float64) []Spike {
	var spikes []Spike
	var cur *Spike
	for i := 1; i < traj.Len(); i++ {
		v := traj.States[i].Vm
		if cur == nil {
			if traj.States[i-1].Vm <= threshold && v > threshold {
				cur = &Spike{Start: i, Peak: i, PeakVm: v}
			}
			continue
		}
		if v > cur.PeakVm {
			cur.Peak, cur.PeakVm = i, v
		}
		if v <= threshold {
			cur.End = i
			cur.PeakT = float64(cur.Peak) * traj.Dt
			spikes = append(spikes, *cur)
			cur = nil
		}
	}
	if cur != nil {
		cur.End = traj.Len() - 1
		cur.PeakT = float64(cur.Peak) * traj.Dt
		spikes = append(spikes, *cur)
	}
	return spikes
}

// Stats are the mean and standard deviation of every state variable over a window.
type Stats struct {
	Mean, StdDev State
}

// RestingStats returns the statistics of traj from sample `from` to the end.
func RestingStats(traj *Trajectory, from int) (Stats, error) {
	if from < 0 || from >= traj.Len()-1 {
		return Stats{}, fmt.Errorf("window start %d out of a %d sample trajectory", from, traj.Len())
	}
	var st Stats
	st.Mean.Vm, st.StdDev.Vm = stat.MeanStdDev(traj.Vm()[from:], nil)
	st.Mean.N, st.StdDev.N = stat.MeanStdDev(traj.N()[from:], nil)
	st.Mean.M, st.StdDev.M = stat.MeanStdDev(traj.M()[from:], nil)
	st.Mean.H, st.StdDev.H = stat.MeanStdDev(traj.H()[from:], nil)
	return st, nil
}

// PeakOrder returns, within samples [from, to), the index of the minimum of h,
// of the maximum of the voltage and of the maximum of n.
func PeakOrder(traj *Trajectory, from, to int) (hTrough, vmPeak, nPeak int) {
	if from < 0 || to > traj.Len() || from >= to {
		panic("invalid peak order window")
	}
	hTrough = from + floats.MinIdx(traj.H()[from:to])
	vmPeak = from + floats.MaxIdx(traj.Vm()[from:to])
	nPeak = from + floats.MaxIdx(traj.N()[from:to])
	return
}

// RestingPotential returns the voltage in [lo, hi] at which the steady state ionic current is null,
// i.e. the resting potential of a membrane with constants p and no injected current.
func RestingPotential(p Params, lo, hi float64) (float64, error) {
	iss := func(v float64) float64 {
		nInf, mInf, hInf := Limit.Rates(v).SteadyState()
		return CurrentsAt(State{Vm: v, N: nInf, M: mInf, H: hInf}, p).Total()
	}
	fLo, fHi := iss(lo), iss(hi)
	if fLo*fHi > 0 {
		return 0, errors.New("steady state current does not change sign in the bracket")
	}
	for i := 0; i < 200 && hi-lo > 1e-12; i++ {
		mid := (lo + hi) / 2
		fMid := iss(mid)
		if fLo*fMid <= 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return (lo + hi) / 2, nil
}

// Summary is a digest of a trajectory.
type Summary struct {
	Name           string  `yaml:"name,omitempty"`
	Steps          int     `yaml:"steps"`
	Dt             float64 `yaml:"dt_ms"`
	Duration       float64 `yaml:"duration_ms"`
	MinVm          float64 `yaml:"min_vm"`
	MaxVm          float64 `yaml:"max_vm"`
	Spikes         []Spike `yaml:"spikes"`
	Final          State   `yaml:"final"`
	FirstNonFinite int     `yaml:"first_non_finite"`
}

// Summarize returns the summary of traj, spikes being counted above SpikeThreshold.
func Summarize(name string, traj *Trajectory) Summary {
	s := Summary{Name: name, Steps: traj.Len(), Dt: traj.Dt, FirstNonFinite: traj.FirstNonFinite()}
	if traj.Len() == 0 {
		return s
	}
	vm := traj.Vm()
	s.Duration = float64(traj.Len()-1) * traj.Dt
	s.MinVm, s.MaxVm = floats.Min(vm), floats.Max(vm)
	s.Spikes = DetectSpikes(traj, SpikeThreshold)
	s.Final = traj.Last()
	return s
}

// WriteYAML writes the summary as YAML.
func (s Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}
