package hh

import (
	"fmt"
	"os"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/neurodyn/hh/integrator"
)

const (
	// SpikeThreshold is the voltage (mV) above which an excursion counts as a spike.
	SpikeThreshold = 0.0
	histBuffer     = 1000 // Entries buffered between the integration and the export.
	progressParts  = 10   // Number of progress reports per run.
)

// Simulation drives a neuron through a stimulus with the Euler integrator and collects the trajectory.
// It implements integrator.Partitioned: the gates are advanced before the voltage at each step.
type Simulation struct {
	Name     string
	Neuron   *Neuron // As pointer because the neuron changes during the run.
	Stimulus Stimulus
	Dt       float64
	export   ExportConfig
	logger   kitlog.Logger
	traj     *Trajectory
	histChan chan Sample
	cur      int  // Stimulus index of the step being computed.
	diverged bool // Whether a non-finite state was already reported.
}

// SimOption configures a Simulation.
type SimOption func(*Simulation)

// WithLogger sets the logger of the simulation.
func WithLogger(logger kitlog.Logger) SimOption {
	return func(s *Simulation) {
		s.logger = kitlog.With(logger, "sim", s.Name)
	}
}

// WithExport streams every recorded sample to the outputs of conf.
func WithExport(conf ExportConfig) SimOption {
	return func(s *Simulation) {
		s.export = conf
	}
}

// NewSimulation returns a simulation of n driven by stim with a time step of dt (ms).
func NewSimulation(name string, n *Neuron, stim Stimulus, dt float64, opts ...SimOption) (*Simulation, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt=%f", ErrInvalidStep, dt)
	}
	if len(stim) == 0 {
		return nil, ErrEmptyStimulus
	}
	if n == nil {
		n = NewNeuron()
	}
	if err := n.Params.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{Name: name, Neuron: n, Stimulus: stim, Dt: dt}
	s.logger = kitlog.With(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr)), "sim", name)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run integrates the whole stimulus and returns the trajectory.
// The returned error only concerns the export: numerical blow ups are logged and kept in the trajectory.
func (s *Simulation) Run() (*Trajectory, error) {
	s.traj = NewTrajectory(s.Stimulus, s.Dt)
	s.traj.States = append(s.traj.States, s.Neuron.State)
	s.diverged = false

	var wg sync.WaitGroup
	var exportErr error
	if !s.export.IsUseless() {
		s.histChan = make(chan Sample, histBuffer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			exportErr = StreamStates(s.export, s.histChan)
			if exportErr != nil {
				// Keep draining so that the integration never blocks.
				for range s.histChan {
				}
			}
		}()
		s.histChan <- s.traj.Sample(0)
	}

	level.Info(s.logger).Log("subsys", "integ", "status", "started", "steps", len(s.Stimulus), "dt(ms)", s.Dt, "policy", s.Neuron.Policy, "state", s.Neuron.State)
	start := time.Now()
	iterNum, tf, _ := integrator.NewEuler(0, s.Dt, s).Solve() // Blocking.
	if s.histChan != nil {
		close(s.histChan)
		wg.Wait() // Don't return until we're done writing all the files.
		s.histChan = nil
	}
	spikes := DetectSpikes(s.traj, SpikeThreshold)
	level.Info(s.logger).Log("subsys", "integ", "status", "finished", "iterations", iterNum, "t(ms)", tf, "duration", time.Since(start), "spikes", len(spikes), "state", s.Neuron.State)
	if exportErr != nil {
		level.Error(s.logger).Log("subsys", "export", "err", exportErr)
		return s.traj, fmt.Errorf("export of %s: %w", s.Name, exportErr)
	}
	return s.traj, nil
}

// Trajectory returns the trajectory of the last run, or nil.
func (s *Simulation) Trajectory() *Trajectory {
	return s.traj
}

// GetState implements the integrator.Integrable interface.
func (s *Simulation) GetState() []float64 {
	return []float64{s.Neuron.Vm, s.Neuron.N, s.Neuron.M, s.Neuron.H}
}

// SetState implements the integrator.Integrable interface.
func (s *Simulation) SetState(i uint64, st []float64) {
	s.Neuron.State = State{Vm: st[0], N: st[1], M: st[2], H: st[3]}
	s.traj.States = append(s.traj.States, s.Neuron.State)
	k := s.traj.Len() - 1
	if s.histChan != nil {
		s.histChan <- s.traj.Sample(k)
	}
	if !s.diverged && !s.Neuron.State.IsFinite() {
		s.diverged = true
		level.Warn(s.logger).Log("subsys", "integ", "status", "non-finite", "step", k, "t(ms)", float64(k)*s.Dt, "vm", s.Neuron.Vm, "singular", IsSingular(s.traj.States[k-1].Vm))
	}
	if every := len(s.Stimulus) / progressParts; every > 0 && k%every == 0 {
		level.Debug(s.logger).Log("subsys", "integ", "step", k, "state", s.Neuron.State)
	}
}

// Stop implements the integrator.Integrable interface.
func (s *Simulation) Stop(i uint64) bool {
	s.cur = int(i) + 1
	return s.cur >= len(s.Stimulus)
}

// Func implements the integrator.Integrable interface.
func (s *Simulation) Func(t float64, st []float64) []float64 {
	d := s.Neuron.Derivative(State{Vm: st[0], N: st[1], M: st[2], H: st[3]}, s.Stimulus[s.cur])
	return []float64{d.Vm, d.N, d.M, d.H}
}

// Partitions implements the integrator.Partitioned interface: gates first, then voltage.
func (s *Simulation) Partitions() [][]int {
	return [][]int{{1, 2, 3}, {0}}
}
