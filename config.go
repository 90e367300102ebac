package hh

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ScenarioEnv is the environment variable naming the scenario file used when none is given.
const ScenarioEnv = "HH_SCENARIO"

// Pulse is a rectangular current pulse over the samples [Start, End).
type Pulse struct {
	Start     int     `mapstructure:"start"`
	End       int     `mapstructure:"end"`
	Amplitude float64 `mapstructure:"amplitude"`
}

// Scenario fully describes a run: the neuron, the stimulus, the time step and the outputs.
type Scenario struct {
	Name       string
	Dt         float64
	Steps      int
	Policy     SingularityPolicy
	Params     Params
	Initial    State
	Pulses     []Pulse
	NoiseSigma float64
	NoiseSeed  uint64
	Export     ExportConfig
}

// DefaultScenario returns the reference scenario: the reference pulse from the default initial state.
func DefaultScenario() Scenario {
	return Scenario{
		Name:      "reference",
		Dt:        ReferenceDt,
		Steps:     ReferenceSteps,
		Policy:    Propagate,
		Params:    DefaultParams(),
		Initial:   DefaultState(),
		Pulses:    []Pulse{{Start: ReferencePulseStart, End: ReferencePulseEnd, Amplitude: ReferenceAmplitude}},
		NoiseSeed: 1,
		Export:    ExportConfig{Filename: "reference", OutputDir: ".", Every: 1},
	}
}

// Validate returns an error if the scenario cannot be run.
func (s Scenario) Validate() error {
	if !(s.Dt > 0) {
		return fmt.Errorf("%w: dt=%f", ErrInvalidStep, s.Dt)
	}
	if s.Steps < 1 {
		return fmt.Errorf("%w: steps=%d", ErrEmptyStimulus, s.Steps)
	}
	if err := s.Params.Validate(); err != nil {
		return err
	}
	for i, p := range s.Pulses {
		if p.Start >= p.End {
			return fmt.Errorf("pulse %d: start %d is not before end %d", i, p.Start, p.End)
		}
	}
	if s.NoiseSigma < 0 {
		return errors.New("noise sigma must not be negative")
	}
	return nil
}

// Stimulus builds the stimulus of the scenario.
func (s Scenario) Stimulus() Stimulus {
	stim := NewStimulus(s.Steps)
	for _, p := range s.Pulses {
		stim.AddPulse(p.Start, p.End, p.Amplitude)
	}
	return stim.AddNoise(s.NoiseSigma, s.NoiseSeed)
}

// Neuron returns a new neuron at the initial state of the scenario.
func (s Scenario) Neuron() *Neuron {
	n := NewNeuronFromState(s.Initial, s.Params)
	n.Policy = s.Policy
	return n
}

// NewScenarioViper returns a viper instance holding the defaults of the reference scenario,
// overridable by HH_ prefixed environment variables (e.g. HH_SIMULATION_DT).
func NewScenarioViper() *viper.Viper {
	def := DefaultScenario()
	v := viper.New()
	v.SetEnvPrefix("HH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("simulation.name", def.Name)
	v.SetDefault("simulation.dt", def.Dt)
	v.SetDefault("simulation.steps", def.Steps)
	v.SetDefault("simulation.policy", def.Policy.String())

	v.SetDefault("neuron.Cm", def.Params.Cm)
	v.SetDefault("neuron.ENa", def.Params.ENa)
	v.SetDefault("neuron.EK", def.Params.EK)
	v.SetDefault("neuron.ELeak", def.Params.ELeak)
	v.SetDefault("neuron.gNa", def.Params.GNa)
	v.SetDefault("neuron.gK", def.Params.GK)
	v.SetDefault("neuron.gLeak", def.Params.GLeak)
	v.SetDefault("neuron.Vm", def.Initial.Vm)
	v.SetDefault("neuron.n", def.Initial.N)
	v.SetDefault("neuron.m", def.Initial.M)
	v.SetDefault("neuron.h", def.Initial.H)

	v.SetDefault("stimulus.noise.sigma", 0.0)
	v.SetDefault("stimulus.noise.seed", def.NoiseSeed)

	v.SetDefault("export.output", def.Export.OutputDir)
	v.SetDefault("export.csv", false)
	v.SetDefault("export.timestamp", false)
	v.SetDefault("export.every", def.Export.Every)
	return v
}

// ScenarioFromViper reads a scenario from v (see NewScenarioViper for the keys).
func ScenarioFromViper(v *viper.Viper) (Scenario, error) {
	s := Scenario{
		Name:  v.GetString("simulation.name"),
		Dt:    v.GetFloat64("simulation.dt"),
		Steps: v.GetInt("simulation.steps"),
		Params: Params{
			Cm:    v.GetFloat64("neuron.Cm"),
			ENa:   v.GetFloat64("neuron.ENa"),
			EK:    v.GetFloat64("neuron.EK"),
			ELeak: v.GetFloat64("neuron.ELeak"),
			GNa:   v.GetFloat64("neuron.gNa"),
			GK:    v.GetFloat64("neuron.gK"),
			GLeak: v.GetFloat64("neuron.gLeak"),
		},
		Initial: State{
			Vm: v.GetFloat64("neuron.Vm"),
			N:  v.GetFloat64("neuron.n"),
			M:  v.GetFloat64("neuron.m"),
			H:  v.GetFloat64("neuron.h"),
		},
		NoiseSigma: v.GetFloat64("stimulus.noise.sigma"),
		NoiseSeed:  v.GetUint64("stimulus.noise.seed"),
	}
	policy, err := ParsePolicy(v.GetString("simulation.policy"))
	if err != nil {
		return s, err
	}
	s.Policy = policy

	if v.IsSet("stimulus.pulses") {
		if err := v.UnmarshalKey("stimulus.pulses", &s.Pulses); err != nil {
			return s, fmt.Errorf("invalid stimulus pulses: %w", err)
		}
	} else {
		s.Pulses = DefaultScenario().Pulses
	}

	s.Export = ExportConfig{
		Filename:  s.Name,
		OutputDir: v.GetString("export.output"),
		AsCSV:     v.GetBool("export.csv"),
		Timestamp: v.GetBool("export.timestamp"),
		Every:     v.GetInt("export.every"),
	}
	return s, s.Validate()
}

// LoadScenario reads the scenario file at path (any format viper understands, TOML by default).
// An empty path falls back to $HH_SCENARIO, and to the reference scenario if that is unset too.
func LoadScenario(path string) (Scenario, error) {
	if path == "" {
		path = os.Getenv(ScenarioEnv)
	}
	v := NewScenarioViper()
	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			return Scenario{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return ScenarioFromViper(v)
}
