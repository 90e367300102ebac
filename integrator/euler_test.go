package integrator

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// decay1D is dy/dt = -k*y with a history of every state.
type decay1D struct {
	k     float64
	state []float64
	hist  [][]float64
	steps uint64
}

func (d *decay1D) GetState() []float64 {
	return d.state
}

func (d *decay1D) SetState(i uint64, s []float64) {
	d.state = s
	d.hist = append(d.hist, s)
}

func (d *decay1D) Stop(i uint64) bool {
	return i >= d.steps
}

func (d *decay1D) Func(t float64, s []float64) []float64 {
	return []float64{-d.k * s[0]}
}

// coupled is x' = y, y' = -x, advanced as [[0], [1]] when partitioned.
type coupled struct {
	state       []float64
	steps       uint64
	partitioned bool
}

func (c *coupled) GetState() []float64 {
	return c.state
}

func (c *coupled) SetState(i uint64, s []float64) {
	c.state = s
}

func (c *coupled) Stop(i uint64) bool {
	return i >= c.steps
}

func (c *coupled) Func(t float64, s []float64) []float64 {
	return []float64{s[1], -s[0]}
}

type partitionedCoupled struct {
	coupled
}

func (p *partitionedCoupled) Partitions() [][]int {
	return [][]int{{0}, {1}}
}

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("code did not panic")
		}
	}()
	f()
}

func TestEulerDecay(t *testing.T) {
	d := &decay1D{k: 0.5, state: []float64{1}, steps: 4}
	iterNum, xi, err := NewEuler(0, 0.1, d).Solve()
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	if iterNum != 4 {
		t.Fatalf("expected 4 iterations, got %d", iterNum)
	}
	if !floats.EqualWithinAbs(xi, 0.4, 1e-12) {
		t.Fatalf("expected xi=0.4, got %f", xi)
	}
	exp := 1.0
	for i, s := range d.hist {
		exp += 0.1 * (-0.5 * exp)
		if s[0] != exp {
			t.Fatalf("step %d: got %.17f expected %.17f", i, s[0], exp)
		}
	}
}

func TestEulerConvergesToExact(t *testing.T) {
	d := &decay1D{k: 1, state: []float64{1}, steps: 100000}
	NewEuler(0, 1e-5, d).Solve()
	if !floats.EqualWithinAbs(d.state[0], math.Exp(-1), 1e-5) {
		t.Fatalf("got %f expected %f", d.state[0], math.Exp(-1))
	}
}

func TestEulerPartitionOrder(t *testing.T) {
	// Plain Euler: both components use the old state.
	plain := &coupled{state: []float64{1, 0}, steps: 1}
	NewEuler(0, 0.5, plain).Solve()
	if !floats.Equal(plain.state, []float64{1, -0.5}) {
		t.Fatalf("plain Euler: got %v", plain.state)
	}
	// Partitioned: y uses the already updated x.
	part := &partitionedCoupled{coupled{state: []float64{0, 1}, steps: 1}}
	NewEuler(0, 0.5, part).Solve()
	if !floats.Equal(part.state, []float64{0.5, 0.75}) {
		t.Fatalf("partitioned Euler: got %v", part.state)
	}
}

func TestEulerDoesNotAliasState(t *testing.T) {
	initial := []float64{1}
	d := &decay1D{k: 1, state: initial, steps: 1}
	NewEuler(0, 0.1, d).Solve()
	if initial[0] != 1 {
		t.Fatal("solver modified the slice returned by GetState")
	}
}

func TestEulerInvalidConfig(t *testing.T) {
	assertPanic(t, func() {
		NewEuler(0, 0, &decay1D{})
	})
	assertPanic(t, func() {
		NewEuler(0, -1, &decay1D{})
	})
	assertPanic(t, func() {
		NewEuler(0, 1, nil)
	})
}
