package hh

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	defer s.Close()

	stim := NewStimulus(500).AddPulse(100, 300, 30)
	traj := Run(NewNeuron(), stim, 0.01)
	id, err := s.Save(ctx, "pulse", traj)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	back, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	if back.Dt != traj.Dt || back.Len() != traj.Len() {
		t.Fatalf("loaded %d states at dt=%f", back.Len(), back.Dt)
	}
	for i := range traj.States {
		if back.States[i] != traj.States[i] || back.Stimulus[i] != traj.Stimulus[i] {
			t.Fatalf("sample %d differs: %+v vs %+v", i, back.Sample(i), traj.Sample(i))
		}
	}

	// NaN cannot be stored as a REAL: it comes back as NaN through NULL.
	start := DefaultState()
	start.Vm = SingularVm
	bad := Run(NewNeuronFromState(start, DefaultParams()), NewStimulus(3), 0.01)
	badID, err := s.Save(ctx, "singular", bad)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	badBack, err := s.Load(ctx, badID)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	if badBack.FirstNonFinite() != 1 || !math.IsNaN(badBack.Last().Vm) {
		t.Fatal("NaN states must survive the store")
	}

	runs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	if len(runs) != 2 || runs[0].ID != badID || runs[1].Name != "pulse" || runs[1].Steps != 500 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	if _, err := s.Load(ctx, 42); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreDSN(t *testing.T) {
	for _, tc := range []struct{ path, exp string }{
		{"runs.db", "runs.db?" + storePragmas},
		{"file:runs.db?mode=rwc", "file:runs.db?mode=rwc&" + storePragmas},
	} {
		if got := storeDSN(tc.path); got != tc.exp {
			t.Fatalf("storeDSN(%q)=%q expected %q", tc.path, got, tc.exp)
		}
	}
}

func TestOpenStoreWithQuery(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, "file:"+filepath.Join(t.TempDir(), "runs.db")+"?mode=rwc")
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	defer s.Close()
	var fk int
	if err := s.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("err: %s", err)
	}
	if fk != 1 {
		t.Fatal("the pragmas must still apply after an existing query string")
	}
	if _, err := s.Save(ctx, "query", Run(NewNeuron(), NewStimulus(10), 0.01)); err != nil {
		t.Fatalf("err: %s", err)
	}
}
