package hh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const storePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

const storeSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	dt REAL NOT NULL,
	steps INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	stim REAL,
	vm REAL,
	n REAL,
	m REAL,
	h REAL,
	PRIMARY KEY (run_id, idx)
);`

// RunInfo describes a stored run.
type RunInfo struct {
	ID        int64
	Name      string
	Dt        float64
	Steps     int
	CreatedAt time.Time
}

// Store persists trajectories in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and creates if needed) the SQLite database at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", storeDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer
	if _, err := db.ExecContext(ctx, storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// storeDSN appends the connection pragmas to path, which may already carry a query string.
func storeDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + storePragmas
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores traj under name and returns the id of the run.
func (s *Store) Save(ctx context.Context, name string, traj *Trajectory) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO runs (name, dt, steps, created_at) VALUES (?, ?, ?, ?)`,
		name, traj.Dt, traj.Len(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, idx, stim, vm, n, m, h) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()
	for i := 0; i < traj.Len(); i++ {
		smp := traj.Sample(i)
		if _, err = stmt.ExecContext(ctx, id, i, nullable(smp.Stim), nullable(smp.Vm), nullable(smp.N), nullable(smp.M), nullable(smp.H)); err != nil {
			return 0, fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// Load returns the trajectory of run id.
func (s *Store) Load(ctx context.Context, id int64) (*Trajectory, error) {
	var dt float64
	var steps int
	err := s.db.QueryRowContext(ctx, `SELECT dt, steps FROM runs WHERE id = ?`, id).Scan(&dt, &steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read run %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT stim, vm, n, m, h FROM samples WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples of run %d: %w", id, err)
	}
	defer rows.Close()

	traj := &Trajectory{Dt: dt, Stimulus: make(Stimulus, 0, steps), States: make([]State, 0, steps)}
	for rows.Next() {
		var stim, vm, n, m, h sql.NullFloat64
		if err := rows.Scan(&stim, &vm, &n, &m, &h); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		traj.Stimulus = append(traj.Stimulus, fromNull(stim))
		traj.States = append(traj.States, State{Vm: fromNull(vm), N: fromNull(n), M: fromNull(m), H: fromNull(h)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}
	return traj, nil
}

// List returns every stored run, most recent first.
func (s *Store) List(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, dt, steps, created_at FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()
	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var created string
		if err := rows.Scan(&r.ID, &r.Name, &r.Dt, &r.Steps, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("invalid creation date of run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// nullable maps the values SQLite cannot store (NaN) to NULL.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
