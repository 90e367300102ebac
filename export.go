package hh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const csvColumns = "t,stim,Vm,n,m,h"

// ExportConfig configures the exporting of the simulation.
type ExportConfig struct {
	Filename  string
	OutputDir string
	AsCSV     bool
	Timestamp bool
	Every     int // Keep one sample every Every samples (all if not positive).
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV
}

// CSVPath returns the path of the CSV file, stamped with now if requested.
func (c ExportConfig) CSVPath(now time.Time) string {
	name := c.Filename
	if name == "" {
		name = "run"
	}
	if c.Timestamp {
		name = fmt.Sprintf("%s-%d-%02d-%02dT%02d.%02d.%02d", name, now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second())
	}
	return filepath.Join(c.OutputDir, "hh-"+name+".csv")
}

func (c ExportConfig) every() int {
	if c.Every < 1 {
		return 1
	}
	return c.Every
}

// createCSVFile returns a file which requires a defer close statement!
func createCSVFile(conf ExportConfig) (*os.File, error) {
	if conf.OutputDir != "" {
		if err := os.MkdirAll(conf.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(conf.CSVPath(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV export: %w", err)
	}
	return f, nil
}

func writeCSVHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, `# Creation date (UTC): %s
# Records are t, stim, Vm, n, m, h.
#   Time in ms
#   Stimulus in µA/cm²
#   Voltage in mV
%s
`, time.Now().UTC().Format(time.RFC3339), csvColumns)
	return err
}

func writeCSVRecord(w io.Writer, s Sample) error {
	_, err := fmt.Fprintf(w, "%g,%g,%g,%g,%g,%g\n", s.T, s.Stim, s.Vm, s.N, s.M, s.H)
	return err
}

// StreamStates streams the samples of the channel to the CSV file of conf until the channel is closed.
// It stops at the first write error, leaving the caller to drain the channel.
func StreamStates(conf ExportConfig, stateChan <-chan Sample) (err error) {
	f, err := createCSVFile(conf)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err = writeCSVHeader(w); err != nil {
		return err
	}
	every := conf.every()
	var last *Sample
	for state := range stateChan {
		last = &state
		if state.Index%every != 0 {
			continue
		}
		if err = writeCSVRecord(w, state); err != nil {
			return err
		}
	}
	if last != nil {
		if _, err = fmt.Fprintf(w, "# Simulation end: t=%g ms, %d samples\n", last.T, last.Index+1); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteCSV writes one record every `every` samples of traj to w, with the same layout as StreamStates.
func WriteCSV(w io.Writer, traj *Trajectory, every int) error {
	if every < 1 {
		every = 1
	}
	bw := bufio.NewWriter(w)
	if err := writeCSVHeader(bw); err != nil {
		return err
	}
	for i := 0; i < traj.Len(); i += every {
		if err := writeCSVRecord(bw, traj.Sample(i)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
