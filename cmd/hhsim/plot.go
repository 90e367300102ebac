package main

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/neurodyn/hh"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	blue  = color.RGBA{B: 220, A: 255}
	red   = color.RGBA{R: 220, A: 255}
	green = color.RGBA{G: 160, A: 255}
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot a run as a PNG figure and an HTML chart",
		Long: `plot draws the membrane voltage, the stimulus and the gating variables of a run.
The run is simulated from the scenario unless --run selects one saved in --db.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			traj, err := plotTrajectory(cmd, logger)
			if err != nil {
				return err
			}
			if idx := traj.FirstNonFinite(); idx >= 0 {
				level.Warn(logger).Log("subsys", "plot", "status", "truncated", "sample", idx)
				traj = truncate(traj, idx)
			}
			every, _ := cmd.Flags().GetInt("every")

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if err := drawFigure(traj, out, every); err != nil {
					return err
				}
				level.Info(logger).Log("subsys", "plot", "png", out)
			}
			if out, _ := cmd.Flags().GetString("html"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := writeChart(f, traj, every); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				level.Info(logger).Log("subsys", "plot", "html", out)
			}
			return nil
		},
	}
	cmd.Flags().String("out", "hh.png", "PNG figure, empty to skip")
	cmd.Flags().String("html", "", "HTML chart, empty to skip")
	cmd.Flags().Int("every", 10, "plot one sample every N")
	cmd.Flags().Int64("run", 0, "id of a saved run to plot instead of simulating")
	cmd.Flags().String("db", "hh.db", "SQLite database of --run")
	return cmd
}

func plotTrajectory(cmd *cobra.Command, logger kitlog.Logger) (*hh.Trajectory, error) {
	if id, _ := cmd.Flags().GetInt64("run"); id > 0 {
		dbPath, _ := cmd.Flags().GetString("db")
		ctx := context.Background()
		store, err := hh.OpenStore(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Load(ctx, id)
	}
	scn, err := loadScenario(cmd)
	if err != nil {
		return nil, err
	}
	return simulate(scn, logger)
}

// truncate returns the first n samples of traj.
func truncate(traj *hh.Trajectory, n int) *hh.Trajectory {
	return &hh.Trajectory{Dt: traj.Dt, Stimulus: traj.Stimulus[:n], States: traj.States[:n]}
}

// decimate keeps one value every `every`, plus the last one.
func decimate(values []float64, every int) []float64 {
	if every <= 1 {
		return values
	}
	out := make([]float64, 0, len(values)/every+2)
	for i := 0; i < len(values); i += every {
		out = append(out, values[i])
	}
	if (len(values)-1)%every != 0 {
		out = append(out, values[len(values)-1])
	}
	return out
}

func xys(ts, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(ts))
	for i := range ts {
		pts[i].X = ts[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func addLine(p *plot.Plot, name string, ts, ys []float64, c color.Color) error {
	l, err := plotter.NewLine(xys(ts, ys))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	l.Color = c
	l.Width = vg.Points(1)
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

// drawFigure writes a three panel PNG: voltage, stimulus and gates against time.
func drawFigure(traj *hh.Trajectory, path string, every int) error {
	if traj.Len() < 2 {
		return fmt.Errorf("cannot plot %d samples", traj.Len())
	}
	ts := decimate(traj.Times(), every)

	vm := plot.New()
	vm.Title.Text = "Hodgkin-Huxley neuron"
	vm.Y.Label.Text = "Vm [mV]"
	if err := addLine(vm, "Vm", ts, decimate(traj.Vm(), every), blue); err != nil {
		return err
	}

	stim := plot.New()
	stim.Y.Label.Text = "I [µA/cm²]"
	if err := addLine(stim, "stimulus", ts, decimate(traj.Stimulus, every), red); err != nil {
		return err
	}

	gates := plot.New()
	gates.X.Label.Text = "t [ms]"
	gates.Y.Label.Text = "act. / inact."
	gates.Legend.Top = true
	for _, g := range []struct {
		name   string
		values []float64
		c      color.Color
	}{
		{"n", traj.N(), blue},
		{"m", traj.M(), green},
		{"h", traj.H(), red},
	} {
		if err := addLine(gates, g.name, ts, decimate(g.values, every), g.c); err != nil {
			return err
		}
	}

	plots := [][]*plot.Plot{{vm}, {stim}, {gates}}
	img := vgimg.New(8*vg.Inch, 8*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}
	return data
}

func newLineChart(title, yName string, xAxis []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t [ms]"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	line.SetXAxis(xAxis)
	return line
}

// writeChart renders the run as an interactive HTML page.
func writeChart(w io.Writer, traj *hh.Trajectory, every int) error {
	ts := decimate(traj.Times(), every)
	xAxis := make([]string, len(ts))
	for i, t := range ts {
		xAxis[i] = strconv.FormatFloat(t, 'f', 3, 64)
	}

	vm := newLineChart("Membrane voltage", "Vm [mV]", xAxis)
	vm.AddSeries("Vm", lineData(decimate(traj.Vm(), every)))

	stim := newLineChart("Stimulus", "I [µA/cm²]", xAxis)
	stim.AddSeries("stimulus", lineData(decimate(traj.Stimulus, every)))

	gates := newLineChart("Gating variables", "act. / inact.", xAxis)
	gates.AddSeries("n", lineData(decimate(traj.N(), every))).
		AddSeries("m", lineData(decimate(traj.M(), every))).
		AddSeries("h", lineData(decimate(traj.H(), every)))

	page := components.NewPage()
	page.PageTitle = "Hodgkin-Huxley neuron"
	page.AddCharts(vm, stim, gates)
	return page.Render(w)
}
