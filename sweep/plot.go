package sweep

import (
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WriteWallTimeChart plots wall time against pipeline width, one line per
// predictor variant. Failed cells are left out of their line.
func WriteWallTimeChart(path string, widths []int, predictors []string, results []CellResult) error {
	p := plot.New()
	p.Title.Text = "Simulation Wall Time vs Pipeline Width"
	p.X.Label.Text = "Pipeline Width"
	p.Y.Label.Text = "Wall Time (s)"

	var lines []interface{}
	for _, bp := range predictors {
		var pts plotter.XYs
		for _, width := range widths {
			result := resultFor(results, width, bp)
			if result == nil || result.Failed() {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(width), Y: result.WallTime})
		}
		if len(pts) == 0 {
			continue
		}
		lines = append(lines, bp, pts)
	}
	if len(lines) == 0 {
		return errors.New("no completed cells to plot")
	}

	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "failed to add wall time series")
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// WriteIPCChart plots resolved instructions per cycle against pipeline
// width, one line per predictor variant. Cells without resolved cycle
// counters are left out of their line.
func WriteIPCChart(path string, widths []int, predictors []string, results []CellResult) error {
	p := plot.New()
	p.Title.Text = "IPC vs Pipeline Width"
	p.X.Label.Text = "Pipeline Width"
	p.Y.Label.Text = "Instructions per Cycle"

	var lines []interface{}
	for _, bp := range predictors {
		var pts plotter.XYs
		for _, width := range widths {
			result := resultFor(results, width, bp)
			if result == nil || result.Failed() || result.Run == nil {
				continue
			}
			if result.Run.Metrics.Cycles == 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(width), Y: result.Run.Metrics.IPC()})
		}
		if len(pts) == 0 {
			continue
		}
		lines = append(lines, bp, pts)
	}
	if len(lines) == 0 {
		return errors.New("no resolved cycle counters to plot")
	}

	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "failed to add IPC series")
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// WriteAccuracyChart plots branch prediction accuracy against pipeline
// width, one series per predictor variant. Cells without resolved branch
// statistics are skipped, so a sweep of disabled predictors produces no
// chart.
func WriteAccuracyChart(path string, widths []int, predictors []string, results []CellResult) error {
	if len(widths) < 2 {
		return errors.New("accuracy chart needs at least two widths")
	}

	sorted := append([]int(nil), widths...)
	sort.Ints(sorted)

	ticks := make([]chart.Tick, 0, len(sorted))
	for _, width := range sorted {
		ticks = append(ticks, chart.Tick{
			Value: float64(width),
			Label: strconv.Itoa(width),
		})
	}

	series := make([]chart.Series, 0, len(predictors))
	for i, bp := range predictors {
		var xs, ys []float64
		for _, width := range sorted {
			result := resultFor(results, width, bp)
			if result == nil || result.Failed() || result.Run == nil {
				continue
			}
			if result.Run.Metrics.Lookups == 0 {
				continue
			}
			xs = append(xs, float64(width))
			ys = append(ys, result.Run.Metrics.Accuracy())
		}
		if len(xs) < 2 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name: bp,
			Style: chart.Style{
				Show:        true,
				StrokeWidth: 1,
				StrokeColor: chart.GetDefaultColor(i),
			},
			XValues: xs,
			YValues: ys,
		})
	}
	if len(series) == 0 {
		return errors.New("no resolved branch statistics to plot")
	}

	graph := chart.Chart{
		Title:      "Branch Prediction Accuracy",
		TitleStyle: chart.StyleShow(),
		Background: chart.Style{
			Padding: chart.Box{Top: 50},
		},
		Width:  810,
		Height: 400,
		XAxis: chart.XAxis{
			Name:      "Pipeline Width",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
			Range: &chart.ContinuousRange{
				Min: float64(sorted[0]),
				Max: float64(sorted[len(sorted)-1]),
			},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:      "Accuracy (%)",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
			Range:     &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendThin(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return errors.Wrapf(err, "failed to render %s", path)
	}
	return nil
}
