// Package sweep drives a configuration matrix against the engine and
// aggregates per-cell results into comparison reports.
package sweep

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesweep/runner"
)

// Default artifact names inside the output directory.
const (
	DefaultOutputDir   = "sweep_results"
	DefaultCSVName     = "width_comparison.csv"
	DefaultSummaryName = "summary_report.txt"
)

// Cell identifies one sweep point.
type Cell struct {
	// Width is the pipeline width under test.
	Width int

	// Predictor is the branch predictor variant under test.
	Predictor string
}

func (c Cell) String() string {
	return fmt.Sprintf("width=%d bp=%s", c.Width, c.Predictor)
}

// ArtifactName is the per-cell detail file holding the raw engine output.
func (c Cell) ArtifactName() string {
	return fmt.Sprintf("width_%d_%s.txt", c.Width, c.Predictor)
}

// CellResult is one completed sweep point. Rows are appended to the
// run-wide table as they finish and never mutated afterwards.
type CellResult struct {
	// Width is the pipeline width of this cell.
	Width int `json:"width"`

	// Predictor is the branch predictor variant of this cell.
	Predictor string `json:"predictor"`

	// WallTime is the host seconds spent on the whole cell.
	WallTime float64 `json:"wall_time_sec"`

	// Output is the raw combined engine output.
	Output string `json:"output"`

	// Error annotates a failed cell. Empty on success.
	Error string `json:"error,omitempty"`

	// Run holds the resolved result when the cell completed.
	Run *runner.Result `json:"run,omitempty"`
}

// Failed reports whether the cell failed.
func (r CellResult) Failed() bool {
	return r.Error != ""
}

// CombinedText is the cell's raw output with the failure annotation, the
// text written to the per-cell artifact and the CSV output column.
func (r CellResult) CombinedText() string {
	if r.Error == "" {
		return r.Output
	}
	if r.Output == "" {
		return "ERROR: " + r.Error
	}
	return r.Output + "\nERROR: " + r.Error
}

// CellRunner executes one sweep cell.
type CellRunner interface {
	// RunCell blocks until the cell's simulation exits. It returns the
	// raw combined engine output and, when the run completed, the
	// resolved result.
	RunCell(cell Cell) (output string, run *runner.Result, err error)
}

// Orchestrator sweeps the widths x predictors cross-product in a fixed
// deterministic order: the outer loop walks widths, the inner loop walks
// predictor variants. Cells run strictly one at a time and rows land in
// the result table in sweep order.
type Orchestrator struct {
	widths     []int
	predictors []string
	cells      CellRunner

	outDir      string
	csvName     string
	summaryName string
	plots       bool

	runID   string
	results []CellResult
}

// Option adjusts an Orchestrator.
type Option func(*Orchestrator)

// WithOutputDir sets the directory receiving the CSV, summary, charts,
// and per-cell artifacts.
func WithOutputDir(dir string) Option {
	return func(o *Orchestrator) {
		o.outDir = dir
	}
}

// WithPlots toggles chart generation after the sweep.
func WithPlots(enabled bool) Option {
	return func(o *Orchestrator) {
		o.plots = enabled
	}
}

// New creates a sweep over the given widths and predictor variants.
func New(widths []int, predictors []string, cells CellRunner, opts ...Option) (*Orchestrator, error) {
	if len(widths) == 0 {
		return nil, errors.New("sweep needs at least one width")
	}
	for _, w := range widths {
		if w < 1 {
			return nil, errors.Errorf("sweep width must be >= 1, got %d", w)
		}
	}
	if len(predictors) == 0 {
		return nil, errors.New("sweep needs at least one predictor variant")
	}
	if cells == nil {
		return nil, errors.New("sweep needs a cell runner")
	}

	o := &Orchestrator{
		widths:      widths,
		predictors:  predictors,
		cells:       cells,
		outDir:      DefaultOutputDir,
		csvName:     DefaultCSVName,
		summaryName: DefaultSummaryName,
		plots:       true,
		runID:       xid.New().String(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RunID identifies this sweep in logs and the summary report.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Results returns the rows collected so far.
func (o *Orchestrator) Results() []CellResult {
	return o.results
}

// Run executes every cell and writes the CSV, per-cell artifacts, summary
// report, and charts into the output directory. A failing cell is
// recorded as a failed row and the sweep continues: over a long parameter
// sweep, maximal data collection beats fail-fast. Only I/O failures on
// the shared report files abort the sweep.
func (o *Orchestrator) Run() ([]CellResult, error) {
	if err := os.MkdirAll(o.outDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", o.outDir)
	}

	table, err := newCSVTable(filepath.Join(o.outDir, o.csvName))
	if err != nil {
		return nil, err
	}
	defer table.Close()

	total := len(o.widths) * len(o.predictors)
	log.Infof("sweep %s: %d cells into %s", o.runID, total, o.outDir)

	for _, width := range o.widths {
		for _, bp := range o.predictors {
			cell := Cell{Width: width, Predictor: bp}
			log.Infof("running simulation with %s", cell)

			start := time.Now()
			output, run, err := o.cells.RunCell(cell)
			wallTime := time.Since(start).Seconds()

			result := CellResult{
				Width:     width,
				Predictor: bp,
				WallTime:  wallTime,
				Output:    output,
				Run:       run,
			}
			if err != nil {
				result.Error = err.Error()
				log.WithError(err).Warnf("cell %s failed, continuing sweep", cell)
			} else {
				log.Infof("  wall time: %.2f seconds", wallTime)
			}

			o.writeArtifact(cell, result)
			if err := table.Append(result); err != nil {
				return o.results, err
			}
			o.results = append(o.results, result)
		}
	}

	summaryPath := filepath.Join(o.outDir, o.summaryName)
	if err := o.writeSummaryFile(summaryPath); err != nil {
		return o.results, err
	}
	log.Infof("summary report generated: %s", summaryPath)

	if o.plots {
		o.writeCharts()
	}

	return o.results, nil
}

// writeArtifact saves the cell's raw output. Artifact loss is a
// degradation, not a sweep failure.
func (o *Orchestrator) writeArtifact(cell Cell, result CellResult) {
	path := filepath.Join(o.outDir, cell.ArtifactName())
	if err := os.WriteFile(path, []byte(result.CombinedText()), 0644); err != nil {
		log.WithError(err).Warnf("failed to save output of cell %s", cell)
		return
	}
	log.Debugf("  output saved to: %s", path)
}

func (o *Orchestrator) writeSummaryFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create summary report %s", path)
	}
	defer f.Close()

	return WriteSummary(f, o.runID, o.widths, o.predictors, o.results)
}

func (o *Orchestrator) writeCharts() {
	wallPath := filepath.Join(o.outDir, "wall_time_comparison.png")
	if err := WriteWallTimeChart(wallPath, o.widths, o.predictors, o.results); err != nil {
		log.WithError(err).Warn("failed to plot wall time chart")
	}

	ipcPath := filepath.Join(o.outDir, "ipc_comparison.png")
	if err := WriteIPCChart(ipcPath, o.widths, o.predictors, o.results); err != nil {
		log.WithError(err).Warn("failed to plot IPC chart")
	}

	accPath := filepath.Join(o.outDir, "branch_accuracy.png")
	if err := WriteAccuracyChart(accPath, o.widths, o.predictors, o.results); err != nil {
		log.WithError(err).Warn("failed to plot accuracy chart")
	}
}

// resultFor returns the recorded row for the given cell, or nil.
func resultFor(results []CellResult, width int, predictor string) *CellResult {
	for i := range results {
		if results[i].Width == width && results[i].Predictor == predictor {
			return &results[i]
		}
	}
	return nil
}
