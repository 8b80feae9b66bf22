package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

var csvHeader = []string{"Width", "Branch Predictor", "Wall Time", "Output"}

// csvTable appends sweep rows to a CSV file, flushing after every row so
// a crashed sweep keeps the cells that finished.
type csvTable struct {
	file   *os.File
	writer *csv.Writer
}

func newCSVTable(path string) (*csvTable, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create results table %s", path)
	}

	t := &csvTable{file: f, writer: csv.NewWriter(f)}
	if err := t.writeRow(csvHeader); err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

func (t *csvTable) Append(result CellResult) error {
	row := []string{
		strconv.Itoa(result.Width),
		result.Predictor,
		strconv.FormatFloat(result.WallTime, 'f', -1, 64),
		result.CombinedText(),
	}
	return t.writeRow(row)
}

func (t *csvTable) writeRow(row []string) error {
	if err := t.writer.Write(row); err != nil {
		return errors.Wrapf(err, "failed to write results table %s", t.file.Name())
	}
	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		return errors.Wrapf(err, "failed to flush results table %s", t.file.Name())
	}
	return nil
}

func (t *csvTable) Close() error {
	t.writer.Flush()
	return t.file.Close()
}

// WriteSummary renders the human-readable comparison report: a wall time
// matrix over the sweep grid, per-predictor timing statistics, and the
// analysis notes.
func WriteSummary(w io.Writer, runID string, widths []int, predictors []string, results []CellResult) error {
	var err error
	p := func(format string, args ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format, args...)
	}

	p("===== SUPERSCALAR PIPELINE PERFORMANCE COMPARISON =====\n")
	p("Run: %s\n\n", runID)

	p("WALL TIME COMPARISON:\n")
	p("%s\n", dashes(50))
	p("%-10s ", "Width")
	for _, bp := range predictors {
		p("%-15s ", bp)
	}
	p("\n%s\n", dashes(70))

	for _, width := range widths {
		p("%-10d ", width)
		for _, bp := range predictors {
			result := resultFor(results, width, bp)
			switch {
			case result == nil:
				p("%-15s ", "-")
			case result.Failed():
				p("%-15s ", "FAILED")
			default:
				p("%-15.2f ", result.WallTime)
			}
		}
		p("\n")
	}

	p("\nWALL TIME STATISTICS (seconds):\n")
	p("%s\n", dashes(70))
	p("%-15s %10s %10s %10s %10s\n", "Predictor", "Mean", "StdDev", "Median", "P90")
	for _, bp := range predictors {
		times := wallTimes(results, bp)
		if len(times) == 0 {
			p("%-15s %10s %10s %10s %10s\n", bp, "-", "-", "-", "-")
			continue
		}
		mean, stddev := stat.MeanStdDev(times, nil)
		if len(times) == 1 {
			stddev = 0
		}
		median, medianErr := stats.Median(times)
		p90, p90Err := stats.Percentile(times, 90)
		if medianErr != nil || p90Err != nil {
			p("%-15s %10.2f %10.2f %10s %10s\n", bp, mean, stddev, "-", "-")
			continue
		}
		p("%-15s %10.2f %10.2f %10.2f %10.2f\n", bp, mean, stddev, median, p90)
	}

	p("\nANALYSIS:\n")
	p("%s\n", dashes(70))
	p("1. Wider pipelines fetch, issue, and commit more instructions per\n")
	p("   cycle, so simulated IPC should rise with width until the benchmark's\n")
	p("   instruction-level parallelism is exhausted.\n")
	p("2. Wall time grows with width because the engine models more\n")
	p("   in-flight state per cycle; a slower cell is not a slower machine.\n")
	p("3. Predictor quality matters more at higher widths: every mispredict\n")
	p("   squashes proportionally more in-flight work.\n")
	p("4. Cells marked FAILED were excluded from the statistics above;\n")
	p("   consult the per-cell output files for the captured failure text.\n")

	p("\nCONCLUSION:\n")
	p("%s\n", dashes(70))
	p("Compare the IPC column of each per-cell report against its wall time\n")
	p("row here. The best configuration is the narrowest width whose IPC is\n")
	p("within the noise of the widest one.\n")

	return err
}

// wallTimes collects the successful wall times of one predictor across
// all widths.
func wallTimes(results []CellResult, predictor string) []float64 {
	var times []float64
	for _, r := range results {
		if r.Predictor == predictor && !r.Failed() {
			times = append(times, r.WallTime)
		}
	}
	return times
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
