// Package main provides pipesweep, the width study driver. It sweeps
// pipeline width against branch predictor variant on the external engine
// and writes the comparison table, summary report, and charts.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesweep/sweep"
)

var (
	planPath   = flag.String("plan", "", "YAML sweep plan; grid flags are ignored when set")
	widths     = flag.String("widths", "1,2,4", "Comma-separated pipeline widths")
	bps        = flag.String("bps", "tournament,local,bimode,static", "Comma-separated branch predictor variants")
	threads    = flag.Int("threads", 1, "Hardware thread count per cell")
	enginePath = flag.String("engine", "", "Path to the simulation engine binary")
	engineArgs = flag.String("engine-args", "", "Extra engine arguments, space separated")
	workload   = flag.String("workload", "", "Benchmark binary bound to every thread")
	outDir     = flag.String("out", sweep.DefaultOutputDir, "Output directory for reports and artifacts")
	noPlots    = flag.Bool("no-plots", false, "Skip chart generation")
	noL2       = flag.Bool("no-l2", false, "Build every cell without an L2 cache")
	strict     = flag.Bool("strict", false, "Reject unknown predictor variant names")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *planPath == "" && *enginePath == "" {
		fmt.Fprintf(os.Stderr, "Error: -engine or -plan is required\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	plan, err := loadPlan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	orch, err := sweep.NewFromPlan(plan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	results, err := orch.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running sweep: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	fmt.Printf("\nSweep complete: %d of %d cells succeeded\n", len(results)-failed, len(results))
	fmt.Printf("Results saved in: %s\n", plan.OutputDir)
}

// loadPlan resolves the sweep plan, either from a YAML file or from the
// grid flags. The -engine flag overrides a plan file's engine so one plan
// can travel between machines.
func loadPlan() (*sweep.Plan, error) {
	if *planPath != "" {
		plan, err := sweep.LoadPlan(*planPath)
		if err != nil {
			return nil, err
		}
		if *enginePath != "" {
			plan.Engine = *enginePath
		}
		return plan, nil
	}

	widthList, err := parseWidths(*widths)
	if err != nil {
		return nil, err
	}

	plan := sweep.DefaultPlan()
	plan.Widths = widthList
	plan.Predictors = parseList(*bps)
	plan.Threads = *threads
	plan.Engine = *enginePath
	plan.EngineArgs = strings.Fields(*engineArgs)
	plan.Workload = *workload
	plan.WorkloadArgs = flag.Args()
	plan.OutputDir = *outDir
	plan.StrictVariants = *strict
	plan.DisableL2 = *noL2
	plan.Plots = !*noPlots
	return plan, nil
}

func parseWidths(s string) ([]int, error) {
	var widths []int
	for _, field := range parseList(s) {
		w, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid width %q", field)
		}
		widths = append(widths, w)
	}
	return widths, nil
}

func parseList(s string) []string {
	var fields []string
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}
