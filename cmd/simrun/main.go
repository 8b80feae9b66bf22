// Package main provides simrun, the single-configuration study driver.
// It compiles the benchmark if needed, builds one machine configuration,
// runs it on the external engine, and prints the branch prediction
// analysis report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesweep/config"
	"github.com/sarchlab/pipesweep/runner"
	"github.com/sarchlab/pipesweep/system"
)

var (
	enginePath   = flag.String("engine", "", "Path to the simulation engine binary")
	workDir      = flag.String("workdir", "sim_out", "Engine working directory")
	bp           = flag.String("bp", "tournament", "Branch predictor variant (none, static, local, bimode, tournament)")
	width        = flag.Int("width", 4, "Pipeline width (fetch/decode/issue/commit)")
	threads      = flag.Int("threads", 1, "Hardware thread count")
	l1iKB        = flag.Int("l1i-kb", 0, "L1 instruction cache size in KiB (0 keeps the default)")
	l1dKB        = flag.Int("l1d-kb", 0, "L1 data cache size in KiB (0 keeps the default)")
	l2KB         = flag.Int("l2-kb", 0, "L2 cache size in KiB (0 keeps the default)")
	noL2         = flag.Bool("no-l2", false, "Build the machine without an L2 cache")
	source       = flag.String("src", "", "C source to recompile the benchmark from when stale")
	smoke        = flag.Bool("smoke", false, "Smoke-test the benchmark natively before simulating")
	smokeTimeout = flag.Duration("smoke-timeout", runner.DefaultSmokeTimeout, "Native smoke test timeout")
	traceFlags   = flag.String("trace", "", "Comma-separated engine trace flags")
	reportPath   = flag.String("report", "", "Write the analysis report to this file")
	strict       = flag.Bool("strict", false, "Reject unknown predictor variant names")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: simrun [options] <benchmark> [benchmark args...]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *enginePath == "" {
		fmt.Fprintf(os.Stderr, "Error: -engine is required\n")
		os.Exit(1)
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()
	workload := &runner.Workload{
		Path:   flag.Arg(0),
		Args:   flag.Args()[1:],
		Source: *source,
	}
	if err := workload.Ensure(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing benchmark: %v\n", err)
		os.Exit(1)
	}
	if *smoke {
		workload.SmokeTest(ctx, *smokeTimeout)
	}

	cfg, err := buildMachine(workload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building machine config: %v\n", err)
		os.Exit(1)
	}

	top, err := system.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building system topology: %v\n", err)
		os.Exit(1)
	}

	engine := runner.NewExecSimulator(*enginePath, *workDir)
	result, err := runner.New(engine).Run(top)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
		os.Exit(1)
	}

	writeReport(os.Stdout, workload.Path, cfg, result)

	if *reportPath != "" {
		if err := saveReport(*reportPath, workload.Path, cfg, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
		log.Infof("analysis report written to %s", *reportPath)
	}
}

// buildMachine assembles the machine configuration from the command line.
func buildMachine(workload *runner.Workload) (*config.MachineConfig, error) {
	factory := config.NewFactory(config.WithStrictVariants(*strict))
	pred, err := factory.Configure(*bp)
	if err != nil {
		return nil, err
	}

	caches := config.DefaultHierarchy()
	if *noL2 {
		caches = config.L1OnlyHierarchy()
	}
	resizeKB(&caches.L1I, *l1iKB)
	resizeKB(&caches.L1D, *l1dKB)
	if caches.L2 != nil {
		resizeKB(caches.L2, *l2KB)
	}

	opts := []config.Option{
		config.WithWorkload(workload.Path, workload.Args...),
	}
	if *traceFlags != "" {
		opts = append(opts, config.WithTraceFlags(strings.Split(*traceFlags, ",")...))
	}

	return config.Build(*width, *threads, pred, caches, opts...)
}

func resizeKB(level *config.CacheLevel, kb int) {
	if kb > 0 {
		level.Size = kb * 1024
	}
}

func saveReport(path, benchmark string, cfg *config.MachineConfig, result *runner.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writeReport(f, benchmark, cfg, result)
	return nil
}

// writeReport renders the branch prediction analysis report.
func writeReport(w io.Writer, benchmark string, cfg *config.MachineConfig, result *runner.Result) {
	m := result.Metrics

	fmt.Fprintf(w, "===== BRANCH PREDICTION PERFORMANCE ANALYSIS =====\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Benchmark:             %s\n", benchmark)
	fmt.Fprintf(w, "Branch Predictor:      %s\n", cfg.Predictor.Variant)
	fmt.Fprintf(w, "Pipeline Width:        %d\n", cfg.Pipeline.IssueWidth)
	fmt.Fprintf(w, "Hardware Threads:      %d\n", cfg.Pipeline.ThreadCount)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Exit Cause:            %s\n", result.ExitCause)
	fmt.Fprintf(w, "Simulated Seconds:     %.9f\n", float64(result.ExitTime))
	fmt.Fprintf(w, "Wall Time:             %.2fs\n", result.WallSeconds())
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Branch Lookups:        %.0f\n", m.Lookups)
	fmt.Fprintf(w, "Branch Mispredictions: %.0f\n", m.Mispredicts)
	fmt.Fprintf(w, "Prediction Accuracy:   %.2f%%\n", m.Accuracy())
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Total Instructions:    %.0f\n", m.Instructions())
	for tid, insts := range m.InstructionsByThread {
		fmt.Fprintf(w, "  Thread %d:            %.0f\n", tid, insts)
	}
	fmt.Fprintf(w, "Total Cycles:          %.0f\n", m.Cycles)
	fmt.Fprintf(w, "IPC:                   %.2f\n", m.IPC())
	fmt.Fprintf(w, "CPI:                   %.2f\n", m.CPI())

	if len(m.Notes) > 0 {
		fmt.Fprintf(w, "\nNotes:\n")
		for _, note := range m.Notes {
			fmt.Fprintf(w, "  - %s\n", note)
		}
	}
}
