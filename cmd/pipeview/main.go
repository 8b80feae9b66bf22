// Package main provides pipeview, a terminal renderer for the engine's
// pipeline activity traces.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/pipesweep/trace"
)

var (
	start      = flag.Int("start", trace.DefaultStartCycle, "First cycle of the rendered window")
	cycles     = flag.Int("cycles", trace.DefaultWindow, "Number of cycles to render")
	findActive = flag.Bool("find-active", false, "Start the window at the first cycle with pipeline activity")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: pipeview [options] <trace file>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	tracePath := flag.Arg(0)
	timeline, err := trace.ParseFile(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading trace: %v\n", err)
		os.Exit(1)
	}

	startCycle := *start
	if *findActive {
		active := timeline.ActiveCycles()
		if len(active) == 0 {
			fmt.Println("No pipeline activity found in trace.")
			os.Exit(0)
		}
		preview := active
		if len(preview) > 10 {
			preview = preview[:10]
		}
		fmt.Printf("Found activity at cycles: %v\n", preview)
		startCycle = active[0]
	}

	fmt.Printf("Pipeline activity in %s (cycles %d to %d):\n\n",
		tracePath, startCycle, startCycle+*cycles-1)
	if err := trace.Render(os.Stdout, timeline, startCycle, *cycles); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering trace: %v\n", err)
		os.Exit(1)
	}
}
