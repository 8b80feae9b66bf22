// Package runner drives one simulation: it hands a built topology to an
// engine, blocks until the workload exits, and resolves the run's metrics.
package runner

import (
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesweep/metrics"
	"github.com/sarchlab/pipesweep/system"
)

// ExitEvent is the terminal event reported by the engine.
type ExitEvent struct {
	// Cause is the engine's exit reason, passed through verbatim.
	Cause string `json:"cause"`

	// Time is the simulated time at exit.
	Time sim.VTimeInSec `json:"time_sec"`
}

// Simulator is the contract pipesweep expects from a simulation engine:
// a configuration in, a terminal exit event and a queryable statistics
// surface out. The engine's internals are not this package's business.
type Simulator interface {
	// Instantiate builds the simulated machine from the topology.
	Instantiate(top *system.Topology) error

	// Simulate blocks until the workload terminates and reports the
	// terminal exit event.
	Simulate() (ExitEvent, error)

	// Stats exposes the statistics surface of the finished run.
	Stats() metrics.Source
}

// Result is the outcome of one simulation run.
type Result struct {
	// ExitCause is the engine's exit reason.
	ExitCause string `json:"exit_cause"`

	// ExitTime is the simulated time at exit.
	ExitTime sim.VTimeInSec `json:"exit_time_sec"`

	// Metrics holds the resolved performance counters.
	Metrics metrics.Metrics `json:"metrics"`

	// WallTime is the host time spent inside the engine call, for
	// throughput-independent comparison across sweep cells.
	WallTime time.Duration `json:"wall_time_ns"`
}

// WallSeconds returns the wall time in seconds.
func (r *Result) WallSeconds() float64 {
	return r.WallTime.Seconds()
}

// Runner owns the instantiate, simulate, resolve sequence for one engine.
type Runner struct {
	sim Simulator
}

// New creates a runner around the given engine.
func New(s Simulator) *Runner {
	return &Runner{sim: s}
}

// Run blocks until the engine exits and returns the resolved result.
// Engine failures are returned with the machine configuration snapshot
// attached; there is no retry.
func (r *Runner) Run(top *system.Topology) (*Result, error) {
	if err := r.sim.Instantiate(top); err != nil {
		return nil, errors.Wrapf(err, "instantiate failed for machine:\n%s",
			spew.Sdump(top.Config))
	}

	log.Infof("simulating: width=%d threads=%d predictor=%s",
		top.Config.Pipeline.IssueWidth,
		top.Config.Pipeline.ThreadCount,
		top.Config.Predictor.Variant)

	start := time.Now()
	exit, err := r.sim.Simulate()
	wallTime := time.Since(start)
	if err != nil {
		return nil, errors.Wrapf(err, "simulation failed for machine:\n%s",
			spew.Sdump(top.Config))
	}

	resolver := metrics.NewResolver(top.Config.Pipeline.ThreadCount)
	resolved := resolver.Resolve(r.sim.Stats())

	log.Infof("exiting @ %v because %s (wall %.2fs)", exit.Time, exit.Cause, wallTime.Seconds())

	return &Result{
		ExitCause: exit.Cause,
		ExitTime:  exit.Time,
		Metrics:   resolved,
		WallTime:  wallTime,
	}, nil
}
