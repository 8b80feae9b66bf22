package runner

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesweep/metrics"
	"github.com/sarchlab/pipesweep/system"
)

// The engine reports simulated time in picosecond ticks.
const ticksPerSecond = 1e12

// File names the exec adapter shares with the engine inside the working
// directory. Successive runs reuse them, which is why sweep cells must
// not overlap.
const (
	configFileName = "machine.json"
	statsFileName  = "stats.txt"
)

// exitLine matches the engine's terminal output line.
var exitLine = regexp.MustCompile(`Exiting @ tick (\d+) because (.+)`)

// ExecSimulator drives an engine binary in a separate process. Instantiate
// renders the machine configuration to JSON in the working directory;
// Simulate invokes the binary, captures its combined output, and parses
// the terminal exit line plus the statistics file the engine writes.
type ExecSimulator struct {
	bin       string
	workDir   string
	extraArgs []string

	cmd    *exec.Cmd
	output []byte
	stats  metrics.MapSource
}

// NewExecSimulator creates an exec adapter for the engine binary at bin,
// running inside workDir. Extra arguments are appended to every invocation.
func NewExecSimulator(bin, workDir string, extraArgs ...string) *ExecSimulator {
	return &ExecSimulator{
		bin:       bin,
		workDir:   workDir,
		extraArgs: extraArgs,
	}
}

// Instantiate writes the machine configuration into the working directory
// and prepares the engine invocation.
func (s *ExecSimulator) Instantiate(top *system.Topology) error {
	if s.bin == "" {
		return errors.New("engine binary is not set")
	}
	if err := os.MkdirAll(s.workDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create working directory %s", s.workDir)
	}

	configPath := filepath.Join(s.workDir, configFileName)
	if err := top.Config.Save(configPath); err != nil {
		return errors.Wrap(err, "failed to render machine config")
	}

	args := []string{
		"-config", configFileName,
		"-stats", statsFileName,
	}
	args = append(args, s.extraArgs...)

	s.cmd = exec.Command(s.bin, args...)
	s.cmd.Dir = s.workDir
	s.output = nil
	s.stats = nil

	log.Debugf("engine command: %s", s.cmd.String())
	return nil
}

// Simulate runs the engine to completion. The combined output is retained
// for per-cell artifacts regardless of outcome.
func (s *ExecSimulator) Simulate() (ExitEvent, error) {
	if s.cmd == nil {
		return ExitEvent{}, errors.New("engine was not instantiated, call Instantiate first")
	}

	out, err := s.cmd.CombinedOutput()
	s.output = out
	s.cmd = nil
	if err != nil {
		return ExitEvent{}, errors.Wrapf(err, "engine %s failed:\n%s", s.bin, out)
	}

	exit, ok := parseExitLine(out)
	if !ok {
		return ExitEvent{}, errors.Errorf("engine %s exited without a terminal exit line:\n%s",
			s.bin, out)
	}

	src, err := LoadStatsFile(filepath.Join(s.workDir, statsFileName))
	if err != nil {
		// A run that exited cleanly but left no statistics still counts;
		// the resolver reports the missing counters.
		log.WithError(err).Warn("engine statistics unavailable")
		src = metrics.MapSource{}
	}
	s.stats = src

	return exit, nil
}

// Stats exposes the statistics surface of the finished run.
func (s *ExecSimulator) Stats() metrics.Source {
	if s.stats == nil {
		return metrics.MapSource{}
	}
	return s.stats
}

// Output returns the raw combined standard output and error of the last
// engine invocation.
func (s *ExecSimulator) Output() []byte {
	return s.output
}

// parseExitLine recovers the exit cause and simulated time from the
// engine's combined output. The last exit line wins when the engine
// resumed after intermediate exits.
func parseExitLine(out []byte) (ExitEvent, bool) {
	matches := exitLine.FindAllSubmatch(out, -1)
	if len(matches) == 0 {
		return ExitEvent{}, false
	}

	last := matches[len(matches)-1]
	ticks, err := strconv.ParseFloat(string(last[1]), 64)
	if err != nil {
		return ExitEvent{}, false
	}

	return ExitEvent{
		Cause: string(last[2]),
		Time:  sim.VTimeInSec(ticks / ticksPerSecond),
	}, true
}
