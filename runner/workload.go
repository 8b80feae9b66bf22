package runner

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultSmokeTimeout bounds the direct-execution smoke test. The wait is
// abandoned and reported on expiry, never retried.
const DefaultSmokeTimeout = 10 * time.Second

// Workload prepares the benchmark binary handed to the engine.
type Workload struct {
	// Path is the benchmark binary.
	Path string

	// Args are the benchmark's command-line arguments.
	Args []string

	// Source is an optional C source file to build the binary from when
	// the binary is missing or stale.
	Source string
}

// Ensure makes sure the workload binary exists, compiling Source when the
// binary is missing or older than the source. A missing binary with no
// source to build it from is a configuration error.
func (w *Workload) Ensure(ctx context.Context) error {
	binInfo, binErr := os.Stat(w.Path)

	if w.Source == "" {
		if binErr != nil {
			return errors.Wrapf(binErr, "benchmark binary %s not found", w.Path)
		}
		return nil
	}

	srcInfo, err := os.Stat(w.Source)
	if err != nil {
		return errors.Wrapf(err, "benchmark source %s not found", w.Source)
	}

	if binErr == nil && !binInfo.ModTime().Before(srcInfo.ModTime()) {
		return nil
	}

	log.Infof("compiling %s", w.Source)
	cmd := exec.CommandContext(ctx, "gcc", "-O3", "-o", w.Path, w.Source)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "failed to compile %s:\n%s", w.Source, out)
	}

	return nil
}

// SmokeTest runs the binary directly with a bounded wait, to catch
// benchmarks that cannot even start before committing to a long
// simulation. A timeout or failure is reported and tolerated, never
// retried: the benchmark may simply run longer than the bound, and the
// simulation itself remains the authority.
func (w *Workload) SmokeTest(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultSmokeTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, w.Path, w.Args...)
	out, err := cmd.CombinedOutput()

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		log.Warnf("smoke test of %s timed out after %v, continuing", w.Path, timeout)
	case err != nil:
		log.Warnf("smoke test of %s failed, continuing: %v\n%s", w.Path, err, out)
	default:
		log.Debugf("smoke test of %s passed", w.Path)
	}
}
