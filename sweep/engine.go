package sweep

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sarchlab/pipesweep/config"
	"github.com/sarchlab/pipesweep/runner"
	"github.com/sarchlab/pipesweep/system"
)

// EngineCellRunner realizes sweep cells on the external engine. Each cell
// resolves its predictor variant, builds a machine configuration and
// topology, and runs one engine process in a cell-private working
// directory, so a failed cell cannot leave stale statistics behind for
// the next one.
type EngineCellRunner struct {
	// Engine is the engine binary path.
	Engine string

	// EngineArgs are appended to every engine invocation.
	EngineArgs []string

	// WorkDir is the parent of the per-cell working directories.
	WorkDir string

	// Threads is the hardware thread count of every cell.
	Threads int

	// Factory resolves predictor variant names to configured specs.
	Factory *config.Factory

	// Caches is the hierarchy shared by all cells.
	Caches config.HierarchySpec

	// Workload is the benchmark bound to every hardware thread. The
	// zero value leaves workload choice to the engine.
	Workload config.Workload

	// ConfigOpts are applied to every cell's machine configuration.
	ConfigOpts []config.Option
}

// NewEngineCellRunner creates a cell runner with the default predictor
// table geometry, the default cache hierarchy, and one hardware thread.
func NewEngineCellRunner(engine, workDir string) *EngineCellRunner {
	return &EngineCellRunner{
		Engine:  engine,
		WorkDir: workDir,
		Threads: 1,
		Factory: config.NewFactory(),
		Caches:  config.DefaultHierarchy(),
	}
}

// RunCell builds and runs one sweep point. The returned output is the raw
// combined engine output, kept even when the run failed.
func (e *EngineCellRunner) RunCell(cell Cell) (string, *runner.Result, error) {
	if e.Engine == "" {
		return "", nil, errors.New("engine binary is not set")
	}
	if e.Factory == nil {
		e.Factory = config.NewFactory()
	}

	pred, err := e.Factory.Configure(cell.Predictor)
	if err != nil {
		return "", nil, err
	}

	opts := append([]config.Option(nil), e.ConfigOpts...)
	if e.Workload.Path != "" {
		opts = append(opts, config.WithWorkload(e.Workload.Path, e.Workload.Args...))
	}

	cfg, err := config.Build(cell.Width, e.Threads, pred, e.Caches, opts...)
	if err != nil {
		return "", nil, err
	}

	top, err := system.Build(cfg)
	if err != nil {
		return "", nil, err
	}

	engine := runner.NewExecSimulator(e.Engine, e.cellWorkDir(cell), e.EngineArgs...)
	result, err := runner.New(engine).Run(top)
	output := string(engine.Output())
	if err != nil {
		return output, nil, err
	}
	return output, result, nil
}

func (e *EngineCellRunner) cellWorkDir(cell Cell) string {
	return filepath.Join(e.WorkDir, fmt.Sprintf("width_%d_%s", cell.Width, cell.Predictor))
}
