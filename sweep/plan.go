package sweep

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/pipesweep/config"
)

// Plan is a checked-in sweep description. Fields absent from the file
// keep the defaults, so a minimal plan only names the engine binary.
type Plan struct {
	// Widths lists the pipeline widths to sweep.
	Widths []int `yaml:"widths"`

	// Predictors lists the branch predictor variants to sweep.
	Predictors []string `yaml:"predictors"`

	// Threads is the hardware thread count of every cell.
	Threads int `yaml:"threads"`

	// Engine is the path to the engine binary.
	Engine string `yaml:"engine"`

	// EngineArgs are appended to every engine invocation.
	EngineArgs []string `yaml:"engine_args"`

	// Workload is the benchmark binary bound to every hardware thread.
	Workload string `yaml:"workload"`

	// WorkloadArgs are the benchmark's command-line arguments.
	WorkloadArgs []string `yaml:"workload_args"`

	// OutputDir receives the CSV, summary, charts, and cell artifacts.
	OutputDir string `yaml:"output_dir"`

	// WorkDir is the parent of the engine working directories. Defaults
	// to a work subdirectory of OutputDir.
	WorkDir string `yaml:"work_dir"`

	// StrictVariants rejects unknown predictor names instead of
	// substituting the tournament predictor.
	StrictVariants bool `yaml:"strict_variants"`

	// DisableL2 builds every cell without a level 2 cache.
	DisableL2 bool `yaml:"disable_l2"`

	// Plots toggles chart generation after the sweep.
	Plots bool `yaml:"plots"`
}

// DefaultPlan returns the width study grid: widths 1, 2, and 4 against
// the four practical predictor variants.
func DefaultPlan() *Plan {
	return &Plan{
		Widths:     []int{1, 2, 4},
		Predictors: []string{"tournament", "local", "bimode", "static"},
		Threads:    1,
		OutputDir:  DefaultOutputDir,
		Plots:      true,
	}
}

// LoadPlan reads a sweep plan from a YAML file, filling absent fields
// from the defaults.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sweep plan")
	}

	plan := DefaultPlan()
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, errors.Wrap(err, "failed to parse sweep plan")
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// Validate checks the plan's sweep grid.
func (p *Plan) Validate() error {
	if len(p.Widths) == 0 {
		return errors.New("plan needs at least one width")
	}
	for _, w := range p.Widths {
		if w < 1 {
			return errors.Errorf("plan width must be >= 1, got %d", w)
		}
	}
	if len(p.Predictors) == 0 {
		return errors.New("plan needs at least one predictor variant")
	}
	if p.Threads < 1 {
		return errors.Errorf("plan threads must be >= 1, got %d", p.Threads)
	}
	return nil
}

// NewFromPlan builds the orchestrator the plan describes, with cells
// realized on the external engine.
func NewFromPlan(plan *Plan) (*Orchestrator, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if plan.Engine == "" {
		return nil, errors.New("plan does not name an engine binary")
	}

	outDir := plan.OutputDir
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	workDir := plan.WorkDir
	if workDir == "" {
		workDir = filepath.Join(outDir, "work")
	}

	cells := NewEngineCellRunner(plan.Engine, workDir)
	cells.EngineArgs = plan.EngineArgs
	cells.Threads = plan.Threads
	cells.Factory = config.NewFactory(config.WithStrictVariants(plan.StrictVariants))
	if plan.DisableL2 {
		cells.Caches = config.L1OnlyHierarchy()
	}
	if plan.Workload != "" {
		cells.Workload = config.Workload{Path: plan.Workload, Args: plan.WorkloadArgs}
	}

	return New(plan.Widths, plan.Predictors, cells,
		WithOutputDir(outDir),
		WithPlots(plan.Plots),
	)
}
