// Package config builds complete machine configurations for the external
// cycle-accurate engine from a small set of high-level knobs: pipeline
// width, thread count, branch predictor variant, and cache sizes.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"
)

// Queue capacities scale with issue width so wider configurations are not
// starved waiting for queue slots.
const (
	// ROBEntriesPerWidth is the reorder buffer entries granted per unit of width.
	ROBEntriesPerWidth = 32
	// LQEntriesPerWidth is the load queue entries granted per unit of width.
	LQEntriesPerWidth = 16
	// SQEntriesPerWidth is the store queue entries granted per unit of width.
	SQEntriesPerWidth = 16
	// IQEntriesPerWidth is the issue queue entries granted per unit of width.
	IQEntriesPerWidth = 16
)

// PipelineConfig fixes the per-stage widths and queue capacities of the core.
type PipelineConfig struct {
	// FetchWidth is the number of instructions fetched per cycle.
	FetchWidth int `json:"fetch_width"`

	// DecodeWidth is the number of instructions decoded per cycle.
	DecodeWidth int `json:"decode_width"`

	// IssueWidth is the number of instructions issued per cycle.
	IssueWidth int `json:"issue_width"`

	// CommitWidth is the number of instructions committed per cycle.
	CommitWidth int `json:"commit_width"`

	// ThreadCount is the number of hardware threads sharing the core.
	ThreadCount int `json:"thread_count"`

	// ROBEntries is the reorder buffer capacity. Derived from width when 0.
	ROBEntries int `json:"rob_entries"`

	// LQEntries is the load queue capacity. Derived from width when 0.
	LQEntries int `json:"lq_entries"`

	// SQEntries is the store queue capacity. Derived from width when 0.
	SQEntries int `json:"sq_entries"`

	// IQEntries is the issue queue capacity. Derived from width when 0.
	IQEntries int `json:"iq_entries"`

	// MemAccessWidth is the number of memory operations issued per cycle.
	MemAccessWidth int `json:"mem_access_width"`

	// FuncUnits is the execution unit pool available to the issue stage.
	FuncUnits FuncUnitPool `json:"func_units"`
}

// FuncUnitPool counts the execution units of each class.
type FuncUnitPool struct {
	// IntALU is the number of integer ALUs.
	IntALU int `json:"int_alu"`

	// IntMultDiv is the number of integer multiply/divide units.
	IntMultDiv int `json:"int_mult_div"`

	// FPALU is the number of floating-point ALUs.
	FPALU int `json:"fp_alu"`

	// FPMultDiv is the number of floating-point multiply/divide units.
	FPMultDiv int `json:"fp_mult_div"`
}

// MemoryConfig describes the main memory behind the cache hierarchy.
type MemoryConfig struct {
	// RangeBytes is the size of the simulated physical address range.
	// Default: 512 MiB.
	RangeBytes uint64 `json:"range_bytes"`

	// DRAMModel names the memory controller timing model.
	// Default: DDR3_1600_8x8.
	DRAMModel string `json:"dram_model"`
}

// Workload names one program to run, one entry per hardware thread.
type Workload struct {
	// Path is the benchmark binary handed to the engine.
	Path string `json:"path"`

	// Args are the benchmark's command-line arguments.
	Args []string `json:"args,omitempty"`
}

// MachineConfig is the complete configuration handed to the engine.
type MachineConfig struct {
	// Clock is the core clock frequency. Default: 2 GHz.
	Clock sim.Freq `json:"clock_hz"`

	// Pipeline fixes the core's widths and queue capacities.
	Pipeline PipelineConfig `json:"pipeline"`

	// Predictor is the fully resolved branch predictor configuration.
	Predictor PredictorSpec `json:"predictor"`

	// Caches describes the cache hierarchy in front of main memory.
	Caches HierarchySpec `json:"caches"`

	// Memory describes the main memory system.
	Memory MemoryConfig `json:"memory"`

	// Workloads lists the programs to run, one per hardware thread.
	Workloads []Workload `json:"workloads,omitempty"`

	// TraceFlags are the debug trace categories the engine should record,
	// e.g. pipeline activity tracing for post-hoc visualization.
	TraceFlags []string `json:"trace_flags,omitempty"`
}

// DefaultMemoryConfig returns the memory system used across the width studies.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		RangeBytes: 512 * 1024 * 1024,
		DRAMModel:  "DDR3_1600_8x8",
	}
}

// Option adjusts a MachineConfig during Build.
type Option func(*MachineConfig)

// WithQueueSizes overrides the width-derived queue capacities.
// A zero for any queue keeps the derived value.
func WithQueueSizes(rob, lq, sq, iq int) Option {
	return func(c *MachineConfig) {
		if rob > 0 {
			c.Pipeline.ROBEntries = rob
		}
		if lq > 0 {
			c.Pipeline.LQEntries = lq
		}
		if sq > 0 {
			c.Pipeline.SQEntries = sq
		}
		if iq > 0 {
			c.Pipeline.IQEntries = iq
		}
	}
}

// WithClock sets the core clock frequency.
func WithClock(freq sim.Freq) Option {
	return func(c *MachineConfig) {
		c.Clock = freq
	}
}

// WithMemory replaces the memory system configuration.
func WithMemory(mem MemoryConfig) Option {
	return func(c *MachineConfig) {
		c.Memory = mem
	}
}

// WithWorkload assigns the same workload to every hardware thread.
func WithWorkload(path string, args ...string) Option {
	return func(c *MachineConfig) {
		c.Workloads = make([]Workload, c.Pipeline.ThreadCount)
		for i := range c.Workloads {
			c.Workloads[i] = Workload{Path: path, Args: args}
		}
	}
}

// WithTraceFlags sets the debug trace categories recorded by the engine.
func WithTraceFlags(flags ...string) Option {
	return func(c *MachineConfig) {
		c.TraceFlags = flags
	}
}

// Build combines width, thread count, predictor, and cache parameters into
// one coherent machine configuration. Queue capacities default to fixed
// multiples of width; stage widths are all equal to width unless an Option
// overrides them. Width and thread count must both be positive.
func Build(width, threadCount int, pred PredictorSpec, caches HierarchySpec, opts ...Option) (*MachineConfig, error) {
	if width < 1 {
		return nil, fmt.Errorf("pipeline width must be >= 1, got %d", width)
	}
	if threadCount < 1 {
		return nil, fmt.Errorf("thread count must be >= 1, got %d", threadCount)
	}

	cfg := &MachineConfig{
		Clock: 2 * sim.GHz,
		Pipeline: PipelineConfig{
			FetchWidth:     width,
			DecodeWidth:    width,
			IssueWidth:     width,
			CommitWidth:    width,
			ThreadCount:    threadCount,
			MemAccessWidth: width,
			FuncUnits:      scaleFuncUnits(width),
		},
		Predictor: pred,
		Caches:    caches,
		Memory:    DefaultMemoryConfig(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	p := &cfg.Pipeline
	if p.ROBEntries == 0 {
		p.ROBEntries = width * ROBEntriesPerWidth
	}
	if p.LQEntries == 0 {
		p.LQEntries = width * LQEntriesPerWidth
	}
	if p.SQEntries == 0 {
		p.SQEntries = width * SQEntriesPerWidth
	}
	if p.IQEntries == 0 {
		p.IQEntries = width * IQEntriesPerWidth
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// scaleFuncUnits sizes the execution unit pool for the given issue width.
// Every configuration keeps at least one unit of each class; integer ALUs
// track the width, and the multiply and floating-point units double once
// the core is wide enough to keep them busy.
func scaleFuncUnits(width int) FuncUnitPool {
	pool := FuncUnitPool{
		IntALU:     1,
		IntMultDiv: 1,
		FPALU:      1,
		FPMultDiv:  1,
	}
	if width >= 2 {
		pool.IntALU = 2
	}
	if width >= 4 {
		pool.IntALU = 4
		pool.IntMultDiv = 2
		pool.FPALU = 2
		pool.FPMultDiv = 2
	}
	return pool
}

// Validate checks the configuration for internal consistency.
func (c *MachineConfig) Validate() error {
	p := c.Pipeline
	for _, w := range []struct {
		name  string
		value int
	}{
		{"fetch_width", p.FetchWidth},
		{"decode_width", p.DecodeWidth},
		{"issue_width", p.IssueWidth},
		{"commit_width", p.CommitWidth},
		{"mem_access_width", p.MemAccessWidth},
	} {
		if w.value < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", w.name, w.value)
		}
	}
	if p.ThreadCount < 1 {
		return fmt.Errorf("thread_count must be >= 1, got %d", p.ThreadCount)
	}
	for _, q := range []struct {
		name  string
		value int
	}{
		{"rob_entries", p.ROBEntries},
		{"lq_entries", p.LQEntries},
		{"sq_entries", p.SQEntries},
		{"iq_entries", p.IQEntries},
	} {
		if q.value < p.IssueWidth {
			return fmt.Errorf("%s must be >= issue width %d, got %d",
				q.name, p.IssueWidth, q.value)
		}
	}
	if c.Clock <= 0 {
		return fmt.Errorf("clock_hz must be > 0")
	}
	if err := c.Predictor.Validate(); err != nil {
		return err
	}
	if err := c.Caches.Validate(); err != nil {
		return err
	}
	if c.Memory.RangeBytes == 0 {
		return fmt.Errorf("memory range_bytes must be set")
	}
	if len(c.Workloads) > p.ThreadCount {
		return fmt.Errorf("got %d workloads for %d threads",
			len(c.Workloads), p.ThreadCount)
	}
	return nil
}

// Load reads a MachineConfig from a JSON file. Fields absent from the file
// keep their zero values; callers normally Validate afterwards.
func Load(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine config file: %w", err)
	}

	cfg := &MachineConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse machine config: %w", err)
	}

	return cfg, nil
}

// Save writes the MachineConfig to a JSON file.
func (c *MachineConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize machine config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write machine config file: %w", err)
	}

	return nil
}

// Clone returns a deep copy of the MachineConfig.
func (c *MachineConfig) Clone() *MachineConfig {
	clone := *c
	clone.Predictor = c.Predictor.Clone()
	clone.Caches = c.Caches.Clone()
	if c.Workloads != nil {
		clone.Workloads = make([]Workload, len(c.Workloads))
		for i, w := range c.Workloads {
			clone.Workloads[i] = Workload{Path: w.Path, Args: append([]string(nil), w.Args...)}
		}
	}
	if c.TraceFlags != nil {
		clone.TraceFlags = append([]string(nil), c.TraceFlags...)
	}
	return &clone
}
