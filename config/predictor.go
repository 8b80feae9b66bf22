package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Variant identifies a branch predictor family.
type Variant string

// The predictor variants the engine understands.
const (
	// VariantNone disables branch prediction; the core falls through to
	// the next sequential instruction on every branch.
	VariantNone Variant = "none"

	// VariantStatic always predicts the same direction, with no learned state.
	VariantStatic Variant = "static"

	// VariantLocal predicts from a per-address history table.
	VariantLocal Variant = "local"

	// VariantBiMode selects between a taken-biased and a not-taken-biased
	// counter table with a choice predictor.
	VariantBiMode Variant = "bimode"

	// VariantTournament combines a local and a global predictor with a
	// choice table that learns which one to trust per branch.
	VariantTournament Variant = "tournament"
)

// TableSpec is the geometry of one saturating-counter table.
type TableSpec struct {
	// Entries is the number of table entries. Must be a power of 2.
	Entries int `json:"entries"`

	// CounterBits is the width of each saturating counter.
	CounterBits int `json:"counter_bits"`
}

// Params carries the table geometry knobs shared by the predictor variants.
type Params struct {
	// LocalEntries is the per-address history table size. Default: 2048.
	LocalEntries int `json:"local_entries"`

	// LocalCounterBits is the local table counter width. Default: 2.
	LocalCounterBits int `json:"local_counter_bits"`

	// GlobalEntries is the global history table size. Default: 8192.
	GlobalEntries int `json:"global_entries"`

	// GlobalCounterBits is the global table counter width. Default: 2.
	GlobalCounterBits int `json:"global_counter_bits"`

	// ChoiceEntries is the choice table size. Default: 8192.
	ChoiceEntries int `json:"choice_entries"`

	// ChoiceCounterBits is the choice table counter width. Default: 2.
	ChoiceCounterBits int `json:"choice_counter_bits"`

	// BTBEntries is the branch target buffer size. Default: 4096.
	BTBEntries int `json:"btb_entries"`

	// RASEntries is the return address stack depth. Default: 16.
	RASEntries int `json:"ras_entries"`
}

// DefaultParams returns the table geometry used across the width studies.
func DefaultParams() Params {
	return Params{
		LocalEntries:      2048,
		LocalCounterBits:  2,
		GlobalEntries:     8192,
		GlobalCounterBits: 2,
		ChoiceEntries:     8192,
		ChoiceCounterBits: 2,
		BTBEntries:        4096,
		RASEntries:        16,
	}
}

// PredictorSpec is a fully configured branch predictor component. The
// tournament variant is composite: it owns a local and a global sub-table
// plus the choice table arbitrating between them.
type PredictorSpec struct {
	// Variant names the predictor family this spec configures.
	Variant Variant `json:"variant"`

	// Enabled is false only for the none variant.
	Enabled bool `json:"enabled"`

	// BTBEntries is the branch target buffer size. Zero when disabled.
	BTBEntries int `json:"btb_entries,omitempty"`

	// RASEntries is the return address stack depth. Zero when disabled.
	RASEntries int `json:"ras_entries,omitempty"`

	// Local is the per-address history table. Set for local and tournament.
	Local *TableSpec `json:"local,omitempty"`

	// Global is the global history table. Set for bimode and tournament.
	Global *TableSpec `json:"global,omitempty"`

	// Choice is the table selecting between sub-predictors. Set for
	// bimode and tournament.
	Choice *TableSpec `json:"choice,omitempty"`
}

// Validate checks that the configured tables match the variant.
func (s PredictorSpec) Validate() error {
	if s.Variant == "" {
		return fmt.Errorf("predictor variant must be set")
	}
	for _, t := range []struct {
		name  string
		table *TableSpec
	}{
		{"local", s.Local},
		{"global", s.Global},
		{"choice", s.Choice},
	} {
		if t.table == nil {
			continue
		}
		if t.table.Entries < 1 {
			return fmt.Errorf("predictor %s table entries must be >= 1, got %d",
				t.name, t.table.Entries)
		}
		if t.table.CounterBits < 1 {
			return fmt.Errorf("predictor %s counter bits must be >= 1, got %d",
				t.name, t.table.CounterBits)
		}
	}
	if s.Variant == VariantTournament {
		if s.Local == nil || s.Global == nil || s.Choice == nil {
			return fmt.Errorf("tournament predictor requires local, global, and choice tables")
		}
	}
	return nil
}

// Clone returns a deep copy of the PredictorSpec.
func (s PredictorSpec) Clone() PredictorSpec {
	clone := s
	if s.Local != nil {
		local := *s.Local
		clone.Local = &local
	}
	if s.Global != nil {
		global := *s.Global
		clone.Global = &global
	}
	if s.Choice != nil {
		choice := *s.Choice
		clone.Choice = &choice
	}
	return clone
}

// Factory maps predictor variant names to configured predictor specs.
type Factory struct {
	params Params
	strict bool
}

// FactoryOption adjusts a Factory.
type FactoryOption func(*Factory)

// WithParams replaces the default table geometry.
func WithParams(p Params) FactoryOption {
	return func(f *Factory) {
		f.params = p
	}
}

// WithStrictVariants makes unrecognized variant names a configuration
// error instead of falling back to the tournament default. Sweeps over
// hand-typed variant lists keep the lenient default so one typo does not
// abort hours of collected cells.
func WithStrictVariants(strict bool) FactoryOption {
	return func(f *Factory) {
		f.strict = strict
	}
}

// NewFactory creates a predictor factory with default table geometry.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		params: DefaultParams(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Params returns the factory's table geometry.
func (f *Factory) Params() Params {
	return f.params
}

// Configure resolves a variant name to a predictor spec. Unknown names
// resolve to the tournament configuration unless the factory is strict.
func (f *Factory) Configure(variant string) (PredictorSpec, error) {
	switch Variant(variant) {
	case VariantNone:
		return PredictorSpec{Variant: VariantNone, Enabled: false}, nil

	case VariantStatic:
		return PredictorSpec{
			Variant:    VariantStatic,
			Enabled:    true,
			BTBEntries: f.params.BTBEntries,
			RASEntries: f.params.RASEntries,
		}, nil

	case VariantLocal:
		return PredictorSpec{
			Variant:    VariantLocal,
			Enabled:    true,
			BTBEntries: f.params.BTBEntries,
			RASEntries: f.params.RASEntries,
			Local:      f.localTable(),
		}, nil

	case VariantBiMode:
		return PredictorSpec{
			Variant:    VariantBiMode,
			Enabled:    true,
			BTBEntries: f.params.BTBEntries,
			RASEntries: f.params.RASEntries,
			Global:     f.globalTable(),
			Choice:     f.choiceTable(),
		}, nil

	case VariantTournament:
		return f.tournament(), nil

	default:
		if f.strict {
			return PredictorSpec{}, fmt.Errorf("unknown branch predictor variant %q", variant)
		}
		log.Warnf("unknown branch predictor variant %q, using tournament", variant)
		return f.tournament(), nil
	}
}

func (f *Factory) tournament() PredictorSpec {
	return PredictorSpec{
		Variant:    VariantTournament,
		Enabled:    true,
		BTBEntries: f.params.BTBEntries,
		RASEntries: f.params.RASEntries,
		Local:      f.localTable(),
		Global:     f.globalTable(),
		Choice:     f.choiceTable(),
	}
}

func (f *Factory) localTable() *TableSpec {
	return &TableSpec{Entries: f.params.LocalEntries, CounterBits: f.params.LocalCounterBits}
}

func (f *Factory) globalTable() *TableSpec {
	return &TableSpec{Entries: f.params.GlobalEntries, CounterBits: f.params.GlobalCounterBits}
}

func (f *Factory) choiceTable() *TableSpec {
	return &TableSpec{Entries: f.params.ChoiceEntries, CounterBits: f.params.ChoiceCounterBits}
}

// Variants lists the recognized predictor variant names.
func Variants() []string {
	return []string{
		string(VariantNone),
		string(VariantStatic),
		string(VariantLocal),
		string(VariantBiMode),
		string(VariantTournament),
	}
}
