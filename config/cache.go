package config

import "fmt"

// CacheLevel describes one cache in the hierarchy.
type CacheLevel struct {
	// Name identifies the cache ("l1i", "l1d", "l2").
	Name string `json:"name"`

	// Size in bytes.
	Size int `json:"size"`

	// Associativity is the number of ways per set.
	Associativity int `json:"associativity"`

	// BlockSize in bytes (cache line size).
	BlockSize int `json:"block_size"`

	// TagLatency in cycles.
	TagLatency int `json:"tag_latency"`

	// DataLatency in cycles.
	DataLatency int `json:"data_latency"`

	// ResponseLatency in cycles.
	ResponseLatency int `json:"response_latency"`

	// MSHRs is the number of miss-status-holding registers, bounding
	// outstanding misses.
	MSHRs int `json:"mshrs"`

	// TargetsPerMSHR bounds the accesses coalesced into one in-flight miss.
	TargetsPerMSHR int `json:"tgts_per_mshr"`
}

// DefaultL1I returns the L1 instruction cache used across the width studies.
func DefaultL1I() CacheLevel {
	return CacheLevel{
		Name:            "l1i",
		Size:            32 * 1024,
		Associativity:   2,
		BlockSize:       64,
		TagLatency:      1,
		DataLatency:     1,
		ResponseLatency: 1,
		MSHRs:           4,
		TargetsPerMSHR:  20,
	}
}

// DefaultL1D returns the L1 data cache used across the width studies.
func DefaultL1D() CacheLevel {
	return CacheLevel{
		Name:            "l1d",
		Size:            32 * 1024,
		Associativity:   2,
		BlockSize:       64,
		TagLatency:      1,
		DataLatency:     1,
		ResponseLatency: 1,
		MSHRs:           4,
		TargetsPerMSHR:  20,
	}
}

// DefaultL2 returns the shared L2 used across the width studies.
func DefaultL2() CacheLevel {
	return CacheLevel{
		Name:            "l2",
		Size:            256 * 1024,
		Associativity:   8,
		BlockSize:       64,
		TagLatency:      2,
		DataLatency:     2,
		ResponseLatency: 2,
		MSHRs:           16,
		TargetsPerMSHR:  20,
	}
}

// HierarchySpec lists the cache levels in their fixed order: the L1
// instruction and data caches, then an optional unified L2 between the
// L1s and the memory controller.
type HierarchySpec struct {
	// L1I is the instruction cache. Always present.
	L1I CacheLevel `json:"l1i"`

	// L1D is the data cache. Always present.
	L1D CacheLevel `json:"l1d"`

	// L2 is the optional second-level cache. Nil means the L1s connect
	// straight to the system bus.
	L2 *CacheLevel `json:"l2,omitempty"`
}

// DefaultHierarchy returns the two-level hierarchy used across the width
// studies: 32 KiB split L1s behind a 256 KiB unified L2.
func DefaultHierarchy() HierarchySpec {
	l2 := DefaultL2()
	return HierarchySpec{
		L1I: DefaultL1I(),
		L1D: DefaultL1D(),
		L2:  &l2,
	}
}

// L1OnlyHierarchy returns a hierarchy with no L2; the L1s connect straight
// to the system bus.
func L1OnlyHierarchy() HierarchySpec {
	return HierarchySpec{
		L1I: DefaultL1I(),
		L1D: DefaultL1D(),
	}
}

// Levels returns the cache levels in hierarchy order.
func (h HierarchySpec) Levels() []CacheLevel {
	levels := []CacheLevel{h.L1I, h.L1D}
	if h.L2 != nil {
		levels = append(levels, *h.L2)
	}
	return levels
}

// HasL2 reports whether the hierarchy has a second level.
func (h HierarchySpec) HasL2() bool {
	return h.L2 != nil
}

// Validate checks every level's geometry. A zero-sized cache is a
// configuration error surfaced here, before any simulation attempt.
func (h HierarchySpec) Validate() error {
	for _, level := range h.Levels() {
		if err := level.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one cache level's geometry.
func (l CacheLevel) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("cache level must be named")
	}
	if l.Size <= 0 {
		return fmt.Errorf("cache %s size must be > 0, got %d", l.Name, l.Size)
	}
	if l.Associativity <= 0 {
		return fmt.Errorf("cache %s associativity must be > 0, got %d", l.Name, l.Associativity)
	}
	if l.BlockSize <= 0 {
		return fmt.Errorf("cache %s block size must be > 0, got %d", l.Name, l.BlockSize)
	}
	if l.Size%(l.Associativity*l.BlockSize) != 0 {
		return fmt.Errorf("cache %s size %d is not divisible by associativity %d x block size %d",
			l.Name, l.Size, l.Associativity, l.BlockSize)
	}
	if l.MSHRs <= 0 {
		return fmt.Errorf("cache %s mshrs must be > 0, got %d", l.Name, l.MSHRs)
	}
	if l.TargetsPerMSHR <= 0 {
		return fmt.Errorf("cache %s tgts_per_mshr must be > 0, got %d", l.Name, l.TargetsPerMSHR)
	}
	return nil
}

// Sets returns the number of sets implied by the level's geometry.
func (l CacheLevel) Sets() int {
	return l.Size / (l.Associativity * l.BlockSize)
}

// Clone returns a deep copy of the HierarchySpec.
func (h HierarchySpec) Clone() HierarchySpec {
	clone := h
	if h.L2 != nil {
		l2 := *h.L2
		clone.L2 = &l2
	}
	return clone
}
