package metrics

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Candidate counter names per logical metric, tried in order against the
// statistics surface. The first present name wins; engines rename these
// counters across versions, so the lists carry every spelling observed.
var (
	lookupCandidates = []string{
		"numBranches", "numLookups", "total_lookups",
		"branches_processed", "num_branches",
	}
	mispredictCandidates = []string{
		"numMispred", "mispredicted", "num_mispredicted",
		"mispredictions", "num_mispredictions",
	}
	instructionCandidates = []string{"numInsts", "committedInsts"}
	cycleCandidates       = []string{"numCycles"}
)

// Metrics is the resolved counter set for one run. Counters with no
// matching name on the surface stay zero; the miss is recorded in Notes.
type Metrics struct {
	// Lookups is the number of branch predictor lookups.
	Lookups float64 `json:"lookups"`

	// Mispredicts is the number of mispredicted branches.
	Mispredicts float64 `json:"mispredicts"`

	// Cycles is the total simulated cycle count.
	Cycles float64 `json:"cycles"`

	// InstructionsByThread holds committed instructions per hardware thread.
	InstructionsByThread []float64 `json:"instructions_by_thread"`

	// Notes records counters that could not be resolved.
	Notes []string `json:"notes,omitempty"`
}

// Instructions returns the committed instructions summed over all threads.
func (m Metrics) Instructions() float64 {
	var total float64
	for _, n := range m.InstructionsByThread {
		total += n
	}
	return total
}

// Accuracy returns the branch prediction accuracy as a percentage.
// Zero when no lookups were recorded.
func (m Metrics) Accuracy() float64 {
	if m.Lookups == 0 {
		return 0
	}
	return (1 - m.Mispredicts/m.Lookups) * 100
}

// IPC returns instructions per cycle. Zero when no cycles were recorded.
func (m Metrics) IPC() float64 {
	if m.Cycles == 0 {
		return 0
	}
	return m.Instructions() / m.Cycles
}

// CPI returns cycles per instruction. Zero when no instructions were
// recorded.
func (m Metrics) CPI() float64 {
	if m.Instructions() == 0 {
		return 0
	}
	return m.Cycles / m.Instructions()
}

// Resolver performs prioritized fallback lookups against a Source.
type Resolver struct {
	threads int
}

// NewResolver creates a resolver for a machine with the given number of
// hardware threads. Thread counts below 1 are treated as 1.
func NewResolver(threads int) *Resolver {
	if threads < 1 {
		threads = 1
	}
	return &Resolver{threads: threads}
}

// Resolve extracts the run's counters from src. Missing counters resolve
// to zero and are noted, never raised: an engine that exposes none of the
// expected names still yields a usable (all-zero) result.
func (r *Resolver) Resolve(src Source) Metrics {
	m := Metrics{}

	m.Lookups = r.resolveFirst(src, "branch lookups", lookupCandidates, &m.Notes)
	m.Mispredicts = r.resolveFirst(src, "branch mispredicts", mispredictCandidates, &m.Notes)
	m.Cycles = r.resolveFirst(src, "cycles", cycleCandidates, &m.Notes)
	m.InstructionsByThread = r.resolveInstructions(src, &m.Notes)

	return m
}

// resolveFirst walks the candidate list and returns the first counter the
// surface exposes. No match logs a fallback note and returns zero.
func (r *Resolver) resolveFirst(src Source, metric string, candidates []string, notes *[]string) float64 {
	for i, name := range candidates {
		if v, ok := src.Counter(name); ok {
			if i > 0 {
				log.Debugf("counter %q not exposed for %s, matched %q",
					candidates[0], metric, name)
			}
			return v
		}
	}

	note := fmt.Sprintf("could not access statistic %s; defaulting to 0", metric)
	log.Warn(note)
	*notes = append(*notes, note)
	return 0
}

// resolveInstructions recovers per-thread instruction counts. Vector
// counters ("committedInsts::0") are tried first for each thread; thread 0
// additionally falls back to the scalar names so single-thread engines
// that expose only a total still resolve.
func (r *Resolver) resolveInstructions(src Source, notes *[]string) []float64 {
	perThread := make([]float64, r.threads)

	for tid := range perThread {
		found := false
		for _, base := range instructionCandidates {
			name := fmt.Sprintf("%s::%d", base, tid)
			if v, ok := src.Counter(name); ok {
				perThread[tid] = v
				found = true
				break
			}
		}
		if found {
			continue
		}

		if tid == 0 {
			perThread[tid] = r.resolveFirst(src, "instructions", instructionCandidates, notes)
			continue
		}

		note := fmt.Sprintf("could not access statistic instructions for thread %d; defaulting to 0", tid)
		log.Warn(note)
		*notes = append(*notes, note)
	}

	return perThread
}
