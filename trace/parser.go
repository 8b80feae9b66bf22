// Package trace parses pipeline activity traces and renders stage
// occupancy timelines.
package trace

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StageNames lists the pipeline stages in trace column order.
var StageNames = [5]string{"Fetch1", "Fetch2", "Execute", "Memory", "Commit"}

// Stage state tokens with fixed meaning in activity traces.
const (
	// IdleState marks a stage with nothing to do this cycle.
	IdleState = "E"

	// EmptyMark is the placeholder for an unrecorded state.
	EmptyMark = "-"
)

// CycleState is one recorded stage state.
type CycleState struct {
	Cycle int
	State string
}

// Timeline maps each stage name to its recorded (cycle, state) sequence,
// in file order.
type Timeline map[string][]CycleState

// ParseFile parses the activity trace at path.
func ParseFile(path string) (Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open trace file %s", path)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads an activity trace. Relevant lines carry both an "activity="
// and a "stages=" marker, with the cycle number before the first colon and
// the stage states comma-separated after "stages=". Lines with fewer than
// five stage tokens are skipped without error; long traces are expected to
// contain noise and partial lines.
func Parse(r io.Reader) (Timeline, error) {
	timeline := Timeline{}
	for _, stage := range StageNames {
		timeline[stage] = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "activity=") || !strings.Contains(line, "stages=") {
			continue
		}

		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		cycle, err := strconv.Atoi(strings.TrimSpace(line[:colon]))
		if err != nil {
			continue
		}

		stageInfo := line[strings.Index(line, "stages=")+len("stages="):]
		stageInfo = strings.TrimSpace(stageInfo)
		if sp := strings.IndexAny(stageInfo, " \t"); sp >= 0 {
			stageInfo = stageInfo[:sp]
		}

		states := strings.Split(stageInfo, ",")
		if len(states) < 5 {
			continue
		}

		for i, stage := range StageNames {
			timeline[stage] = append(timeline[stage], CycleState{
				Cycle: cycle,
				State: states[i],
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan trace")
	}

	return timeline, nil
}

// ActiveCycles returns the sorted cycles at which any stage holds a state
// other than the idle token or the empty mark. The list gives quick
// navigation to interesting windows in long traces.
func (t Timeline) ActiveCycles() []int {
	active := map[int]bool{}
	for _, states := range t {
		for _, cs := range states {
			if cs.State != IdleState && cs.State != EmptyMark {
				active[cs.Cycle] = true
			}
		}
	}

	cycles := make([]int, 0, len(active))
	for cycle := range active {
		cycles = append(cycles, cycle)
	}
	sort.Ints(cycles)
	return cycles
}

// StateAt returns the recorded state of stage at the given cycle, or the
// empty mark when nothing was recorded.
func (t Timeline) StateAt(stage string, cycle int) string {
	for _, cs := range t[stage] {
		if cs.Cycle == cycle {
			return cs.State
		}
	}
	return EmptyMark
}
