package trace

import (
	"fmt"
	"io"
	"strings"
)

// Window defaults: cycle 500 is usually past engine warm-up, and 20 rows
// fit a terminal.
const (
	DefaultStartCycle = 500
	DefaultWindow     = 20
)

// Render writes a fixed-width stage-occupancy grid for every cycle in
// [start, start+window), one row per cycle whether or not the trace
// recorded it; unrecorded cells show the empty mark. Stage tokens are
// centered in their column so the grid stays aligned regardless of token
// length.
func Render(w io.Writer, t Timeline, start, window int) error {
	if window <= 0 {
		window = DefaultWindow
	}

	var b strings.Builder
	b.WriteString("Cycle   | F1  | F2  | EX  | MEM | COM\n")
	b.WriteString(strings.Repeat("-", 39))
	b.WriteByte('\n')

	for cycle := start; cycle < start+window; cycle++ {
		b.WriteString(fmt.Sprintf("%7d ", cycle))

		for _, stage := range StageNames {
			state := t.StateAt(stage, cycle)
			cell := "  -  "
			if state != EmptyMark {
				cell = " " + center(state, 3) + " "
			}
			b.WriteByte('|')
			b.WriteString(cell)
		}

		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// center pads s with spaces to the given width, splitting the slack
// evenly with the extra space on the right.
func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
