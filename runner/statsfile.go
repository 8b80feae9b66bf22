package runner

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/pipesweep/metrics"
)

// LoadStatsFile reads an engine statistics dump into a counter surface.
func LoadStatsFile(path string) (metrics.MapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open stats file %s", path)
	}
	defer f.Close()

	return ParseStats(f)
}

// ParseStats reads counters from an engine statistics dump. Each counter
// line carries a name and a value, optionally followed by a '#' comment.
// Separator lines, comments, and unparseable values are skipped; vector
// counters keep their "name::index" spelling as the key.
func ParseStats(r io.Reader) (metrics.MapSource, error) {
	src := metrics.MapSource{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "----") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		// The engine prefixes counters with their component path
		// ("system.cpu.numCycles"); keep both the full path and the
		// leaf name so the resolver's candidate lists match either.
		name := fields[0]
		src[name] = value
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			leaf := name[dot+1:]
			if _, taken := src[leaf]; !taken {
				src[leaf] = value
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan stats")
	}

	return src, nil
}
