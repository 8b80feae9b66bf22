// Package metrics resolves performance counters from a simulation
// statistics surface whose exposed names vary across engine versions.
package metrics

// Source is a queryable statistics surface produced by a finished run.
// Implementations report absence explicitly instead of failing, so the
// resolver can walk its candidate lists without exception handling.
type Source interface {
	// Counter returns the named counter's value and whether it exists.
	Counter(name string) (float64, bool)
}

// MapSource is a Source backed by a plain map.
type MapSource map[string]float64

// Counter returns the named counter's value and whether it exists.
func (m MapSource) Counter(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}
