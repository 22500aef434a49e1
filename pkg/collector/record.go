package collector

import "time"

// Kind tells scrapers how a record's value behaves over time.
type Kind int

const (
	// Gauge values move freely up and down (balances, heights, counts).
	Gauge Kind = iota

	// Counter values only ever accumulate (bytes transferred, failures).
	Counter
)

// Record is one exported sample: a metric name, its label set, and the value
// observed during a single collection pass. Records are never mutated after
// the pass that built them completes.
type Record struct {
	Name   string
	Help   string
	Labels map[string]string
	Value  float64
	Kind   Kind
}

// Snapshot is the full set of records produced by one collection pass, in
// scraper-table order. A pass always builds a fresh snapshot; published ones
// are immutable from the readers' point of view.
type Snapshot struct {
	// Generation identifies recency. It is assigned by the registry when
	// the snapshot is published and strictly increases.
	Generation uint64

	// TakenAt is when the pass that produced these records completed.
	TakenAt time.Time

	Records []Record
}

func boolToFloat64(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
