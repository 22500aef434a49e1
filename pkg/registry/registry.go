// Package registry is the hand-off point between the scheduler (the single
// writer) and the exposition server (many concurrent readers).
package registry

import (
	"sync/atomic"

	"github.com/FelipeRosa/lnd-exporter/pkg/collector"
)

// Registry holds the most recently published snapshot behind an atomic
// pointer. Publishing swaps the pointer, so readers never take a lock and
// never observe a partially written snapshot: whatever Current returned to
// them stays intact for as long as they hold the reference.
type Registry struct {
	current atomic.Pointer[collector.Snapshot]

	// generation is only touched by Publish, which has a single caller.
	generation uint64
}

func New() *Registry {
	return &Registry{}
}

// Publish assigns the next generation to snap and makes it the current
// snapshot. Generations strictly increase, so a reader comparing snapshots
// over time never sees recency go backwards.
//
// Only one goroutine may call Publish; snap must not be modified afterwards.
func (r *Registry) Publish(snap *collector.Snapshot) {
	r.generation++
	snap.Generation = r.generation

	r.current.Store(snap)
}

// Current returns the latest published snapshot. ok is false until the first
// Publish, letting callers tell "not ready yet" apart from "a node with no
// records".
func (r *Registry) Current() (*collector.Snapshot, bool) {
	snap := r.current.Load()

	return snap, snap != nil
}
