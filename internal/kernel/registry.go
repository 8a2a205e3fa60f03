// Package kernel implements the stale-tracking execution runtime (spec.md
// §4.3): the cell registry, the persistent user namespace, the MIME bundle
// converter, and the stale-filtered cascade scheduler. It is designed to
// run inside the child OS process spawned by cmd/notebookd -kernel.
//
// Grounded on the teacher's internal/application/executor/state.go
// (mutex-free-per-field getter/setter ExecutionState) for the registry's
// shape, adapted to use a concurrent map (xsync.MapOf). Within this module
// the registry is only accessed from the kernel's single request-processing
// goroutine.
package kernel

import (
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/smilemakc/cellgraph/internal/domain"
)

// cellEntry is a registry's per-cell auxiliary state (spec §3 "Per-cell
// auxiliaries").
type cellEntry struct {
	kind   domain.Kind
	source string
	reads  map[string]struct{}
	writes map[string]struct{}
	hasRun bool
}

// Registry holds the cell registry and has_run map (spec §4.3, owned
// exclusively by the kernel).
type Registry struct {
	cells *xsync.MapOf[string, cellEntry]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{cells: xsync.NewMapOf[string, cellEntry]()}
}

// Put registers or re-registers a cell's code/kind/deps, per spec §4.3.3
// invalidation rule this does NOT itself clear has_run for descendants —
// that's the caller's (Kernel.RegisterCell's) responsibility since it also
// needs the graph to find descendants.
func (r *Registry) Put(id string, kind domain.Kind, source string, reads, writes map[string]struct{}) {
	r.cells.Store(id, cellEntry{kind: kind, source: source, reads: reads, writes: writes})
}

// Remove deletes a cell from the registry.
func (r *Registry) Remove(id string) {
	r.cells.Delete(id)
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.cells.Load(id)
	return ok
}

// Get returns a cell's current code/kind/deps.
func (r *Registry) Get(id string) (kind domain.Kind, source string, reads, writes map[string]struct{}, ok bool) {
	e, found := r.cells.Load(id)
	if !found {
		return "", "", nil, nil, false
	}
	return e.kind, e.source, e.reads, e.writes, true
}

// HasRun reports whether id has completed successfully since its last
// source change or registration.
func (r *Registry) HasRun(id string) bool {
	e, ok := r.cells.Load(id)
	return ok && e.hasRun
}

// SetHasRun updates the has_run flag for id. No-op if id is not
// registered (e.g. it was deleted mid-cascade).
func (r *Registry) SetHasRun(id string, v bool) {
	r.cells.Compute(id, func(e cellEntry, loaded bool) (cellEntry, bool) {
		if !loaded {
			return e, true // delete: nothing to update
		}
		e.hasRun = v
		return e, false
	})
}

// InvalidateAll sets has_run=false for every id in the set (spec §4.3.3
// invalidation: the registered cell itself and all of its descendants).
func (r *Registry) InvalidateAll(ids map[string]struct{}) {
	for id := range ids {
		r.SetHasRun(id, false)
	}
}
