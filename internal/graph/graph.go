// Package graph maintains the dependency DAG of cells (spec.md §4.2). Nodes
// are cell IDs; an edge A->B means "B reads a variable that A writes".
//
// Grounded on the teacher's internal/engine/graph.go (map-of-slices
// adjacency, Kahn's-algorithm topological sort) and
// internal/application/executor/graph.go (forward/reverse edge maps, DFS
// cycle check). The incremental "reject before mutation" algorithm of
// §4.2 has no teacher equivalent — the teacher always validates the whole
// graph after mutating — and is new code following the same adjacency
// style.
package graph

import (
	"sync"

	"github.com/smilemakc/cellgraph/internal/domain"
)

// Graph is the incrementally maintained dependency DAG for one session's
// cells. The zero value is not usable; construct with New.
type Graph struct {
	mu sync.RWMutex

	// out/in are the adjacency maps: out[A] = {B : A->B edge exists}.
	out map[string]map[string]struct{}
	in  map[string]map[string]struct{}

	// nodes is the set of registered cell IDs (spec §3 "node completeness").
	nodes map[string]struct{}

	// writerOf maps a variable name to the cell ID that currently produces
	// it (spec §3 "single latest writer per variable").
	writerOf map[string]string

	// reads/writes are the last-registered dependency sets per cell, kept
	// here so remove_cell and re-registration can recompute writerOf
	// without consulting the kernel's registry.
	reads  map[string]map[string]struct{}
	writes map[string]map[string]struct{}
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		out:      make(map[string]map[string]struct{}),
		in:       make(map[string]map[string]struct{}),
		nodes:    make(map[string]struct{}),
		writerOf: make(map[string]string),
		reads:    make(map[string]map[string]struct{}),
		writes:   make(map[string]map[string]struct{}),
	}
}

type edge struct{ from, to string }

// UpdateCell registers cell C with new reads/writes sets, per spec §4.2's
// three-step algorithm: (1) compute prospective edges, (2) reject the
// entire update if any prospective edge would close a cycle, (3) only then
// mutate. The graph is never transiently cyclic and an update that fails
// leaves the graph byte-identical to its prior state.
func (g *Graph) UpdateCell(id string, reads, writes map[string]struct{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	prospective := g.prospectiveEdges(id, reads, writes)

	for _, e := range prospective {
		if g.hasPathLocked(e.to, e.from) {
			return &domain.CycleError{From: e.from, To: e.to}
		}
	}

	oldWrites := g.writes[id]

	g.removeIncidentLocked(id)
	g.nodes[id] = struct{}{}
	g.reads[id] = cloneSet(reads)
	g.writes[id] = cloneSet(writes)

	for name := range oldWrites {
		if _, stillWrites := writes[name]; !stillWrites && g.writerOf[name] == id {
			delete(g.writerOf, name)
		}
	}
	for name := range writes {
		g.writerOf[name] = id
	}

	for _, e := range prospective {
		g.addEdgeLocked(e.from, e.to)
	}

	// A variable C writes may have previously been written by some other
	// cell C'; C' no longer produces it, but C' may still produce other
	// names consumers still read. We don't eagerly prune C' — per spec
	// §4.2 "Variable shadowing", C''s stale edges are pruned lazily on C''s
	// own next update, when removeIncidentLocked drops all of its edges and
	// prospectiveEdges recomputes them from its new reads/writes.
	return nil
}

// prospectiveEdges computes the edges that a successful UpdateCell(id, ...)
// would introduce, without mutating the graph (spec §4.2 step 1).
func (g *Graph) prospectiveEdges(id string, reads, writes map[string]struct{}) []edge {
	var out []edge
	for name := range reads {
		if w, ok := g.writerOf[name]; ok && w != id {
			out = append(out, edge{from: w, to: id})
		}
	}
	for name := range writes {
		for other := range g.nodes {
			if other == id {
				continue
			}
			if otherReads, ok := g.reads[other]; ok {
				if _, reads := otherReads[name]; reads {
					out = append(out, edge{from: id, to: other})
				}
			}
		}
	}
	return out
}

// hasPathLocked reports whether a path from -> to already exists. Callers
// must hold g.mu.
func (g *Graph) hasPathLocked(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]struct{}{}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		if n == to {
			return true
		}
		for next := range g.out[n] {
			stack = append(stack, next)
		}
	}
	return false
}

func (g *Graph) removeIncidentLocked(id string) {
	for target := range g.out[id] {
		delete(g.in[target], id)
	}
	for source := range g.in[id] {
		delete(g.out[source], id)
	}
	g.out[id] = make(map[string]struct{})
	g.in[id] = make(map[string]struct{})
}

func (g *Graph) addEdgeLocked(from, to string) {
	if g.out[from] == nil {
		g.out[from] = make(map[string]struct{})
	}
	if g.in[to] == nil {
		g.in[to] = make(map[string]struct{})
	}
	g.out[from][to] = struct{}{}
	g.in[to][from] = struct{}{}
}

// RemoveCell deletes a cell's node and all incident edges. No-op if absent.
func (g *Graph) RemoveCell(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return
	}
	g.removeIncidentLocked(id)
	delete(g.nodes, id)
	delete(g.out, id)
	delete(g.in, id)

	for name, writer := range g.writerOf {
		if writer == id {
			delete(g.writerOf, name)
		}
	}
	delete(g.reads, id)
	delete(g.writes, id)
}

// WriterOf returns the current producer of a variable name, if any.
func (g *Graph) WriterOf(name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.writerOf[name]
	return id, ok
}

// Descendants returns every node reachable from id (not including id).
func (g *Graph) Descendants(id string) map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reachableLocked(id, g.out)
}

// Ancestors returns every node that can reach id (not including id).
func (g *Graph) Ancestors(id string) map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reachableLocked(id, g.in)
}

func (g *Graph) reachableLocked(id string, adjacency map[string]map[string]struct{}) map[string]struct{} {
	result := map[string]struct{}{}
	stack := []string{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range adjacency[n] {
			if _, seen := result[next]; seen {
				continue
			}
			result[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return result
}

// OrderSubset returns a topological order of an arbitrary node subset,
// restricted to edges whose endpoints are both inside it. Used by the
// kernel's stale-filtered cascade scheduler (spec §4.3.3) to order
// {stale ancestors} ∪ {C} ∪ {descendants}.
func (g *Graph) OrderSubset(ids map[string]struct{}) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.topoSortLocked(ids)
}

// GetExecutionOrder returns {id} union descendants(id), topologically
// sorted (spec §4.2). Tie-breaking among independent peers is unspecified;
// this implementation breaks ties by insertion order of the ready queue.
func (g *Graph) GetExecutionOrder(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.executionOrderLocked(id)
}

func (g *Graph) executionOrderLocked(id string) []string {
	subset := g.reachableLocked(id, g.out)
	subset[id] = struct{}{}
	return g.topoSortLocked(subset)
}

// topoSortLocked returns a topological order of the given node subset,
// restricted to edges whose endpoints are both in the subset.
func (g *Graph) topoSortLocked(subset map[string]struct{}) []string {
	indeg := make(map[string]int, len(subset))
	for n := range subset {
		indeg[n] = 0
	}
	for n := range subset {
		for to := range g.out[n] {
			if _, in := subset[to]; in {
				indeg[to]++
			}
		}
	}

	queue := make([]string, 0, len(subset))
	for n := range subset {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]string, 0, len(subset))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for to := range g.out[n] {
			if _, in := subset[to]; !in {
				continue
			}
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	return order
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// HasNode reports whether id has a node in the graph.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Snapshot returns a structural copy for equality comparisons in tests
// (spec §8's "byte-identical" rollback property).
type Snapshot struct {
	Nodes    map[string]struct{}
	Edges    map[string]map[string]struct{}
	WriterOf map[string]string
}

func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make(map[string]map[string]struct{}, len(g.out))
	for n, targets := range g.out {
		edges[n] = cloneSet(targets)
	}
	return Snapshot{
		Nodes:    cloneSet(g.nodes),
		Edges:    edges,
		WriterOf: clonedStringMap(g.writerOf),
	}
}

func clonedStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
