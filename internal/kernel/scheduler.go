package kernel

import "github.com/smilemakc/cellgraph/internal/graph"

// staleFilteredOrder computes the execution order for execute(C), per
// spec §4.3.3: S = stale ancestors, D = descendants, ordered topologically
// over S ∪ {C} ∪ D.
//
// Grounded on the teacher's internal/application/executor/graph_executor.go
// readiness-queue pattern, adapted to filter ancestors by has_run before
// building the subset (the teacher always runs the full reachable set).
func staleFilteredOrder(g *graph.Graph, registry *Registry, id string) []string {
	ancestors := g.Ancestors(id)
	descendants := g.Descendants(id)

	subset := map[string]struct{}{id: {}}
	for a := range ancestors {
		if !registry.HasRun(a) {
			subset[a] = struct{}{}
		}
	}
	for d := range descendants {
		subset[d] = struct{}{}
	}

	return g.OrderSubset(subset)
}

// deleteCascadeOrder computes the cells that must be re-executed after a
// delete_cell(id) removes a producer, per spec §4.3.1: affected =
// descendants(id), captured BEFORE the graph mutation, re-executed in
// their topological order (they typically fail with a missing-name error
// since their reads are now unsatisfied).
func deleteCascadeOrder(g *graph.Graph, id string) []string {
	descendants := g.Descendants(id)
	if len(descendants) == 0 {
		return nil
	}
	return g.OrderSubset(descendants)
}
