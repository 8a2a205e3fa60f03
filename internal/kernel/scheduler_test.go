package kernel

import (
	"testing"

	"github.com/smilemakc/cellgraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// TestStaleFilteredOrder_S1 reproduces spec §8 scenario S1: a linear chain
// c1->c2->c3. First execute(c1) runs all three; a repeat execute(c2) only
// re-runs c2 and c3 since c1 has already run under its current source.
func TestStaleFilteredOrder_S1(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), set("y")))
	require.NoError(t, g.UpdateCell("c3", set("y"), nil))

	r := NewRegistry()
	r.Put("c1", "python", "x = 10", nil, set("x"))
	r.Put("c2", "python", "y = x * 2", set("x"), set("y"))
	r.Put("c3", "python", "print(y)", set("y"), nil)

	order := staleFilteredOrder(g, r, "c1")
	assert.Equal(t, []string{"c1", "c2", "c3"}, order)

	r.SetHasRun("c1", true)
	r.SetHasRun("c2", true)
	r.SetHasRun("c3", true)

	order = staleFilteredOrder(g, r, "c2")
	assert.Equal(t, []string{"c2", "c3"}, order)
}

func TestStaleFilteredOrder_InvalidatedAncestorReruns(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), set("y")))
	require.NoError(t, g.UpdateCell("c3", set("y"), nil))

	r := NewRegistry()
	r.Put("c1", "python", "x = 20", nil, set("x"))
	r.Put("c2", "python", "y = x * 2", set("x"), set("y"))
	r.Put("c3", "python", "print(y)", set("y"), nil)
	// c1 was just re-registered, so has_run is false for it and its
	// descendants per the invalidation rule.

	order := staleFilteredOrder(g, r, "c3")
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, order)
	assert.Equal(t, "c1", order[0])
	assert.Equal(t, "c3", order[2])
}

func TestDeleteCascadeOrder_EmptyWhenNoDescendants(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	assert.Empty(t, deleteCascadeOrder(g, "c1"))
}

func TestDeleteCascadeOrder_CapturesDescendants(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), nil))

	order := deleteCascadeOrder(g, "c1")
	assert.Equal(t, []string{"c2"}, order)
}
