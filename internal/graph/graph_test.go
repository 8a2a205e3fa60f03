package graph

import (
	"testing"

	"github.com/smilemakc/cellgraph/internal/domain"
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

func TestUpdateCell_SimpleEdge(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), nil))

	order := g.GetExecutionOrder("c1")
	assert.Equal(t, []string{"c1", "c2"}, order)
}

func TestUpdateCell_SelfEdgeNotCreated(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", set("x"), set("x")))
	assert.Equal(t, []string{"c1"}, g.GetExecutionOrder("c1"))
}

func TestUpdateCell_CycleRejectedAndGraphUnchanged(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), set("y")))

	before := g.Snapshot()

	err := g.UpdateCell("c1", set("y"), set("x"))
	require.Error(t, err)
	var cycleErr *domain.CycleError
	require.ErrorAs(t, err, &cycleErr)

	after := g.Snapshot()
	assert.Equal(t, before, after)
}

func TestUpdateCell_LatestWriterWins(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", nil, set("x")))

	writer, ok := g.WriterOf("x")
	require.True(t, ok)
	assert.Equal(t, "c2", writer)
}

func TestUpdateCell_IdempotentReregistration(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), nil))
	before := g.Snapshot()

	require.NoError(t, g.UpdateCell("c2", set("x"), nil))
	after := g.Snapshot()
	assert.Equal(t, before, after)
}

func TestRemoveCell_NoOpIfAbsent(t *testing.T) {
	g := New()
	g.RemoveCell("does-not-exist") // must not panic
	assert.False(t, g.HasNode("does-not-exist"))
}

func TestRemoveCell_ThenUpdateEquivalentToFreshUpdate(t *testing.T) {
	g1 := New()
	require.NoError(t, g1.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g1.UpdateCell("c2", set("x"), set("y")))
	g1.RemoveCell("c1")
	require.NoError(t, g1.UpdateCell("c1", nil, set("x")))

	g2 := New()
	require.NoError(t, g2.UpdateCell("c2", set("x"), set("y")))
	require.NoError(t, g2.UpdateCell("c1", nil, set("x")))

	assert.Equal(t, g2.Snapshot(), g1.Snapshot())
}

func TestDiamond_ExecutionOrder(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), set("y")))
	require.NoError(t, g.UpdateCell("c3", set("x"), set("z")))
	require.NoError(t, g.UpdateCell("c4", set("y", "z"), nil))

	order := g.GetExecutionOrder("c1")
	require.Len(t, order, 4)
	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["c1"], pos["c2"])
	assert.Less(t, pos["c1"], pos["c3"])
	assert.Less(t, pos["c2"], pos["c4"])
	assert.Less(t, pos["c3"], pos["c4"])
}

func TestAncestorsDescendants(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), set("y")))
	require.NoError(t, g.UpdateCell("c3", set("y"), nil))

	assert.Equal(t, set("c2", "c3"), g.Descendants("c1"))
	assert.Equal(t, set("c1", "c2"), g.Ancestors("c3"))
}

func TestVariableShadowing_StaleEdgePruned(t *testing.T) {
	g := New()
	require.NoError(t, g.UpdateCell("c1", nil, set("x")))
	require.NoError(t, g.UpdateCell("c2", set("x"), nil))

	// c1 stops writing x; after its next update the edge to c2 should be
	// gone because c1 no longer produces anything c2 reads.
	require.NoError(t, g.UpdateCell("c1", nil, set("q")))
	assert.Equal(t, map[string]struct{}{}, g.Descendants("c1"))
}
