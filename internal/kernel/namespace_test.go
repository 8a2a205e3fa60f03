package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace_SetGetDelete(t *testing.T) {
	ns := NewNamespace()
	_, ok := ns.Get("x")
	assert.False(t, ok)

	ns.Set("x", 10)
	v, ok := ns.Get("x")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	ns.Delete("x")
	_, ok = ns.Get("x")
	assert.False(t, ok)
}

func TestNamespace_SnapshotAndMerge(t *testing.T) {
	ns := NewNamespace()
	ns.Set("x", 1)
	ns.Set("y", 2)

	snap := ns.Snapshot()
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, snap)

	ns.Merge(map[string]any{"y": 20, "z": 3})
	v, _ := ns.Get("y")
	assert.Equal(t, 20, v)
	v, _ = ns.Get("z")
	assert.Equal(t, 3, v)
}
