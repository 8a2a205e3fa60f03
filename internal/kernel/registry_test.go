package kernel

import (
	"testing"

	"github.com/smilemakc/cellgraph/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGetHasRun(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has("c1"))

	r.Put("c1", domain.KindPython, "x = 1", nil, map[string]struct{}{"x": {}})
	require.True(t, r.Has("c1"))

	kind, source, _, writes, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, domain.KindPython, kind)
	assert.Equal(t, "x = 1", source)
	assert.Contains(t, writes, "x")

	assert.False(t, r.HasRun("c1"))
	r.SetHasRun("c1", true)
	assert.True(t, r.HasRun("c1"))
}

func TestRegistry_SetHasRunNoOpIfAbsent(t *testing.T) {
	r := NewRegistry()
	r.SetHasRun("missing", true) // must not panic
	assert.False(t, r.HasRun("missing"))
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	r.Put("c1", domain.KindPython, "", nil, nil)
	r.Remove("c1")
	assert.False(t, r.Has("c1"))
}

func TestRegistry_InvalidateAll(t *testing.T) {
	r := NewRegistry()
	r.Put("c1", domain.KindPython, "", nil, nil)
	r.Put("c2", domain.KindPython, "", nil, nil)
	r.SetHasRun("c1", true)
	r.SetHasRun("c2", true)

	r.InvalidateAll(map[string]struct{}{"c1": {}, "c2": {}})
	assert.False(t, r.HasRun("c1"))
	assert.False(t, r.HasRun("c2"))
}
