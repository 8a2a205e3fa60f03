package kernel

import (
	"testing"

	"github.com/smilemakc/cellgraph/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMIMEBundle_None(t *testing.T) {
	_, _, ok := ToMIMEBundle(PyValue{Kind: "none"})
	assert.False(t, ok)
}

func TestToMIMEBundle_MatplotlibFigure(t *testing.T) {
	mimeType, payload, ok := ToMIMEBundle(PyValue{Kind: "matplotlib_figure", PNG: "c25vb3Bz"})
	require.True(t, ok)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, "c25vb3Bz", payload)
	assert.NotEmpty(t, payload)
}

func TestToMIMEBundle_PlotlyFigure(t *testing.T) {
	mimeType, payload, ok := ToMIMEBundle(PyValue{Kind: "plotly_figure", JSON: `{"data":[]}`})
	require.True(t, ok)
	assert.Equal(t, "application/vnd.plotly.v1+json", mimeType)
	assert.Equal(t, `{"data":[]}`, payload)
}

func TestToMIMEBundle_AltairChart(t *testing.T) {
	mimeType, _, ok := ToMIMEBundle(PyValue{Kind: "altair_chart", JSON: `{}`})
	require.True(t, ok)
	assert.Equal(t, "application/vnd.vegalite.v6+json", mimeType)
}

func TestToMIMEBundle_Dataframe(t *testing.T) {
	mimeType, payload, ok := ToMIMEBundle(PyValue{
		Kind:    "dataframe",
		Columns: []string{"a", "b"},
		Rows:    [][]any{{1, 2}},
	})
	require.True(t, ok)
	assert.Equal(t, "application/json", mimeType)
	table, isTable := payload.(domain.TablePayload)
	require.True(t, isTable)
	assert.Equal(t, "table", table.Type)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
}

func TestToMIMEBundle_ScalarFallback(t *testing.T) {
	mimeType, payload, ok := ToMIMEBundle(PyValue{Kind: "scalar", Text: "42"})
	require.True(t, ok)
	assert.Equal(t, "text/plain", mimeType)
	assert.Equal(t, "42", payload)
}

func TestToMIMEBundle_UnknownKindFallsBackToText(t *testing.T) {
	mimeType, _, ok := ToMIMEBundle(PyValue{Kind: "some_unrecognized_library", Text: "<obj>"})
	require.True(t, ok)
	assert.Equal(t, "text/plain", mimeType)
}
