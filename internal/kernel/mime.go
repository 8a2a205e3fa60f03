package kernel

import "github.com/smilemakc/cellgraph/internal/domain"

// PyValue is the kernel-side description of a Python trailing-expression
// result, as reported by the pyhost subprocess (internal/kernel/pyhost).
// pyhost does the actual duck-typing against the live object (checking for
// matplotlib/plotly/altair/pandas attributes) since only it holds a real
// Python interpreter; it reports back which branch matched so the kernel
// never needs to inspect opaque Python values itself.
//
// Grounded on the teacher's metrics_display.go value-formatting switch,
// generalized from a fixed set of metric kinds to the MIME priority table.
type PyValue struct {
	// Kind is one of: "none", "matplotlib_figure", "plotly_figure",
	// "altair_chart", "dataframe", "scalar".
	Kind string

	// PNG holds base64-encoded PNG bytes when Kind == "matplotlib_figure".
	PNG string

	// JSON holds a pre-serialized JSON document for the plotly_figure and
	// altair_chart kinds.
	JSON string

	// Columns/Rows populate a table envelope when Kind == "dataframe".
	Columns []string
	Rows    [][]any

	// Text is the str(value) fallback when Kind == "scalar" (or any kind
	// pyhost did not recognize — it always falls back to scalar/text).
	Text string
}

// ToMIMEBundle converts a PyValue to the channel MIME type and JSON-ish
// payload it should be emitted as, per spec §4.3.4's priority table. The
// first matching branch wins; an unrecognized Kind degrades to
// text/plain, mirroring "if a library is not installed, its branch is
// silently skipped".
func ToMIMEBundle(v PyValue) (mimeType string, payload any, ok bool) {
	switch v.Kind {
	case "none":
		return "", nil, false
	case "matplotlib_figure":
		return "image/png", v.PNG, true
	case "plotly_figure":
		return "application/vnd.plotly.v1+json", v.JSON, true
	case "altair_chart":
		return "application/vnd.vegalite.v6+json", v.JSON, true
	case "dataframe":
		return "application/json", domain.NewTablePayload(v.Columns, v.Rows), true
	default:
		return "text/plain", v.Text, true
	}
}
