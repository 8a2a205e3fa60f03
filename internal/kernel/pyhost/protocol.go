// Package pyhost launches and speaks to the nested python3 subprocess that
// does the kernel's actual Python execution (script.py). The kernel
// process itself never parses or evaluates Python; it only frames and
// forwards msgpack envelopes to this child, per spec.md §4.3's "owns the
// user namespace, executes Python/SQL fragments" split between a Go
// process (the kernel, itself a child of the coordinator) and a further
// nested interpreter process.
//
// Grounded on the teacher's internal/infrastructure/websocket/message.go
// self-describing envelope shape, adapted to length-prefixed msgpack
// frames over a pipe instead of JSON text frames over a websocket.
package pyhost

// Request is one code fragment to execute against the host's persistent
// globals.
type Request struct {
	Code string `msgpack:"code"`
}

// Response is script.py's report of one execution, mirroring the
// semantics of spec.md §4.3.4 (Python cell execution).
type Response struct {
	Stdout string `msgpack:"stdout"`
	Stderr string `msgpack:"stderr"`
	OK     bool   `msgpack:"ok"`

	// Traceback holds the formatted exception when OK is false.
	Traceback string `msgpack:"traceback"`

	// ValueKind discriminates the trailing-expression result, matching
	// kernel.PyValue.Kind: "none", "matplotlib_figure", "plotly_figure",
	// "altair_chart", "dataframe", "scalar".
	ValueKind    string     `msgpack:"value_kind"`
	ValuePNG     string     `msgpack:"value_png"`
	ValueJSON    string     `msgpack:"value_json"`
	ValueText    string     `msgpack:"value_text"`
	ValueColumns []string   `msgpack:"value_columns"`
	ValueRows    [][]any    `msgpack:"value_rows"`

	// Updates holds every top-level binding currently in the host's
	// globals dict (msgpack-serializable values only — rich objects like
	// figures/dataframes are reported only through the Value* fields,
	// never round-tripped through Updates), used to merge into the
	// kernel's Namespace after a successful execution.
	Updates map[string]any `msgpack:"updates"`
}
