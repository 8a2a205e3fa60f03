package kernel

import (
	"github.com/smilemakc/cellgraph/internal/kernel/pyhost"
)

// runPython executes one Python cell's source against the shared
// namespace via the nested pyhost subprocess, streaming stdout/stderr
// notifications and merging the host's reported globals back into ns on
// success, per spec §4.3.4's Python cell execution semantics.
//
// It reports a failure's kind/message back to the caller rather than
// emitting the error notification itself: the wire ordering contract
// (status=success|error before the error payload) is runOne's
// responsibility, not this function's.
func runPython(host *pyhost.Host, ns *Namespace, e *emitter, cellID, source string) (success bool, errKind, errMsg string) {
	resp, err := host.Exec(source)
	if err != nil {
		return false, "KernelError", err.Error()
	}

	if resp.Stdout != "" {
		e.stdout(cellID, resp.Stdout)
	}
	if resp.Stderr != "" {
		e.stderr(cellID, resp.Stderr)
	}

	if !resp.OK {
		return false, "PythonError", resp.Traceback
	}

	ns.Merge(resp.Updates)

	mimeType, payload, ok := ToMIMEBundle(PyValue{
		Kind:    resp.ValueKind,
		PNG:     resp.ValuePNG,
		JSON:    resp.ValueJSON,
		Text:    resp.ValueText,
		Columns: resp.ValueColumns,
		Rows:    resp.ValueRows,
	})
	if ok {
		e.output(cellID, mimeType, payload)
	}
	return true, "", ""
}
