package kernel

import (
	"time"

	"github.com/smilemakc/cellgraph/internal/domain"
)

// Notification is one element of the kernel's output queue: {cell_id,
// output} per spec §4.3.2. Sys-scoped events (e.g. set_db_config acks) use
// domain.SystemCellID.
type Notification struct {
	CellID string        `msgpack:"cell_id" json:"cellId"`
	Output domain.Output `msgpack:"output" json:"output"`
}

// Sink receives a kernel's outgoing notifications. The production
// implementation is the msgpack-framed IPC transport (internal/ipc); tests
// use a plain slice-backed sink.
type Sink interface {
	Send(Notification)
}

// sliceSink is a test/in-process Sink collecting every notification in
// order, letting tests assert on the exact sequence from spec §4.3.2 and
// §8's scenarios.
type sliceSink struct {
	items []Notification
}

func (s *sliceSink) Send(n Notification) { s.items = append(s.items, n) }

// emitter streams one cell's notifications to a Sink in the order spec
// §4.3.2 mandates: status=running -> (stdout|stderr|output)* ->
// status=success|error -> (error)? -> metadata.
type emitter struct {
	sink Sink
	now  func() time.Time
}

func newEmitter(sink Sink) *emitter {
	return &emitter{sink: sink, now: time.Now}
}

func (e *emitter) running(cellID string) {
	e.status(cellID, domain.StatusRunning)
}

func (e *emitter) stdout(cellID, text string) {
	e.sink.Send(Notification{CellID: cellID, Output: domain.Output{
		Channel: domain.ChannelStdout, MimeType: "text/plain",
		Data: domain.TextPayload{Text: text}, Timestamp: e.now(),
	}})
}

func (e *emitter) stderr(cellID, text string) {
	e.sink.Send(Notification{CellID: cellID, Output: domain.Output{
		Channel: domain.ChannelStderr, MimeType: "text/plain",
		Data: domain.TextPayload{Text: text}, Timestamp: e.now(),
	}})
}

func (e *emitter) output(cellID, mimeType string, data any) {
	e.sink.Send(Notification{CellID: cellID, Output: domain.Output{
		Channel: domain.ChannelOutput, MimeType: mimeType,
		Data: data, Timestamp: e.now(),
	}})
}

func (e *emitter) errorPayload(cellID, errType, message string) {
	e.sink.Send(Notification{CellID: cellID, Output: domain.Output{
		Channel: domain.ChannelError, MimeType: "application/json",
		Data: domain.ErrorPayload{ErrorType: errType, Message: message}, Timestamp: e.now(),
	}})
}

func (e *emitter) status(cellID string, status domain.Status) {
	e.sink.Send(Notification{CellID: cellID, Output: domain.Output{
		Channel: domain.ChannelStatus, MimeType: "application/json",
		Data: domain.StatusPayload{Status: status}, Timestamp: e.now(),
	}})
}

func (e *emitter) metadata(cellID string, reads, writes map[string]struct{}) {
	e.sink.Send(Notification{CellID: cellID, Output: domain.Output{
		Channel: domain.ChannelMetadata, MimeType: "application/json",
		Data: domain.MetadataPayload{Reads: setToSlice(reads), Writes: setToSlice(writes)},
		Timestamp: e.now(),
	}})
}

func setToSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
