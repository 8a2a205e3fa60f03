// Package ipc frames the kernel's request/notification queues (spec.md
// §4.3, §6.2) as self-describing msgpack envelopes over a pair of
// unidirectional byte pipes between the coordinator process and the
// kernel's child process.
//
// Grounded on the teacher's internal/infrastructure/websocket/message.go
// (a `Type` discriminator plus a flat payload struct for every event
// kind), translated from JSON-over-websocket to msgpack-over-pipe. Since
// the kernel is a re-exec of the same binary (cmd/notebookd -kernel)
// rather than a foreign process, both ends share the Request/Notification
// envelope types directly. Output.Data is an `any`, so on the reading side
// it decodes as a generic map rather than the domain payload struct it was
// sent as.
package ipc

import "github.com/smilemakc/cellgraph/internal/domain"

// RequestType discriminates an input-queue envelope (spec §4.3.1).
type RequestType string

const (
	RequestRegisterCell RequestType = "register_cell"
	RequestCreateCell   RequestType = "create_cell"
	RequestDeleteCell   RequestType = "delete_cell"
	RequestExecute      RequestType = "execute"
	RequestSetDBConfig  RequestType = "set_db_config"
	RequestShutdown     RequestType = "shutdown"
)

// Request is one envelope on the kernel's input queue.
type Request struct {
	Type RequestType `msgpack:"type"`

	CellID           string      `msgpack:"cell_id,omitempty"`
	Code             string      `msgpack:"code,omitempty"`
	Kind             domain.Kind `msgpack:"kind,omitempty"`
	ConnectionString string      `msgpack:"connection_string,omitempty"`
}

// Notification is one envelope on the kernel's output queue: the
// {cell_id, output} pair from spec §4.3.2.
type Notification struct {
	CellID string        `msgpack:"cell_id"`
	Output domain.Output `msgpack:"output"`
}
