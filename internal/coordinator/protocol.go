// Package coordinator implements the per-session router between client
// transports and a dedicated kernel process (spec.md §4.4): forwarding
// typed client requests, draining the kernel's notification stream,
// translating notifications to client messages, and broadcasting them to
// every attached transport of the session.
package coordinator

// ClientMessageType discriminates a client->coordinator message (spec
// §6.1).
type ClientMessageType string

const (
	ClientCellUpdate          ClientMessageType = "cell_update"
	ClientCreateCell          ClientMessageType = "create_cell"
	ClientDeleteCell          ClientMessageType = "delete_cell"
	ClientRunCell             ClientMessageType = "run_cell"
	ClientUpdateDBConnection  ClientMessageType = "update_db_connection"
)

// ClientMessage is one client->coordinator request.
type ClientMessage struct {
	Type             ClientMessageType `json:"type"`
	CellID           string            `json:"cellId,omitempty"`
	Code             string            `json:"code,omitempty"`
	CellType         string            `json:"cellType,omitempty"`
	AfterCellID      string            `json:"afterCellId,omitempty"`
	ConnectionString string            `json:"connectionString,omitempty"`
}

// ServerMessageType discriminates a coordinator->client message,
// translated from a kernel notification (spec §6.1).
type ServerMessageType string

const (
	ServerCellStatus           ServerMessageType = "cell_status"
	ServerCellStdout           ServerMessageType = "cell_stdout"
	ServerCellStderr           ServerMessageType = "cell_stderr"
	ServerCellOutput           ServerMessageType = "cell_output"
	ServerCellError            ServerMessageType = "cell_error"
	ServerCellUpdated          ServerMessageType = "cell_updated"
	ServerCellCreated          ServerMessageType = "cell_created"
	ServerCellDeleted          ServerMessageType = "cell_deleted"
	ServerDBConnectionUpdated  ServerMessageType = "db_connection_updated"
	ServerKernelError          ServerMessageType = "kernel_error"
)

// CellOutput is the cell_output message's nested payload.
type CellOutput struct {
	MimeType string `json:"mimetype"`
	Data     any    `json:"data"`
}

// CellMetadata is the nested cell object carried by cell_created (id,
// type, code) and cell_updated (reads, writes) messages.
type CellMetadata struct {
	ID     string   `json:"id,omitempty"`
	Type   string   `json:"type,omitempty"`
	Code   string   `json:"code,omitempty"`
	Reads  []string `json:"reads,omitempty"`
	Writes []string `json:"writes,omitempty"`
}

// ServerMessage is one coordinator->client message.
type ServerMessage struct {
	Type             ServerMessageType `json:"type"`
	CellID           string            `json:"cellId,omitempty"`
	Index            int               `json:"index,omitempty"`
	Status           string            `json:"status,omitempty"`
	Data             string            `json:"data,omitempty"`
	Output           *CellOutput       `json:"output,omitempty"`
	Error            string            `json:"error,omitempty"`
	Cell             *CellMetadata     `json:"cell,omitempty"`
	ConnectionString string            `json:"connectionString,omitempty"`
}
