package domain

import "time"

// Channel is the category of a single streamed notification payload.
type Channel string

const (
	ChannelStatus   Channel = "status"
	ChannelMetadata Channel = "metadata"
	ChannelStdout   Channel = "stdout"
	ChannelStderr   Channel = "stderr"
	ChannelOutput   Channel = "output"
	ChannelError    Channel = "error"
)

// Status is the lifecycle value carried on the status channel.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusBlocked Status = "blocked"
	StatusDBReady Status = "db_configured"
)

// Output is one element of the per-cell notification stream (spec §3
// "Output", §4.3.2). It is never persisted: outputs are ephemeral and
// re-derived by re-execution.
type Output struct {
	Channel   Channel   `msgpack:"channel" json:"channel"`
	MimeType  string    `msgpack:"mime_type" json:"mimeType"`
	Data      any       `msgpack:"data" json:"data"`
	Timestamp time.Time `msgpack:"timestamp" json:"timestamp"`
}

// StatusPayload is the Output.Data shape for ChannelStatus.
type StatusPayload struct {
	Status Status `msgpack:"status" json:"status"`
}

// MetadataPayload is the Output.Data shape for ChannelMetadata.
type MetadataPayload struct {
	Reads  []string `msgpack:"reads" json:"reads"`
	Writes []string `msgpack:"writes" json:"writes"`
}

// ErrorPayload is the Output.Data shape for ChannelError.
type ErrorPayload struct {
	ErrorType string `msgpack:"error_type" json:"errorType"`
	Message   string `msgpack:"message" json:"message"`
}

// TextPayload carries a raw text chunk (stdout/stderr).
type TextPayload struct {
	Text string `msgpack:"text" json:"text"`
}

// TablePayload is the uniform table envelope shared by SQL results and
// tabular-frame MIME conversion (spec §4.3.4, §6.4).
type TablePayload struct {
	Type    string  `msgpack:"type" json:"type"`
	Columns []string `msgpack:"columns" json:"columns"`
	Rows    [][]any  `msgpack:"rows" json:"rows"`
}

// NewTablePayload builds a TablePayload with the fixed "table" discriminator.
func NewTablePayload(columns []string, rows [][]any) TablePayload {
	return TablePayload{Type: "table", Columns: columns, Rows: rows}
}
