package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/smilemakc/cellgraph/internal/domain"
	"github.com/smilemakc/cellgraph/internal/ipc"
	"github.com/smilemakc/cellgraph/internal/persistence"
)

// KernelLink is everything a Coordinator needs from a running kernel
// process: send it requests, read its notifications, and know if it has
// died. The production implementation wraps an *ipc.Transport pair over a
// re-exec'd child process (see cmd/notebookd); tests use an in-memory
// fake.
type KernelLink interface {
	Send(ipc.Request) error
	Recv() (ipc.Notification, error)
	Alive() bool
}

// Coordinator is the per-session router between attached client
// transports and one dedicated kernel (spec §4.4). It owns the hub and
// the persisted notebook structure; it never tracks execution status,
// outputs, or errors itself — those are derived client-side from the
// broadcast notification stream.
//
// Grounded on the teacher's internal/infrastructure/websocket/observer.go
// (translating typed execution events into WSEvents one notification at a
// time) driving a Hub exactly like this coordinator's drain loop does.
type Coordinator struct {
	kernel KernelLink
	hub    *Hub
	store  persistence.Store
	log    zerolog.Logger

	structure persistence.NotebookStructure
	poisoned  bool
}

// New constructs a Coordinator for one notebook session.
func New(kernel KernelLink, store persistence.Store, structure persistence.NotebookStructure, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		kernel:    kernel,
		hub:       NewHub(log),
		store:     store,
		structure: structure,
		log:       log,
	}
}

// Hub exposes the broadcast hub so transports (e.g. a websocket handler)
// can register/unregister clients.
func (c *Coordinator) Hub() *Hub { return c.hub }

// Handle dispatches one client message (spec §4.4's cell_update/
// create_cell/delete_cell/run_cell/update_db_connection handlers).
// Handlers never block waiting for a specific kernel response — they
// send the request and return immediately; the Drain loop handles
// responses as they arrive.
func (c *Coordinator) Handle(msg ClientMessage) error {
	if c.poisoned {
		return fmt.Errorf("coordinator: session is poisoned, kernel is dead")
	}

	switch msg.Type {
	case ClientCellUpdate:
		kind := domain.Kind(msg.CellType)
		if kind == "" {
			if existing := c.structure.IndexOf(msg.CellID); existing >= 0 {
				kind = domain.Kind(c.structure.Cells[existing].Kind)
			}
		}
		if err := c.kernel.Send(ipc.Request{Type: ipc.RequestRegisterCell, CellID: msg.CellID, Kind: kind, Code: msg.Code}); err != nil {
			return err
		}
		// Optimistic: the metadata/status notifications confirming success
		// arrive later on the drain loop, not correlated to this call, so
		// the persisted code is updated here rather than blocking for a
		// response (spec §4.4: handlers "do not block waiting for a
		// specific response").
		c.structure.UpsertCell(msg.CellID, string(kind), msg.Code, "")
		c.persist()
		return nil

	case ClientCreateCell:
		id := domain.NewCellID()
		if err := c.kernel.Send(ipc.Request{Type: ipc.RequestCreateCell, CellID: id, Kind: domain.Kind(msg.CellType)}); err != nil {
			return err
		}
		c.structure.UpsertCell(id, msg.CellType, "", msg.AfterCellID)
		c.persist()
		c.hub.Broadcast(ServerMessage{
			Type:   ServerCellCreated,
			CellID: id,
			Index:  c.structure.IndexOf(id),
			Cell:   &CellMetadata{ID: id, Type: msg.CellType, Code: ""},
		})
		return nil

	case ClientDeleteCell:
		c.structure.RemoveCell(msg.CellID)
		c.persist()
		c.hub.Broadcast(ServerMessage{Type: ServerCellDeleted, CellID: msg.CellID})
		return c.kernel.Send(ipc.Request{Type: ipc.RequestDeleteCell, CellID: msg.CellID})

	case ClientRunCell:
		return c.kernel.Send(ipc.Request{Type: ipc.RequestExecute, CellID: msg.CellID})

	case ClientUpdateDBConnection:
		c.structure.DBConnString = msg.ConnectionString
		c.persist()
		return c.kernel.Send(ipc.Request{Type: ipc.RequestSetDBConfig, ConnectionString: msg.ConnectionString})

	default:
		return fmt.Errorf("coordinator: unknown client message type %q", msg.Type)
	}
}

func (c *Coordinator) persist() {
	if c.store == nil {
		return
	}
	if err := c.store.Save(c.structure); err != nil {
		c.log.Warn().Err(err).Str("notebook_id", c.structure.ID).Msg("failed to persist notebook structure")
	}
}

// Drain is the single long-running loop reading the kernel's notification
// stream and broadcasting translated client messages (spec §4.4 "Drain
// task"). It runs until ctx is canceled or the kernel is detected dead,
// at which point it broadcasts a terminal kernel_error and returns.
func (c *Coordinator) Drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := c.kernel.Recv()
		if err != nil {
			if !c.kernel.Alive() {
				c.poisoned = true
				c.hub.Broadcast(ServerMessage{Type: ServerKernelError, Error: err.Error()})
				return
			}
			// Transient read error while the process is still alive: keep
			// polling rather than poisoning the session immediately.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		c.hub.Broadcast(c.translate(n))
	}
}

// translate converts one kernel notification to its client-protocol
// message, per spec §6.1's table. n.Output.Data arrives as a plain
// map[string]any — msgpack (like JSON) does not preserve the concrete
// Go payload type across the process boundary, so every field is read by
// name rather than by asserting back to domain.StatusPayload and friends.
func (c *Coordinator) translate(n ipc.Notification) ServerMessage {
	data, _ := n.Output.Data.(map[string]any)

	switch n.Output.Channel {
	case domain.ChannelStatus:
		status, _ := data["status"].(string)
		// set_db_config's ack/failure is emitted system-scoped (spec
		// §4.3.1); every status notification on SystemCellID is a
		// db-connection outcome, never a cell's own lifecycle, so it is
		// translated to db_connection_updated rather than cell_status.
		if n.CellID == domain.SystemCellID {
			return ServerMessage{Type: ServerDBConnectionUpdated, Status: status}
		}
		return ServerMessage{Type: ServerCellStatus, CellID: n.CellID, Status: status}

	case domain.ChannelStdout:
		text, _ := data["text"].(string)
		return ServerMessage{Type: ServerCellStdout, CellID: n.CellID, Data: text}

	case domain.ChannelStderr:
		text, _ := data["text"].(string)
		return ServerMessage{Type: ServerCellStderr, CellID: n.CellID, Data: text}

	case domain.ChannelOutput:
		return ServerMessage{Type: ServerCellOutput, CellID: n.CellID, Output: &CellOutput{
			MimeType: n.Output.MimeType, Data: n.Output.Data,
		}}

	case domain.ChannelError:
		message, _ := data["message"].(string)
		return ServerMessage{Type: ServerCellError, CellID: n.CellID, Error: message}

	case domain.ChannelMetadata:
		reads := stringSlice(data["reads"])
		writes := stringSlice(data["writes"])
		return ServerMessage{Type: ServerCellUpdated, CellID: n.CellID, Cell: &CellMetadata{Reads: reads, Writes: writes}}

	default:
		return ServerMessage{Type: ServerKernelError, Error: fmt.Sprintf("unknown notification channel %q", n.Output.Channel)}
	}
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
