package coordinator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/smilemakc/cellgraph/internal/domain"
	"github.com/smilemakc/cellgraph/internal/ipc"
	"github.com/smilemakc/cellgraph/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKernel is an in-memory KernelLink used to test Coordinator without
// a real subprocess.
type fakeKernel struct {
	mu    sync.Mutex
	sent  []ipc.Request
	queue []ipc.Notification
	dead  bool
}

func (f *fakeKernel) Send(req ipc.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeKernel) push(n ipc.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, n)
}

func (f *fakeKernel) Recv() (ipc.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return ipc.Notification{}, fmt.Errorf("no notifications queued")
	}
	n := f.queue[0]
	f.queue = f.queue[1:]
	return n, nil
}

func (f *fakeKernel) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead
}

func (f *fakeKernel) kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = true
}

func newTestCoordinator() (*Coordinator, *fakeKernel) {
	fk := &fakeKernel{}
	c := New(fk, nil, persistence.NotebookStructure{ID: "nb1"}, zerolog.Nop())
	return c, fk
}

func TestHandle_CellUpdate_SendsRegisterCellAndPersistsOptimistically(t *testing.T) {
	c, fk := newTestCoordinator()
	require.NoError(t, c.Handle(ClientMessage{Type: ClientCellUpdate, CellID: "c1", Code: "x = 1"}))

	require.Len(t, fk.sent, 1)
	assert.Equal(t, ipc.RequestRegisterCell, fk.sent[0].Type)
	assert.Equal(t, "x = 1", c.structure.Cells[0].Code)
}

func TestHandle_RunCell_SendsExecute(t *testing.T) {
	c, fk := newTestCoordinator()
	require.NoError(t, c.Handle(ClientMessage{Type: ClientRunCell, CellID: "c1"}))
	require.Len(t, fk.sent, 1)
	assert.Equal(t, ipc.RequestExecute, fk.sent[0].Type)
}

func TestHandle_DeleteCell_BroadcastsAckBeforeSendingRequest(t *testing.T) {
	c, fk := newTestCoordinator()
	c.structure.Cells = []persistence.CellStructure{{ID: "c1"}}

	client := NewClient("viewer1", 4)
	c.Hub().Register(client)

	require.NoError(t, c.Handle(ClientMessage{Type: ClientDeleteCell, CellID: "c1"}))
	require.Len(t, fk.sent, 1)
	assert.Equal(t, ipc.RequestDeleteCell, fk.sent[0].Type)

	select {
	case msg := <-client.Messages():
		assert.Equal(t, ServerCellDeleted, msg.Type)
	default:
		t.Fatal("expected a cell_deleted broadcast")
	}
}

func TestHandle_UnknownMessageType(t *testing.T) {
	c, _ := newTestCoordinator()
	err := c.Handle(ClientMessage{Type: "bogus"})
	assert.Error(t, err)
}

func TestHandle_PoisonedSessionRejectsRequests(t *testing.T) {
	c, fk := newTestCoordinator()
	fk.kill()
	c.poisoned = true

	err := c.Handle(ClientMessage{Type: ClientRunCell, CellID: "c1"})
	assert.Error(t, err)
}

func TestDrain_TranslatesAndBroadcastsNotifications(t *testing.T) {
	c, fk := newTestCoordinator()
	client := NewClient("viewer1", 8)
	c.Hub().Register(client)

	fk.push(ipc.Notification{CellID: "c1", Output: domain.Output{
		Channel: domain.ChannelStatus, Data: map[string]any{"status": "running"},
	}})
	fk.push(ipc.Notification{CellID: "c1", Output: domain.Output{
		Channel: domain.ChannelMetadata, Data: map[string]any{
			"reads": []any{"x"}, "writes": []any{"y"},
		},
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(20 * time.Millisecond)
		fk.kill()
	}()
	c.Drain(ctx)

	var types []ServerMessageType
	for {
		select {
		case msg, ok := <-client.Messages():
			if !ok {
				goto done
			}
			types = append(types, msg.Type)
		default:
			goto done
		}
	}
done:
	assert.Contains(t, types, ServerCellStatus)
	assert.Contains(t, types, ServerCellUpdated)
	assert.Contains(t, types, ServerKernelError)
	assert.True(t, c.poisoned)
}

func TestStringSlice_HandlesAnySliceAndStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, stringSlice([]any{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, stringSlice([]string{"a", "b"}))
	assert.Nil(t, stringSlice(nil))
}

func TestHandle_CreateCell_BroadcastsIndexAndCellObject(t *testing.T) {
	c, _ := newTestCoordinator()
	c.structure.UpsertCell("c1", "python", "1", "")

	var got *ServerMessage
	client := NewClient("viewer1", 4)
	c.Hub().Register(client)

	require.NoError(t, c.Handle(ClientMessage{Type: ClientCreateCell, CellType: "python", AfterCellID: "c1"}))

	select {
	case msg := <-client.Messages():
		got = &msg
	default:
		t.Fatal("expected a cell_created broadcast")
	}

	require.NotNil(t, got)
	assert.Equal(t, ServerCellCreated, got.Type)
	assert.Equal(t, 1, got.Index)
	require.NotNil(t, got.Cell)
	assert.Equal(t, got.CellID, got.Cell.ID)
	assert.Equal(t, "python", got.Cell.Type)
}

func TestTranslate_SystemCellStatusBecomesDBConnectionUpdated(t *testing.T) {
	c, _ := newTestCoordinator()

	msg := c.translate(ipc.Notification{CellID: domain.SystemCellID, Output: domain.Output{
		Channel: domain.ChannelStatus, Data: map[string]any{"status": "db_configured"},
	}})

	assert.Equal(t, ServerDBConnectionUpdated, msg.Type)
	assert.Equal(t, "db_configured", msg.Status)
	assert.Empty(t, msg.CellID)
}
