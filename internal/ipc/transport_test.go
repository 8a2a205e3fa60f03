package ipc

import (
	"io"
	"testing"
	"time"

	"github.com/smilemakc/cellgraph/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_RequestRoundTrip(t *testing.T) {
	r, w := io.Pipe()
	writer := NewTransport(w, nil)
	reader := NewTransport(nil, r)

	want := Request{Type: RequestRegisterCell, CellID: "c1", Code: "x = 1", Kind: domain.KindPython}

	errCh := make(chan error, 1)
	go func() { errCh <- writer.WriteRequest(want) }()

	got, err := reader.ReadRequest()
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	assert.Equal(t, want, got)
}

func TestTransport_NotificationRoundTrip(t *testing.T) {
	r, w := io.Pipe()
	writer := NewTransport(w, nil)
	reader := NewTransport(nil, r)

	want := Notification{
		CellID: "c1",
		Output: domain.Output{
			Channel:   domain.ChannelStatus,
			MimeType:  "application/json",
			Data:      map[string]any{"status": "running"},
			Timestamp: time.Unix(0, 0).UTC(),
		},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- writer.WriteNotification(want) }()

	got, err := reader.ReadNotification()
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	assert.Equal(t, want.CellID, got.CellID)
	assert.Equal(t, want.Output.Channel, got.Output.Channel)
}

func TestTransport_MultipleFramesInOrder(t *testing.T) {
	r, w := io.Pipe()
	writer := NewTransport(w, nil)
	reader := NewTransport(nil, r)

	go func() {
		_ = writer.WriteRequest(Request{Type: RequestExecute, CellID: "c1"})
		_ = writer.WriteRequest(Request{Type: RequestExecute, CellID: "c2"})
	}()

	first, err := reader.ReadRequest()
	require.NoError(t, err)
	second, err := reader.ReadRequest()
	require.NoError(t, err)

	assert.Equal(t, "c1", first.CellID)
	assert.Equal(t, "c2", second.CellID)
}
