package ipc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Transport is a length-prefixed msgpack frame reader/writer over one
// direction of the coordinator<->kernel pipe pair. Two Transports — one
// per direction — make up the bidirectional channel spec §4.3 describes
// as "two unidirectional byte-oriented message queues".
type Transport struct {
	mu sync.Mutex
	w  io.Writer
	r  *bufio.Reader
}

// NewTransport wraps a writer and/or reader end of a pipe. Either may be
// nil if this Transport is used in only one direction.
func NewTransport(w io.Writer, r io.Reader) *Transport {
	t := &Transport{w: w}
	if r != nil {
		t.r = bufio.NewReader(r)
	}
	return t
}

// WriteRequest frames and writes one Request.
func (t *Transport) WriteRequest(req Request) error {
	payload, err := msgpack.Marshal(req)
	if err != nil {
		return fmt.Errorf("ipc: encoding request: %w", err)
	}
	return t.writeFrame(payload)
}

// WriteNotification frames and writes one Notification.
func (t *Transport) WriteNotification(n Notification) error {
	payload, err := msgpack.Marshal(n)
	if err != nil {
		return fmt.Errorf("ipc: encoding notification: %w", err)
	}
	return t.writeFrame(payload)
}

// ReadRequest blocks for the next framed Request.
func (t *Transport) ReadRequest() (Request, error) {
	frame, err := t.readFrame()
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := msgpack.Unmarshal(frame, &req); err != nil {
		return Request{}, fmt.Errorf("ipc: decoding request: %w", err)
	}
	return req, nil
}

// ReadNotification blocks for the next framed Notification.
func (t *Transport) ReadNotification() (Notification, error) {
	frame, err := t.readFrame()
	if err != nil {
		return Notification{}, err
	}
	var n Notification
	if err := msgpack.Unmarshal(frame, &n); err != nil {
		return Notification{}, fmt.Errorf("ipc: decoding notification: %w", err)
	}
	return n, nil
}

func (t *Transport) writeFrame(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := t.w.Write(header[:]); err != nil {
		return fmt.Errorf("ipc: writing frame header: %w", err)
	}
	_, err := t.w.Write(payload)
	return err
}

func (t *Transport) readFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(t.r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	buf := make([]byte, size)
	if _, err := io.ReadFull(t.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
