package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/smilemakc/cellgraph/internal/coordinator"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsHandler upgrades HTTP connections to the websocket transport a
// notebook session's coordinator uses for spec §6.1's client protocol:
// one *coordinator.Coordinator per notebook, many attached client
// sockets broadcasting and receiving through its Hub.
//
// Grounded on the teacher's internal/infrastructure/websocket/handler.go
// (upgrade, register, spawn read/write pumps); collapsed to a single
// coordinator rather than the teacher's userID-authenticated multi-hub
// lookup since this module serves one notebook session per ws endpoint.
type wsHandler struct {
	coord *coordinator.Coordinator
	log   zerolog.Logger
}

func newWSHandler(coord *coordinator.Coordinator, log zerolog.Logger) *wsHandler {
	return &wsHandler{coord: coord, log: log}
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := coordinator.NewClient(r.RemoteAddr, sendBuffer)
	h.coord.Hub().Register(client)
	h.log.Info().Str("remote_addr", r.RemoteAddr).Msg("client connected")

	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// readPump forwards decoded client messages to the coordinator until the
// connection errs or closes, then unregisters the client.
func (h *wsHandler) readPump(conn *websocket.Conn, client *coordinator.Client) {
	defer func() {
		h.coord.Hub().Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Msg("websocket unexpected close")
			}
			return
		}

		var msg coordinator.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.log.Warn().Err(err).Msg("invalid client message, dropping")
			continue
		}
		if err := h.coord.Handle(msg); err != nil {
			h.log.Warn().Err(err).Str("type", string(msg.Type)).Msg("handling client message failed")
		}
	}
}

// writePump relays broadcast server messages to the socket until the
// client's send channel is closed by Unregister.
func (h *wsHandler) writePump(conn *websocket.Conn, client *coordinator.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
