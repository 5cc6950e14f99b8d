package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"smooze.app/wingman/internal/core"
	"smooze.app/wingman/internal/store"
	"smooze.app/wingman/internal/ui"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The chat widget is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SocketEvent is pushed from server to client.
type SocketEvent struct {
	Type    string         `json:"type"` // "snapshot" or "error"
	State   core.TurnState `json:"state,omitempty"`
	Bubbles []ui.Bubble    `json:"bubbles,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SocketCommand is sent from client to server.
type SocketCommand struct {
	Type string `json:"type"` // "send"
	Text string `json:"text"`
}

// ConversationSocketHandler streams a rendered snapshot after every change to
// the conversation and accepts "send" commands from the client.
func (h *APIHandler) ConversationSocketHandler(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := conv.Subscribe()
	defer cancel()

	errs := make(chan string, 8)
	readDone := make(chan struct{})
	go h.readCommands(conn, conv, errs, readDone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := h.writeEvent(conn, h.snapshotEvent(conv, conv.Messages())); err != nil {
		return
	}

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				// The conversation was closed.
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "conversation closed"))
				return
			}
			if err := h.writeEvent(conn, h.snapshotEvent(conv, snap)); err != nil {
				return
			}
		case msg := <-errs:
			if err := h.writeEvent(conn, SocketEvent{Type: "error", Error: msg}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

func (h *APIHandler) snapshotEvent(conv *core.Conversation, snap []store.Message) SocketEvent {
	return SocketEvent{
		Type:    "snapshot",
		State:   conv.State(),
		Bubbles: ui.Render(snap, h.theme),
	}
}

func (h *APIHandler) writeEvent(conn *websocket.Conn, ev SocketEvent) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			log.Printf("WebSocket write error: %v", err)
		}
		return err
	}
	return nil
}

// readCommands runs until the connection fails. Only the handler goroutine
// writes to conn; problems are reported through errs.
func (h *APIHandler) readCommands(conn *websocket.Conn, conv *core.Conversation, errs chan<- string, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	report := func(msg string) {
		select {
		case errs <- msg:
		default:
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		var cmd SocketCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			report("invalid command: " + err.Error())
			continue
		}
		if cmd.Type != "send" {
			report("unknown command type: " + cmd.Type)
			continue
		}
		// Replies arrive as snapshots; the turn handle is not needed here.
		if _, err := conv.Submit(context.Background(), cmd.Text); err != nil {
			report(err.Error())
		}
	}
}
