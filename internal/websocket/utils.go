package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// WriteTyped sends a JSON payload with a write deadline.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorEvent.
func WriteError(conn *websocket.Conn, msg string) error {
	return WriteTyped(conn, ErrorEvent{Event: EventError, Error: msg})
}

// ReadJSON decodes the next message. The read deadline is pushed forward on
// every call so idle clients are eventually dropped.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
