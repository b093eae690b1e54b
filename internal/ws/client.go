package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/ravenkeep/townsquare/internal/model"
)

const (
	// writeWait is the allowed time to write one message
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before giving up the read
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
	// sendBufferSize bounds the per-client outbound queue
	sendBufferSize = 32
)

// Client is one live websocket connection
type Client struct {
	ID   model.ConnID
	conn *websocket.Conn
	send chan []byte
}

func newClient(id model.ConnID, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// push queues a message for delivery. Returns false when the client's
// buffer is full; the caller drops the client, the same policy a
// broadcast hub applies to a reader that cannot keep up.
func (c *Client) push(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings. One writer goroutine per connection;
// the channel serializes all writes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
