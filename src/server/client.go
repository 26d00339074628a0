package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"mt5-market-hub/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// Per-client outbound buffer. When it fills the hub prunes the client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client is one websocket connection. The subs set is owned by the hub
// goroutine; the pumps never touch it. The send channel is never closed —
// the hub signals removal by closing done, so a pump or reply path writing
// through trySend can never hit a closed channel.
type Client struct {
	hub    *APIServer
	conn   *websocket.Conn
	id     string
	send   chan interface{}
	done   chan struct{}
	subs   map[string]struct{}
	closed atomic.Bool
}

func newClient(hub *APIServer, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan interface{}, sendBufferSize),
		done: make(chan struct{}),
		subs: make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

// trySend queues a message without blocking. Returns false when the client
// is closed or its buffer is full.
func (c *Client) trySend(msg interface{}) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handler
// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(s, conn)
	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Pumps
// -----------------------------------------------------------------------------

// readPump consumes subscribe commands until the connection dies, then
// reports the client to the hub for removal.
func (c *Client) readPump() {
	defer func() {
		c.closed.Store(true)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.Logger.Warning("Client %s read error: %v", c.id, err)
			}
			return
		}

		var cmd models.MSubscribeCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.trySend(&models.MErrorMessage{Type: "error", Error: "invalid message"})
			continue
		}
		c.handleCommand(cmd)
	}
}

// -----------------------------------------------------------------------------

func (c *Client) handleCommand(cmd models.MSubscribeCommand) {
	if cmd.Action != "subscribe" {
		c.trySend(&models.MErrorMessage{Type: "error", Error: "unknown action: " + cmd.Action})
		return
	}

	symbol := normalizeSymbol(cmd.Symbol)
	if !models.ValidSymbol(symbol) {
		c.trySend(&models.MErrorMessage{Type: "error", Error: "invalid symbol: " + cmd.Symbol})
		return
	}

	c.hub.subscribe <- subscription{client: c, symbol: symbol}
}

// -----------------------------------------------------------------------------

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings. A closed done channel means the hub dropped us.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.closed.Store(true)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closed.Store(true)
				return
			}
		}
	}
}
