package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/togisoft/t-force/internal/config"
	"github.com/togisoft/t-force/internal/domain"
	"github.com/togisoft/t-force/internal/log"
)

// Client is one live websocket connection with its verified identity.
// Outbound events are enqueued on Send and drained by WritePump; the queue
// never blocks the Hub, slow consumers have frames dropped.
type Client struct {
	ID       string
	Identity domain.Identity
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte

	cfg      config.WebSocketConfig
	lastSeen atomic.Int64

	mu     sync.Mutex
	closed bool
}

func NewClient(id string, identity domain.Identity, h *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	c := &Client{
		ID:       id,
		Identity: identity,
		Hub:      h,
		Conn:     conn,
		Send:     make(chan []byte, cfg.SendBufferSize),
		cfg:      cfg,
	}
	c.Touch()
	return c
}

// Touch refreshes the connection's liveness timestamp.
func (c *Client) Touch() {
	c.lastSeen.Store(time.Now().Unix())
}

// LastSeen returns the Unix timestamp of the last liveness signal.
func (c *Client) LastSeen() int64 {
	return c.lastSeen.Load()
}

// SendEvent marshals and enqueues one event for this connection.
func (c *Client) SendEvent(evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldConnID, c.ID).Msg("failed to marshal event")
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		l := log.L()
		l.Warn().Str(log.FieldConnID, c.ID).Str(log.FieldUserID, c.Identity.UserID).Msg("send buffer full, dropping frame")
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump reads frames from the socket and hands each one to handler.
// It owns the read side of the connection and tears the session down when
// the socket errors or closes.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.ReadLimit)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Touch()
		return c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})
	c.Conn.SetPingHandler(func(appData string) error {
		c.Touch()
		return c.Conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteWait))
	})

	for {
		mt, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldConnID, c.ID).Msg("websocket read error")
			}
			return
		}
		if mt != websocket.TextMessage {
			l := log.L()
			l.Debug().Str(log.FieldConnID, c.ID).Msg("ignoring non-text frame")
			continue
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		handler(c, msg)
	}
}

// WritePump drains the send queue onto the socket and keeps the connection
// alive with protocol-level pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
