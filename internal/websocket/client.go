// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// clientIDCounter gives clients a stable order for broadcast and shutdown.
var clientIDCounter atomic.Uint64

// Client is one admitted connection. Its identity is fixed at admission.
type Client struct {
	id       uint64
	conn     *websocket.Conn
	identity *auth.Identity
	gateway  *Gateway
	limiter  *rate.Limiter

	// mu guards closed and sends on send. Once closed, enqueue is a no-op.
	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(g *Gateway, conn *websocket.Conn, identity *auth.Identity) *Client {
	s := g.settings
	limit := rate.Inf
	if s.PostRate > 0 {
		limit = rate.Limit(s.PostRate)
	}
	return &Client{
		id:       clientIDCounter.Add(1),
		conn:     conn,
		identity: identity,
		gateway:  g,
		limiter:  rate.NewLimiter(limit, s.PostBurst),
		send:     make(chan []byte, s.SendBuffer),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// TenantID returns the tenant whose room the client belongs to.
func (c *Client) TenantID() string {
	return c.identity.TenantID
}

// Identity returns the identity bound at admission.
func (c *Client) Identity() *auth.Identity {
	return c.identity
}

// enqueue queues an encoded frame without blocking. It reports false when
// the queue is full or the client is closed.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close stops the write pump after it drains queued frames. Idempotent.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// isClosed reports whether close has been called.
func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// sendMessage encodes and queues msg. A client that cannot keep up is
// dropped.
func (c *Client) sendMessage(msg Message) bool {
	frame, err := MarshalMessage(msg)
	if err != nil {
		logging.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal websocket message")
		metrics.RecordWSError("marshal")
		return false
	}
	if !c.enqueue(frame) {
		c.gateway.drop(c)
		return false
	}
	metrics.RecordWSMessageSent(msg.Type)
	return true
}

func (c *Client) sendError(id, code, message string) {
	c.sendMessage(Message{
		Type: MessageTypeError,
		ID:   id,
		Data: ErrorPayload{Code: code, Message: message},
	})
}

// readPump reads client frames until the connection fails or closes.
func (c *Client) readPump() {
	s := c.gateway.settings
	defer func() {
		c.gateway.disconnect(c)
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(s.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(s.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
				metrics.RecordWSError("read")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.RecordWSError("decode")
			c.sendError("", CodeInvalidMessage, "Frame is not a valid JSON message")
			continue
		}
		c.gateway.handle(c, msg)
	}
}

// writePump writes queued frames and keepalive pings. It owns all writes to
// the connection.
func (c *Client) writePump() {
	s := c.gateway.settings
	ticker := time.NewTicker(s.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // unblocks readPump
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(s.WriteWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.RecordWSError("write")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(s.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// start begins reading and writing for the client.
func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}
