// Package websocket carries the live-channel transport: one Client per open
// browser connection, pumping frames between the peer and the connection
// registry. A user may hold any number of clients at once.
package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"

	"chatterbox/server/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// ErrBufferFull is returned by Send when the outbound buffer is saturated.
// The event is dropped; delivery is best effort.
var ErrBufferFull = errors.New("send buffer full")

// Inbound is a client-to-server event with its payload still undecoded.
type Inbound struct {
	Type    events.Type     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client represents a single live connection owned by one user for its
// whole lifetime.
type Client struct {
	ID     string // connection id
	UserID string
	Conn   *websocket.Conn

	send chan []byte

	// OnEvent handles a decoded inbound event. Set before ReadPump starts.
	OnEvent func(c *Client, in Inbound)

	// OnClose runs once when the read pump exits; it must unregister the
	// connection but must not roll back any persisted write.
	OnClose func(c *Client)
}

// NewClient creates a client for an upgraded connection.
func NewClient(connID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     connID,
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

// Send queues an already-marshaled event for delivery. Never blocks.
func (c *Client) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// ReadPump handles incoming frames from the peer. Blocks until the
// connection closes.
func (c *Client) ReadPump() {
	defer func() {
		if c.OnClose != nil {
			c.OnClose(c)
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithFields(logrus.Fields{
					"conn_id": c.ID,
					"user_id": c.UserID,
				}).WithError(err).Warn("WebSocket read error")
			}
			break
		}

		var in Inbound
		if err := json.Unmarshal(message, &in); err != nil {
			logrus.WithField("conn_id", c.ID).WithError(err).Warn("Failed to parse inbound event")
			continue
		}

		if c.OnEvent != nil {
			c.OnEvent(c, in)
		}
	}
}

// WritePump handles outgoing frames and keepalive pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("conn_id", c.ID).WithError(err).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent marshals and queues an envelope for this connection only. Used
// for per-connection error feedback.
func (c *Client) SendEvent(t events.Type, payload interface{}) {
	data, err := json.Marshal(events.NewEnvelope(t, payload))
	if err != nil {
		return
	}
	c.Send(data)
}
