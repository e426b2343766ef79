package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"blinkchat/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Inline base64 images arrive on this socket, so the limit is generous.
	maxMsgSize = 8 << 20
	sendBuffer = 256
)

// Client wraps one websocket connection with a buffered outbound queue so a
// slow reader never blocks room fan-out.
type Client struct {
	sid    string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func newClient(conn *websocket.Conn, sid string, logger *zap.Logger) *Client {
	return &Client{
		sid:    sid,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// SID returns the opaque per-connection identity.
func (c *Client) SID() string { return c.sid }

// Send marshals the event and queues it for the write pump. Frames for a
// member that cannot keep up are dropped, matching best-effort delivery.
func (c *Client) Send(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("marshal ws event", zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		c.logger.Warn("dropping frame for slow client", zap.String("sid", c.sid))
	}
}

func (c *Client) closeDone() {
	c.once.Do(func() { close(c.done) })
}

// readPump decodes inbound frames and hands them to handle. It returns when
// the connection drops; undecodable frames are skipped.
func (c *Client) readPump(handle func(models.ClientEvent)) {
	defer c.closeDone()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var evt models.ClientEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			c.logger.Debug("skipping malformed frame", zap.String("sid", c.sid), zap.Error(err))
			continue
		}
		handle(evt)
	}
}

// writePump owns all writes to the connection, interleaving queued frames
// with keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
