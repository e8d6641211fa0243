package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/instaclone-server/internal/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

var (
	ErrSendBufferFull = errors.New("websocket: send buffer full")
	ErrClosed         = errors.New("websocket: connection closed")
)

// Registry is the presence side of the hub the transport reports to.
type Registry interface {
	Register(userID string, conn realtime.Conn)
	Unregister(userID string, conn realtime.Conn)
}

// Conn adapts one gorilla connection to realtime.Conn.
type Conn struct {
	id       string
	userID   string
	ws       *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	registry Registry
	logger   *slog.Logger
}

func NewConn(id, userID string, ws *websocket.Conn, r Registry, logger *slog.Logger) *Conn {
	return &Conn{
		id:       id,
		userID:   userID,
		ws:       ws,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		registry: r,
		logger:   logger,
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues a frame without blocking. A full queue means the peer stopped
// reading: the connection is marked closed and its socket torn down so the
// read pump unregisters it.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		c.markClosed()
		go c.ws.Close()
		return ErrSendBufferFull
	}
}

func (c *Conn) Close() error {
	c.markClosed()
	return c.ws.Close()
}

func (c *Conn) markClosed() {
	c.once.Do(func() { close(c.done) })
}

// Start registers the connection and runs its pumps.
func (c *Conn) Start() {
	c.registry.Register(c.userID, c)
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.Close()
		c.registry.Unregister(c.userID, c)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("read error", "userId", c.userID, "connId", c.id, "error", err)
			}
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
