package realtime

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
)

// Event names clients subscribe to.
const (
	EventOnlineUsers  = "getOnlineUsers"
	EventNewMessage   = "newMessage"
	EventNotification = "notification"
)

// Conn is one live bidirectional channel owned by the transport.
// ID must be unique for the lifetime of the connection.
type Conn interface {
	ID() string
	Send(data []byte) error
}

// Event is the envelope written to the wire.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Encode serialises a named event with its payload.
func Encode(name string, payload any) ([]byte, error) {
	return json.Marshal(Event{Name: name, Data: payload})
}

// Hub maps each user to the connection that registered last and routes
// events to it. A user has at most one tracked connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Conn
	logger  *slog.Logger
}

type target struct {
	userID string
	conn   Conn
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: map[string]Conn{}, logger: logger}
}

// Register records conn as the live connection of userID, replacing any
// previous one, and broadcasts the online set. The replaced connection is
// left open. An empty userID leaves the connection untracked.
func (h *Hub) Register(userID string, conn Conn) {
	if userID == "" {
		h.logger.Debug("anonymous connection left untracked", "connId", conn.ID())
		return
	}

	h.mu.Lock()
	prev, replaced := h.clients[userID]
	h.clients[userID] = conn
	count := len(h.clients)
	h.mu.Unlock()

	if replaced {
		h.logger.Info("user reconnected", "userId", userID, "connId", conn.ID(), "replacedConnId", prev.ID(), "online", count)
	} else {
		h.logger.Info("user connected", "userId", userID, "connId", conn.ID(), "online", count)
	}
	h.BroadcastOnlineUsers()
}

// Unregister drops the entry for userID only while it still points at conn,
// so a late disconnect of a superseded connection cannot evict the newer one.
// The online set is broadcast either way.
func (h *Hub) Unregister(userID string, conn Conn) {
	if userID == "" {
		return
	}

	if h.evict(userID, conn) {
		h.logger.Info("user disconnected", "userId", userID, "connId", conn.ID())
	} else {
		h.logger.Debug("stale disconnect ignored", "userId", userID, "connId", conn.ID())
	}
	h.BroadcastOnlineUsers()
}

// Lookup returns the live connection of userID, if any.
func (h *Hub) Lookup(userID string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.clients[userID]
	return conn, ok
}

// DeliverTo sends one event to the current connection of userID. Offline
// users are skipped silently; nothing is queued.
func (h *Hub) DeliverTo(userID, event string, payload any) {
	conn, ok := h.Lookup(userID)
	if !ok {
		h.logger.Debug("delivery skipped, user offline", "userId", userID, "event", event)
		return
	}

	data, err := Encode(event, payload)
	if err != nil {
		h.logger.Error("encode event", "event", event, "error", err)
		return
	}

	if err := conn.Send(data); err != nil {
		h.logger.Warn("send failed, dropping connection", "userId", userID, "connId", conn.ID(), "event", event, "error", err)
		if h.evict(userID, conn) {
			h.BroadcastOnlineUsers()
		}
	}
}

// BroadcastOnlineUsers sends the sorted set of online users to every tracked
// connection. Connections whose send fails are evicted and the survivors get
// a fresh broadcast.
func (h *Hub) BroadcastOnlineUsers() {
	for {
		users, targets := h.snapshot()
		data, err := Encode(EventOnlineUsers, users)
		if err != nil {
			h.logger.Error("encode online users", "error", err)
			return
		}

		evicted := false
		for _, t := range targets {
			if err := t.conn.Send(data); err != nil {
				h.logger.Warn("broadcast failed, dropping connection", "userId", t.userID, "connId", t.conn.ID(), "error", err)
				if h.evict(t.userID, t.conn) {
					evicted = true
				}
			}
		}
		if !evicted {
			return
		}
	}
}

// OnlineUsers returns the sorted identities that currently have a connection.
func (h *Hub) OnlineUsers() []string {
	users, _ := h.snapshot()
	return users
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) evict(userID string, conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur, ok := h.clients[userID]
	if !ok || cur.ID() != conn.ID() {
		return false
	}
	delete(h.clients, userID)
	return true
}

func (h *Hub) snapshot() ([]string, []target) {
	h.mu.RLock()
	users := make([]string, 0, len(h.clients))
	targets := make([]target, 0, len(h.clients))
	for id, conn := range h.clients {
		users = append(users, id)
		targets = append(targets, target{userID: id, conn: conn})
	}
	h.mu.RUnlock()

	sort.Strings(users)
	return users, targets
}
