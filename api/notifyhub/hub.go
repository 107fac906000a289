package notifyhub

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/types"
)

var writeTimeout = 5 * time.Second

// Hub holds WebSocket connections and broadcasts notifications to all clients.
// Implements notify.Hub.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
	// a websocket.Conn supports one concurrent writer
	writeMu sync.Mutex
}

// New creates a new notify hub.
func New() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Register adds a WebSocket connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

// Unregister removes a WebSocket connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends the notification as JSON to all registered connections.
func (h *Hub) Broadcast(notification *types.Notification) {
	if notification == nil {
		return
	}
	payload, err := sonic.Marshal(notification)
	if err != nil {
		tool.DefaultLogger.Errorf("[NotifyHub] Failed to encode notification: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, conn := range conns {
		h.writeLocked(conn, payload)
	}
}

// Send writes one notification to a single connection.
func (h *Hub) Send(conn *websocket.Conn, notification *types.Notification) {
	payload, err := sonic.Marshal(notification)
	if err != nil {
		return
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	h.writeLocked(conn, payload)
}

func (h *Hub) writeLocked(conn *websocket.Conn, payload []byte) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		tool.DefaultLogger.Debugf("[NotifyHub] Dropping connection: %v", err)
		h.Unregister(conn)
	}
}
