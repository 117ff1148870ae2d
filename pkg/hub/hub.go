package hub

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

type clientConn struct {
	conn   *websocket.Conn
	userID string
	mu     sync.Mutex
}

func (cc *clientConn) send(data []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[HUB] send error user=%s: %v", cc.userID, err)
	}
}

// Hub tracks open websocket connections by user so status updates can
// be pushed to the user who filed the report.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*clientConn
	byUser  map[string][]*clientConn
}

func New() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*clientConn),
		byUser:  make(map[string][]*clientConn),
	}
}

// HandleClientConn blocks reading the socket until it closes. The only
// client-to-server message handled is ping.
func (h *Hub) HandleClientConn(c *websocket.Conn, userID string) {
	cc := &clientConn{conn: c, userID: userID}

	h.mu.Lock()
	h.clients[c] = cc
	if userID != "" {
		h.byUser[userID] = append(h.byUser[userID], cc)
	}
	h.mu.Unlock()

	log.Printf("[HUB] client connected: user=%s total=%d", userID, h.ClientCount())

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		if userID != "" {
			conns := h.byUser[userID]
			for i, conn := range conns {
				if conn == cc {
					h.byUser[userID] = append(conns[:i], conns[i+1:]...)
					break
				}
			}
			if len(h.byUser[userID]) == 0 {
				delete(h.byUser, userID)
			}
		}
		h.mu.Unlock()
		c.Close()
		log.Printf("[HUB] client disconnected: user=%s total=%d", userID, h.ClientCount())
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		if string(raw) == "ping" {
			cc.send([]byte("pong"))
		}
	}
}

// SendToUser delivers to every open connection of one user.
func (h *Hub) SendToUser(userID string, data []byte) {
	h.mu.RLock()
	conns := make([]*clientConn, len(h.byUser[userID]))
	copy(conns, h.byUser[userID])
	h.mu.RUnlock()

	for _, cc := range conns {
		cc.send(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) AuthenticatedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.byUser {
		n += len(conns)
	}
	return n
}
