package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lostfound/internal/domain/entity"
	"lostfound/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Client is one websocket connection streaming a single collection.
type Client struct {
	ID         string
	Collection string
	Conn       *websocket.Conn
	Send       chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, collection string) *Client {
	return &Client{
		ID:         uuid.NewString(),
		Collection: collection,
		Conn:       conn,
		Send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SendSnapshot queues a snapshot frame. A client that cannot keep up is closed
// rather than blocking the subscription callback.
func (c *Client) SendSnapshot(reports []*entity.Report) {
	c.enqueue(NewSnapshotFrame(c.Collection, reports))
}

func (c *Client) SendError(message string) {
	c.enqueue(NewErrorFrame(message))
}

func (c *Client) enqueue(frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("WebSocket: failed to marshal frame for client %s: %v", c.ID, err)
		return
	}

	select {
	case <-c.done:
	case c.Send <- payload:
	default:
		logger.Warn("WebSocket: client %s send buffer full, closing", c.ID)
		c.Close()
	}
}

// Manager tracks open stream clients.
type Manager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*Client),
	}
}

func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	m.clients[client.ID] = client
	m.mutex.Unlock()
	logger.Debug("WebSocket: client %s registered for %s", client.ID, client.Collection)
}

func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	delete(m.clients, client.ID)
	m.mutex.Unlock()
	client.Close()
	logger.Debug("WebSocket: client %s unregistered", client.ID)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// CountByCollection reports open clients per collection.
func (m *Manager) CountByCollection() map[string]int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counts := make(map[string]int)
	for _, c := range m.clients {
		counts[c.Collection]++
	}
	return counts
}

// CloseAll closes every client, used on shutdown.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mutex.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

// ReadPump reads client messages until the connection fails or the client is
// closed. It returns after unregistering the client.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: client %s read error: %v", c.ID, err)
			}
			return
		}
		c.HandleClientMessage(message)
	}
}

// WritePump writes queued frames and keepalive pings until the client is
// closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write to client %s failed: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
