package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"garage-backend/internal/notify"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeWait    = 10 * time.Second
	clientBuffer = 64
)

// Hub pushes notifications to connected browser clients.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan notify.Notification
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// NewHub creates a hub. allowedOrigins limits the upgrade to those origins;
// an empty list or "*" accepts any origin.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan notify.Notification, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done:   make(chan struct{}),
		logger: logger.Named("websocket"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Start begins the hub's main loop
func (h *Hub) Start() {
	go h.run()
	h.logger.Info("websocket hub started")
}

// Stop closes every client connection and ends the main loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mutex.Lock()
		for id, client := range h.clients {
			delete(h.clients, id)
			close(client.Send)
		}
		h.mutex.Unlock()

		h.logger.Info("websocket hub stopped")
	})
}

func (h *Hub) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			h.logger.Debug("client registered", zap.String("client_id", client.ID))
			go h.writeMessages(client)
			go h.readMessages(client)

		case client := <-h.unregister:
			h.remove(client)

		case n := <-h.broadcast:
			h.broadcastToClients(n)

		case <-ticker.C:
			h.healthCheck()

		case <-h.done:
			return
		}
	}
}

// RegisterClient hands an upgraded connection to the hub.
func (h *Hub) RegisterClient(clientID string, conn *websocket.Conn, filters ClientFilters) {
	client := &Client{
		ID:       clientID,
		Conn:     conn,
		Filters:  filters,
		Send:     make(chan notify.Notification, clientBuffer),
		LastPing: time.Now(),
		IsActive: true,
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
	}
}

// Upgrader returns the WebSocket upgrader for external use
func (h *Hub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// Publish queues n for every interested client. It never blocks; when the
// queue is full the notification is dropped.
func (h *Hub) Publish(n notify.Notification) {
	select {
	case h.broadcast <- n:
	default:
		h.logger.Warn("broadcast queue full, dropping notification", zap.String("id", n.ID))
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) Stats() ClientStats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	stats := ClientStats{TotalClients: len(h.clients)}
	for _, client := range h.clients {
		if client.IsActive {
			stats.ActiveClients++
		} else {
			stats.InactiveClients++
		}
	}
	return stats
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if current, ok := h.clients[client.ID]; ok && current == client {
		delete(h.clients, client.ID)
		close(client.Send)
		h.logger.Debug("client unregistered", zap.String("client_id", client.ID))
	}
}

func (h *Hub) broadcastToClients(n notify.Notification) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, client := range h.clients {
		if !wants(client.Filters, n) {
			continue
		}
		select {
		case client.Send <- n:
			client.IsActive = true
		default:
			client.IsActive = false
			h.logger.Warn("client send buffer full", zap.String("client_id", client.ID))
		}
	}
}

func wants(filters ClientFilters, n notify.Notification) bool {
	if len(filters.Severities) == 0 {
		return true
	}
	for _, s := range filters.Severities {
		if s == n.Severity {
			return true
		}
	}
	return false
}

// readMessages keeps the read deadline fresh and applies filter updates.
func (h *Hub) readMessages(client *Client) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		_ = client.Conn.Close()
	}()

	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		h.mutex.Lock()
		client.LastPing = time.Now()
		h.mutex.Unlock()
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var message struct {
			Type    string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := client.Conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("client_id", client.ID), zap.Error(err))
			}
			return
		}
		if message.Type != MessageTypeUpdateFilters {
			continue
		}
		var filters ClientFilters
		if err := json.Unmarshal(message.Data, &filters); err != nil {
			continue
		}
		h.mutex.Lock()
		client.Filters = filters
		h.mutex.Unlock()
		h.logger.Debug("updated client filters", zap.String("client_id", client.ID))
	}
}

func (h *Hub) writeMessages(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.Conn.Close()
	}()

	for {
		select {
		case n, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(map[string]interface{}{
				"type": MessageTypeNotification,
				"data": n,
			}); err != nil {
				h.logger.Warn("websocket write failed", zap.String("client_id", client.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// healthCheck drops clients that have not answered a ping for 90 seconds.
func (h *Hub) healthCheck() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	now := time.Now()
	for id, client := range h.clients {
		if now.Sub(client.LastPing) > 90*time.Second {
			h.logger.Info("client timed out", zap.String("client_id", id))
			delete(h.clients, id)
			close(client.Send)
		}
	}
}
