package websocket

import (
	"time"

	"garage-backend/internal/notify"

	"github.com/gorilla/websocket"
)

// ClientFilters narrows which notifications a client receives. An empty
// filter receives everything.
type ClientFilters struct {
	Severities []notify.Severity `json:"severities,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Filters  ClientFilters
	Send     chan notify.Notification
	LastPing time.Time
	IsActive bool
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int `json:"totalClients"`
	ActiveClients   int `json:"activeClients"`
	InactiveClients int `json:"inactiveClients"`
}

// Message types for WebSocket communication
const (
	MessageTypeNotification  = "notification"
	MessageTypeUpdateFilters = "update_filters"
)
