package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garage-backend/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Type string              `json:"type"`
	Data notify.Notification `json:"data"`
}

func startHub(t *testing.T, filters ClientFilters) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(nil, nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.Upgrader().Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient("test-client", conn, filters)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return hub, conn
}

func TestHub_PublishReachesClient(t *testing.T) {
	hub, conn := startHub(t, ClientFilters{})

	hub.Publish(notify.Notification{ID: "n1", Message: "Oil change today", Severity: notify.SeverityInfo})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeNotification, msg.Type)
	assert.Equal(t, "n1", msg.Data.ID)
	assert.Equal(t, "Oil change today", msg.Data.Message)
}

func TestHub_SeverityFilter(t *testing.T) {
	hub, conn := startHub(t, ClientFilters{Severities: []notify.Severity{notify.SeverityError}})

	hub.Publish(notify.Notification{ID: "skip", Severity: notify.SeverityInfo})
	hub.Publish(notify.Notification{ID: "keep", Severity: notify.SeverityError})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "keep", msg.Data.ID)
}

func TestHub_UpdateFilters(t *testing.T) {
	hub, conn := startHub(t, ClientFilters{})

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    MessageTypeUpdateFilters,
		"data":    map[string]interface{}{"severities": []string{"warning"}},
	}))

	assert.Eventually(t, func() bool {
		hub.mutex.RLock()
		defer hub.mutex.RUnlock()
		c := hub.clients["test-client"]
		return c != nil && len(c.Filters.Severities) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, conn := startHub(t, ClientFilters{})
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Stats(t *testing.T) {
	hub, _ := startHub(t, ClientFilters{})
	stats := hub.Stats()
	assert.Equal(t, 1, stats.TotalClients)
	assert.Equal(t, 1, stats.ActiveClients)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.Start()
	hub.Stop()
	hub.Stop()
	hub.Publish(notify.Notification{ID: "after-stop"})
}
