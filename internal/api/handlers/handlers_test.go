package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garage-backend/internal/config"
	"garage-backend/internal/models"
	"garage-backend/internal/notify"
	"garage-backend/internal/repository"
	"garage-backend/internal/services"
	"garage-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = config.ActionDefaults{
	AccelerateVehicle:   10,
	AccelerateSportsCar: 25,
	AccelerateTruck:     5,
	Brake:               10,
	Cargo:               100,
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type testServer struct {
	router *gin.Engine
	garage *services.Garage
	feed   *notify.Feed
	hub    *websocket.Hub
}

func newTestServer(t *testing.T, store repository.Store) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	feed := notify.NewFeed(10)
	hub := websocket.NewHub(nil, nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	feed.Subscribe(hub.Publish)

	garage := services.NewGarage(store, services.WithNotifier(feed))
	garageHandler := NewGarageHandler(garage, testDefaults)
	maintenanceHandler := NewMaintenanceHandler(garage)
	notificationHandler := NewNotificationHandler(feed, hub, nil)
	healthHandler := NewHealthHandler(store, "memory", hub)

	router := gin.New()
	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.HealthCheck)
	api.GET("/vehicles", garageHandler.GetVehicles)
	api.POST("/vehicles", garageHandler.CreateVehicle)
	api.GET("/vehicles/:id", garageHandler.GetVehicle)
	api.DELETE("/vehicles/:id", garageHandler.DeleteVehicle)
	api.POST("/vehicles/:id/actions", garageHandler.PerformAction)
	api.GET("/vehicles/:id/maintenance", maintenanceHandler.GetMaintenance)
	api.POST("/vehicles/:id/maintenance", maintenanceHandler.CreateMaintenance)
	api.DELETE("/vehicles/:id/maintenance/:recordId", maintenanceHandler.DeleteMaintenance)
	api.GET("/maintenance/upcoming", maintenanceHandler.GetUpcoming)
	api.GET("/notifications", notificationHandler.GetNotifications)
	api.POST("/notifications/:id/ack", notificationHandler.Acknowledge)
	api.GET("/ws/notifications", notificationHandler.HandleWebSocket)

	return &testServer{router: router, garage: garage, feed: feed, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestCreateAndGetVehicles(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryStore(0))

	code, env := s.do(t, http.MethodPost, "/api/v1/vehicles", map[string]interface{}{
		"id": "t1", "type": "Truck", "model": "FH", "color": "white", "cargoCapacity": 1000,
	})
	require.Equal(t, http.StatusCreated, code, string(env.Error))

	var created services.VehicleView
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "t1", created.ID)
	assert.Equal(t, "Truck", created.Type)
	require.NotNil(t, created.CargoCapacity)
	assert.Equal(t, 1000.0, *created.CargoCapacity)

	code, _ = s.do(t, http.MethodPost, "/api/v1/vehicles", map[string]interface{}{
		"id": "t1", "type": "Vehicle", "model": "Other", "color": "blue",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/vehicles", nil)
	require.Equal(t, http.StatusOK, code)
	var list []services.VehicleView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, _ = s.do(t, http.MethodGet, "/api/v1/vehicles/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateVehicle_Validation(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryStore(0))

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"UnknownType", map[string]interface{}{"type": "Boat", "model": "X", "color": "red"}},
		{"MissingModel", map[string]interface{}{"type": "Vehicle", "color": "red"}},
		{"TruckWithoutCapacity", map[string]interface{}{"type": "Truck", "model": "FH", "color": "white"}},
		{"NegativeCapacity", map[string]interface{}{"type": "Truck", "model": "FH", "color": "white", "cargoCapacity": -5}},
		{"BlankModel", map[string]interface{}{"type": "Vehicle", "model": "   ", "color": "red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/api/v1/vehicles", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, env.Success)
		})
	}
	assert.Empty(t, s.garage.ListVehicles())
}

func TestPerformAction(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryStore(0))
	code, _ := s.do(t, http.MethodPost, "/api/v1/vehicles", map[string]interface{}{
		"id": "s1", "type": "SportsCar", "model": "911", "color": "yellow",
	})
	require.Equal(t, http.StatusCreated, code)

	action := func(body map[string]interface{}) (int, ActionResponse) {
		code, env := s.do(t, http.MethodPost, "/api/v1/vehicles/s1/actions", body)
		var resp ActionResponse
		if code == http.StatusOK {
			require.NoError(t, json.Unmarshal(env.Data, &resp))
		}
		return code, resp
	}

	code, resp := action(map[string]interface{}{"action": "accelerate", "amount": 10})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.OutcomeWarning, resp.Result.Outcome)
	assert.Equal(t, 0.0, resp.Vehicle.Speed)

	code, resp = action(map[string]interface{}{"action": "turn_on"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Vehicle.EngineOn)

	code, resp = action(map[string]interface{}{"action": "accelerate"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 25.0, resp.Amount, "sports car default")
	assert.Equal(t, 25.0, resp.Vehicle.Speed)

	code, resp = action(map[string]interface{}{"action": "turn_off"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.OutcomeWarning, resp.Result.Outcome)
	assert.True(t, resp.Vehicle.EngineOn)

	code, _ = action(map[string]interface{}{"action": "load_cargo", "amount": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = action(map[string]interface{}{"action": "fly"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/vehicles/missing/actions", map[string]interface{}{"action": "turn_on"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMaintenanceEndpoints(t *testing.T) {
	require.NoError(t, models.SetLocale("pt-BR"))
	s := newTestServer(t, repository.NewMemoryStore(0))
	code, _ := s.do(t, http.MethodPost, "/api/v1/vehicles", map[string]interface{}{
		"id": "v1", "type": "Vehicle", "model": "Civic", "color": "red",
	})
	require.Equal(t, http.StatusCreated, code)

	future := time.Now().Add(48 * time.Hour).Format("2006-01-02T15:04")
	code, env := s.do(t, http.MethodPost, "/api/v1/vehicles/v1/maintenance", map[string]interface{}{
		"date": future, "serviceType": "Oil change", "cost": 150, "description": "synthetic oil",
	})
	require.Equal(t, http.StatusCreated, code, string(env.Error))
	var created MaintenanceView
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "v1", created.VehicleID)
	assert.Contains(t, created.Formatted, "Oil change")

	code, _ = s.do(t, http.MethodPost, "/api/v1/vehicles/v1/maintenance", map[string]interface{}{
		"date": "not-a-date", "serviceType": "Oil change", "cost": 150,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/vehicles/v1/maintenance", map[string]interface{}{
		"date": future, "serviceType": "Oil change", "cost": -1,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/vehicles/missing/maintenance", map[string]interface{}{
		"date": future, "serviceType": "Oil change", "cost": 1,
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/maintenance/upcoming", nil)
	require.Equal(t, http.StatusOK, code)
	var upcoming []UpcomingView
	require.NoError(t, json.Unmarshal(env.Data, &upcoming))
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Civic", upcoming[0].VehicleModel)

	code, env = s.do(t, http.MethodGet, "/api/v1/vehicles/v1/maintenance", nil)
	require.Equal(t, http.StatusOK, code)
	var history []MaintenanceView
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/vehicles/v1/maintenance/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodDelete, "/api/v1/vehicles/v1/maintenance/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodDelete, "/api/v1/vehicles/v1", nil)
	assert.Equal(t, http.StatusOK, code)
}

type brokenStore struct{ *repository.MemoryStore }

func (brokenStore) Set(context.Context, string, string) error {
	return repository.ErrQuotaExceeded
}

func (brokenStore) Ping(context.Context) error { return errors.New("offline") }

func TestNotificationsAndHealth(t *testing.T) {
	s := newTestServer(t, brokenStore{repository.NewMemoryStore(0)})

	code, env := s.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	_ = env

	// The add is kept in memory while the failed save is reported.
	code, _ = s.do(t, http.MethodPost, "/api/v1/vehicles", map[string]interface{}{
		"id": "v1", "type": "Vehicle", "model": "Civic", "color": "red",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	var active []notify.Notification
	require.NoError(t, json.Unmarshal(env.Data, &active))
	require.Len(t, active, 1)
	assert.Equal(t, notify.SeverityError, active[0].Severity)
	assert.True(t, active[0].Persistent)

	code, _ = s.do(t, http.MethodPost, "/api/v1/notifications/"+active[0].ID+"/ack", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPost, "/api/v1/notifications/unknown/ack", nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, env = s.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.NoError(t, json.Unmarshal(env.Data, &active))
	assert.Empty(t, active)
}

func TestHealthCheck_Healthy(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryStore(0))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Contains(t, resp.Services, "storage")
}

func TestNotificationWebSocket(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryStore(0))
	server := httptest.NewServer(s.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/notifications?severity=error"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.feed.Notify("saved", notify.SeveritySuccess, time.Second)
	s.feed.Notify("storage failed", notify.SeverityError, notify.Persistent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type string              `json:"type"`
		Data notify.Notification `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "storage failed", msg.Data.Message)
	assert.Equal(t, s.feed.Active(time.Now())[0].ID, msg.Data.ID)
}

func TestDefaultAmount(t *testing.T) {
	assert.Equal(t, 10.0, DefaultAmount(testDefaults, services.ActionAccelerate, models.TypeVehicle))
	assert.Equal(t, 25.0, DefaultAmount(testDefaults, services.ActionAccelerate, models.TypeSportsCar))
	assert.Equal(t, 5.0, DefaultAmount(testDefaults, services.ActionAccelerate, models.TypeTruck))
	assert.Equal(t, 10.0, DefaultAmount(testDefaults, services.ActionBrake, models.TypeTruck))
	assert.Equal(t, 100.0, DefaultAmount(testDefaults, services.ActionUnloadCargo, models.TypeTruck))
	assert.Zero(t, DefaultAmount(testDefaults, services.ActionTurnOn, models.TypeVehicle))
}
