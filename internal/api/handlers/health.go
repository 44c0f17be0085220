package handlers

import (
	"context"
	"net/http"
	"time"

	"garage-backend/internal/repository"
	"garage-backend/internal/websocket"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	store  repository.Store
	driver string
	hub    *websocket.Hub
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

func NewHealthHandler(store repository.Store, driver string, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, hub: hub}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	storage := h.checkStorage(c.Request.Context())
	response.Services["storage"] = storage
	if h.hub != nil {
		response.Services["websocket"] = h.hub.Stats()
	}

	if storage["healthy"].(bool) {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkStorage(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": "storage",
		"driver":  h.driver,
		"healthy": false,
	}

	if h.store == nil {
		status["error"] = "Storage not initialized"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	status["responseTime"] = time.Since(start).String()
	if err != nil {
		status["error"] = err.Error()
		return status
	}
	status["healthy"] = true
	status["message"] = "Connected"
	return status
}
