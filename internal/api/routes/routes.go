package routes

import (
	"garage-backend/internal/api/handlers"
	"garage-backend/internal/config"
	"garage-backend/internal/metrics"
	"garage-backend/internal/notify"
	"garage-backend/internal/repository"
	"garage-backend/internal/services"
	"garage-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the components the HTTP surface is built from.
type Dependencies struct {
	Garage  *services.Garage
	Store   repository.Store
	Driver  string
	Feed    *notify.Feed
	Hub     *websocket.Hub
	Actions config.ActionDefaults
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	garageHandler := handlers.NewGarageHandler(deps.Garage, deps.Actions)
	maintenanceHandler := handlers.NewMaintenanceHandler(deps.Garage)
	notificationHandler := handlers.NewNotificationHandler(deps.Feed, deps.Hub, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Driver, deps.Hub)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.HealthCheck)

	vehicles := api.Group("/vehicles")
	{
		vehicles.GET("", garageHandler.GetVehicles)
		vehicles.POST("", garageHandler.CreateVehicle)
		vehicles.GET("/:id", garageHandler.GetVehicle)
		vehicles.DELETE("/:id", garageHandler.DeleteVehicle)
		vehicles.POST("/:id/actions", garageHandler.PerformAction)

		vehicles.GET("/:id/maintenance", maintenanceHandler.GetMaintenance)
		vehicles.POST("/:id/maintenance", maintenanceHandler.CreateMaintenance)
		vehicles.DELETE("/:id/maintenance/:recordId", maintenanceHandler.DeleteMaintenance)
	}

	api.GET("/maintenance/upcoming", maintenanceHandler.GetUpcoming)

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.POST("/:id/ack", notificationHandler.Acknowledge)
	}

	api.GET("/ws/notifications", notificationHandler.HandleWebSocket)
}
