package handlers

import (
	"net/http"
	"strings"
	"time"

	"garage-backend/internal/notify"
	"garage-backend/internal/websocket"
	"garage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	feed   *notify.Feed
	hub    *websocket.Hub
	logger *zap.Logger
}

func NewNotificationHandler(feed *notify.Feed, hub *websocket.Hub, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{feed: feed, hub: hub, logger: logger}
}

// GetNotifications lists notifications still visible, newest first.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", h.feed.Active(time.Now()))
}

func (h *NotificationHandler) Acknowledge(c *gin.Context) {
	if !h.feed.Acknowledge(c.Param("id")) {
		utils.ErrorResponse(c, http.StatusNotFound, "Notification not found", nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Notification acknowledged", nil)
}

// HandleWebSocket upgrades the connection and streams notifications. The
// optional severity query parameter (repeated or comma separated) filters them.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	var filters websocket.ClientFilters
	for _, value := range c.QueryArray("severity") {
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filters.Severities = append(filters.Severities, notify.Severity(s))
			}
		}
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.logger.Warn("failed to upgrade connection to websocket", zap.Error(err))
		return
	}

	clientID := uuid.NewString()
	h.hub.RegisterClient(clientID, conn, filters)
	h.logger.Debug("websocket client connected", zap.String("client_id", clientID), zap.Int("severity_filters", len(filters.Severities)))
}
