package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/notify"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Token auth below is the access control; origin is not.
		return true
	},
}

type WebSocketHandler struct {
	hub         *notify.Hub
	authService *service.AuthService
	deviceRepo  repository.DeviceRepository
	logger      *zap.Logger
}

func NewWebSocketHandler(hub *notify.Hub, authService *service.AuthService, deviceRepo repository.DeviceRepository, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		deviceRepo:  deviceRepo,
		logger:      logger,
	}
}

// GET /ws?token=...
// Browsers cannot set headers on websocket dials, so the JWT rides in the
// query string here.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	deviceUID, err := h.authService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	if _, err := h.deviceRepo.FindByUID(c.Request.Context(), deviceUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown device"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load device"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Register(deviceUID, conn)

	// Reader loop; the client sends nothing we act on, but reads are how we
	// notice the disconnect.
	go func() {
		defer h.hub.Unregister(deviceUID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket read error", zap.Error(err))
				}
				return
			}
		}
	}()
}
