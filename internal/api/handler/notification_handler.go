package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/api/middleware"
	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.notificationService.List(c.Request.Context(), device, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list notifications"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/v1/notifications/unread
func (h *NotificationHandler) Unread(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifications, err := h.notificationService.Unread(c.Request.Context(), device, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list unread notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

// POST /api/v1/notifications/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	var dto domain.MarkReadDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	marked, err := h.notificationService.MarkRead(c.Request.Context(), device, dto.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark notifications read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}
