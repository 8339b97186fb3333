package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/api/middleware"
	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// POST /api/v1/sessions/check-in
func (h *SessionHandler) CheckIn(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	var dto domain.CheckInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionService.CheckIn(c.Request.Context(), device, dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrLotInactive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "parking lot is not active"})
		case errors.Is(err, service.ErrAlreadyParked):
			c.JSON(http.StatusConflict, gin.H{"error": "already checked in at this lot"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check in"})
		}
		return
	}
	c.JSON(http.StatusCreated, session)
}

// POST /api/v1/sessions/check-out
func (h *SessionHandler) CheckOut(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	session, err := h.sessionService.CheckOut(c.Request.Context(), device)
	if err != nil {
		if errors.Is(err, service.ErrNotParked) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no active parking session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check out"})
		return
	}

	c.JSON(http.StatusOK, domain.CheckOutResponseDTO{
		Success:      true,
		Message:      "checked out of " + session.LotName,
		SessionID:    session.ID,
		CheckedOutAt: session.CheckedOutAt.Time,
	})
}

// GET /api/v1/sessions/current
func (h *SessionHandler) Current(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	session, err := h.sessionService.Current(c.Request.Context(), device)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load current session"})
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// GET /api/v1/sessions
func (h *SessionHandler) History(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	sessions, err := h.sessionService.History(c.Request.Context(), device, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
