package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/api/middleware"
	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var dto domain.RegisterDeviceDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register device"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/v1/verification/request
func (h *AuthHandler) RequestVerification(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	var dto domain.RequestVerificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.RequestEmailVerification(c.Request.Context(), device, dto.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a valid campus email address is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send verification code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

// POST /api/v1/verification/confirm
func (h *AuthHandler) ConfirmVerification(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	var dto domain.ConfirmVerificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.authService.ConfirmEmailVerification(c.Request.Context(), device, dto.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "email verified"})
	case errors.Is(err, service.ErrNoPendingChallenge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no verification code was requested"})
	case errors.Is(err, service.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "verification code has expired"})
	case errors.Is(err, service.ErrCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "verification code does not match"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify email"})
	}
}
