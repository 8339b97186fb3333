package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	DeviceKey               = "device"
)

type AuthMiddleware struct {
	authService *service.AuthService
	deviceRepo  repository.DeviceRepository
}

func NewAuthMiddleware(authService *service.AuthService, deviceRepo repository.DeviceRepository) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, deviceRepo: deviceRepo}
}

// Authenticate validates the bearer token and loads the device it belongs to
// into the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		deviceUID, err := m.authService.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		device, err := m.deviceRepo.FindByUID(c.Request.Context(), deviceUID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown device"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not load device"})
			return
		}

		// Best effort; a failed touch must not fail the request.
		_ = m.deviceRepo.TouchLastSeen(c.Request.Context(), device.ID, domain.Now())

		c.Set(DeviceKey, device)
		c.Next()
	}
}

// RequireVerified gates write endpoints behind email verification.
func (m *AuthMiddleware) RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		device := DeviceFromContext(c)
		if device == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !device.EmailVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "email verification required"})
			return
		}
		c.Next()
	}
}

// DeviceFromContext returns the authenticated device, or nil when the request
// did not pass Authenticate.
func DeviceFromContext(c *gin.Context) *domain.Device {
	value, exists := c.Get(DeviceKey)
	if !exists {
		return nil
	}
	device, ok := value.(*domain.Device)
	if !ok {
		return nil
	}
	return device
}
