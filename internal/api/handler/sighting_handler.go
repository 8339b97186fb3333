package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/api/middleware"
	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

type SightingHandler struct {
	sightingService *service.SightingService
}

func NewSightingHandler(sightingService *service.SightingService) *SightingHandler {
	return &SightingHandler{sightingService: sightingService}
}

// POST /api/v1/sightings
func (h *SightingHandler) Report(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	var dto domain.ReportSightingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.sightingService.Report(c.Request.Context(), device, dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrLotInactive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "parking lot is not active"})
		case errors.Is(err, service.ErrReportRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "you already reported a sighting at this lot recently"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not report sighting"})
		}
		return
	}
	c.JSON(http.StatusCreated, report)
}

// GET /api/v1/sightings
func (h *SightingHandler) List(c *gin.Context) {
	var lotID *int
	if lotStr := c.Query("lot_id"); lotStr != "" {
		id, err := strconv.Atoi(lotStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot_id"})
			return
		}
		lotID = &id
	}

	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 || hours > 24*7 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	sightings, err := h.sightingService.Recent(c.Request.Context(), lotID, time.Duration(hours)*time.Hour, limit)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sightings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sightings": sightings, "count": len(sightings)})
}

// GET /api/v1/lots/:id/sightings/latest
func (h *SightingHandler) Latest(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	sighting, err := h.sightingService.Latest(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load latest sighting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sighting": sighting})
}
