package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/repository"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

type PredictionHandler struct {
	predictionService *service.PredictionService
}

func NewPredictionHandler(predictionService *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// GET /api/v1/lots/:id/prediction
func (h *PredictionHandler) Predict(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	var at time.Time
	if atStr := c.Query("at"); atStr != "" {
		at, err = time.Parse(time.RFC3339, atStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be RFC 3339"})
			return
		}
	}

	prediction, err := h.predictionService.Predict(c.Request.Context(), id, at)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build prediction"})
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// GET /api/v1/predictions
func (h *PredictionHandler) PredictAll(c *gin.Context) {
	var at time.Time
	if atStr := c.Query("at"); atStr != "" {
		parsed, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be RFC 3339"})
			return
		}
		at = parsed
	}

	predictions, err := h.predictionService.PredictAll(c.Request.Context(), at)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build predictions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}
