package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/repository"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

type ParkingLotHandler struct {
	lotService *service.LotService
}

func NewParkingLotHandler(lotService *service.LotService) *ParkingLotHandler {
	return &ParkingLotHandler{lotService: lotService}
}

// GET /api/v1/lots
func (h *ParkingLotHandler) ListLots(c *gin.Context) {
	lots, err := h.lotService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list parking lots"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lots": lots})
}

// GET /api/v1/lots/:id
func (h *ParkingLotHandler) GetLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	lot, err := h.lotService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load parking lot"})
		return
	}
	c.JSON(http.StatusOK, lot)
}
