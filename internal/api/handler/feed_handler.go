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

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// windowFromQuery reads the optional hours query param; 0 means the service
// default.
func windowFromQuery(c *gin.Context) time.Duration {
	hours, err := strconv.Atoi(c.Query("hours"))
	if err != nil || hours <= 0 {
		return 0
	}
	return time.Duration(hours) * time.Hour
}

// GET /api/v1/feed
func (h *FeedHandler) AllFeeds(c *gin.Context) {
	device := middleware.DeviceFromContext(c)
	ranked := c.Query("ranked") == "true"

	feeds, err := h.feedService.AllFeeds(c.Request.Context(), device, windowFromQuery(c), ranked)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build feed"})
		return
	}
	c.JSON(http.StatusOK, feeds)
}

// GET /api/v1/lots/:id/feed
func (h *FeedHandler) LotFeed(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}
	ranked := c.Query("ranked") == "true"

	feed, err := h.feedService.LotFeed(c.Request.Context(), device, id, windowFromQuery(c), ranked)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build feed"})
		return
	}
	c.JSON(http.StatusOK, feed)
}

// POST /api/v1/sightings/:id/vote
func (h *FeedHandler) Vote(c *gin.Context) {
	device := middleware.DeviceFromContext(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sighting id"})
		return
	}

	var dto domain.CastVoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.feedService.Vote(c.Request.Context(), device, id, dto.VoteType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVote):
			c.JSON(http.StatusBadRequest, gin.H{"error": "vote_type must be upvote or downvote"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "sighting not found"})
		case errors.Is(err, repository.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": "vote already recorded"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record vote"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
