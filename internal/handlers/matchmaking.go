package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ludo-stakes-backend/internal/services"
)

type MatchmakingHandler struct {
	matchmaking  *services.MatchmakingService
	redisService *services.RedisService
}

func NewMatchmakingHandler(matchmaking *services.MatchmakingService, redisService *services.RedisService) *MatchmakingHandler {
	return &MatchmakingHandler{
		matchmaking:  matchmaking,
		redisService: redisService,
	}
}

type joinRequest struct {
	StakeAmount int64 `json:"stake_amount" binding:"required"`
}

func (h *MatchmakingHandler) Join(c *gin.Context) {
	userID := c.GetString("user_id")

	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(userID, "join", services.DefaultRateLimitJoin, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many join attempts. Please wait."})
		return
	}

	result, err := h.matchmaking.Join(userID, req.StakeAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *MatchmakingHandler) Cancel(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.matchmaking.Cancel(userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MatchmakingHandler) Status(c *gin.Context) {
	userID := c.GetString("user_id")

	slot, err := h.redisService.GetQueueSlot(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       slot.Status,
		"stake_amount": slot.StakeAmount,
		"enqueued_at":  slot.EnqueuedAt,
	})
}
