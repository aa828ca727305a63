package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ludo-stakes-backend/internal/services"
)

type UserHandler struct {
	redisService  *services.RedisService
	walletService *services.WalletService
}

func NewUserHandler(redisService *services.RedisService, walletService *services.WalletService) *UserHandler {
	return &UserHandler{
		redisService:  redisService,
		walletService: walletService,
	}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.redisService.GetUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	balance, err := h.walletService.GetBalance(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":               user.ID,
			"phone_number":     user.PhoneNumber,
			"role":             user.Role,
			"is_active":        user.IsActive,
			"is_wallet_locked": user.IsWalletLocked,
			"created_at":       user.CreatedAt,
		},
		"wallet": gin.H{
			"available":    balance.Available,
			"locked":       balance.Locked,
			"withdrawable": balance.Withdrawable,
			"total":        balance.Total,
		},
	})
}
