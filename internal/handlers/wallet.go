package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

type WalletHandler struct {
	walletService *services.WalletService
	redisService  *services.RedisService
}

func NewWalletHandler(walletService *services.WalletService, redisService *services.RedisService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		redisService:  redisService,
	}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	balance, err := h.walletService.GetBalance(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"available":    balance.Available,
		"locked":       balance.Locked,
		"withdrawable": balance.Withdrawable,
		"total":        balance.Total,
	})
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")

	entries, err := h.walletService.GetTransactions(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": entries,
		"count":        len(entries),
	})
}

type depositRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	ReferenceID string `json:"reference_id" binding:"required"`
}

// Deposit credits a confirmed payment. The payment gateway callback is the
// intended caller; the reference id is the gateway's transaction id.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID := c.GetString("user_id")

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(userID, "deposit", services.DefaultRateLimitDeposit, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many deposits. Please wait."})
		return
	}

	entry, err := h.walletService.CreateTransaction(userID, models.TransactionTypeDeposit, req.Amount,
		req.ReferenceID, "PAYMENT", map[string]interface{}{"action": "deposit"})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"transaction": entry,
	})
}

type withdrawRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	BankAccount string `json:"bank_account" binding:"required"`
	IFSCCode    string `json:"ifsc_code" binding:"required"`
}

func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID := c.GetString("user_id")

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	withdrawal, err := h.walletService.RequestWithdrawal(userID, req.Amount, req.BankAccount, req.IFSCCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"withdrawal": withdrawal,
	})
}
