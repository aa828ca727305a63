package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

type AdminHandler struct {
	adminService *services.AdminService
	fraudService *services.FraudService
}

func NewAdminHandler(adminService *services.AdminService, fraudService *services.FraudService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		fraudService: fraudService,
	}
}

func (h *AdminHandler) GetPendingWithdrawals(c *gin.Context) {
	withdrawals, err := h.adminService.GetPendingWithdrawals()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"withdrawals": withdrawals,
		"count":       len(withdrawals),
	})
}

func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	adminID := c.GetString("user_id")
	withdrawalID := c.Param("id")

	w, err := h.adminService.ApproveWithdrawal(withdrawalID, adminID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "withdrawal": w})
}

type rejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	adminID := c.GetString("user_id")
	withdrawalID := c.Param("id")

	var req rejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	w, err := h.adminService.RejectWithdrawal(withdrawalID, adminID, req.Reason, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "withdrawal": w})
}

type accountStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *AdminHandler) SetAccountStatus(c *gin.Context) {
	adminID := c.GetString("user_id")
	userID := c.Param("id")

	var req accountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.adminService.SetAccountActive(userID, adminID, *req.Active, c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type walletLockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

func (h *AdminHandler) SetWalletLock(c *gin.Context) {
	adminID := c.GetString("user_id")
	userID := c.Param("id")

	var req walletLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.adminService.SetWalletLocked(userID, adminID, *req.Locked, c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type penaltyRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

func (h *AdminHandler) ApplyPenalty(c *gin.Context) {
	adminID := c.GetString("user_id")
	userID := c.Param("id")

	var req penaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	entry, err := h.adminService.ApplyPenalty(userID, adminID, req.Amount, req.Reason, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": entry})
}

func (h *AdminHandler) ResetDevice(c *gin.Context) {
	adminID := c.GetString("user_id")
	userID := c.Param("id")

	if err := h.adminService.ResetDeviceBinding(userID, adminID, c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) GetGameConfigs(c *gin.Context) {
	configs, err := h.adminService.GetGameConfigs()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

type gameConfigRequest struct {
	GameType                  string  `json:"game_type" binding:"required"`
	StakeLevels               []int64 `json:"stake_levels" binding:"required"`
	CommissionPercent         float64 `json:"commission_percent"`
	MatchmakingTimeoutSeconds int     `json:"matchmaking_timeout_seconds"`
	IsActive                  bool    `json:"is_active"`
}

func (h *AdminHandler) UpsertGameConfig(c *gin.Context) {
	adminID := c.GetString("user_id")

	var req gameConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	cfg := &models.GameConfig{
		GameType:                  req.GameType,
		StakeLevels:               req.StakeLevels,
		CommissionPercent:         req.CommissionPercent,
		MatchmakingTimeoutSeconds: req.MatchmakingTimeoutSeconds,
		IsActive:                  req.IsActive,
	}

	saved, err := h.adminService.UpsertGameConfig(cfg, adminID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "config": saved})
}

func (h *AdminHandler) GetLiveMatches(c *gin.Context) {
	games, err := h.adminService.GetLiveMatches()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": games,
		"count":   len(games),
	})
}

func (h *AdminHandler) GetMatch(c *gin.Context) {
	game, entries, err := h.adminService.GetMatch(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match":          game,
		"ledger_entries": entries,
	})
}

func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	if err != nil || limit < 1 {
		limit = 100
	}

	logs, err := h.adminService.GetAuditLogs(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *AdminHandler) GetFraudAlerts(c *gin.Context) {
	status := models.FraudAlertStatus(c.Query("status"))

	alerts, err := h.fraudService.GetAlerts(status, 100)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

type reviewAlertRequest struct {
	Confirmed *bool  `json:"confirmed" binding:"required"`
	Notes     string `json:"notes"`
}

func (h *AdminHandler) ReviewFraudAlert(c *gin.Context) {
	adminID := c.GetString("user_id")
	alertID := c.Param("id")

	var req reviewAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	alert, err := h.fraudService.ReviewAlert(alertID, adminID, *req.Confirmed, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "alert": alert})
}
