package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ludo-stakes-backend/internal/services"
)

type AuthHandler struct {
	authService  *services.AuthService
	redisService *services.RedisService
}

func NewAuthHandler(authService *services.AuthService, redisService *services.RedisService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		redisService: redisService,
	}
}

type sendOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	// Rate limited per phone so one number cannot spam SMS sends.
	allowed, err := h.redisService.CheckRateLimit(req.PhoneNumber, "send_otp", 5, 10*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many OTP requests. Please wait."})
		return
	}

	if err := h.authService.SendOTP(req.PhoneNumber); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	DeviceID    string `json:"device_id" binding:"required"`
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	token, user, err := h.authService.VerifyOTPAndLogin(req.PhoneNumber, req.OTP, req.DeviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"phone_number": user.PhoneNumber,
			"role":         user.Role,
			"created_at":   user.CreatedAt,
		},
	})
}
