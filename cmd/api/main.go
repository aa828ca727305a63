package main

import (
	"errors"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ludo-stakes-backend/internal/config"
	"ludo-stakes-backend/internal/handlers"
	"ludo-stakes-backend/internal/middleware"
	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	seedDefaultGameConfig(redisService, cfg)

	jwtService := services.NewJWTService(cfg)
	fraudService := services.NewFraudService(redisService)
	authService := services.NewAuthService(redisService, jwtService, fraudService, cfg)
	walletService := services.NewWalletService(redisService)
	matchmakingService := services.NewMatchmakingService(redisService, walletService, cfg)
	gameEngine := services.NewGameEngine(redisService)
	settlementEngine := services.NewSettlementEngine(redisService, walletService)
	adminService := services.NewAdminService(redisService, walletService)

	wsHandler := handlers.NewWebSocketHandler(gameEngine, settlementEngine, fraudService)
	matchmakingService.SetBroadcaster(wsHandler)
	settlementEngine.SetBroadcaster(wsHandler)

	sweeper := services.NewSweeperService(redisService, walletService, settlementEngine, matchmakingService, cfg)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start sweeper: %v", err)
	}
	defer sweeper.Stop()

	authHandler := handlers.NewAuthHandler(authService, redisService)
	userHandler := handlers.NewUserHandler(redisService, walletService)
	walletHandler := handlers.NewWalletHandler(walletService, redisService)
	matchmakingHandler := handlers.NewMatchmakingHandler(matchmakingService, redisService)
	adminHandler := handlers.NewAdminHandler(adminService, fraudService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/otp/send", authHandler.SendOTP)
	router.POST("/auth/otp/verify", authHandler.VerifyOTP)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", walletHandler.GetBalance)
			wallet.GET("/transactions", walletHandler.GetTransactions)
			wallet.POST("/deposit", walletHandler.Deposit)
			wallet.POST("/withdraw", walletHandler.RequestWithdrawal)
		}

		matchmaking := protected.Group("/matchmaking")
		{
			matchmaking.POST("/join", matchmakingHandler.Join)
			matchmaking.POST("/cancel", matchmakingHandler.Cancel)
			matchmaking.GET("/status", matchmakingHandler.Status)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/withdrawals", adminHandler.GetPendingWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

			admin.PUT("/users/:id/status", adminHandler.SetAccountStatus)
			admin.PUT("/users/:id/wallet-lock", adminHandler.SetWalletLock)
			admin.POST("/users/:id/penalty", adminHandler.ApplyPenalty)
			admin.POST("/users/:id/reset-device", adminHandler.ResetDevice)

			admin.GET("/configs", adminHandler.GetGameConfigs)
			admin.PUT("/configs", adminHandler.UpsertGameConfig)

			admin.GET("/matches/live", adminHandler.GetLiveMatches)
			admin.GET("/matches/:id", adminHandler.GetMatch)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)

			admin.GET("/fraud-alerts", adminHandler.GetFraudAlerts)
			admin.POST("/fraud-alerts/:id/review", adminHandler.ReviewFraudAlert)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// seedDefaultGameConfig writes the stock LUDO config on first boot so
// matchmaking has stake levels to validate against.
func seedDefaultGameConfig(store *services.RedisService, cfg *config.Config) {
	_, err := store.GetGameConfig(services.DefaultGameType)
	if err == nil {
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		log.Printf("Failed to read game config: %v", err)
		return
	}

	now := time.Now()
	seed := &models.GameConfig{
		ID:                        models.NewID(),
		GameType:                  services.DefaultGameType,
		StakeLevels:               []int64{1000, 2500, 5000, 10000},
		CommissionPercent:         cfg.CommissionPercent,
		MatchmakingTimeoutSeconds: int(cfg.MatchmakingTimeout / time.Second),
		IsActive:                  true,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := store.SaveGameConfig(seed); err != nil {
		log.Printf("Failed to seed game config: %v", err)
		return
	}

	log.Printf("Seeded default %s config: stakes %v, commission %.1f%%",
		seed.GameType, seed.StakeLevels, seed.CommissionPercent)
}
