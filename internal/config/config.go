package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret   string
	TokenExpiry time.Duration
	OTPExpiry   time.Duration
	// AdminPhone is the bootstrap admin: the account logging in with this
	// phone number is promoted to the ADMIN role.
	AdminPhone string

	CommissionPercent  float64
	MatchmakingTimeout time.Duration
	SweepInterval      time.Duration
	StaleGameCutoff    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		AdminPhone: getEnv("ADMIN_PHONE_NUMBER", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	cfg.TokenExpiry = getDuration("TOKEN_EXPIRY_HOURS", 24) * time.Hour
	cfg.OTPExpiry = getDuration("OTP_EXPIRY_MINUTES", 5) * time.Minute
	cfg.MatchmakingTimeout = getDuration("MATCHMAKING_TIMEOUT_SECONDS", 120) * time.Second
	cfg.SweepInterval = getDuration("SWEEP_INTERVAL_SECONDS", 10) * time.Second
	cfg.StaleGameCutoff = getDuration("STALE_GAME_CUTOFF_MINUTES", 30) * time.Minute

	pct, err := strconv.ParseFloat(getEnv("PLATFORM_COMMISSION_PERCENT", "10"), 64)
	if err != nil || pct < 0 || pct >= 100 {
		return nil, fmt.Errorf("invalid PLATFORM_COMMISSION_PERCENT")
	}
	cfg.CommissionPercent = pct

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback int64) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return time.Duration(fallback)
	}
	return time.Duration(n)
}
