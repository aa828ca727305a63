package services

import "time"

const (
	KeyUserInfo      = "user:%s:info"
	KeyUserByPhone   = "user:phone:%s"
	KeyDeviceUsers   = "device:%s:users"
	KeyUserLedger    = "ledger:%s"
	KeyUserGames     = "user:%s:games"
	KeyOTP           = "otp:%s"
	KeyRateLimit     = "ratelimit:%s:%s"
	KeyGame          = "game:%s"
	KeyLiveGames     = "games:live"
	KeySettlement    = "settlement:%s"
	KeyQueue         = "matchmaking:queue:%d"
	KeyQueueUser     = "matchmaking:user:%s"
	KeyQueueStakes   = "matchmaking:stakes"
	KeyWithdrawal    = "withdrawal:%s"
	KeyWithdrawals   = "withdrawals:all"
	KeyGameConfig    = "gameconfig:%s"
	KeyGameConfigSet = "gameconfigs"
	KeyFraudAlert    = "fraud:alert:%s"
	KeyFraudAlerts   = "fraud:alerts"
	KeyAuditLogs     = "audit:logs"

	TTLOTP = 5 * time.Minute

	MaxAuditLogEntries = 1000

	DefaultRateLimitJoin    = 30 // joins per minute
	DefaultRateLimitDeposit = 10 // deposits per minute
)
