package models

import "time"

// GameConfig is the per-game-type policy admins manage. Matchmaking reads
// the commission percent and stake levels in effect at join time; the
// commission actually charged is frozen onto the Game at creation.
type GameConfig struct {
	ID                        string    `json:"id" redis:"id"`
	GameType                  string    `json:"game_type" redis:"game_type"`
	StakeLevels               []int64   `json:"stake_levels" redis:"stake_levels"`
	CommissionPercent         float64   `json:"commission_percent" redis:"commission_percent"`
	MatchmakingTimeoutSeconds int       `json:"matchmaking_timeout_seconds" redis:"matchmaking_timeout_seconds"`
	IsActive                  bool      `json:"is_active" redis:"is_active"`
	CreatedAt                 time.Time `json:"created_at" redis:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at" redis:"updated_at"`
}

// HasStakeLevel reports whether stake is one of the offered levels.
func (c *GameConfig) HasStakeLevel(stake int64) bool {
	for _, s := range c.StakeLevels {
		if s == stake {
			return true
		}
	}
	return false
}

type AuditLog struct {
	ID           string                 `json:"id" redis:"id"`
	AdminID      string                 `json:"admin_id" redis:"admin_id"`
	Action       string                 `json:"action" redis:"action"`
	ResourceType string                 `json:"resource_type" redis:"resource_type"`
	ResourceID   string                 `json:"resource_id" redis:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" redis:"metadata"`
	IPAddress    string                 `json:"ip_address" redis:"ip_address"`
	CreatedAt    time.Time              `json:"created_at" redis:"created_at"`
}
