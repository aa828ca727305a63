package services

import (
	"fmt"
	"log"
	"time"

	"ludo-stakes-backend/internal/models"
)

const (
	fraudLookback        = 30 * 24 * time.Hour
	winRatioThreshold    = 0.75
	winRatioMinGames     = 10
	collusionMaxGames    = 5
	maxAccountsPerDevice = 1
)

// FraudService runs the post-game heuristics: abnormal win ratios and
// repeated pairings. A flagged user gets their wallet locked until an admin
// reviews the alert.
type FraudService struct {
	store *RedisService
}

func NewFraudService(store *RedisService) *FraudService {
	return &FraudService{store: store}
}

// CheckGame runs all heuristics for both participants of a completed game.
// Errors are logged, not returned; fraud checks never block settlement.
func (f *FraudService) CheckGame(game *models.Game) {
	for _, userID := range []string{game.Player1ID, game.Player2ID} {
		if err := f.CheckWinRatio(userID); err != nil {
			log.Printf("Fraud check (win ratio) for %s: %v", userID, err)
		}
	}
	if err := f.CheckCollusion(game.Player1ID, game.Player2ID); err != nil {
		log.Printf("Fraud check (collusion) for %s/%s: %v", game.Player1ID, game.Player2ID, err)
	}
}

// CheckWinRatio flags users winning more than the threshold share of their
// completed games over the lookback window, given enough games to matter.
func (f *FraudService) CheckWinRatio(userID string) error {
	games, err := f.store.GetUserGamesSince(userID, time.Now().Add(-fraudLookback))
	if err != nil {
		return err
	}

	var completed, won int
	for _, g := range games {
		if g.Status != models.GameStatusCompleted {
			continue
		}
		completed++
		if g.WinnerID == userID {
			won++
		}
	}

	if completed < winRatioMinGames {
		return nil
	}

	ratio := float64(won) / float64(completed)
	if ratio <= winRatioThreshold {
		return nil
	}

	return f.flag(userID, models.FraudAlertAbnormalWinRatio,
		fmt.Sprintf("won %d of %d games in the last 30 days", won, completed),
		map[string]interface{}{
			"games_completed": completed,
			"games_won":       won,
			"win_ratio":       ratio,
		})
}

// CheckCollusion flags both players when the same pair keeps meeting.
// Matchmaking is anonymous FIFO, so repeated pairings at this rate point to
// queue timing coordination.
func (f *FraudService) CheckCollusion(player1ID, player2ID string) error {
	games, err := f.store.GetUserGamesSince(player1ID, time.Now().Add(-fraudLookback))
	if err != nil {
		return err
	}

	shared := 0
	for _, g := range games {
		if g.HasPlayer(player2ID) {
			shared++
		}
	}

	if shared <= collusionMaxGames {
		return nil
	}

	evidence := map[string]interface{}{
		"opponent_id":  player2ID,
		"shared_games": shared,
	}
	desc := fmt.Sprintf("played %d games against the same opponent in the last 30 days", shared)

	if err := f.flag(player1ID, models.FraudAlertCollusion, desc, evidence); err != nil {
		return err
	}

	evidence = map[string]interface{}{
		"opponent_id":  player1ID,
		"shared_games": shared,
	}
	return f.flag(player2ID, models.FraudAlertCollusion, desc, evidence)
}

// CheckDeviceSharing flags every account bound to the same device once more
// than one account has bound it. Per-user device binding stops one account
// from hopping devices, not several accounts from sharing one; the shared
// device set is what catches the latter.
func (f *FraudService) CheckDeviceSharing(deviceID string) error {
	users, err := f.store.GetDeviceUsers(deviceID)
	if err != nil {
		return err
	}

	if len(users) <= maxAccountsPerDevice {
		return nil
	}

	desc := fmt.Sprintf("%d accounts bound to the same device", len(users))
	for _, userID := range users {
		evidence := map[string]interface{}{
			"device_id": deviceID,
			"accounts":  len(users),
		}
		if err := f.flag(userID, models.FraudAlertMultipleAccounts, desc, evidence); err != nil {
			return err
		}
	}

	return nil
}

// flag records the alert and locks the wallet. An already locked wallet
// means a prior alert is still open; no duplicate alert is raised.
func (f *FraudService) flag(userID string, alertType models.FraudAlertType, description string, evidence map[string]interface{}) error {
	user, err := f.store.GetUser(userID)
	if err != nil {
		return err
	}

	if user.IsWalletLocked {
		return nil
	}

	alert := &models.FraudAlert{
		ID:          models.NewID(),
		UserID:      userID,
		AlertType:   alertType,
		Status:      models.FraudAlertFlagged,
		Description: description,
		Evidence:    evidence,
		CreatedAt:   time.Now(),
	}

	if err := f.store.SaveFraudAlert(alert); err != nil {
		return fmt.Errorf("save fraud alert: %w", err)
	}

	user.IsWalletLocked = true
	user.UpdatedAt = time.Now()
	if err := f.store.SaveUser(user); err != nil {
		return fmt.Errorf("lock wallet for %s: %w", userID, err)
	}

	log.Printf("Fraud alert %s: %s flagged for %s", alert.ID, userID, alertType)

	return nil
}

func (f *FraudService) GetAlerts(status models.FraudAlertStatus, limit int64) ([]*models.FraudAlert, error) {
	return f.store.GetFraudAlerts(status, limit)
}

// ReviewAlert resolves a flagged alert. Clearing it unlocks the wallet;
// confirming keeps the lock in place for admin follow-up.
func (f *FraudService) ReviewAlert(alertID, adminID string, confirmed bool, notes string) (*models.FraudAlert, error) {
	alert, err := f.store.GetFraudAlert(alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status != models.FraudAlertFlagged {
		return nil, models.ErrAlreadyProcessed
	}

	now := time.Now()
	alert.ReviewedBy = adminID
	alert.ReviewedAt = &now
	alert.ReviewNotes = notes

	if confirmed {
		alert.Status = models.FraudAlertConfirmed
	} else {
		alert.Status = models.FraudAlertCleared

		user, err := f.store.GetUser(alert.UserID)
		if err != nil {
			return nil, err
		}
		user.IsWalletLocked = false
		user.UpdatedAt = now
		if err := f.store.SaveUser(user); err != nil {
			return nil, fmt.Errorf("unlock wallet for %s: %w", alert.UserID, err)
		}
	}

	if err := f.store.SaveFraudAlert(alert); err != nil {
		return nil, fmt.Errorf("save fraud alert: %w", err)
	}

	return alert, nil
}
