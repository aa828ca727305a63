package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"ludo-stakes-backend/internal/config"
	"ludo-stakes-backend/internal/models"
)

// SweeperService runs the background reapers: expired matchmaking entries
// get their stakes released, and games stuck IN_PROGRESS past the cutoff
// get cancelled and refunded.
type SweeperService struct {
	store       *RedisService
	wallet      *WalletService
	settlement  *SettlementEngine
	matchmaking *MatchmakingService
	cfg         *config.Config

	scheduler gocron.Scheduler
}

func NewSweeperService(
	store *RedisService,
	wallet *WalletService,
	settlement *SettlementEngine,
	matchmaking *MatchmakingService,
	cfg *config.Config,
) *SweeperService {
	return &SweeperService{
		store:       store,
		wallet:      wallet,
		settlement:  settlement,
		matchmaking: matchmaking,
		cfg:         cfg,
	}
}

// Start schedules the sweep jobs. Call Stop on shutdown.
func (s *SweeperService) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.scheduler = sched

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval),
		gocron.NewTask(s.SweepQueues),
	)
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval),
		gocron.NewTask(s.SweepStaleGames),
	)
	if err != nil {
		return err
	}

	sched.Start()
	log.Printf("Sweeper started: interval %s, matchmaking timeout %s, stale game cutoff %s",
		s.cfg.SweepInterval, s.cfg.MatchmakingTimeout, s.cfg.StaleGameCutoff)

	return nil
}

func (s *SweeperService) Stop() {
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			log.Printf("Sweeper shutdown: %v", err)
		}
	}
}

// SweepQueues walks every known stake level and evicts entries older than
// the matchmaking timeout, refunding the locked stake. One bad entry never
// stops the sweep.
func (s *SweeperService) SweepQueues() {
	levels, err := s.stakeLevels()
	if err != nil {
		log.Printf("Sweep queues: list stake levels: %v", err)
		return
	}

	timeout := s.matchmaking.matchmakingTimeout()
	cutoff := time.Now().Add(-timeout)

	for _, stake := range levels {
		raws, err := s.store.ListQueueRaw(stake)
		if err != nil {
			log.Printf("Sweep queues: list queue %d: %v", stake, err)
			continue
		}

		for _, raw := range raws {
			var entry models.MatchmakingEntry
			if err := json.Unmarshal([]byte(raw), &entry); err != nil {
				log.Printf("Sweep queues: bad entry in queue %d: %v", stake, err)
				continue
			}

			if entry.EnqueuedAt.After(cutoff) {
				continue
			}

			// Remove by exact serialized value so a user who re-queued after
			// this snapshot keeps their newer entry.
			removed, err := s.store.RemoveQueueValue(stake, raw)
			if err != nil {
				log.Printf("Sweep queues: remove %s: %v", entry.UserID, err)
				continue
			}
			if !removed {
				// Matched or cancelled between the snapshot and now.
				continue
			}

			if _, err := s.wallet.ReleaseFunds(entry.UserID, stake, "TIMEOUT"); err != nil {
				log.Printf("Sweep queues: release funds for %s: %v", entry.UserID, err)
			}
			if err := s.store.ReleaseQueueSlot(entry.UserID); err != nil {
				log.Printf("Sweep queues: release slot for %s: %v", entry.UserID, err)
			}

			log.Printf("Matchmaking timeout: %s removed from %s queue, stake refunded",
				entry.UserID, models.FormatCurrency(stake))
		}
	}
}

// SweepStaleGames cancels and refunds games that have sat IN_PROGRESS past
// the cutoff; the clients are gone and the stakes should not stay locked.
func (s *SweeperService) SweepStaleGames() {
	ids, err := s.store.GetLiveGames()
	if err != nil {
		log.Printf("Sweep stale games: %v", err)
		return
	}

	cutoff := time.Now().Add(-s.cfg.StaleGameCutoff)

	for _, id := range ids {
		game, err := s.store.GetGame(id)
		if err != nil {
			log.Printf("Sweep stale games: get %s: %v", id, err)
			continue
		}

		if game.Status != models.GameStatusInProgress {
			// Live set entry outlived the game; drop it.
			s.store.RemoveLiveGame(id)
			continue
		}

		if game.UpdatedAt.After(cutoff) {
			continue
		}

		if err := s.settlement.CancelGameAndRefund(id, "stale"); err != nil {
			log.Printf("Sweep stale games: cancel %s: %v", id, err)
		}
	}
}

// stakeLevels merges levels seen in the queue index with the ones the
// active config offers, so freshly configured levels get swept too.
func (s *SweeperService) stakeLevels() ([]int64, error) {
	levels, err := s.store.KnownStakeLevels()
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(levels))
	for _, l := range levels {
		seen[l] = true
	}

	if cfg, err := s.store.GetGameConfig(DefaultGameType); err == nil {
		for _, l := range cfg.StakeLevels {
			if !seen[l] {
				seen[l] = true
				levels = append(levels, l)
			}
		}
	}

	return levels, nil
}
