package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"mailsub-backend/internal/scan"
	"mailsub-backend/internal/subscription/usecase"
	userdomain "mailsub-backend/internal/user/domain"
	userrepo "mailsub-backend/internal/user/repository"
)

// Scheduler drives the two background loops: the hourly sync sweep
// that rescans stale mail accounts, and the categorization worker tick
// that drains the classification queue one item at a time.
type Scheduler struct {
	cron         *cron.Cron
	users        userrepo.UserRepository
	engine       *scan.Engine
	worker       *usecase.CategorizationWorker
	syncInterval time.Duration
	tickInterval time.Duration
	cancel       context.CancelFunc
}

func New(
	users userrepo.UserRepository,
	engine *scan.Engine,
	worker *usecase.CategorizationWorker,
	syncInterval, tickInterval time.Duration,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		users:        users,
		engine:       engine,
		worker:       worker,
		syncInterval: syncInterval,
		tickInterval: tickInterval,
	}
}

// Start registers the jobs and runs them until Stop is called.
func (s *Scheduler) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if _, err := s.cron.AddFunc("@hourly", func() { s.syncSweep(ctx) }); err != nil {
		return err
	}
	s.cron.Start()

	go s.workerLoop(ctx)

	log.Printf("[Scheduler] started: hourly sync sweep (stale after %s), worker tick every %s",
		s.syncInterval, s.tickInterval)
	return nil
}

// Stop halts the cron jobs and the worker loop.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
}

// syncSweep rescans every connected account whose last sync is older
// than the configured interval. Per-account failures are logged and
// skipped so one bad credential cannot stall the sweep.
func (s *Scheduler) syncSweep(ctx context.Context) {
	users, err := s.users.FindAll()
	if err != nil {
		log.Printf("[Scheduler] sync sweep aborted, cannot list users: %v", err)
		return
	}

	for _, user := range users {
		for _, accountType := range user.ConnectedAccounts() {
			if !s.isStale(user, accountType) {
				continue
			}
			if _, err := s.engine.RunPass(ctx, user.ID, accountType); err != nil {
				log.Printf("[Scheduler] sync failed for user %s (%s): %v", user.ID, accountType, err)
				continue
			}
		}
	}
}

func (s *Scheduler) isStale(user *userdomain.User, accountType string) bool {
	var lastSync *time.Time
	switch accountType {
	case userdomain.AccountGmail:
		lastSync = user.GmailLastSync
	case userdomain.AccountOutlook:
		lastSync = user.OutlookLastSync
	}
	return lastSync == nil || time.Since(*lastSync) >= s.syncInterval
}

func (s *Scheduler) workerLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.worker.Tick(ctx); err != nil {
				log.Printf("[Scheduler] worker tick failed: %v", err)
			}
		}
	}
}
