package job

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/repository"
	"nextearnx/pkg/logger"
)

// SubscriptionExpiryJob sweeps lapsed subscriptions: the row is removed and
// the user's plan fields cleared, so the profile never shows a dead plan.
type SubscriptionExpiryJob struct {
	db        *gorm.DB
	subRepo   *repository.SubscriptionRepository
	userRepo  *repository.UserRepository
	cfg       *config.Config
	stopCh    chan struct{}
	interval  time.Duration
	batchSize int
}

func NewSubscriptionExpiryJob(db *gorm.DB, cfg *config.Config) *SubscriptionExpiryJob {
	return &SubscriptionExpiryJob{
		db:        db,
		subRepo:   repository.NewSubscriptionRepository(db),
		userRepo:  repository.NewUserRepository(db),
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		interval:  time.Minute,
		batchSize: 100,
	}
}

func (j *SubscriptionExpiryJob) Start(ctx context.Context) {
	logger.Info("subscription expiry job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription expiry job stopping: context done")
			return
		case <-j.stopCh:
			logger.Info("subscription expiry job stopped")
			return
		case <-ticker.C:
			j.clearExpired(ctx)
		}
	}
}

func (j *SubscriptionExpiryJob) Stop() {
	close(j.stopCh)
}

func (j *SubscriptionExpiryJob) clearExpired(ctx context.Context) {
	expired, err := j.subRepo.ListExpired(ctx, time.Now(), j.batchSize)
	if err != nil {
		logger.Errorw("expired subscription query failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	logger.Infow("clearing expired subscriptions", "count", len(expired))

	for _, sub := range expired {
		err := j.db.Transaction(func(tx *gorm.DB) error {
			if err := j.subRepo.Delete(ctx, tx, sub.ID); err != nil {
				return err
			}
			return j.userRepo.Update(ctx, tx, sub.Username, map[string]interface{}{
				"plan":        nil,
				"plan_expiry": nil,
			})
		})
		if err != nil {
			logger.Errorw("subscription expiry failed",
				"username", sub.Username, "plan", sub.Plan, "error", err)
			continue
		}
		logger.Infow("subscription expired", "username", sub.Username, "plan", sub.Plan)
	}
}
