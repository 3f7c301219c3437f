package job

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/infrastructure/mq"
	"nextearnx/internal/model"
	"nextearnx/internal/repository"
	"nextearnx/pkg/logger"
)

// OutboxSender drains pending outbox rows to kafka. Events are written in the
// same transaction as the money movement they describe, so a publish failure
// never loses one; it just stays pending and is retried here.
type OutboxSender struct {
	db         *gorm.DB
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config) *OutboxSender {
	return &OutboxSender{
		db:         db,
		outboxRepo: repository.NewOutboxRepository(db),
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	logger.Info("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox sender stopping: context done")
			return
		case <-s.stopCh:
			logger.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		logger.Errorw("outbox query failed", "error", err)
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			logger.Errorw("outbox status update failed", "id", msg.ID, "error", updateErr)
		}
		return
	}

	logger.Warnw("outbox publish failed", "id", msg.ID, "topic", msg.Topic, "error", err)

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		logger.Errorw("outbox retry bump failed", "id", msg.ID, "error", err)
		return
	}

	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			logger.Errorw("outbox mark-failed failed", "id", msg.ID, "error", err)
			return
		}
		logger.Errorw("outbox message abandoned after retries",
			"id", msg.ID, "topic", msg.Topic, "key", msg.MessageKey)
	}
}
