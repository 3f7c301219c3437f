package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nextearnx/internal/model"
)

var ErrNoSubscription = errors.New("no active subscription")

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert replaces the user's subscription row; buying a new plan overwrites
// whatever was active.
func (r *SubscriptionRepository) Upsert(ctx context.Context, tx *gorm.DB, sub *model.Subscription) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			UpdateAll: true,
		}).
		Create(sub).Error
}

func (r *SubscriptionRepository) GetActive(ctx context.Context, username string, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("username = ? AND expires_at > ?", username, now).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSubscription
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) Delete(ctx context.Context, tx *gorm.DB, id uint64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Delete(&model.Subscription{}, id).Error
}
