package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nextearnx/internal/model"
)

var ErrInsufficientEarnings = errors.New("insufficient affiliate earnings")

type AffiliateRepository struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) *AffiliateRepository {
	return &AffiliateRepository{db: db}
}

func (r *AffiliateRepository) GetOrCreate(ctx context.Context, username string) (*model.AffiliateAccount, error) {
	var account model.AffiliateAccount
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = model.AffiliateAccount{Username: username, Earnings: decimal.Zero}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).
		Create(&account).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	return &account, err
}

// ReferralCount backs the lifafa referral gate.
func (r *AffiliateRepository) ReferralCount(ctx context.Context, username string) (int, error) {
	account, err := r.GetOrCreate(ctx, username)
	if err != nil {
		return 0, err
	}
	return account.Referrals, nil
}

func (r *AffiliateRepository) AddReferral(ctx context.Context, tx *gorm.DB, username string, commission decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.AffiliateAccount{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{
			"referrals": gorm.Expr("referrals + 1"),
			"earnings":  gorm.Expr("earnings + ?", commission),
		})
	return result.Error
}

func (r *AffiliateRepository) DeductEarnings(ctx context.Context, tx *gorm.DB, username string, amount decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.AffiliateAccount{}).
		Where("username = ? AND earnings >= ?", username, amount).
		Update("earnings", gorm.Expr("earnings - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientEarnings
	}
	return nil
}
