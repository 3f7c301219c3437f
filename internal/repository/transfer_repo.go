package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nextearnx/internal/model"
)

type TransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// DayTotal returns what the sender has already transferred on the given day,
// 0 when no row exists yet.
func (r *TransferRepository) DayTotal(ctx context.Context, username, day string) (decimal.Decimal, error) {
	var row model.TransferDay
	err := r.db.WithContext(ctx).
		Where("username = ? AND day = ?", username, day).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return row.Total, nil
}

// AddToDay accumulates into the sender's daily counter, creating the row on
// first transfer of the day.
func (r *TransferRepository) AddToDay(ctx context.Context, tx *gorm.DB, username, day string, amount decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "username"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total": gorm.Expr("total + ?", amount),
			}),
		}).
		Create(&model.TransferDay{
			Username: username,
			Day:      day,
			Total:    amount,
		}).Error
}
