package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nextearnx/internal/model"
)

type BanRepository struct {
	db *gorm.DB
}

func NewBanRepository(db *gorm.DB) *BanRepository {
	return &BanRepository{db: db}
}

// Add inserts the mobiles, silently skipping ones already banned. Returns the
// number of rows actually added.
func (r *BanRepository) Add(ctx context.Context, mobiles []string) (int64, error) {
	if len(mobiles) == 0 {
		return 0, nil
	}
	rows := make([]model.BannedNumber, 0, len(mobiles))
	for _, m := range mobiles {
		rows = append(rows, model.BannedNumber{Mobile: m})
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mobile"}},
			DoNothing: true,
		}).
		Create(&rows)
	return result.RowsAffected, result.Error
}

func (r *BanRepository) Remove(ctx context.Context, mobile string) (bool, error) {
	result := r.db.WithContext(ctx).Where("mobile = ?", mobile).Delete(&model.BannedNumber{})
	return result.RowsAffected > 0, result.Error
}

func (r *BanRepository) List(ctx context.Context) ([]string, error) {
	var mobiles []string
	err := r.db.WithContext(ctx).
		Model(&model.BannedNumber{}).
		Order("created_at ASC").
		Pluck("mobile", &mobiles).Error
	return mobiles, err
}

func (r *BanRepository) IsBanned(ctx context.Context, mobile string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BannedNumber{}).
		Where("mobile = ?", mobile).
		Count(&count).Error
	return count > 0, err
}
