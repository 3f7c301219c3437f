package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nextearnx/internal/model"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.LedgerEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *LedgerRepository) ListByUsername(ctx context.Context, username string, page, pageSize int) ([]*model.LedgerEntry, int64, error) {
	var entries []*model.LedgerEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("username = ?", username)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, err
}

// ListAll returns every principal's entries, newest first. Used by the admin
// audit view, which merges and de-duplicates across principals.
func (r *LedgerRepository) ListAll(ctx context.Context) ([]*model.LedgerEntry, error) {
	var entries []*model.LedgerEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *LedgerRepository) SumDeposits(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("type = ? AND txn_id LIKE ?", model.EntryTypeCredit, "DEPOSIT%").
		Select("COALESCE(SUM(amount), 0)").
		Row().
		Scan(&total)
	return total, err
}
