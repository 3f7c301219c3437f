package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"nextearnx/internal/model"
)

var (
	ErrLifafaNotFound      = errors.New("lifafa not found")
	ErrLifafaFull          = errors.New("all lifafa slots are claimed")
	ErrLifafaStatusInvalid = errors.New("invalid lifafa status transition")
	ErrDuplicateCode       = errors.New("lifafa code already exists")
)

type LifafaRepository struct {
	db *gorm.DB
}

func NewLifafaRepository(db *gorm.DB) *LifafaRepository {
	return &LifafaRepository{db: db}
}

func (r *LifafaRepository) Create(ctx context.Context, tx *gorm.DB, lifafa *model.Lifafa) error {
	if tx == nil {
		tx = r.db
	}
	return translateCreateError(tx.WithContext(ctx).Create(lifafa).Error)
}

// translateCreateError maps a unique-index violation on the code column onto
// ErrDuplicateCode so the service retry can match it. Relies on the
// connection being opened with TranslateError.
func translateCreateError(err error) error {
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCode
	}
	return err
}

func (r *LifafaRepository) GetByCode(ctx context.Context, code string) (*model.Lifafa, error) {
	var lifafa model.Lifafa
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&lifafa).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLifafaNotFound
		}
		return nil, err
	}
	return &lifafa, nil
}

// GetVisibleByCode is the claim-path lookup: refunded lifafas read as not
// found, matching the share-link behavior after a refund.
func (r *LifafaRepository) GetVisibleByCode(ctx context.Context, code string) (*model.Lifafa, error) {
	lifafa, err := r.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if lifafa.Status == model.LifafaStatusRefunded {
		return nil, ErrLifafaNotFound
	}
	return lifafa, nil
}

func (r *LifafaRepository) ListByCreator(ctx context.Context, creator string) ([]*model.Lifafa, error) {
	var lifafas []*model.Lifafa
	err := r.db.WithContext(ctx).
		Where("creator = ? AND status <> ?", creator, model.LifafaStatusRefunded).
		Order("created_at DESC").
		Find(&lifafas).Error
	return lifafas, err
}

func (r *LifafaRepository) ListOpenByCreator(ctx context.Context, creator string) ([]*model.Lifafa, error) {
	var lifafas []*model.Lifafa
	err := r.db.WithContext(ctx).
		Where("creator = ? AND status = ?", creator, model.LifafaStatusOpen).
		Order("created_at DESC").
		Find(&lifafas).Error
	return lifafas, err
}

func (r *LifafaRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Lifafa{}).
		Where("status = ?", model.LifafaStatusOpen).
		Count(&count).Error
	return count, err
}

// AddClaim inserts the claim row and bumps the slot counter in one guarded
// update. The `claimed_count < count` condition is the authoritative slot
// check; a zero-row update means the lifafa filled up underneath us.
func (r *LifafaRepository) AddClaim(ctx context.Context, tx *gorm.DB, claim *model.LifafaClaim) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Lifafa{}).
		Where("code = ? AND status = ? AND claimed_count < count", claim.LifafaCode, model.LifafaStatusOpen).
		Update("claimed_count", gorm.Expr("claimed_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLifafaFull
	}

	return tx.WithContext(ctx).Create(claim).Error
}

func (r *LifafaRepository) HasClaim(ctx context.Context, code, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.LifafaClaim{}).
		Where("lifafa_code = ? AND username = ?", code, username).
		Count(&count).Error
	return count > 0, err
}

func (r *LifafaRepository) ListClaims(ctx context.Context, code string) ([]*model.LifafaClaim, error) {
	var claims []*model.LifafaClaim
	err := r.db.WithContext(ctx).
		Where("lifafa_code = ?", code).
		Order("created_at ASC").
		Find(&claims).Error
	return claims, err
}

// UpdateStatus moves the lifafa between states, refusing transitions outside
// the OPEN → CLOSED | REFUNDED machine.
func (r *LifafaRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, code, fromStatus, toStatus string) error {
	if !model.LifafaCanTransition(fromStatus, toStatus) {
		return ErrLifafaStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Lifafa{}).
		Where("code = ? AND status = ?", code, fromStatus).
		Update("status", toStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLifafaStatusInvalid
	}
	return nil
}
