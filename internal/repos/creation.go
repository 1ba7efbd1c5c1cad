package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

type CreationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, creations []*types.Creation) ([]*types.Creation, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Creation, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Creation, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListExpired(ctx context.Context, tx *gorm.DB) ([]*types.Creation, error)
}

type creationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreationRepo(db *gorm.DB, baseLog *logger.Logger) CreationRepo {
	repoLog := baseLog.With("repo", "CreationRepo")
	return &creationRepo{db: db, log: repoLog}
}

func (cr *creationRepo) Create(ctx context.Context, tx *gorm.DB, creations []*types.Creation) ([]*types.Creation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(creations) == 0 {
		return []*types.Creation{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&creations).Error; err != nil {
		return nil, err
	}
	return creations, nil
}

func (cr *creationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Creation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Creation
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *creationRepo) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Creation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Creation
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *creationRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&types.Creation{}).Error
}

func (cr *creationRepo) ListExpired(ctx context.Context, tx *gorm.DB) ([]*types.Creation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Creation
	if err := transaction.WithContext(ctx).
		Where("temporary = ? AND expires_at IS NOT NULL AND expires_at < ?", true, time.Now()).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
