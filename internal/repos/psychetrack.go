package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

type PsycheTrackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tracks []*types.PsycheTrack) ([]*types.PsycheTrack, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.PsycheTrack, error)
	GetVersion(ctx context.Context, tx *gorm.DB) (int64, error)
	BumpVersion(ctx context.Context, tx *gorm.DB) (int64, error)
}

type psycheTrackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPsycheTrackRepo(db *gorm.DB, baseLog *logger.Logger) PsycheTrackRepo {
	repoLog := baseLog.With("repo", "PsycheTrackRepo")
	return &psycheTrackRepo{db: db, log: repoLog}
}

func (pr *psycheTrackRepo) Create(ctx context.Context, tx *gorm.DB, tracks []*types.PsycheTrack) ([]*types.PsycheTrack, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(tracks) == 0 {
		return []*types.PsycheTrack{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

func (pr *psycheTrackRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.PsycheTrack, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.PsycheTrack
	if err := transaction.WithContext(ctx).
		Order("sort_order ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *psycheTrackRepo) GetVersion(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.PsycheLibraryVersion
	err := transaction.WithContext(ctx).
		Where("id = ?", 1).
		Limit(1).
		Find(&results).Error
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Version, nil
}

func (pr *psycheTrackRepo) BumpVersion(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	current, err := pr.GetVersion(ctx, transaction)
	if err != nil {
		return 0, err
	}
	next := &types.PsycheLibraryVersion{
		ID:        1,
		Version:   current + 1,
		UpdatedAt: time.Now(),
	}
	err = transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"version", "updated_at"}),
		}).
		Create(next).Error
	if err != nil {
		return 0, err
	}
	return next.Version, nil
}
