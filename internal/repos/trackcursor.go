package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

type TrackCursorRepo interface {
	// Get returns the user's cursor, or nil when the user has never been
	// served a track.
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.TrackCursor, error)
	// Upsert writes the cursor unconditionally. Last write wins; callers that
	// need ordering hold the per-user lock around select+advance.
	Upsert(ctx context.Context, tx *gorm.DB, cursor *types.TrackCursor) error
}

type trackCursorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackCursorRepo(db *gorm.DB, baseLog *logger.Logger) TrackCursorRepo {
	repoLog := baseLog.With("repo", "TrackCursorRepo")
	return &trackCursorRepo{db: db, log: repoLog}
}

func (tcr *trackCursorRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.TrackCursor, error) {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}

	var results []*types.TrackCursor
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
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

func (tcr *trackCursorRepo) Upsert(ctx context.Context, tx *gorm.DB, cursor *types.TrackCursor) error {
	transaction := tx
	if transaction == nil {
		transaction = tcr.db
	}

	cursor.UpdatedAt = time.Now()
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_epoch", "last_suffix", "updated_at"}),
		}).
		Create(cursor).Error
}
