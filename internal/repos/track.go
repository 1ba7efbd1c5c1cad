package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

// TrackRepo is the append-only ledger of generated tracks. There is no update
// or delete path on purpose; the sweeper reconciles storage against this table
// but never mutates it.
type TrackRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, track *types.Track) error
	// FirstByFingerprint returns the oldest track in the category with the
	// given fingerprint, skipping the single track identified by
	// (skipEpoch, skipSuffix). Returns nil when no candidate exists.
	FirstByFingerprint(ctx context.Context, tx *gorm.DB, category, fingerprint string, skipEpoch int64, skipSuffix string) (*types.Track, error)
	// NextInCategory returns the oldest track in the category strictly after
	// the (afterEpoch, afterSuffix) sort key, excluding tracks carrying
	// excludeFingerprint. Returns nil when the user has walked past the end.
	NextInCategory(ctx context.Context, tx *gorm.DB, category string, afterEpoch int64, afterSuffix string, excludeFingerprint string) (*types.Track, error)
	Get(ctx context.Context, tx *gorm.DB, epoch int64, suffix string) (*types.Track, error)
	ExistsByObjectKey(ctx context.Context, tx *gorm.DB, objectKey string) (bool, error)
}

type trackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackRepo(db *gorm.DB, baseLog *logger.Logger) TrackRepo {
	repoLog := baseLog.With("repo", "TrackRepo")
	return &trackRepo{db: db, log: repoLog}
}

func (tr *trackRepo) Insert(ctx context.Context, tx *gorm.DB, track *types.Track) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).Create(track).Error
}

func (tr *trackRepo) FirstByFingerprint(ctx context.Context, tx *gorm.DB, category, fingerprint string, skipEpoch int64, skipSuffix string) (*types.Track, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Track
	err := transaction.WithContext(ctx).
		Where("category = ? AND fingerprint = ?", category, fingerprint).
		Where("NOT (created_epoch = ? AND sort_suffix = ?)", skipEpoch, skipSuffix).
		Order("created_epoch ASC, sort_suffix ASC").
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

func (tr *trackRepo) NextInCategory(ctx context.Context, tx *gorm.DB, category string, afterEpoch int64, afterSuffix string, excludeFingerprint string) (*types.Track, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	q := transaction.WithContext(ctx).
		Where("category = ?", category).
		Where("created_epoch > ? OR (created_epoch = ? AND sort_suffix > ?)", afterEpoch, afterEpoch, afterSuffix)
	if excludeFingerprint != "" {
		q = q.Where("fingerprint <> ?", excludeFingerprint)
	}

	var results []*types.Track
	err := q.
		Order("created_epoch ASC, sort_suffix ASC").
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

func (tr *trackRepo) Get(ctx context.Context, tx *gorm.DB, epoch int64, suffix string) (*types.Track, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Track
	err := transaction.WithContext(ctx).
		Where("created_epoch = ? AND sort_suffix = ?", epoch, suffix).
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

func (tr *trackRepo) ExistsByObjectKey(ctx context.Context, tx *gorm.DB, objectKey string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Track{}).
		Where("object_key = ?", objectKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
