package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

// SelectorService runs the two-phase cache lookup. Phase one prefers an exact
// fingerprint match inside the category, skipping only the track the user was
// served last. Phase two walks the category sequentially from the cursor,
// excluding the fingerprint pool phase one already considered.
//
// A nil track with a nil error is a genuine miss; a store failure comes back
// wrapped in ErrLookupFailed and must never be treated as a miss.
type SelectorService interface {
	Select(ctx context.Context, category, fingerprint string, cursor *types.TrackCursor) (*types.Track, error)
}

type selectorService struct {
	db        *gorm.DB
	log       *logger.Logger
	trackRepo repos.TrackRepo
}

func NewSelectorService(db *gorm.DB, log *logger.Logger, trackRepo repos.TrackRepo) SelectorService {
	serviceLog := log.With("service", "SelectorService")
	return &selectorService{db: db, log: serviceLog, trackRepo: trackRepo}
}

func (ss *selectorService) Select(ctx context.Context, category, fingerprint string, cursor *types.TrackCursor) (*types.Track, error) {
	var lastEpoch int64
	var lastSuffix string
	if cursor != nil {
		lastEpoch = cursor.LastEpoch
		lastSuffix = cursor.LastSuffix
	}

	exact, err := ss.trackRepo.FirstByFingerprint(ctx, nil, category, fingerprint, lastEpoch, lastSuffix)
	if err != nil {
		ss.log.Error("Fingerprint lookup failed", "category", category, "error", err)
		return nil, fmt.Errorf("%w: fingerprint lookup: %v", ErrLookupFailed, err)
	}
	if exact != nil {
		return exact, nil
	}

	next, err := ss.trackRepo.NextInCategory(ctx, nil, category, lastEpoch, lastSuffix, fingerprint)
	if err != nil {
		ss.log.Error("Sequential lookup failed", "category", category, "error", err)
		return nil, fmt.Errorf("%w: sequential lookup: %v", ErrLookupFailed, err)
	}
	return next, nil
}
