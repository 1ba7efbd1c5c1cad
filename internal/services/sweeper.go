package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
)

// orphanSafetyWindow keeps the sweeper away from objects whose ledger insert
// may still be in flight.
const orphanSafetyWindow = 1 * time.Hour

// SweeperService is the background reconciler. Each pass it (a) deletes
// expired temp creations, bucket object first then row, and (b) removes
// generated blobs that have no ledger row, which happens when an upload
// succeeded and the insert after it failed.
type SweeperService interface {
	Start(ctx context.Context)
	RunOnce(ctx context.Context) error
}

type sweeperService struct {
	db           *gorm.DB
	log          *logger.Logger
	trackRepo    repos.TrackRepo
	creationRepo repos.CreationRepo
	bucket       BucketService
	interval     time.Duration
}

func NewSweeperService(
	db *gorm.DB,
	log *logger.Logger,
	trackRepo repos.TrackRepo,
	creationRepo repos.CreationRepo,
	bucket BucketService,
	interval time.Duration,
) SweeperService {
	serviceLog := log.With("service", "SweeperService")
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &sweeperService{
		db:           db,
		log:          serviceLog,
		trackRepo:    trackRepo,
		creationRepo: creationRepo,
		bucket:       bucket,
		interval:     interval,
	}
}

func (sw *sweeperService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sw.RunOnce(ctx); err != nil {
					sw.log.Warn("Sweep pass failed", "error", err)
				}
			}
		}
	}()
}

func (sw *sweeperService) RunOnce(ctx context.Context) error {
	if err := sw.sweepExpiredCreations(ctx); err != nil {
		return err
	}
	return sw.sweepOrphanedTracks(ctx)
}

func (sw *sweeperService) sweepExpiredCreations(ctx context.Context) error {
	expired, err := sw.creationRepo.ListExpired(ctx, nil)
	if err != nil {
		return err
	}
	for _, c := range expired {
		if err := sw.bucket.DeleteFile(ctx, c.ObjectKey); err != nil {
			sw.log.Warn("Failed to delete expired temp object", "object_key", c.ObjectKey, "error", err)
			continue
		}
		if err := sw.creationRepo.Delete(ctx, nil, c.ID); err != nil {
			sw.log.Warn("Failed to delete expired creation row", "creation_id", c.ID, "error", err)
			continue
		}
		sw.log.Info("Removed expired temp creation", "creation_id", c.ID)
	}
	return nil
}

func (sw *sweeperService) sweepOrphanedTracks(ctx context.Context) error {
	cutoff := time.Now().Add(-orphanSafetyWindow)
	// One scan over the shared track root covers every category, including
	// ones that never had a configured profile.
	objects, err := sw.bucket.ListPrefix(ctx, trackObjectRoot)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if obj.Created.After(cutoff) {
			continue
		}
		exists, err := sw.trackRepo.ExistsByObjectKey(ctx, nil, obj.Key)
		if err != nil {
			sw.log.Warn("Failed to check ledger for object", "object_key", obj.Key, "error", err)
			continue
		}
		if exists {
			continue
		}
		if err := sw.bucket.DeleteFile(ctx, obj.Key); err != nil {
			sw.log.Warn("Failed to delete orphaned blob", "object_key", obj.Key, "error", err)
			continue
		}
		sw.log.Info("Removed orphaned blob", "object_key", obj.Key, "size", obj.Size)
	}
	return nil
}
