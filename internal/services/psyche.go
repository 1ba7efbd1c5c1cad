package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

// PsycheLibrary is the curated list plus the version clients poll against.
type PsycheLibrary struct {
	Version int64
	Tracks  []*types.PsycheTrack
}

type PsycheService interface {
	List(ctx context.Context) (*PsycheLibrary, error)
	// Add uploads the audio, inserts the row, and bumps the library version
	// in one transaction over the relational side.
	Add(ctx context.Context, name, category string, sortOrder int, audio []byte) (*types.PsycheTrack, int64, error)
}

type psycheService struct {
	db         *gorm.DB
	log        *logger.Logger
	psycheRepo repos.PsycheTrackRepo
	bucket     BucketService
}

func NewPsycheService(db *gorm.DB, log *logger.Logger, psycheRepo repos.PsycheTrackRepo, bucket BucketService) PsycheService {
	serviceLog := log.With("service", "PsycheService")
	return &psycheService{db: db, log: serviceLog, psycheRepo: psycheRepo, bucket: bucket}
}

func (ps *psycheService) List(ctx context.Context) (*PsycheLibrary, error) {
	version, err := ps.psycheRepo.GetVersion(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to read library version: %w", err)
	}
	tracks, err := ps.psycheRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to list psyche tracks: %w", err)
	}
	return &PsycheLibrary{Version: version, Tracks: tracks}, nil
}

func (ps *psycheService) Add(ctx context.Context, name, category string, sortOrder int, audio []byte) (*types.PsycheTrack, int64, error) {
	if name == "" || category == "" {
		return nil, 0, fmt.Errorf("name and category required")
	}
	if len(audio) == 0 {
		return nil, 0, fmt.Errorf("empty audio payload")
	}

	id := uuid.New()
	objectKey := fmt.Sprintf("psyche/%s/%s.wav", category, id.String())
	if err := ps.bucket.UploadFile(ctx, objectKey, bytes.NewReader(audio)); err != nil {
		ps.log.Error("Psyche upload failed", "object_key", objectKey, "error", err)
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	track := &types.PsycheTrack{
		ID:        id,
		Name:      name,
		Category:  category,
		ObjectKey: objectKey,
		AudioURL:  ps.bucket.GetPublicURL(objectKey),
		SortOrder: sortOrder,
	}
	var version int64
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ps.psycheRepo.Create(ctx, tx, []*types.PsycheTrack{track}); err != nil {
			return fmt.Errorf("Failed to insert psyche track: %w", err)
		}
		v, err := ps.psycheRepo.BumpVersion(ctx, tx)
		if err != nil {
			return fmt.Errorf("Failed to bump library version: %w", err)
		}
		version = v
		return nil
	})
	if err != nil {
		ps.log.Error("Psyche insert failed after upload, blob orphaned", "object_key", objectKey, "error", err)
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	ps.log.Info("Psyche track added", "name", name, "category", category, "version", version)
	return track, version, nil
}
