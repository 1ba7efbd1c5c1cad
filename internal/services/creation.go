package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

const tempCreationTTL = 24 * time.Hour

// CreationService manages user-saved audio. VIP saves are permanent library
// rows; free-tier saves land under temp/ with an expiry the sweeper enforces.
type CreationService interface {
	Upload(ctx context.Context, userID uuid.UUID, vip bool, title string, audio []byte) (*types.Creation, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Creation, error)
	Delete(ctx context.Context, userID, creationID uuid.UUID) error
}

type creationService struct {
	db           *gorm.DB
	log          *logger.Logger
	creationRepo repos.CreationRepo
	bucket       BucketService
}

func NewCreationService(db *gorm.DB, log *logger.Logger, creationRepo repos.CreationRepo, bucket BucketService) CreationService {
	serviceLog := log.With("service", "CreationService")
	return &creationService{db: db, log: serviceLog, creationRepo: creationRepo, bucket: bucket}
}

func (cs *creationService) Upload(ctx context.Context, userID uuid.UUID, vip bool, title string, audio []byte) (*types.Creation, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	if title == "" {
		title = "Untitled"
	}

	id := uuid.New()
	prefix := "creations"
	if !vip {
		prefix = "temp"
	}
	objectKey := fmt.Sprintf("%s/%s/%s.wav", prefix, userID.String(), id.String())

	if err := cs.bucket.UploadFile(ctx, objectKey, bytes.NewReader(audio)); err != nil {
		cs.log.Error("Creation upload failed", "object_key", objectKey, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	creation := &types.Creation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		ObjectKey: objectKey,
		AudioURL:  cs.bucket.GetPublicURL(objectKey),
		Temporary: !vip,
	}
	if !vip {
		expires := time.Now().Add(tempCreationTTL)
		creation.ExpiresAt = &expires
	}
	if _, err := cs.creationRepo.Create(ctx, nil, []*types.Creation{creation}); err != nil {
		cs.log.Error("Creation insert failed after upload, blob orphaned", "object_key", objectKey, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return creation, nil
}

func (cs *creationService) List(ctx context.Context, userID uuid.UUID) ([]*types.Creation, error) {
	creations, err := cs.creationRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to list creations: %w", err)
	}
	return creations, nil
}

func (cs *creationService) Delete(ctx context.Context, userID, creationID uuid.UUID) error {
	creation, err := cs.creationRepo.Get(ctx, nil, creationID)
	if err != nil {
		return fmt.Errorf("Failed to load creation: %w", err)
	}
	if creation == nil || creation.UserID != userID {
		return fmt.Errorf("creation not found")
	}
	if err := cs.creationRepo.Delete(ctx, nil, creationID); err != nil {
		return fmt.Errorf("Failed to delete creation: %w", err)
	}
	if err := cs.bucket.DeleteFile(ctx, creation.ObjectKey); err != nil {
		// Row is gone; a dangling object is cheap and the sweeper will not
		// resurrect it. Log and move on.
		cs.log.Warn("Failed to delete creation object", "object_key", creation.ObjectKey, "error", err)
	}
	return nil
}
