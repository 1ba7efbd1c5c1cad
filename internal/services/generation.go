package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

// Free-tier generations are capped; paid users may request up to the long cap.
const (
	freeDurationCapSecs = 180
	vipDurationCapSecs  = 600
	defaultDurationSecs = 60
)

// trackObjectRoot is the shared object-store prefix for generated ledger
// tracks. The sweeper scans this one prefix, so every category lands under
// it, including ad-hoc categories with no configured profile.
const trackObjectRoot = "tracks/"

// GenerationService owns the generate-upload-persist pipeline. The upload
// happens before the ledger insert; if the insert then fails the blob is
// orphaned and left for the sweeper, never retried inline.
type GenerationService interface {
	// GenerateTrack runs the full pipeline and returns the inserted ledger
	// row. The caller is responsible for advancing the cursor.
	GenerateTrack(ctx context.Context, req MusicRequest, fingerprint string) (*types.Track, error)
	// GenerateDirect generates and uploads without touching the ledger or any
	// cursor. Used by the uncached endpoint.
	GenerateDirect(ctx context.Context, req MusicRequest) (string, error)
}

type generationService struct {
	db        *gorm.DB
	log       *logger.Logger
	trackRepo repos.TrackRepo
	generator MusicGenerator
	bucket    BucketService
	profiles  map[string]GenProfile
}

func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	trackRepo repos.TrackRepo,
	generator MusicGenerator,
	bucket BucketService,
	profiles map[string]GenProfile,
) GenerationService {
	serviceLog := log.With("service", "GenerationService")
	return &generationService{
		db:        db,
		log:       serviceLog,
		trackRepo: trackRepo,
		generator: generator,
		bucket:    bucket,
		profiles:  profiles,
	}
}

// capDuration clamps the requested duration by tier. Tier affects only this
// clamp, never the fingerprint.
func capDuration(secs int, vip bool) int {
	if secs <= 0 {
		return defaultDurationSecs
	}
	limit := freeDurationCapSecs
	if vip {
		limit = vipDurationCapSecs
	}
	if secs > limit {
		return limit
	}
	return secs
}

func (gs *generationService) generateBytes(ctx context.Context, req MusicRequest) (string, []byte, int, error) {
	prompt := RenderPrompt(req)
	duration := capDuration(req.DurationSecs, req.VIP)
	profile := ProfileFor(gs.profiles, req.Category)

	audio, err := gs.generator.Generate(ctx, prompt, duration, profile)
	if err != nil {
		gs.log.Error("Generator call failed", "category", req.Category, "error", err)
		return "", nil, 0, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return prompt, audio, duration, nil
}

func (gs *generationService) GenerateTrack(ctx context.Context, req MusicRequest, fingerprint string) (*types.Track, error) {
	prompt, audio, duration, err := gs.generateBytes(ctx, req)
	if err != nil {
		return nil, err
	}

	epoch, suffix := NewTrackSortKey()
	id := types.FormatTrackID(epoch, suffix)
	objectKey := fmt.Sprintf("%s%s/%s.wav", trackObjectRoot, req.Category, id)

	if err := gs.bucket.UploadFile(ctx, objectKey, bytes.NewReader(audio)); err != nil {
		gs.log.Error("Track upload failed", "object_key", objectKey, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	track := &types.Track{
		CreatedEpoch: epoch,
		SortSuffix:   suffix,
		Category:     req.Category,
		Fingerprint:  fingerprint,
		Prompt:       prompt,
		DurationSecs: duration,
		ObjectKey:    objectKey,
		AudioURL:     gs.bucket.GetPublicURL(objectKey),
		Metadata:     datatypes.JSON([]byte(`{}`)),
		CreatedAt:    time.Now(),
	}
	if err := gs.trackRepo.Insert(ctx, nil, track); err != nil {
		// The blob is already in the bucket with no ledger row. The sweeper
		// reconciles it; retrying the insert here could double-serve.
		gs.log.Error("Ledger insert failed after upload, blob orphaned",
			"object_key", objectKey,
			"track_id", id,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return track, nil
}

func (gs *generationService) GenerateDirect(ctx context.Context, req MusicRequest) (string, error) {
	_, audio, _, err := gs.generateBytes(ctx, req)
	if err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("direct/%s.wav", uuid.New().String())
	if err := gs.bucket.UploadFile(ctx, objectKey, bytes.NewReader(audio)); err != nil {
		gs.log.Error("Direct upload failed", "object_key", objectKey, "error", err)
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return gs.bucket.GetPublicURL(objectKey), nil
}
