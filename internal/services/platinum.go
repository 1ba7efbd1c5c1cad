package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
)

const (
	extendMaxLoops  = 20
	extendSignedTTL = 24 * time.Hour
)

// PlatinumResult is what the extend endpoint returns: a private object plus a
// time-limited signed URL, since extended mixes are a paid feature.
type PlatinumResult struct {
	ObjectKey    string
	SignedURL    string
	ExpiresAt    time.Time
	DurationSecs float64
}

// PlatinumService turns a stored track into a long-play MP3: loop the source
// end to end, fade the edges, transcode, and hand back a signed URL.
type PlatinumService interface {
	ExtendTrack(ctx context.Context, userID uuid.UUID, objectKey string, loops int) (*PlatinumResult, error)
}

type platinumService struct {
	log    *logger.Logger
	bucket BucketService
	media  MediaToolsService
}

func NewPlatinumService(log *logger.Logger, bucket BucketService, media MediaToolsService) PlatinumService {
	serviceLog := log.With("service", "PlatinumService")
	return &platinumService{log: serviceLog, bucket: bucket, media: media}
}

func (ps *platinumService) ExtendTrack(ctx context.Context, userID uuid.UUID, objectKey string, loops int) (*PlatinumResult, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("object key required")
	}
	if loops < 1 {
		loops = 1
	}
	if loops > extendMaxLoops {
		loops = extendMaxLoops
	}

	audio, err := ps.bucket.ReadFile(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	inPath, cleanupIn, err := ps.media.WriteTempFile(ctx, audio, "wav")
	if err != nil {
		return nil, fmt.Errorf("write source temp file: %w", err)
	}
	defer cleanupIn()

	sourceDuration, err := ps.media.ProbeDuration(ctx, inPath)
	if err != nil {
		return nil, fmt.Errorf("probe source duration: %w", err)
	}
	totalDuration := sourceDuration * float64(loops)

	outPath := inPath + ".extended.mp3"
	defer os.Remove(outPath)
	if err := ps.media.FadeLoopToMP3(ctx, inPath, outPath, loops, totalDuration); err != nil {
		return nil, fmt.Errorf("extend transcode: %w", err)
	}

	extended, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read extended output: %w", err)
	}

	outKey := fmt.Sprintf("platinum/%s/%s.mp3", userID.String(), uuid.New().String())
	if upErr := ps.uploadBytes(ctx, outKey, extended); upErr != nil {
		return nil, upErr
	}

	signedURL, err := ps.bucket.GetSignedURL(outKey, extendSignedTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	ps.log.Info("Extended track ready",
		"user_id", userID,
		"source_key", objectKey,
		"object_key", outKey,
		"loops", loops,
		"duration_secs", totalDuration,
	)
	return &PlatinumResult{
		ObjectKey:    outKey,
		SignedURL:    signedURL,
		ExpiresAt:    time.Now().Add(extendSignedTTL),
		DurationSecs: totalDuration,
	}, nil
}

func (ps *platinumService) uploadBytes(ctx context.Context, key string, data []byte) error {
	if err := ps.bucket.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		ps.log.Error("Extended upload failed", "object_key", key, "error", err)
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}
