package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

// ServeResult is what the music endpoint returns: the track plus whether it
// came from the cache or a fresh generation.
type ServeResult struct {
	Track  *types.Track
	Cached bool
}

// MusicService is the distribution engine. Serve either reuses an existing
// track the user has not heard or generates a new one, then advances the
// user's cursor to whatever it returned.
type MusicService interface {
	Serve(ctx context.Context, userID uuid.UUID, req MusicRequest) (*ServeResult, error)
}

type musicService struct {
	db         *gorm.DB
	log        *logger.Logger
	cursorRepo repos.TrackCursorRepo
	selector   SelectorService
	generation GenerationService
	locker     UserLocker

	// inflight collapses concurrent misses for the same (category,
	// fingerprint) into a single generator call across all users.
	inflight singleflight.Group
}

func NewMusicService(
	db *gorm.DB,
	log *logger.Logger,
	cursorRepo repos.TrackCursorRepo,
	selector SelectorService,
	generation GenerationService,
	locker UserLocker,
) MusicService {
	serviceLog := log.With("service", "MusicService")
	return &musicService{
		db:         db,
		log:        serviceLog,
		cursorRepo: cursorRepo,
		selector:   selector,
		generation: generation,
		locker:     locker,
	}
}

func (ms *musicService) Serve(ctx context.Context, userID uuid.UUID, req MusicRequest) (*ServeResult, error) {
	fingerprint := Fingerprint(req)

	release, err := ms.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("acquire serve lock: %w", err)
	}
	defer release()

	cursor, err := ms.cursorRepo.Get(ctx, nil, userID)
	if err != nil {
		ms.log.Error("Cursor read failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: cursor read: %v", ErrLookupFailed, err)
	}

	track, err := ms.selector.Select(ctx, req.Category, fingerprint, cursor)
	if err != nil {
		// Lookup failures are terminal. Generating here would duplicate
		// content the store may already hold.
		return nil, err
	}

	if track != nil {
		if err := ms.advanceCursor(ctx, userID, track); err != nil {
			return nil, err
		}
		ms.log.Info("Serving cached track",
			"user_id", userID,
			"category", req.Category,
			"track_id", track.TrackID(),
		)
		return &ServeResult{Track: track, Cached: true}, nil
	}

	track, err = ms.generateShared(ctx, req, fingerprint)
	if err != nil {
		return nil, err
	}
	if err := ms.advanceCursor(ctx, userID, track); err != nil {
		return nil, err
	}
	ms.log.Info("Serving generated track",
		"user_id", userID,
		"category", req.Category,
		"track_id", track.TrackID(),
	)
	return &ServeResult{Track: track, Cached: false}, nil
}

// generateShared funnels identical misses through one in-flight generation.
// The pipeline runs on a context detached from the caller so one impatient
// client disconnecting cannot abort work other callers are waiting on.
func (ms *musicService) generateShared(ctx context.Context, req MusicRequest, fingerprint string) (*types.Track, error) {
	key := req.Category + "|" + fingerprint
	ch := ms.inflight.DoChan(key, func() (interface{}, error) {
		genCtx := context.WithoutCancel(ctx)
		return ms.generation.GenerateTrack(genCtx, req, fingerprint)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.Track), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (ms *musicService) advanceCursor(ctx context.Context, userID uuid.UUID, track *types.Track) error {
	cursor := &types.TrackCursor{
		UserID:     userID,
		LastEpoch:  track.CreatedEpoch,
		LastSuffix: track.SortSuffix,
	}
	if err := ms.cursorRepo.Upsert(ctx, nil, cursor); err != nil {
		ms.log.Error("Cursor advance failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: cursor advance: %v", ErrPersistenceFailed, err)
	}
	return nil
}
