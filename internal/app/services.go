package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Selector   services.SelectorService
	Generation services.GenerationService
	Music      services.MusicService
	Creation   services.CreationService
	Platinum   services.PlatinumService
	Psyche     services.PsycheService
	Sweeper    services.SweeperService
	Bucket     services.BucketService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	bucket, err := services.NewBucketService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init bucket service: %w", err)
	}

	generator, err := services.NewLyriaClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init generator client: %w", err)
	}

	profiles, err := services.LoadProfiles(cfg.CategoryProfilePath, log)
	if err != nil {
		return Services{}, fmt.Errorf("load category profiles: %w", err)
	}

	var locker services.UserLocker
	switch strings.ToLower(cfg.LockBackend) {
	case "redis":
		client, err := newRedisClient(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis client: %w", err)
		}
		locker = services.NewRedisLocker(log, client, cfg.LockTTL)
	default:
		locker = services.NewKeyedMutexLocker()
	}

	auth := services.NewAuthService(db, log, reposet.User, reposet.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	user := services.NewUserService(db, log, reposet.User)
	selector := services.NewSelectorService(db, log, reposet.Track)
	generation := services.NewGenerationService(db, log, reposet.Track, generator, bucket, profiles)
	music := services.NewMusicService(db, log, reposet.TrackCursor, selector, generation, locker)
	creation := services.NewCreationService(db, log, reposet.Creation, bucket)
	media := services.NewMediaToolsService(log)
	platinum := services.NewPlatinumService(log, bucket, media)
	psyche := services.NewPsycheService(db, log, reposet.PsycheTrack, bucket)
	sweeper := services.NewSweeperService(db, log, reposet.Track, reposet.Creation, bucket, cfg.SweepInterval)

	return Services{
		Auth:       auth,
		User:       user,
		Selector:   selector,
		Generation: generation,
		Music:      music,
		Creation:   creation,
		Platinum:   platinum,
		Psyche:     psyche,
		Sweeper:    sweeper,
		Bucket:     bucket,
	}, nil
}
