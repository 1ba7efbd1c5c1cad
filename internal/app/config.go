package app

import (
	"time"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AdminAPIKey         string
	CategoryProfilePath string

	// LockBackend selects the per-user serve lock: "memory" for a single
	// instance, "redis" when more than one API instance shares the store.
	LockBackend   string
	LockTTL       time.Duration
	SweepInterval time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	adminAPIKey := utils.GetEnv("ADMIN_API_KEY", "", log)
	categoryProfilePath := utils.GetEnv("CATEGORY_PROFILE_PATH", "", log)
	lockBackend := utils.GetEnv("SERVE_LOCK_BACKEND", "memory", log)
	lockTTLSeconds := utils.GetEnvAsInt("SERVE_LOCK_TTL", 30, log)
	sweepIntervalSeconds := utils.GetEnvAsInt("SWEEP_INTERVAL", 3600, log)
	return Config{
		JWTSecretKey:        jwtSecretKey,
		AccessTokenTTL:      time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL:     time.Duration(refreshTokenTTLSeconds) * time.Second,
		AdminAPIKey:         adminAPIKey,
		CategoryProfilePath: categoryProfilePath,
		LockBackend:         lockBackend,
		LockTTL:             time.Duration(lockTTLSeconds) * time.Second,
		SweepInterval:       time.Duration(sweepIntervalSeconds) * time.Second,
	}
}
