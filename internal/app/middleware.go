package app

import (
	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/middleware"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, serviceset.Auth, cfg.AdminAPIKey),
	}
}
