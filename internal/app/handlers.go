package app

import (
	"github.com/subliminalgen/subliminalgen-backend/internal/handlers"
	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Music    *handlers.MusicHandler
	Library  *handlers.LibraryHandler
	Platinum *handlers.PlatinumHandler
	Psyche   *handlers.PsycheHandler
	User     *handlers.UserHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:     handlers.NewAuthHandler(serviceset.Auth),
		Music:    handlers.NewMusicHandler(serviceset.Music, serviceset.Generation),
		Library:  handlers.NewLibraryHandler(serviceset.Creation),
		Platinum: handlers.NewPlatinumHandler(serviceset.Platinum),
		Psyche:   handlers.NewPsycheHandler(serviceset.Psyche),
		User:     handlers.NewUserHandler(serviceset.User),
	}
}
