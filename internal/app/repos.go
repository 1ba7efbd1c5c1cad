package app

import (
	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
)

type Repos struct {
	User        repos.UserRepo
	UserToken   repos.UserTokenRepo
	Track       repos.TrackRepo
	TrackCursor repos.TrackCursorRepo
	Creation    repos.CreationRepo
	PsycheTrack repos.PsycheTrackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Track:       repos.NewTrackRepo(db, log),
		TrackCursor: repos.NewTrackCursorRepo(db, log),
		Creation:    repos.NewCreationRepo(db, log),
		PsycheTrack: repos.NewPsycheTrackRepo(db, log),
	}
}
