package app

import (
	"github.com/gin-gonic/gin"

	"github.com/subliminalgen/subliminalgen-backend/internal/server"
)

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:     handlerset.Auth,
		AuthMiddleware:  middlewareset.Auth,
		MusicHandler:    handlerset.Music,
		LibraryHandler:  handlerset.Library,
		PlatinumHandler: handlerset.Platinum,
		PsycheHandler:   handlerset.Psyche,
		UserHandler:     handlerset.User,
	})
}
