package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/subliminalgen/subliminalgen-backend/internal/handlers"
	"github.com/subliminalgen/subliminalgen-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	MusicHandler    *handlers.MusicHandler
	LibraryHandler  *handlers.LibraryHandler
	PlatinumHandler *handlers.PlatinumHandler
	PsycheHandler   *handlers.PsycheHandler
	UserHandler     *handlers.UserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Admin-Key"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)

	api := protected.Group("/api")
	// Music
	api.POST("/music", cfg.MusicHandler.Serve)
	api.POST("/music/generate", cfg.MusicHandler.GenerateDirect)
	// Library
	api.POST("/audio/upload", cfg.LibraryHandler.Upload)
	api.GET("/library", cfg.LibraryHandler.List)
	api.DELETE("/creation/:id", cfg.LibraryHandler.Delete)
	// Platinum
	api.POST("/platinum/extend", cfg.PlatinumHandler.Extend)
	// Psyche
	api.GET("/psyche/tracks", cfg.PsycheHandler.List)
	api.POST("/psyche/tracks", cfg.AuthMiddleware.RequireAdmin(), cfg.PsycheHandler.Add)
	// User
	api.POST("/user/vip", cfg.UserHandler.UpdateVIP)
	api.GET("/user/profile", cfg.UserHandler.GetProfile)

	return router
}
