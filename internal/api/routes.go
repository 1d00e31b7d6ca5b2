package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"cvforge/internal/api/middleware"
	"cvforge/internal/auth"
	"cvforge/internal/config"
	"cvforge/internal/service"
)

// Dependencies groups what the HTTP layer needs from the composition root.
type Dependencies struct {
	Users       UserRepository
	AuthService *auth.AuthService
	CVs         *service.CVService
	Redis       authRedis
	Notify      notifySubscriber
	Logger      *slog.Logger
	Auth        config.AuthConfig
	Origins     []string
}

// RegisterRoutes mounts the API under /v1.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Users, deps.AuthService, deps.Redis, deps.Logger, deps.Auth)
	cvHandler := NewCVHandler(deps.CVs, deps.Logger)
	wsHandler := NewWsHandler(deps.Notify, deps.AuthService, deps.Logger, deps.Origins)
	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)
		v1.GET("/templates", ListTemplates)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		cvGroup := v1.Group("/cvs")
		cvGroup.Use(authMiddleware)
		{
			cvGroup.GET("", cvHandler.List)
			cvGroup.POST("", cvHandler.Create)
			cvGroup.GET("/:id", cvHandler.Get)
			cvGroup.PATCH("/:id", cvHandler.Update)
			cvGroup.DELETE("/:id", cvHandler.Delete)
			cvGroup.POST("/:id/duplicate", cvHandler.Duplicate)
			cvGroup.GET("/:id/preview", cvHandler.Preview)
			cvGroup.POST("/:id/exports", cvHandler.CreateExport)
			cvGroup.GET("/:id/exports/:exportId", cvHandler.GetExport)
		}
	}
}
