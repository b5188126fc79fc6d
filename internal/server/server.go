package server

import (
	"context"
	"fmt"
	"net/http"

	"driftchat/config"
	"driftchat/internal/handler"
	"driftchat/internal/middleware"
	"driftchat/internal/services"
	"driftchat/internal/transport/httpdto"
	"driftchat/pkg/database"
	"driftchat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Chat   *handler.ChatHandler
	Upload *handler.UploadHandler
	WS     *WebSocketHandler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService) {
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	auth := s.engine.Group("/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	s.engine.GET("/ws", handlers.WS.Handle)

	api := s.engine.Group("/api")
	api.Use(middleware.AuthMiddleware(authService))
	{
		api.GET("/users/me", handlers.User.Me)
		api.GET("/users/me/settings", handlers.User.Settings)
		api.POST("/users/:id/block", handlers.User.Block)
		api.DELETE("/users/:id/block", handlers.User.Unblock)

		api.GET("/conversations/private", handlers.Chat.ListPrivate)
		api.GET("/conversations/:id/messages", handlers.Chat.Messages)
		api.POST("/conversations/:id/messages", handlers.Chat.SendMessage)

		api.POST("/uploads", handlers.Upload.Presign)
	}
}

func (s *Server) Start() error {
	s.logger.Infof("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
