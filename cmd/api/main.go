package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driftchat/config"
	"driftchat/internal/handler"
	"driftchat/internal/match"
	driftredis "driftchat/internal/redis"
	"driftchat/internal/repository"
	"driftchat/internal/server"
	"driftchat/internal/services"
	"driftchat/internal/storage"
	"driftchat/pkg/database"
	"driftchat/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer l.Logger.Sync()

	database.Connect(cfg)
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient, err := driftredis.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	presence := driftredis.NewPresenceStore(redisClient, 0)

	var s3Client *storage.Client
	if cfg.S3Bucket != "" {
		s3Client, err = storage.NewClient(context.Background(), storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
			PresignTTL: 15 * time.Minute,
		})
		if err != nil {
			log.Fatalf("Failed to initialize s3 client: %v", err)
		}
	}

	userRepo := repository.NewUserRepository(database.DB)
	blockRepo := repository.NewBlockRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)
	msgRepo := repository.NewMessageRepository(database.DB)
	frRepo := repository.NewFriendRequestRepository(database.DB)

	registry := match.NewRegistry()
	hub := server.NewHub(registry, presence)

	var media storage.MediaDeleter
	if s3Client != nil {
		media = s3Client
	} else {
		media = noopMedia{}
	}

	randomTTL := time.Duration(cfg.RandomMessageTTLDays) * 24 * time.Hour
	matchService := services.NewMatchService(
		registry, userRepo, blockRepo, convRepo, msgRepo, media, hub, l, randomTTL)
	friendReqService := services.NewFriendRequestService(
		registry, userRepo, convRepo, frRepo, hub, l, randomTTL)
	hub.SetServices(matchService, friendReqService)

	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo, blockRepo)
	privateTTL := time.Duration(cfg.PrivateMessageTTLDays) * 24 * time.Hour
	chatService := services.NewChatService(convRepo, msgRepo, registry, hub, privateTTL)

	sweeper := services.NewSweeper(msgRepo, media, l,
		time.Duration(cfg.SweepIntervalHours)*time.Hour)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		Chat:   handler.NewChatHandler(chatService),
		Upload: handler.NewUploadHandler(s3Client),
		WS:     server.NewWebSocketHandler(hub, authService),
	}, authService)

	go hub.Run()
	sweeper.Start()

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Errorf("server shutdown: %v", err)
	}
	sweeper.Stop()
	hub.Stop()
}

// noopMedia is used when no object storage is configured; message rows are
// still swept, there is just no external media to reclaim.
type noopMedia struct{}

func (noopMedia) DeleteByURL(ctx context.Context, mediaURL string) error { return nil }
