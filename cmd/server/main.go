package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tunedeck/internal/auth"
	"tunedeck/internal/config"
	apphttp "tunedeck/internal/http"
	"tunedeck/internal/repository/sqlite"
	"tunedeck/internal/service"
	"tunedeck/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	songRepo := sqlite.NewSongRepository(db)
	playlistRepo := sqlite.NewPlaylistRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := songRepo.Init(ctx); err != nil {
		logger.Fatalf("init song repository: %v", err)
	}
	if err := playlistRepo.Init(ctx); err != nil {
		logger.Fatalf("init playlist repository: %v", err)
	}

	clock := auth.SystemClock()
	policy := auth.LockoutPolicy{
		MaxAttempts:  cfg.Auth.MaxLoginAttempts,
		LockDuration: time.Duration(cfg.Auth.LockMinutes) * time.Minute,
	}

	userService := service.NewUserService(userRepo, policy, clock)

	mediaStore, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	catalogService := service.NewCatalogService(songRepo, playlistRepo, mediaStore, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, clock)
	loginLimiter := apphttp.NewRateLimiter(
		cfg.RateLimit.LoginMax,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
		clock,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		catalogService,
		tokens,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		loginLimiter,
		cfg.Auth.SecureCookies,
		logger,
	)
	handler.RegisterRoutes(router, cfg.CORS.AllowOrigins)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildStorage constructs the media object store, or nil when no bucket is
// configured (upload endpoints then report storage as unavailable).
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured; track uploads disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
