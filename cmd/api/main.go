package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"lostfound/internal/adapter/api/handler"
	apimiddleware "lostfound/internal/adapter/api/middleware"
	"lostfound/internal/adapter/api/router"
	"lostfound/internal/adapter/repository"
	"lostfound/internal/domain/service"
	"lostfound/internal/infrastructure/cloudinary"
	"lostfound/internal/infrastructure/firebase"
	"lostfound/internal/infrastructure/metrics"
	"lostfound/internal/infrastructure/ratelimit"
	"lostfound/internal/infrastructure/storage"
	"lostfound/internal/infrastructure/websocket"
	"lostfound/internal/usecase"
	"lostfound/pkg/config"
	"lostfound/pkg/logger"
	"lostfound/pkg/response"
	"lostfound/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Setup(logger.Options{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	}); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := firebase.CredentialOptions(cfg.FirebaseServiceAccountJSON, cfg.FirebaseServiceAccountPath)
	if err != nil {
		log.Fatalf("Failed to load Firebase credentials: %v", err)
	}

	clients, err := firebase.NewClients(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	defer clients.Close()

	images, closeImages, err := newImageUploader(ctx, cfg, clients)
	if err != nil {
		log.Fatalf("Failed to initialize image host: %v", err)
	}
	defer closeImages()

	reportRepo := repository.NewFirestoreReportRepository(clients.Firestore)
	userRepo := repository.NewFirestoreUserRepository(clients.Firestore)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(clients.Auth, cfg.FirebaseAPIKey)
	recorder := metrics.NewRecorder()

	authUseCase := usecase.NewAuthUseCase(userRepo, firebaseAuthClient)
	lifecycleUseCase := usecase.NewLifecycleUseCase(reportRepo, images, recorder, cfg.MaxPhotoBytes)

	authUseCase.OnAuthStateChange(func(event usecase.AuthStateEvent) {
		if event.Principal == nil {
			logger.Info("Signed out: %s", event.UID)
			return
		}
		logger.Info("Signed in: %s (%s)", event.UID, event.Principal.Role)
	})

	streams := websocket.NewManager()
	handler.Setup(authUseCase, lifecycleUseCase, streams, cfg.AllowedOrigins)

	reportLimiter := ratelimit.NewRateLimiter(cfg.ReportRatePerMinute, cfg.ReportRateBurst)
	reportLimiter.StartCleanupRoutine(10*time.Minute, ctx.Done())

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Validator = validator.New()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	e.Use(apimiddleware.Metrics(recorder))

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)
	adminMiddleware := apimiddleware.NewAdminMiddleware()

	router.Setup(e, authMiddleware, adminMiddleware, reportLimiter, recorder.Handler())

	go func() {
		logger.Info("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	streams.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func newImageUploader(ctx context.Context, cfg *config.Config, clients *firebase.Clients) (service.ImageUploader, func(), error) {
	switch cfg.ImageHost {
	case config.ImageHostGCS:
		client, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.Cloudinary.Folder, clients.Options...)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Storing photos in gs://%s", cfg.StorageBucket)
		return client, func() { client.Close() }, nil

	default:
		c := cfg.Cloudinary
		uploader, err := cloudinary.NewImageUploader(c.CloudName, c.APIKey, c.APISecret, c.UploadPreset, c.Folder)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Storing photos in Cloudinary cloud %s", c.CloudName)
		return uploader, func() {}, nil
	}
}
