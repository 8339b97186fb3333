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

	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/api"
	"github.com/sathvikparasa/warnabrotha/internal/api/handler"
	"github.com/sathvikparasa/warnabrotha/internal/api/middleware"
	"github.com/sathvikparasa/warnabrotha/internal/config"
	"github.com/sathvikparasa/warnabrotha/internal/logging"
	"github.com/sathvikparasa/warnabrotha/internal/notify"
	"github.com/sathvikparasa/warnabrotha/internal/repository/postgresql"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load configuration: %v", err)
	}

	logger, err := logging.NewLogger("warnabrotha", cfg.Debug)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Database
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgresql.RunMigrations(migrateCtx, db); err != nil {
		cancelMigrate()
		logger.Fatal("could not run migrations", zap.Error(err))
	}
	cancelMigrate()
	logger.Info("database ready")

	// 3. Repositories
	deviceRepo := postgresql.NewPgDeviceRepository(db)
	lotRepo := postgresql.NewPgParkingLotRepository(db)
	sessionRepo := postgresql.NewPgParkingSessionRepository(db)
	sightingRepo := postgresql.NewPgSightingRepository(db)
	voteRepo := postgresql.NewPgVoteRepository(db)
	notificationRepo := postgresql.NewPgNotificationRepository(db)

	// 4. Live notification hub
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	hub := notify.NewHub(logger)
	go hub.Run(backgroundCtx)

	// 5. Services
	authService := service.NewAuthService(deviceRepo, &service.LogEmailSender{Logger: logger}, cfg, logger)
	lotService := service.NewLotService(lotRepo, sessionRepo, sightingRepo)
	sessionService := service.NewSessionService(sessionRepo, lotRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, sessionRepo, deviceRepo, hub, logger)
	sightingService := service.NewSightingService(sightingRepo, lotRepo, notificationService, cfg.SightingCooldown, logger)
	feedService := service.NewFeedService(sightingRepo, voteRepo, lotRepo, cfg.FeedWindow, logger)
	predictionService := service.NewPredictionService(sightingRepo, lotRepo, nil, logger)
	reminderService := service.NewReminderService(sessionRepo, lotRepo, notificationService, cfg.ReminderAfter, logger)

	// 6. Reminder scan
	go reminderService.Run(backgroundCtx, cfg.ReminderInterval)

	// 7. Router
	authMiddleware := middleware.NewAuthMiddleware(authService, deviceRepo)
	wsHandler := handler.NewWebSocketHandler(hub, authService, deviceRepo, logger)
	router := api.SetupRouter(api.Services{
		Auth:          authService,
		Lots:          lotService,
		Sessions:      sessionService,
		Sightings:     sightingService,
		Feed:          feedService,
		Notifications: notificationService,
		Predictions:   predictionService,
	}, authMiddleware, wsHandler)

	// 8. HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancelBackground()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
