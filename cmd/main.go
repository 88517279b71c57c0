package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Dosada05/knockout-live/config"
	"github.com/Dosada05/knockout-live/db"
	"github.com/Dosada05/knockout-live/handlers"
	"github.com/Dosada05/knockout-live/realtime"
	"github.com/Dosada05/knockout-live/repositories"
	api "github.com/Dosada05/knockout-live/routes"
	"github.com/Dosada05/knockout-live/services"
	"github.com/Dosada05/knockout-live/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Match report archiving is optional; without R2 credentials results are
	// only kept in Postgres.
	var archiveService *services.ArchiveService
	if cfg.R2AccountID != "" {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiveService = services.NewArchiveService(uploader)
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 not configured, match report archiving disabled")
	}

	wsHub := realtime.NewHub()
	broadcaster := realtime.NewBroadcaster(wsHub)
	wsHub.SetRoomChangeHook(broadcaster.NotifyRoomChange)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	stateRepo := repositories.NewPostgresTournamentStateRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecretKey)
	penaltyService := services.NewPenaltyService(rand.NewSource(time.Now().UnixNano()))
	knockoutService := services.NewKnockoutService(penaltyService)
	bracketService := services.NewBracketService(matchRepo, teamRepo, stateRepo, broadcaster)
	thirdPlaceService := services.NewThirdPlaceService(matchRepo, stateRepo, broadcaster)
	replayService := services.NewReplayService(matchRepo, broadcaster)

	var archiver services.MatchArchiver
	if archiveService != nil {
		archiver = archiveService
	}
	simulationService := services.NewSimulationService(
		matchRepo,
		teamRepo,
		knockoutService,
		bracketService,
		broadcaster,
		archiver,
	)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService)
	tournamentHandler := handlers.NewTournamentHandler(bracketService, thirdPlaceService)
	matchHandler := handlers.NewMatchHandler(simulationService, matchRepo, broadcaster)
	replayHandler := handlers.NewReplayHandler(replayService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		matchHandler,
		replayHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shut down gracefully")
		}
	}
}
