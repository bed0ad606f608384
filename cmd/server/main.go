package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/api"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/config"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/database"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/repository"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
	"github.com/Mr-Documents/SpaceThreadsBlog/pkg/logger"
)

func main() {
	// Optional .env file; real environment variables win
	envErr := godotenv.Load()

	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Failed to read .env file")
	}
	log.Info().Str("backend", cfg.Backend.BaseURL).Msg("Starting SpaceThreads gateway...")

	// Initialize session store
	repos, closeStore := openStore(cfg, log)
	defer closeStore()

	// Initialize services
	client := backend.New(cfg.Backend, log)
	services := service.NewServices(repos, client, cfg, log)

	// Start background session sweeper
	go services.Sweeper.Start(context.Background())

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	services.Sweeper.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited gracefully")
}

// openStore connects the configured session store
func openStore(cfg *config.Config, log zerolog.Logger) (*repository.Repositories, func()) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using redis session store")
		return repository.NewRedis(client), func() { client.Close() }

	default:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		log.Info().Msg("Using postgres session store")
		return repository.New(db), func() { db.Close() }
	}
}
