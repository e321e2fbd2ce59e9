package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poi-backend/internal/config"
	"poi-backend/internal/handlers"
	"poi-backend/internal/repository"
	"poi-backend/internal/repository/memstore"
	"poi-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run loads configuration from the file named by POI_CONFIG (default config.yaml)
// and serves the API until SIGINT or SIGTERM
func Run() {
	configPath := os.Getenv("POI_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Initialize storage
	var (
		userRepo services.UserStore
		poiRepo  services.POIStore
		health   handlers.HealthCheck
	)
	switch cfg.Database.Storage {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage, data will not survive a restart")
		userRepo = memstore.NewUserStore()
		poiRepo = memstore.NewPOIStore()
	default:
		db, err := connectPostgres(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		userRepo = repository.NewUserRepository(db)
		poiRepo = repository.NewPOIRepository(db)
		health = db.Ping
	}

	// Initialize services
	userService := services.NewUserService(userRepo)
	tokenService := services.NewTokenService(userRepo, userService, cfg.Auth.TokenTTL)
	poiService := services.NewPOIService(poiRepo)
	wsHub := services.NewWSHub()

	router := handlers.NewRouter(handlers.RouterDeps{
		UserService:  userService,
		TokenService: tokenService,
		POIService:   poiService,
		WSHub:        wsHub,
		URLs:         handlers.URLBuilder{PublicURL: cfg.Server.PublicURL},
		Health:       health,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("storage", cfg.Database.Storage).
			Dur("token_ttl", cfg.Auth.TokenTTL).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	wsHub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func connectPostgres(cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Msg("Database schema applied")
	}
	return db, nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
