package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hbnb-api/internal/config"
	"hbnb-api/internal/events"
	"hbnb-api/internal/middleware"
	"hbnb-api/internal/router"
	"hbnb-api/internal/storage"
	"hbnb-api/internal/storage/dbstore"
	"hbnb-api/internal/storage/filestore"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	path := os.Getenv("HBNB_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Open storage
	engine, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.Storage.Type).Msg("Failed to open storage")
	}
	defer engine.Close()

	if err := engine.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to reach storage")
	}
	log.Info().Str("type", cfg.Storage.Type).Msg("Storage ready")

	// Change events
	var (
		hub        *events.Hub
		publishers events.Multi
	)
	if cfg.Events.WebSocket {
		hub = events.NewHub()
		publishers = append(publishers, hub)
	}
	var amqpPublisher *events.AMQPPublisher
	if cfg.Events.AMQPURL != "" {
		amqpPublisher = events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.AMQPExchange)
		publishers = append(publishers, amqpPublisher)
	}

	// Rate limiting
	var rateLimit func(http.Handler) http.Handler
	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RateLimit.RedisAddr).Msg("Redis unreachable, requests will not be limited until it recovers")
		}
		rateLimit = middleware.RateLimit(cfg.RateLimit, rdb)
	}

	// Setup router
	handler := router.New(router.Deps{
		Engine:     engine,
		Events:     publishers,
		Hub:        hub,
		BcryptCost: cfg.Security.BcryptCost,
		RateLimit:  rateLimit,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
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

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown
	if hub != nil {
		hub.Close()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if amqpPublisher != nil {
		amqpPublisher.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	log.Info().Msg("Server exited")
}

// openStorage builds the configured storage engine
func openStorage(ctx context.Context, cfg *config.Config) (storage.Engine, error) {
	switch cfg.Storage.Type {
	case config.StorageDB:
		db, err := dbstore.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := dbstore.Migrate(ctx, db, cfg.IsTest()); err != nil {
			db.Close()
			return nil, err
		}
		return dbstore.New(db), nil

	case config.StorageFile:
		if cfg.S3.Bucket != "" {
			blob, err := filestore.NewS3Blob(ctx, filestore.S3Options{
				Region:    cfg.S3.Region,
				Bucket:    cfg.S3.Bucket,
				Key:       cfg.S3.Key,
				AccessKey: cfg.S3.AccessKey,
				SecretKey: cfg.S3.SecretKey,
				Endpoint:  cfg.S3.Endpoint,
			})
			if err != nil {
				return nil, err
			}
			log.Info().Str("bucket", cfg.S3.Bucket).Str("key", cfg.S3.Key).Msg("Using S3 graph storage")
			return filestore.New(blob), nil
		}
		log.Info().Str("path", cfg.Storage.FilePath).Msg("Using file graph storage")
		return filestore.New(filestore.NewFileBlob(cfg.Storage.FilePath)), nil
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
