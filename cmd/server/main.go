package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"nourishnet-route-service/internal/adapters/cache"
	"nourishnet-route-service/internal/adapters/events"
	"nourishnet-route-service/internal/adapters/repositories"
	"nourishnet-route-service/internal/api"
	"nourishnet-route-service/internal/config"
	"nourishnet-route-service/internal/platform/db"
	"nourishnet-route-service/internal/ports"
	"nourishnet-route-service/internal/services"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (SQLite or Postgres, Redis, Kafka) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, sqliteDB, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open stop repository")
	}
	defer closeRepo()

	planner := services.NewRoutePlanner(repo, cfg.SequencerOptions())
	planner.CacheTTL = cfg.RouteCacheTTL
	planner.Concurrency = cfg.PlanConcurrency

	switch {
	case cfg.RedisURL != "":
		rc, err := cache.NewRedisRouteCacheFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to redis")
		}
		defer rc.Close()
		planner.Cache = rc
		log.Info().Str("backend", "redis").Dur("ttl", cfg.RouteCacheTTL).Msg("route cache enabled")
	case sqliteDB != nil:
		sc := cache.NewSqliteRouteCache(sqliteDB)
		if err := sc.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("cannot prepare route cache")
		}
		planner.Cache = sc
		log.Info().Str("backend", "sqlite").Dur("ttl", cfg.RouteCacheTTL).Msg("route cache enabled")
	}

	if cfg.KafkaBroker != "" {
		pub := events.NewKafkaRoutePublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer pub.Close()
		planner.Publisher = pub
		log.Info().Str("topic", cfg.KafkaTopic).Msg("route events enabled")
	}

	router := api.NewRouter(planner, cfg.SequencerOptions(), cfg.MaxStops)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Str("db_driver", cfg.DBDriver).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// openRepository selects the stop repository for cfg.DBDriver and prepares its schema.
// SQLite is also seeded for local runs when the seed file exists, and its handle is
// returned so the route cache can share it.
func openRepository(ctx context.Context, cfg config.Config) (ports.StopRepository, *sql.DB, func(), error) {
	switch cfg.DBDriver {
	case "postgres":
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}

		sqlDB := stdlib.OpenDBFromPool(pool)
		if err := repositories.InitSchema(sqlDB, repositories.DialectPostgres); err != nil {
			_ = sqlDB.Close()
			pool.Close()
			return nil, nil, nil, fmt.Errorf("open repository: %w", err)
		}
		_ = sqlDB.Close()

		return repositories.NewPostgresStopRepository(pool), nil, pool.Close, nil

	case "sqlite":
		sqlDB, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}

		if err := initAndSeed(sqlDB, cfg.SeedPath); err != nil {
			_ = sqlDB.Close()
			return nil, nil, nil, err
		}

		return repositories.NewSqliteStopRepository(sqlDB), sqlDB, func() { _ = sqlDB.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("open repository: unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func initAndSeed(sqlDB *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(sqlDB, repositories.DialectSQLite); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		log.Info().Str("seed_path", seedPath).Msg("seed file not found, skipping seed")
		return nil
	}

	if err := repositories.SeedFromJSON(sqlDB, repositories.DialectSQLite, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
