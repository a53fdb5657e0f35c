package main

import (
	"database/sql"
	"flag"
	"nourishnet-route-service/internal/adapters/repositories"
	"nourishnet-route-service/internal/config"
	"nourishnet-route-service/internal/platform/db"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	driver := strings.ToLower(config.Get("DB_DRIVER", "sqlite"))
	seedPath := config.Get("SEED_PATH", "data/seeds/nourishnet.json")

	var (
		sqlDB   *sql.DB
		dialect repositories.Dialect
		err     error
	)

	switch driver {
	case "postgres":
		databaseURL := config.Get("DATABASE_URL", "")
		if strings.TrimSpace(databaseURL) == "" {
			log.Fatal().Msg("DATABASE_URL is required")
		}
		sqlDB, err = db.Open(databaseURL)
		dialect = repositories.DialectPostgres
	case "sqlite":
		sqlDB, err = db.OpenSQLite(config.Get("DB_PATH", "data/app.db"))
		dialect = repositories.DialectSQLite
	default:
		log.Fatal().Str("driver", driver).Msg("unsupported DB_DRIVER")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open database")
	}
	defer sqlDB.Close()

	initAndSeed(sqlDB, dialect, seedPath, !*schemaOnly)
}

func initAndSeed(sqlDB *sql.DB, dialect repositories.Dialect, seedPath string, seed bool) {
	log.Info().Str("dialect", string(dialect)).Msg("Initializing database schema...")
	if err := repositories.InitSchema(sqlDB, dialect); err != nil {
		log.Fatal().Err(err).Msg("schema initialization failed")
	}
	log.Info().Msg("Schema ready.")

	if !seed {
		return
	}

	log.Info().Str("seed_path", seedPath).Msg("Seeding database...")
	if err := repositories.SeedFromJSON(sqlDB, dialect, seedPath); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Msg("Seeding complete.")
}
