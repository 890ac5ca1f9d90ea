// cmd/dbtools/migrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/config"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		configPath     = flag.String("config", "", "Path to app config; supplies the database filename when -db is empty")
		dbPath         = flag.String("db", "", "Path to SQLite database")
		migrationsPath = flag.String("migrations", "internal/db/migrations", "Path to migrations directory")
		command        = flag.String("command", "", "Command to run (up, down, version, force)")
		forceVersion   = flag.String("version", "", "Version for the force command")
	)
	flag.Parse()

	if *dbPath == "" && *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		*dbPath = cfg.Database.Filename
	}
	if *dbPath == "" || *command == "" {
		flag.Usage()
		os.Exit(1)
	}

	absDB, err := filepath.Abs(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database path")
	}
	absMigrations, err := filepath.Abs(*migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid migrations path")
	}
	if _, err := os.Stat(absMigrations); err != nil {
		log.Fatal().Err(err).Str("path", absMigrations).Msg("Migrations directory not found")
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	m, err := migrate.New("file://"+absMigrations, fmt.Sprintf("sqlite3://%s?_fk=1", absDB))
	if err != nil {
		log.Fatal().Err(err).Msg("Migration init failed")
	}
	defer m.Close()

	logger := log.With().Str("db", absDB).Str("command", *command).Logger()
	switch *command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Msg("Migration up failed")
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Msg("Migration down failed")
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			logger.Fatal().Err(err).Msg("Get version failed")
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
		return
	case "force":
		v, err := strconv.Atoi(*forceVersion)
		if err != nil {
			logger.Fatal().Str("version", *forceVersion).Msg("force requires a numeric -version")
		}
		if err := m.Force(v); err != nil {
			logger.Fatal().Err(err).Msg("Force failed")
		}
	default:
		logger.Fatal().Msg("Unknown command")
	}
	logger.Info().Msg("Migration command completed")
}
