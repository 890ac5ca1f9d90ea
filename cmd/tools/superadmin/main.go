// cmd/tools/superadmin/main.go
//
// Creates a SUPERADMIN directly in the database, for first boot or when
// every existing superadmin is locked out.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/admin"
	"github.com/codr1/leaguedesk/internal/config"
	"github.com/codr1/leaguedesk/internal/db"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		configPath = flag.String("config", "config/app.yaml", "Path to app config")
		email      = flag.String("email", "", "Email for the new superadmin")
		name       = flag.String("name", "", "Display name")
	)
	flag.Parse()

	password := os.Getenv("SUPERADMIN_PASSWORD")
	if *email == "" || *name == "" || password == "" {
		log.Error().Msg("-email, -name and SUPERADMIN_PASSWORD are required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := admin.CreateSuperAdmin(ctx, database.Queries, admin.SuperAdminInput{
		Email:    *email,
		Password: password,
		Name:     *name,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create superadmin")
	}
	log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("Superadmin created")
}
