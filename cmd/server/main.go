// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/leaguedesk/internal/config"
	"github.com/codr1/leaguedesk/internal/db"
	"github.com/codr1/leaguedesk/internal/email"
	"github.com/codr1/leaguedesk/internal/ratelimit"
	"github.com/codr1/leaguedesk/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func main() {
	configPath := flag.String("config", "config/app.yaml", "Path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
	}
	setupLogger(cfg)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sender email.Sender
	if cfg.Email.Enabled() {
		sesClient, err := email.NewSESClient(ctx, cfg.Email)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create SES client")
		}
		sender = sesClient
	} else {
		log.Warn().Msg("Email not configured; notification emails are disabled")
	}

	limiter := ratelimit.New(ratelimit.DefaultConfig())
	defer limiter.Close()

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	svc, err := scheduler.ServiceInstance()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load scheduler")
	}
	if err := scheduler.RegisterMaintenanceJobs(svc, database, cfg.Scheduler); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance jobs")
	}

	server := newServer(cfg, database, sender, limiter)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("scheduler start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
