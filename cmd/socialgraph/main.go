package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/api"
	"github.com/fluxbase-eu/socialgraph/internal/config"
	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/fluxbase-eu/socialgraph/internal/store/pgstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// CLI flags
	showVersion = flag.Bool("version", false, "Show version information")
	migrateOnly = flag.Bool("migrate-only", false, "Apply database migrations and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("SocialGraph %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Date: %s\n", BuildDate)
		os.Exit(0)
	}

	// Human readable output on a terminal, JSON lines otherwise
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting SocialGraph")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate || *migrateOnly {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}
	if *migrateOnly {
		log.Info().Msg("Migrations applied")
		return
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
		db.SetMetrics(metrics)

		collector, err := observability.NewStatsCollector(metrics, cfg.Metrics.StatsSchedule, db.PoolStats)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule stats collection")
		}
		collector.Start()
		defer collector.Stop()
	}

	server, err := api.NewServer(cfg, pgstore.New(db), db, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Starting SocialGraph server")
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
