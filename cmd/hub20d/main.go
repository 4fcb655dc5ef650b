// Command hub20d keeps a Hub20 client session alive: it connects to the
// configured server, restores the stored session, streams realtime events
// and refreshes volatile data on a schedule until stopped.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mushroomlabs/hub20-go/config"
	"github.com/mushroomlabs/hub20-go/state"
	"github.com/mushroomlabs/hub20-go/storage"
)

const initTimeout = 2 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	// A .env file is optional.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)

	store, err := storage.NewFileStorage(cfg.Storage.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("cannot open session storage")
	}

	hub := state.NewHub(state.Config{
		ServerURL: cfg.Server.URL,
		Storage:   store,
		Logger:    logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	if err := hub.Initialize(ctx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("initialization failed")
	}
	cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Refresh.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := hub.Refresh(ctx); err != nil {
			logger.Warn().Err(err).Msg("refresh skipped")
		}
	}); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Refresh.Schedule).Msg("invalid refresh schedule")
	}
	scheduler.Start()

	logger.Info().Str("state", hub.State().String()).Msg("hub20d started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	scheduler.Stop()

	teardownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := hub.TearDown(teardownCtx); err != nil {
		logger.Warn().Err(err).Msg("teardown finished with errors")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
