package run

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal"
	"github.com/DevRickLin/telegram-relay-bridge/internal/api"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
	"github.com/DevRickLin/telegram-relay-bridge/internal/data"
	"github.com/DevRickLin/telegram-relay-bridge/internal/infra/telegram"
	"github.com/DevRickLin/telegram-relay-bridge/internal/metrics"
	"github.com/DevRickLin/telegram-relay-bridge/internal/platform/logging"
	"github.com/DevRickLin/telegram-relay-bridge/internal/server"
	"github.com/DevRickLin/telegram-relay-bridge/internal/service"
)

const shutdownTimeout = 10 * time.Second

func runCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if debug {
		cfg.Debug = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := logging.InitLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	// Initialize clients
	telegramClient, err := telegram.NewClient(cfg.Telegram.Token, cfg.Debug, logger)
	if err != nil {
		return err
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(telegramClient, cfg.Settings)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}
	defer repos.Settings.Close()

	// Graceful shutdown
	ctx, stop := shutdownContext(context.Background())
	defer stop()

	snap, err := repos.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	settings := domain.NewSettings(snap, cfg.Relay.TraceLimit)
	metrics.ObserveSettings(settings.Counts())
	logger.Info("settings loaded",
		"backend", cfg.Settings.Backend, "path", cfg.Settings.Path,
		"users", len(snap.Users), "channels", len(snap.Channels), "messages", len(snap.Messages),
		"channel_names", settings.ChannelNames())

	if cfg.Relay.DefaultChannel == 0 {
		logger.Warn("please set the default channel")
	}

	// Initialize usecase layer
	usecases := biz.NewUsecases(settings, repos.Transport, cfg.ToRouterConfig(), logger)

	// Initialize service layer
	clock := clockwork.NewRealClock()
	checkpointer := service.NewCheckpointer(settings, repos.Settings, cfg.Settings.CheckpointInterval, clock, logger)
	checkpointer.Start()

	// Initialize HTTP API server
	apiServer := api.NewServer(settings, cfg.Relay.DefaultChannel, cfg.API.Addr, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("api server error", "error", err)
		}
	}()

	// Initialize server
	srv := server.NewTelegramServer(telegramClient, usecases.Router, clock, logger)

	logger.Info("starting telegram relay bot", "version", internal.GetVersion())
	serveErr := serve(ctx, srv)
	stop()
	srv.Stop()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("api server shutdown failed", "error", err)
	}
	checkpointer.Stop()
	if err := checkpointer.Flush(shutdownCtx); err != nil {
		logger.Error("final settings save failed", "error", err)
		if serveErr == nil {
			serveErr = err
		}
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	logger.Info("stopped")
	return nil
}

// shutdownContext is cancelled by the first SIGINT or SIGTERM
func shutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

type starter interface {
	Start(ctx context.Context) error
}

// serve blocks until srv returns. An error caused by ctx being cancelled is a
// clean stop.
func serve(ctx context.Context, srv starter) error {
	err := srv.Start(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
