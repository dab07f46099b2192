package relayrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"

	"gifrelay/internal/animation"
	"gifrelay/internal/artifact"
	"gifrelay/internal/config"
	"gifrelay/internal/deps"
	"gifrelay/internal/logging"
	"gifrelay/internal/relay"
)

const (
	lockFileName           = "gifrelay.lock"
	defaultJanitorInterval = time.Minute
)

// ErrAlreadyRunning reports that another relay holds the artifact directory lock.
var ErrAlreadyRunning = errors.New("another gifrelay instance is already serving this artifact directory")

// Options configures relay process runtime behavior.
type Options struct {
	LogLevel        string
	Development     bool
	JanitorInterval time.Duration
	// Ready, when set, receives the bound address once the relay is listening.
	Ready func(addr string)
}

// Run starts the relay and blocks until ctx is cancelled or the process
// receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.ValidateRelay(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if !opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lockPath := filepath.Join(cfg.Artifacts.Dir, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release relay lock", logging.Error(err))
		}
	}()

	store, err := artifact.NewStore(cfg.Artifacts.Dir, logger)
	if err != nil {
		return err
	}
	if removed, err := store.Purge(); err != nil {
		logger.Warn("artifact purge failed", logging.Error(err))
	} else if removed > 0 {
		logger.Info("purged stale artifacts", logging.Removed(removed))
	}

	logDependencySnapshot(logger, cfg)

	client := animation.NewConfiguredClient(cfg, logger)
	srv, err := relay.New(cfg, store, client, logger)
	if err != nil {
		return fmt.Errorf("create relay: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return err
	}
	defer srv.Stop()

	interval := opts.JanitorInterval
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	go runJanitor(signalCtx, store, cfg.ArtifactMaxAge(), interval, logger)

	if opts.Ready != nil {
		opts.Ready(srv.Addr())
	}

	<-signalCtx.Done()
	logger.Info("gifrelay shutting down")
	return nil
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		copied := *cfg
		copied.Logging.Level = level
		return logging.NewFromConfig(&copied)
	}
	return logging.NewFromConfig(cfg)
}

// runJanitor prunes expired artifacts until ctx is done.
func runJanitor(ctx context.Context, store *artifact.Store, maxAge, interval time.Duration, logger *slog.Logger) {
	if maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Prune(maxAge)
			if err != nil {
				logger.Warn("artifact prune failed", logging.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("pruned expired artifacts", logging.Removed(removed))
			}
		}
	}
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	status := deps.CheckBinaries([]deps.Requirement{deps.FFmpegRequirement(cfg.Client.FFmpegBinary)})[0]
	logger.Info("relay configuration",
		logging.String(logging.FieldEventType, "relay_configuration"),
		logging.String("upstream", cfg.Upstream.APIURL),
		logging.Bool("upstream_key_present", strings.TrimSpace(cfg.Upstream.APIKey) != ""),
		logging.Duration("upstream_timeout", cfg.UpstreamTimeout()),
		logging.String("cors_origin", cfg.Server.CORSOrigin),
		logging.String("artifact_dir", cfg.Artifacts.Dir),
		logging.Duration("artifact_max_age", cfg.ArtifactMaxAge()),
		logging.Bool("ffmpeg_available", status.Available),
	)
}
