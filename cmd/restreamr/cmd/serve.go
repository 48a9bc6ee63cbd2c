package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/restreamr/internal/config"
	"github.com/jmylchreest/restreamr/internal/database"
	"github.com/jmylchreest/restreamr/internal/ffmpeg"
	internalhttp "github.com/jmylchreest/restreamr/internal/http"
	"github.com/jmylchreest/restreamr/internal/http/handlers"
	"github.com/jmylchreest/restreamr/internal/hub"
	"github.com/jmylchreest/restreamr/internal/observability"
	"github.com/jmylchreest/restreamr/internal/repository"
	"github.com/jmylchreest/restreamr/internal/restream"
	"github.com/jmylchreest/restreamr/internal/service"
	"github.com/jmylchreest/restreamr/internal/startup"
	"github.com/jmylchreest/restreamr/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the restreamr server",
	Long: `Start the restreamr HTTP server and stream supervisor.

The server provides:
- REST API for videos, playlists and stream sessions
- Per-session WebSocket event streams at /ws/streams/{id}
- Health check endpoint and OpenAPI documentation at /docs

On startup any session left marked running is relaunched, and a
background sweep removes orphaned concat index files.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Host to bind to")
	serveCmd.Flags().Int("port", 0, "Port to listen on")
	serveCmd.Flags().String("ffmpeg", "", "Path to the ffmpeg binary")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(cmd.Flags(), rootCmd.PersistentFlags(), cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	observability.SetDefault(logger)

	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database failed", slog.String("error", err.Error()))
		}
	}()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	binary, err := ffmpeg.FindBinary(cfg.Encoder.BinaryPath)
	if err != nil {
		return fmt.Errorf("locating encoder binary: %w", err)
	}
	logger.Info("using encoder binary", slog.String("path", binary))

	videoRepo := repository.NewVideoRepository(db.DB)
	playlistRepo := repository.NewPlaylistRepository(db.DB)
	sessionRepo := repository.NewStreamSessionRepository(db.DB)
	activityRepo := repository.NewActivityLogRepository(db.DB)

	events := hub.New(observability.WithComponent(logger, "hub"))
	resolver := restream.NewSourceResolver(videoRepo, playlistRepo, cfg.Storage.TempDir,
		observability.WithComponent(logger, "resolver"))
	supervisor := restream.NewSupervisor(sessionRepo, resolver, events, cfg.Encoder, binary,
		observability.WithComponent(logger, "supervisor"))

	streamService := service.NewStreamService(sessionRepo, activityRepo, supervisor, events).
		WithLogger(observability.WithComponent(logger, "streams"))
	playlistService := service.NewPlaylistService(playlistRepo, videoRepo, activityRepo).
		WithLogger(observability.WithComponent(logger, "playlists"))
	videoService := service.NewVideoService(videoRepo).
		WithLogger(observability.WithComponent(logger, "videos"))

	// Relaunch sessions left marked running by a previous run.
	recovery := startup.NewRecovery(sessionRepo, activityRepo, supervisor,
		observability.WithComponent(logger, "recovery"))
	recovered, failed, err := recovery.Run(context.Background())
	if err != nil {
		return fmt.Errorf("running session recovery: %w", err)
	}
	if recovered > 0 || failed > 0 {
		logger.Info("session recovery finished",
			slog.Int("recovered", recovered),
			slog.Int("failed", failed),
		)
	}

	scheduler, err := startIndexSweep(cfg.Storage, observability.WithComponent(logger, "sweep"))
	if err != nil {
		return fmt.Errorf("starting index sweep: %w", err)
	}

	server := internalhttp.New(cfg.Server, logger)

	handlers.NewHealthHandler(version.Short()).WithDB(db.DB).Register(server.API())
	handlers.NewVideoHandler(videoService).Register(server.API())
	handlers.NewPlaylistHandler(playlistService).Register(server.API())
	handlers.NewStreamHandler(streamService).Register(server.API())
	handlers.NewActivityHandler(activityRepo).Register(server.API())
	handlers.NewWSHandler(events, streamService, observability.WithComponent(logger, "ws")).
		Register(server.Router())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting restreamr server",
		slog.String("addr", cfg.Server.Address()),
		slog.String("version", version.Short()),
	)

	serveErr := server.ListenAndServe(ctx)

	// HTTP is down; stop the sweep and the encoders it supervises.
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := supervisor.Shutdown(shutdownCtx); err != nil {
		logger.Warn("supervisor shutdown incomplete", slog.String("error", err.Error()))
	}

	return serveErr
}

// applyFlagOverrides lets explicitly-set CLI flags win over config file
// and environment values. Flags are not bound to viper because the flag
// default would then always shadow env and file values.
func applyFlagOverrides(flags, persistent *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("ffmpeg") {
		cfg.Encoder.BinaryPath, _ = flags.GetString("ffmpeg")
	}
	if persistent.Changed("log-level") {
		cfg.Logging.Level, _ = persistent.GetString("log-level")
	}
	if persistent.Changed("log-format") {
		cfg.Logging.Format, _ = persistent.GetString("log-format")
	}
}

// startIndexSweep schedules the periodic cleanup of orphaned concat
// index files. The schedule uses six-field cron syntax with seconds.
func startIndexSweep(storage config.StorageConfig, logger *slog.Logger) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithSeconds())

	_, err := scheduler.AddFunc(storage.IndexSweepCron, func() {
		start := time.Now()
		removed, err := restream.SweepStaleIndexes(storage.TempDir, storage.IndexRetention, logger)
		if err != nil {
			logger.Warn("index sweep failed", slog.String("error", err.Error()))
			return
		}
		if removed > 0 {
			logger.Info("index sweep removed stale files",
				slog.Int("removed", removed),
				slog.Duration("took", time.Since(start)),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling %q: %w", storage.IndexSweepCron, err)
	}

	scheduler.Start()
	return scheduler, nil
}
