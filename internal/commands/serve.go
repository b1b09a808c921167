package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge-agent/internal/api"
	"github.com/clipforge/clipforge-agent/internal/config"
	"github.com/clipforge/clipforge-agent/internal/db"
	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/history"
	"github.com/clipforge/clipforge-agent/internal/ingest"
	"github.com/clipforge/clipforge-agent/internal/interaction"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/playback"
	"github.com/clipforge/clipforge-agent/internal/store"
	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/clipforge/clipforge-agent/internal/ui"
	"github.com/clipforge/clipforge-agent/internal/viewport"
	"github.com/clipforge/clipforge-agent/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func addServe(topLevel *cobra.Command) {
	so := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editing engine and its local API.",
		Example: `
agent serve
agent serve --headless --watch ~/Movies/inbox
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, so)
		},
	}
	AddServeArgs(cmd, so)
	topLevel.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, so *ServeOptions) error {
	startTime := time.Now()

	if err := so.apply(cmd); err != nil {
		return err
	}
	cfg, err := config.Load(so.EnvFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir(), 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipforge agent", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := store.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}
	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "╔═══════════════════════════════════════════════════════════╗")
	fmt.Fprintf(out, "║                  CLIPFORGE AGENT v%-24s║\n", config.Version)
	fmt.Fprintln(out, "╠═══════════════════════════════════════════════════════════╣")
	fmt.Fprintf(out, "║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Fprintf(out, "║  Auth Token: %-45s ║\n", authToken)
	fmt.Fprintf(out, "║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Fprintln(out, "╚═══════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)

	tl := timeline.New(nil)
	recorder := history.NewRecorder(tl, repo, logger)
	defer recorder.Close()

	loadCtx, loadCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	err = loadProject(loadCtx, tl, recorder, repo, logger)
	loadCancel()
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	eng := engine.New(engine.Options{
		Timeline:    tl,
		Viewport:    viewport.DefaultConfig(),
		Interaction: interaction.DefaultConfig(),
		History:     recorder,
		FrameRate:   cfg.FrameRate(),
		Logger:      logging.WithComponent(logger, "engine"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := eng.Run(ctx); err != nil {
			logger.Error("engine stopped with error", "error", err)
		}
	}()

	doctor := ingest.NewDoctor(cfg.FFprobePath(), cfg.FFmpegPath(), logging.WithComponent(logger, "doctor"))
	if tools := doctor.Refresh(ctx); !tools.AllOK() {
		logger.Warn("ingest tools missing, media will import without metadata or thumbnails",
			"ffprobe", tools.FFprobe.Error,
			"ffmpeg", tools.FFmpeg.Error,
		)
	}

	cache := ingest.NewCache(cfg.CacheDir())
	ingestSvc := ingest.NewService(eng, ingest.Options{
		Prober:      ingest.NewFFprobe(cfg.FFprobePath(), cache),
		Thumbnailer: ingest.NewFFmpegThumbnailer(cfg.FFmpegPath(), cache),
		Store:       repo,
		AutoPlace:   cfg.AutoPlace(),
		Logger:      logger,
	})
	defer ingestSvc.Close()

	if dir := cfg.WatchDir(); dir != "" {
		go watchDir(ctx, dir, cfg.WatchQuiet(), ingestSvc, logger)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Engine:         eng,
		Ingest:         ingestSvc,
		Thumbnails:     cache,
		Tools:          doctor,
		Sources:        playback.NewMediaServer(logger),
		Repository:     repo,
		History:        recorder,
		AllowedOrigins: cfg.AllowedOrigins(),
		Version:        config.Version,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	var tray *ui.Tray
	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray = ui.NewTray(ui.TrayConfig{
			Engine: eng,
			Logger: logging.WithComponent(logger, "tray"),
			OnQuit: quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	if tray != nil {
		tray.Quit()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	cancel()
	<-engineDone

	logger.Info("shutdown complete")
	return nil
}

// loadProject restores the newest checkpoint into tl and then adds media that
// was imported after it. Stored thumbnails are attached to items that lack
// one.
func loadProject(ctx context.Context, tl *timeline.Timeline, rec *history.Recorder, repo store.Repository, logger *slog.Logger) error {
	snap, ok, err := rec.Latest(ctx)
	if err != nil {
		return err
	}
	if ok {
		if err := tl.Restore(snap); err != nil {
			return err
		}
	}

	items, err := repo.ListMedia(ctx)
	if err != nil {
		return fmt.Errorf("list media: %w", err)
	}
	added := 0
	for _, item := range items {
		existing, found := tl.MediaItem(item.ID)
		if !found {
			if err := tl.AddMediaItem(item); err != nil {
				logger.Warn("skipping stored media", "media_id", item.ID, "error", err)
				continue
			}
			added++
			continue
		}
		if existing.Thumbnail == "" && item.Thumbnail != "" {
			if err := tl.AttachThumbnail(item.ID, item.Thumbnail); err != nil {
				logger.Warn("failed to attach stored thumbnail", "media_id", item.ID, "error", err)
			}
		}
	}

	logger.Info("project loaded",
		"from_checkpoint", ok,
		"tracks", len(tl.Tracks()),
		"clips", tl.ClipCount(),
		"media", len(tl.Media()),
		"media_added", added,
	)
	return nil
}

func watchDir(ctx context.Context, dir string, quiet time.Duration, svc *ingest.Service, logger *slog.Logger) {
	w := watcher.New(logging.WithComponent(logger, "watcher"), quiet)
	w.OnChange(func(path string, event watcher.EventType) {
		if event != watcher.EventCreate {
			return
		}
		_, err := svc.Ingest(ctx, path)
		var lookupErr *ingest.LookupError
		switch {
		case err == nil, errors.As(err, &lookupErr):
		case errors.Is(err, ingest.ErrUnsupported), errors.Is(err, ingest.ErrNotFile):
			logger.Debug("ignoring watched file", "path", logging.SanitizePath(path), "error", err)
		default:
			logger.Warn("failed to ingest watched file", "path", logging.SanitizePath(path), "error", err)
		}
	})
	if err := w.Watch(ctx, dir); err != nil {
		logger.Error("watcher stopped", "error", err)
	}
}

func ensureDeviceID(repo store.Repository) (string, error) {
	return ensureSecret(repo, store.KeyDeviceID, 16)
}

func ensureAuthToken(repo store.Repository) (string, error) {
	return ensureSecret(repo, store.KeyAuthToken, 32)
}

func ensureSecret(repo store.Repository, key string, n int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := hex.EncodeToString(b)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
