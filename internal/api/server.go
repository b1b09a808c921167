package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/history"
	"github.com/clipforge/clipforge-agent/internal/ingest"
	"github.com/clipforge/clipforge-agent/internal/interaction"
	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/playback"
	"github.com/clipforge/clipforge-agent/internal/store"
)

// Engine runs closures against the project on its owning goroutine.
type Engine interface {
	Do(ctx context.Context, fn func(p *engine.Project) error) error
}

type Ingester interface {
	Ingest(ctx context.Context, path string) (media.Item, error)
}

// ToolStatus reports the last known availability of ffprobe and ffmpeg.
type ToolStatus interface {
	Peek() *ingest.Tools
}

type ThumbnailReader interface {
	Read(handle string) ([]byte, error)
}

type MediaRepository interface {
	TokenSource
	DeleteMedia(ctx context.Context, id string) error
}

type HistoryService interface {
	interaction.Committer
	List(ctx context.Context, limit int) ([]*store.Snapshot, error)
	Restore(ctx context.Context, e history.Doer, seq int64) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	Engine         Engine
	Ingest         Ingester
	Thumbnails     ThumbnailReader
	Tools          ToolStatus
	Sources        playback.SourceServer
	Repository     MediaRepository
	History        HistoryService
	AllowedOrigins []string
	Version        string
	Logger         *slog.Logger
	StartTime      time.Time
	DeviceID       string
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:           NewHandler(cfg),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      0,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// NewHandler wraps the router with CORS for the browser-based editor UI.
func NewHandler(cfg ServerConfig) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "Range", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID", "Content-Range", "Accept-Ranges"}),
	)(NewRouter(cfg))
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
