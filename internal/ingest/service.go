// Package ingest turns files on disk into media items. Metadata and
// thumbnails come from external tools; results are merged into the engine
// as ordinary mutations and never block it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/interaction"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/media"
)

const thumbnailTimeout = 30 * time.Second

var (
	ErrUnsupported = errors.New("unsupported media file")
	ErrNotFile     = errors.New("path is not a regular file")
)

// LookupError reports a failed metadata or thumbnail lookup. The media item
// is still ingested with the fields that could not be resolved left empty.
type LookupError struct {
	Op   string
	Path string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Poster queues work on the engine goroutine.
type Poster interface {
	Post(fn func(p *engine.Project))
}

type MediaStore interface {
	SaveMedia(ctx context.Context, item media.Item) error
	SetThumbnail(ctx context.Context, id, handle string) error
}

type Options struct {
	Prober      Prober
	Thumbnailer Thumbnailer
	Store       MediaStore
	// AutoPlace drops every ingested item onto a new track.
	AutoPlace bool
	Logger    *slog.Logger
}

type Service struct {
	engine Poster
	opts   Options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(e Poster, opts Options) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	logger := opts.Logger
	if logger != nil {
		logger = logging.WithComponent(logger, "ingest")
	}
	return &Service{engine: e, opts: opts, logger: logger, ctx: ctx, cancel: cancel}
}

// Ingest adds the file at path to the media catalog. A *LookupError means
// the item was added with degraded metadata; any other error means nothing
// was added.
func (s *Service) Ingest(ctx context.Context, path string) (media.Item, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return media.Item{}, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return media.Item{}, fmt.Errorf("stat media: %w", err)
	}
	if !info.Mode().IsRegular() {
		return media.Item{}, ErrNotFile
	}
	kind, ok := media.KindForPath(absPath)
	if !ok {
		return media.Item{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(absPath))
	}

	item := media.Item{
		ID:   media.NewID(),
		Name: filepath.Base(absPath),
		Kind: kind,
		Path: absPath,
		Size: info.Size(),
	}

	var lookupErr error
	if s.opts.Prober != nil {
		meta, err := s.opts.Prober.Probe(ctx, absPath)
		if err != nil {
			lookupErr = &LookupError{Op: "probe", Path: absPath, Err: err}
		} else {
			item.Width = meta.Width
			item.Height = meta.Height
			if kind != media.KindImage {
				item.Duration = meta.Duration
			}
		}
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.SaveMedia(ctx, item); err != nil {
			return media.Item{}, fmt.Errorf("save media: %w", err)
		}
	}

	s.merge(item)

	if s.logger != nil {
		log := logging.WithMediaID(s.logger, item.ID)
		if lookupErr != nil {
			log.Warn("media ingested without metadata", "path", logging.SanitizePath(absPath), "error", lookupErr)
		} else {
			log.Info("media ingested", "path", logging.SanitizePath(absPath), "kind", kind, "duration", item.Duration)
		}
	}

	if s.opts.Thumbnailer != nil && kind != media.KindAudio {
		s.wg.Add(1)
		go s.thumbnail(item)
	}

	return item, lookupErr
}

func (s *Service) merge(item media.Item) {
	autoPlace := s.opts.AutoPlace
	logger := s.logger
	s.engine.Post(func(p *engine.Project) {
		if err := p.Timeline.AddMediaItem(item); err != nil {
			if logger != nil {
				logger.Error("merge media failed", "media_id", item.ID, "error", err)
			}
			return
		}
		if !autoPlace {
			return
		}
		if _, err := p.Gestures.Drop(item.ID, 0, interaction.Target{}); err != nil && logger != nil {
			logger.Error("auto place failed", "media_id", item.ID, "error", err)
		}
	})
}

func (s *Service) thumbnail(item media.Item) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, thumbnailTimeout)
	defer cancel()

	handle, err := s.opts.Thumbnailer.Thumbnail(ctx, item)
	if err != nil {
		if s.logger != nil && !errors.Is(err, ErrNoThumbnail) {
			s.logger.Warn("thumbnail failed", "media_id", item.ID, "error", &LookupError{Op: "thumbnail", Path: logging.SanitizePath(item.Path), Err: err})
		}
		return
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.SetThumbnail(ctx, item.ID, handle); err != nil && s.logger != nil {
			s.logger.Warn("persist thumbnail failed", "media_id", item.ID, "error", err)
		}
	}

	logger := s.logger
	s.engine.Post(func(p *engine.Project) {
		err := p.Timeline.AttachThumbnail(item.ID, handle)
		if errors.Is(err, media.ErrNotFound) {
			if logger != nil {
				logger.Debug("thumbnail discarded, media removed", "media_id", item.ID)
			}
			return
		}
		if err != nil && logger != nil {
			logger.Error("attach thumbnail failed", "media_id", item.ID, "error", err)
		}
	})
}

// Close cancels in-flight thumbnail work and waits for it to finish.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every started thumbnail lookup has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
