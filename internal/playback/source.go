package playback

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/media"
)

// SourceServer streams media files to the external player.
type SourceServer interface {
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error
}

type MediaServer struct {
	logger *slog.Logger
}

func NewMediaServer(logger *slog.Logger) *MediaServer {
	return &MediaServer{logger: logger}
}

// ServeFile writes the file with byte-range support. A missing file is
// answered with 404 and is not an error.
func (s *MediaServer) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if stat.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return nil
	}

	contentType := media.ContentType(filePath)
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filePath))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")

	if s.logger != nil {
		s.logger.Debug("serving source",
			"path", logging.SanitizePath(filePath),
			"range", r.Header.Get("Range"),
		)
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
	return nil
}
