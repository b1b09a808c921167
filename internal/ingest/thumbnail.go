package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/clipforge/clipforge-agent/internal/media"
)

const (
	DefaultFFmpeg  = "ffmpeg"
	thumbnailWidth = 320
)

var (
	ErrNoThumbnail = errors.New("media kind has no thumbnail")
	ErrBadHandle   = errors.New("invalid cache handle")
)

type Thumbnailer interface {
	Thumbnail(ctx context.Context, item media.Item) (string, error)
}

// FFmpegThumbnailer grabs a single JPEG frame and stores it in the cache.
// The returned handle is the cache key.
type FFmpegThumbnailer struct {
	bin   string
	cache *Cache
}

func NewFFmpegThumbnailer(bin string, cache *Cache) *FFmpegThumbnailer {
	if bin == "" {
		bin = DefaultFFmpeg
	}
	return &FFmpegThumbnailer{bin: bin, cache: cache}
}

func (t *FFmpegThumbnailer) Thumbnail(ctx context.Context, item media.Item) (string, error) {
	if item.Kind == media.KindAudio {
		return "", ErrNoThumbnail
	}

	key, err := sourceKey(bucketThumb, item.Path)
	if err != nil {
		return "", fmt.Errorf("fingerprint source: %w", err)
	}
	if t.cache.Has(key) {
		return key, nil
	}

	cmd := exec.CommandContext(ctx, t.bin, thumbnailArgs(item)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	frame, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if len(frame) == 0 {
		return "", fmt.Errorf("ffmpeg produced no frame")
	}

	if err := t.cache.Write(key, frame); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return key, nil
}

// thumbnailArgs seeks one second in, or halfway into short clips.
func thumbnailArgs(item media.Item) []string {
	args := []string{"-v", "error"}
	if item.Kind == media.KindVideo && item.Duration > 0 {
		offset := min(1, item.Duration/2)
		args = append(args, "-ss", strconv.FormatFloat(offset, 'f', 3, 64))
	}
	return append(args,
		"-i", item.Path,
		"-frames:v", "1",
		"-vf", "scale="+strconv.Itoa(thumbnailWidth)+":-2",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
}
