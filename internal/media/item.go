package media

import (
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

func (k Kind) Valid() bool {
	switch k {
	case KindVideo, KindAudio, KindImage:
		return true
	}
	return false
}

// Item is an ingested media reference. Only Thumbnail changes after ingest.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      Kind    `json:"kind"`
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Size      int64   `json:"size"`
	Thumbnail string  `json:"thumbnail,omitempty"`
}

// Bounded reports whether the item has a finite source timeline that trims
// must fit inside. Stills and items whose duration could not be probed are
// unbounded.
func (i *Item) Bounded() bool {
	return i.Kind != KindImage && i.Duration > 0
}

func (i *Item) SizeLabel() string {
	return humanize.Bytes(uint64(max(i.Size, 0)))
}

type format struct {
	kind        Kind
	contentType string
}

var formats = map[string]format{
	".mp4":  {KindVideo, "video/mp4"},
	".mov":  {KindVideo, "video/quicktime"},
	".webm": {KindVideo, "video/webm"},
	".mkv":  {KindVideo, "video/x-matroska"},
	".mp3":  {KindAudio, "audio/mpeg"},
	".wav":  {KindAudio, "audio/wav"},
	".m4a":  {KindAudio, "audio/mp4"},
	".ogg":  {KindAudio, "audio/ogg"},
	".aac":  {KindAudio, "audio/aac"},
	".png":  {KindImage, "image/png"},
	".jpg":  {KindImage, "image/jpeg"},
	".jpeg": {KindImage, "image/jpeg"},
	".gif":  {KindImage, "image/gif"},
	".webp": {KindImage, "image/webp"},
}

// KindForPath classifies a file by extension. The second result is false for
// files the editor cannot place.
func KindForPath(path string) (Kind, bool) {
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	return f.kind, ok
}

// ContentType returns the MIME type for a placeable file, or "" if the
// extension is unknown.
func ContentType(path string) string {
	return formats[strings.ToLower(filepath.Ext(path))].contentType
}

func IsMediaFile(path string) bool {
	_, ok := KindForPath(path)
	return ok
}

func NewID() string {
	return "media-" + uuid.NewString()
}
