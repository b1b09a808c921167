package timeline

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/clipforge/clipforge-agent/internal/media"
)

var (
	ErrTrackNotFound   = errors.New("track not found")
	ErrClipNotFound    = errors.New("clip not found")
	ErrTrackLocked     = errors.New("track is locked")
	ErrInvalidClip     = errors.New("invalid clip")
	ErrInvalidTrack    = errors.New("invalid track")
	ErrDuplicateClip   = errors.New("clip already exists")
	ErrDuplicateTrack  = errors.New("track already exists")
	ErrSplitOutOfRange = errors.New("split time outside clip")
)

type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
	TrackText  TrackKind = "text"
)

func (k TrackKind) Valid() bool {
	switch k {
	case TrackVideo, TrackAudio, TrackText:
		return true
	}
	return false
}

func (k TrackKind) Visual() bool {
	return k == TrackVideo || k == TrackText
}

func (k TrackKind) Title() string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Track keeps its clips in layering order. Placement in time comes from each
// clip's own StartTime, not from the position in Clips.
type Track struct {
	ID      string    `json:"id"`
	Kind    TrackKind `json:"kind"`
	Name    string    `json:"name"`
	Clips   []*Clip   `json:"clips"`
	Locked  bool      `json:"locked"`
	Visible bool      `json:"visible"`
}

type Clip struct {
	ID          string   `json:"id"`
	MediaItemID string   `json:"media_item_id"`
	TrackID     string   `json:"track_id"`
	StartTime   float64  `json:"start_time"`
	Duration    float64  `json:"duration"`
	TrimStart   float64  `json:"trim_start"`
	TrimEnd     float64  `json:"trim_end"`
	Volume      float64  `json:"volume"`
	Effects     []string `json:"effects,omitempty"`
}

func (c *Clip) End() float64 {
	return c.StartTime + c.Duration
}

// Contains reports whether t falls in the half-open span [start, end).
func (c *Clip) Contains(t float64) bool {
	return t >= c.StartTime && t < c.End()
}

func (c *Clip) clone() *Clip {
	out := *c
	out.Effects = slices.Clone(c.Effects)
	return &out
}

func (t *Track) clone() Track {
	out := *t
	out.Clips = make([]*Clip, len(t.Clips))
	for i, c := range t.Clips {
		out.Clips[i] = c.clone()
	}
	return out
}

// ClipPatch carries the fields that may change after a clip is created.
// Nil fields are left untouched.
type ClipPatch struct {
	StartTime *float64  `json:"start_time,omitempty"`
	Duration  *float64  `json:"duration,omitempty"`
	TrimStart *float64  `json:"trim_start,omitempty"`
	TrimEnd   *float64  `json:"trim_end,omitempty"`
	Volume    *float64  `json:"volume,omitempty"`
	Effects   *[]string `json:"effects,omitempty"`
}

func (p ClipPatch) apply(c *Clip) {
	if p.StartTime != nil {
		c.StartTime = *p.StartTime
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.TrimStart != nil {
		c.TrimStart = *p.TrimStart
	}
	if p.TrimEnd != nil {
		c.TrimEnd = *p.TrimEnd
	}
	if p.Volume != nil {
		c.Volume = *p.Volume
	}
	if p.Effects != nil {
		c.Effects = slices.Clone(*p.Effects)
	}
}

type TrackPatch struct {
	Name    *string `json:"name,omitempty"`
	Locked  *bool   `json:"locked,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
}

// Compatible is the drop placement policy: a clip goes on a track of its own
// kind, and stills may go on any visual track.
func Compatible(kind media.Kind, track TrackKind) bool {
	if kind == media.KindImage {
		return track.Visual()
	}
	return string(kind) == string(track)
}

// TrackKindFor returns the kind of track created for media that has no
// compatible track to land on.
func TrackKindFor(kind media.Kind) TrackKind {
	switch kind {
	case media.KindAudio:
		return TrackAudio
	default:
		return TrackVideo
	}
}

// Float returns a pointer to v for building patches.
func Float(v float64) *float64 { return &v }

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
