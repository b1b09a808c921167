package playback

import (
	"log/slog"
	"math"
	"slices"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Active is what the external player should be showing at a given time.
type Active struct {
	Clip       timeline.Clip  `json:"clip"`
	Track      timeline.Track `json:"track"`
	Media      *media.Item    `json:"media,omitempty"`
	SourceTime float64        `json:"source_time"`
}

type Selection struct {
	Clips   []string `json:"clips"`
	TrackID string   `json:"track_id,omitempty"`
	MediaID string   `json:"media_id,omitempty"`
}

type Status struct {
	CurrentTime float64   `json:"current_time"`
	Duration    float64   `json:"duration"`
	Playing     bool      `json:"playing"`
	Selection   Selection `json:"selection"`
}

// Coordinator holds the playhead and the selection. It follows timeline
// changes through a subscription and must be used from the goroutine that
// mutates the timeline.
type Coordinator struct {
	tl     *timeline.Timeline
	logger *slog.Logger

	current float64
	playing bool
	sel     Selection

	unsubscribe func()
}

func NewCoordinator(tl *timeline.Timeline, logger *slog.Logger) *Coordinator {
	c := &Coordinator{tl: tl, logger: logger}
	c.unsubscribe = tl.Subscribe(c.onChange)
	return c
}

func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// ActiveClipAt scans visible tracks of kind in order and returns the first
// clip whose [start, start+duration) contains t.
func (c *Coordinator) ActiveClipAt(t float64, kind timeline.TrackKind) (Active, bool) {
	for _, track := range c.tl.Tracks() {
		if track.Kind != kind || !track.Visible {
			continue
		}
		for _, clip := range track.Clips {
			if !clip.Contains(t) {
				continue
			}
			a := Active{
				Clip:       *clip,
				Track:      track,
				SourceTime: clip.TrimStart + (t - clip.StartTime),
			}
			a.Track.Clips = nil
			if item, ok := c.tl.MediaItem(clip.MediaItemID); ok {
				a.Media = &item
			}
			return a, true
		}
	}
	return Active{}, false
}

func (c *Coordinator) CurrentTime() float64 {
	return c.current
}

func (c *Coordinator) Playing() bool {
	return c.playing
}

// Seek moves the playhead, clamped to [0, duration].
func (c *Coordinator) Seek(t float64) float64 {
	if math.IsNaN(t) {
		return c.current
	}
	c.current = math.Max(0, math.Min(t, c.tl.Duration()))
	return c.current
}

// Play starts playback. At the end of the timeline it rewinds first; an
// empty timeline never plays.
func (c *Coordinator) Play() bool {
	d := c.tl.Duration()
	if d <= 0 {
		c.playing = false
		return false
	}
	if c.current >= d {
		c.current = 0
	}
	c.playing = true
	return true
}

func (c *Coordinator) Pause() {
	c.playing = false
}

func (c *Coordinator) Toggle() bool {
	if c.playing {
		c.Pause()
		return false
	}
	return c.Play()
}

// Advance moves the playhead by dt seconds while playing and stops at the
// end. It reports whether the playhead moved.
func (c *Coordinator) Advance(dt float64) bool {
	if !c.playing || dt <= 0 || math.IsNaN(dt) {
		return false
	}
	d := c.tl.Duration()
	c.current += dt
	if c.current >= d {
		c.current = d
		c.playing = false
		if c.logger != nil {
			c.logger.Debug("playback reached end", "duration", d)
		}
	}
	return true
}

func (c *Coordinator) Selection() Selection {
	s := c.sel
	s.Clips = slices.Clone(c.sel.Clips)
	if s.Clips == nil {
		s.Clips = []string{}
	}
	return s
}

// SelectClips replaces the selected clip set.
func (c *Coordinator) SelectClips(ids ...string) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	c.sel.Clips = out
}

func (c *Coordinator) SelectTrack(id string) {
	c.sel.TrackID = id
}

func (c *Coordinator) SelectMedia(id string) {
	c.sel.MediaID = id
}

func (c *Coordinator) ClearSelection() {
	c.sel = Selection{}
}

func (c *Coordinator) Status() Status {
	return Status{
		CurrentTime: c.current,
		Duration:    c.tl.Duration(),
		Playing:     c.playing,
		Selection:   c.Selection(),
	}
}

func (c *Coordinator) onChange(ch timeline.Change) {
	if len(ch.Removed) > 0 {
		c.sel.Clips = slices.DeleteFunc(c.sel.Clips, func(id string) bool {
			return slices.Contains(ch.Removed, id)
		})
	}

	switch ch.Kind {
	case timeline.ChangeClipSplit:
		c.sel.Clips = slices.Clone(ch.Created)
	case timeline.ChangeTrackRemoved:
		if c.sel.TrackID == ch.ID {
			c.sel.TrackID = ""
		}
	case timeline.ChangeMediaRemoved:
		if c.sel.MediaID == ch.ID {
			c.sel.MediaID = ""
		}
	case timeline.ChangeRestored:
		c.sel.Clips = slices.DeleteFunc(c.sel.Clips, func(id string) bool {
			_, ok := c.tl.Clip(id)
			return !ok
		})
		if _, ok := c.tl.Track(c.sel.TrackID); !ok {
			c.sel.TrackID = ""
		}
		if _, ok := c.tl.MediaItem(c.sel.MediaID); !ok {
			c.sel.MediaID = ""
		}
	}

	if c.current > ch.Duration {
		c.current = ch.Duration
	}
	if c.playing && ch.Duration <= 0 {
		c.playing = false
	}
}
