// Package timeline owns the editing model: tracks, clips, their links into
// the media catalog and the derived total duration.
//
// A Timeline is not safe for concurrent use. Every mutation runs to
// completion, recomputes the duration from all clips and notifies
// subscribers before returning, so readers never observe a stale duration.
package timeline

import (
	"fmt"

	"github.com/clipforge/clipforge-agent/internal/media"
)

type ChangeKind string

const (
	ChangeMediaAdded   ChangeKind = "media_added"
	ChangeMediaUpdated ChangeKind = "media_updated"
	ChangeMediaRemoved ChangeKind = "media_removed"
	ChangeTrackAdded   ChangeKind = "track_added"
	ChangeTrackUpdated ChangeKind = "track_updated"
	ChangeTrackRemoved ChangeKind = "track_removed"
	ChangeClipAdded    ChangeKind = "clip_added"
	ChangeClipUpdated  ChangeKind = "clip_updated"
	ChangeClipRemoved  ChangeKind = "clip_removed"
	ChangeClipMoved    ChangeKind = "clip_moved"
	ChangeClipSplit    ChangeKind = "clip_split"
	ChangeRestored     ChangeKind = "restored"
)

// Change describes one completed mutation. Removed lists every clip id that
// left the timeline, including cascades; Created lists clips the mutation
// produced.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	ID       string     `json:"id,omitempty"`
	TrackID  string     `json:"track_id,omitempty"`
	Created  []string   `json:"created,omitempty"`
	Removed  []string   `json:"removed,omitempty"`
	Duration float64    `json:"duration"`
}

type subscriber struct {
	id int
	fn func(Change)
}

type Timeline struct {
	catalog  *media.Catalog
	tracks   []*Track
	duration float64

	subs   []subscriber
	nextID int
}

func New(catalog *media.Catalog) *Timeline {
	if catalog == nil {
		catalog = media.NewCatalog()
	}
	return &Timeline{catalog: catalog}
}

// Subscribe registers fn to run after every mutation, in subscription order.
// The returned func removes the subscription.
func (tl *Timeline) Subscribe(fn func(Change)) func() {
	tl.nextID++
	id := tl.nextID
	tl.subs = append(tl.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range tl.subs {
			if s.id == id {
				tl.subs = append(tl.subs[:i], tl.subs[i+1:]...)
				return
			}
		}
	}
}

func (tl *Timeline) commit(c Change) {
	tl.recompute()
	c.Duration = tl.duration
	for _, s := range append([]subscriber(nil), tl.subs...) {
		s.fn(c)
	}
}

func (tl *Timeline) recompute() {
	var d float64
	for _, t := range tl.tracks {
		for _, c := range t.Clips {
			d = max(d, c.End())
		}
	}
	tl.duration = d
}

func (tl *Timeline) Duration() float64 {
	return tl.duration
}

func (tl *Timeline) Tracks() []Track {
	out := make([]Track, len(tl.tracks))
	for i, t := range tl.tracks {
		out[i] = t.clone()
	}
	return out
}

func (tl *Timeline) Track(id string) (Track, bool) {
	t := tl.track(id)
	if t == nil {
		return Track{}, false
	}
	return t.clone(), true
}

func (tl *Timeline) Clip(id string) (Clip, bool) {
	t, i := tl.locate(id)
	if t == nil {
		return Clip{}, false
	}
	return *t.Clips[i].clone(), true
}

func (tl *Timeline) ClipsOn(trackID string) []Clip {
	t := tl.track(trackID)
	if t == nil {
		return nil
	}
	out := make([]Clip, len(t.Clips))
	for i, c := range t.Clips {
		out[i] = *c.clone()
	}
	return out
}

func (tl *Timeline) ClipCount() int {
	n := 0
	for _, t := range tl.tracks {
		n += len(t.Clips)
	}
	return n
}

// MediaFor resolves the media item a clip references. The second result is
// false for orphaned clips.
func (tl *Timeline) MediaFor(clipID string) (media.Item, bool) {
	t, i := tl.locate(clipID)
	if t == nil {
		return media.Item{}, false
	}
	return tl.MediaItem(t.Clips[i].MediaItemID)
}

func (tl *Timeline) MediaItem(id string) (media.Item, bool) {
	item, ok := tl.catalog.Get(id)
	if !ok {
		return media.Item{}, false
	}
	return *item, true
}

func (tl *Timeline) Media() []media.Item {
	return tl.catalog.List()
}

// DefaultTrackName numbers new tracks per kind, e.g. "Audio 2".
func (tl *Timeline) DefaultTrackName(kind TrackKind) string {
	n := 0
	for _, t := range tl.tracks {
		if t.Kind == kind {
			n++
		}
	}
	return fmt.Sprintf("%s %d", kind.Title(), n+1)
}

func (tl *Timeline) track(id string) *Track {
	for _, t := range tl.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (tl *Timeline) locate(clipID string) (*Track, int) {
	for _, t := range tl.tracks {
		for i, c := range t.Clips {
			if c.ID == clipID {
				return t, i
			}
		}
	}
	return nil, -1
}
