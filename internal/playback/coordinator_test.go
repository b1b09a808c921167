package playback

import (
	"math"
	"reflect"
	"testing"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func setupTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl := timeline.New(nil)
	steps := []error{
		tl.AddMediaItem(media.Item{ID: "m1", Kind: media.KindVideo, Path: "/tmp/a.mp4", Duration: 60}),
		tl.AddMediaItem(media.Item{ID: "m2", Kind: media.KindAudio, Path: "/tmp/b.wav", Duration: 60}),
		tl.AddTrack(timeline.Track{ID: "v1", Kind: timeline.TrackVideo, Visible: true}),
		tl.AddTrack(timeline.Track{ID: "v2", Kind: timeline.TrackVideo, Visible: true}),
		tl.AddTrack(timeline.Track{ID: "a1", Kind: timeline.TrackAudio, Visible: true}),
		tl.AddClip(timeline.Clip{ID: "first", TrackID: "v1", MediaItemID: "m1", StartTime: 0, Duration: 10, TrimStart: 2, Volume: 1}),
		tl.AddClip(timeline.Clip{ID: "overlap", TrackID: "v1", MediaItemID: "m1", StartTime: 5, Duration: 10, Volume: 1}),
		tl.AddClip(timeline.Clip{ID: "upper", TrackID: "v2", MediaItemID: "m1", StartTime: 12, Duration: 4, Volume: 1}),
		tl.AddClip(timeline.Clip{ID: "orphan", TrackID: "v2", MediaItemID: "gone", StartTime: 20, Duration: 2, Volume: 1}),
		tl.AddClip(timeline.Clip{ID: "music", TrackID: "a1", MediaItemID: "m2", StartTime: 0, Duration: 30, Volume: 0.8}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("setup step %d: %v", i, err)
		}
	}
	return tl
}

func TestActiveClipAt(t *testing.T) {
	tl := setupTimeline(t)
	c := NewCoordinator(tl, nil)
	defer c.Close()

	tests := []struct {
		name       string
		time       float64
		kind       timeline.TrackKind
		wantClip   string
		wantSource float64
		wantMedia  bool
	}{
		{name: "start inclusive", time: 0, kind: timeline.TrackVideo, wantClip: "first", wantSource: 2, wantMedia: true},
		{name: "overlap first in list wins", time: 7, kind: timeline.TrackVideo, wantClip: "first", wantSource: 9, wantMedia: true},
		{name: "end exclusive", time: 10, kind: timeline.TrackVideo, wantClip: "overlap", wantSource: 5, wantMedia: true},
		{name: "earlier track wins", time: 13, kind: timeline.TrackVideo, wantClip: "overlap", wantSource: 8, wantMedia: true},
		{name: "second track", time: 15.5, kind: timeline.TrackVideo, wantClip: "upper", wantSource: 3.5, wantMedia: true},
		{name: "orphaned clip", time: 21, kind: timeline.TrackVideo, wantClip: "orphan", wantSource: 1},
		{name: "audio", time: 21, kind: timeline.TrackAudio, wantClip: "music", wantSource: 21, wantMedia: true},
		{name: "gap", time: 18, kind: timeline.TrackVideo},
		{name: "text has nothing", time: 1, kind: timeline.TrackText},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := c.ActiveClipAt(tc.time, tc.kind)
			if tc.wantClip == "" {
				if ok {
					t.Fatalf("ActiveClipAt(%v) = %s, want none", tc.time, got.Clip.ID)
				}
				return
			}
			if !ok || got.Clip.ID != tc.wantClip {
				t.Fatalf("ActiveClipAt(%v) = %q, %v; want %q", tc.time, got.Clip.ID, ok, tc.wantClip)
			}
			if math.Abs(got.SourceTime-tc.wantSource) > 1e-9 {
				t.Errorf("SourceTime = %v, want %v", got.SourceTime, tc.wantSource)
			}
			if (got.Media != nil) != tc.wantMedia {
				t.Errorf("Media = %v, want present=%v", got.Media, tc.wantMedia)
			}
		})
	}
}

func TestActiveClipAt_SkipsHiddenTracks(t *testing.T) {
	tl := setupTimeline(t)
	c := NewCoordinator(tl, nil)

	hidden := false
	if err := tl.UpdateTrack("v1", timeline.TrackPatch{Visible: &hidden}); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.ActiveClipAt(2, timeline.TrackVideo); ok {
		t.Fatalf("ActiveClipAt(2) = %s, want none while v1 is hidden", got.Clip.ID)
	}
}

func TestSeekClamps(t *testing.T) {
	tl := setupTimeline(t)
	c := NewCoordinator(tl, nil)

	tests := map[float64]float64{-5: 0, 12.5: 12.5, 500: 30}
	for in, want := range tests {
		if got := c.Seek(in); got != want {
			t.Errorf("Seek(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestPlayAdvanceStopsAtEnd(t *testing.T) {
	tl := setupTimeline(t)
	c := NewCoordinator(tl, nil)

	if c.Advance(1) {
		t.Fatal("Advance() moved while paused")
	}
	c.Seek(29)
	if !c.Play() {
		t.Fatal("Play() = false")
	}
	c.Advance(0.5)
	if c.CurrentTime() != 29.5 || !c.Playing() {
		t.Fatalf("after 0.5s: time %v playing %v", c.CurrentTime(), c.Playing())
	}
	c.Advance(2)
	if c.CurrentTime() != 30 || c.Playing() {
		t.Fatalf("after end: time %v playing %v, want 30 false", c.CurrentTime(), c.Playing())
	}

	c.Play()
	if c.CurrentTime() != 0 {
		t.Errorf("Play() at end did not rewind, time = %v", c.CurrentTime())
	}
	if c.Toggle() {
		t.Error("Toggle() while playing should pause")
	}
}

func TestPlay_EmptyTimeline(t *testing.T) {
	c := NewCoordinator(timeline.New(nil), nil)
	if c.Play() || c.Playing() {
		t.Fatal("empty timeline should not play")
	}
}

func TestSelectionFollowsChanges(t *testing.T) {
	tl := setupTimeline(t)
	c := NewCoordinator(tl, nil)

	c.SelectClips("first", "upper", "first")
	c.SelectTrack("v2")
	c.SelectMedia("m2")
	if got := c.Selection().Clips; !reflect.DeepEqual(got, []string{"first", "upper"}) {
		t.Fatalf("Clips = %v, want deduplicated [first upper]", got)
	}

	if err := tl.RemoveClip("first"); err != nil {
		t.Fatal(err)
	}
	if got := c.Selection().Clips; !reflect.DeepEqual(got, []string{"upper"}) {
		t.Fatalf("after remove Clips = %v, want [upper]", got)
	}

	left, right, err := tl.SplitClip("overlap", 9)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Selection().Clips; !reflect.DeepEqual(got, []string{left, right}) {
		t.Fatalf("after split Clips = %v, want [%s %s]", got, left, right)
	}

	if err := tl.RemoveTrack("v2"); err != nil {
		t.Fatal(err)
	}
	if c.Selection().TrackID != "" {
		t.Error("removed track still selected")
	}
	if err := tl.RemoveMediaItem("m2"); err != nil {
		t.Fatal(err)
	}
	if c.Selection().MediaID != "" {
		t.Error("removed media still selected")
	}
}

func TestPlayheadClampsWhenTimelineShrinks(t *testing.T) {
	tl := setupTimeline(t)
	c := NewCoordinator(tl, nil)

	c.Seek(25)
	if err := tl.RemoveTrack("a1"); err != nil {
		t.Fatal(err)
	}
	if got := c.CurrentTime(); got != 22 {
		t.Fatalf("CurrentTime() = %v, want 22", got)
	}
}

func TestClose_StopsFollowing(t *testing.T) {
	tl := setupTimeline(t)
	c := NewCoordinator(tl, nil)
	c.SelectClips("first")
	c.Close()

	tl.RemoveClip("first")
	if got := c.Selection().Clips; len(got) != 1 {
		t.Fatalf("Clips = %v, want unchanged after Close", got)
	}
}
