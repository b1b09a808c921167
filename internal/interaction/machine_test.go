package interaction

import (
	"errors"
	"math"
	"testing"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/clipforge/clipforge-agent/internal/viewport"
)

type fakeCursor struct {
	seeks    []float64
	selected []string
}

func (f *fakeCursor) Seek(t float64) float64 {
	f.seeks = append(f.seeks, t)
	return t
}

func (f *fakeCursor) SelectClips(ids ...string) {
	f.selected = append([]string(nil), ids...)
}

type countingCommitter struct {
	commits int
}

func (c *countingCommitter) Commit() { c.commits++ }

type fixture struct {
	tl      *timeline.Timeline
	vp      *viewport.Viewport
	cursor  *fakeCursor
	history *countingCommitter
	m       *Machine
}

// newFixture builds a machine at 10 px/s with one video track t1 holding
// c1 = [2s, 10s) with 1s trimmed from the source start.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	tl := timeline.New(nil)
	if err := tl.AddMediaItem(media.Item{ID: "m1", Kind: media.KindVideo, Duration: 60}); err != nil {
		t.Fatal(err)
	}
	if err := tl.AddTrack(timeline.Track{ID: "t1", Kind: timeline.TrackVideo, Visible: true}); err != nil {
		t.Fatal(err)
	}
	if err := tl.AddClip(timeline.Clip{ID: "c1", TrackID: "t1", MediaItemID: "m1", StartTime: 2, Duration: 8, TrimStart: 1, Volume: 1}); err != nil {
		t.Fatal(err)
	}

	vp := viewport.New(viewport.DefaultConfig())
	vp.SetZoom(10)

	f := &fixture{tl: tl, vp: vp, cursor: &fakeCursor{}, history: &countingCommitter{}}
	f.m = New(DefaultConfig(), tl, vp, f.cursor, f.history, nil)
	return f
}

func (f *fixture) clip(t *testing.T, id string) timeline.Clip {
	t.Helper()
	c, ok := f.tl.Clip(id)
	if !ok {
		t.Fatalf("clip %s not found", id)
	}
	return c
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDrag_MovesAndCommitsOnce(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(50, Target{ClipID: "c1"})
	if f.m.State() != StateDragging {
		t.Fatalf("State() = %s, want %s", f.m.State(), StateDragging)
	}
	if len(f.cursor.selected) != 1 || f.cursor.selected[0] != "c1" {
		t.Errorf("selection = %v, want [c1]", f.cursor.selected)
	}

	for _, x := range []float64{55, 60, 70, 80} {
		f.m.PointerMove(x)
		f.m.Frame()
	}
	f.m.PointerUp(80)

	if got := f.clip(t, "c1").StartTime; !approx(got, 5) {
		t.Errorf("StartTime = %v, want 5", got)
	}
	if f.history.commits != 1 {
		t.Errorf("commits = %d, want 1", f.history.commits)
	}
	if f.m.State() != StateIdle {
		t.Errorf("State() after up = %s, want idle", f.m.State())
	}
}

func TestDrag_ClampsAtZero(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(50, Target{ClipID: "c1"})
	f.m.PointerMove(-400)
	f.m.Frame()
	f.m.PointerUp(-400)

	if got := f.clip(t, "c1").StartTime; got != 0 {
		t.Fatalf("StartTime = %v, want 0", got)
	}
}

func TestPointerMove_CoalescedUntilFrame(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(50, Target{ClipID: "c1"})
	f.m.PointerMove(60)
	f.m.PointerMove(90)
	if got := f.clip(t, "c1").StartTime; got != 2 {
		t.Fatalf("StartTime before Frame = %v, want 2", got)
	}

	if !f.m.Frame() {
		t.Fatal("Frame() = false, want true")
	}
	if got := f.clip(t, "c1").StartTime; !approx(got, 6) {
		t.Fatalf("StartTime after Frame = %v, want 6", got)
	}
	if f.m.Frame() {
		t.Error("second Frame() applied again")
	}
}

func TestPointerUp_FlushesPendingMove(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(50, Target{ClipID: "c1"})
	f.m.PointerMove(100)
	f.m.PointerUp(100)

	if got := f.clip(t, "c1").StartTime; !approx(got, 7) {
		t.Fatalf("StartTime = %v, want 7", got)
	}
	if f.history.commits != 1 {
		t.Errorf("commits = %d, want 1", f.history.commits)
	}
}

func TestGesture_BelowThresholdDoesNotCommit(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(50, Target{ClipID: "c1"})
	f.m.PointerMove(51.5)
	f.m.Frame()
	f.m.PointerUp(51.5)

	if f.history.commits != 0 {
		t.Fatalf("commits = %d, want 0", f.history.commits)
	}
}

func TestGesture_ReturnToStartDoesNotCommit(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(50, Target{ClipID: "c1"})
	f.m.PointerMove(90)
	f.m.Frame()
	f.m.PointerUp(50)

	if f.history.commits != 0 {
		t.Fatalf("commits = %d, want 0", f.history.commits)
	}
}

func TestResizeRight_ClampsAtFloor(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(99, Target{ClipID: "c1", Edge: viewport.EdgeRight})
	if f.m.State() != StateResizing {
		t.Fatalf("State() = %s, want %s", f.m.State(), StateResizing)
	}
	f.m.PointerMove(-1000)
	f.m.Frame()
	f.m.PointerUp(-1000)

	c := f.clip(t, "c1")
	if !approx(c.Duration, 0.1) {
		t.Fatalf("Duration = %v, want 0.1", c.Duration)
	}
	if c.StartTime != 2 {
		t.Errorf("StartTime = %v, want 2", c.StartTime)
	}
}

func TestResizeLeft(t *testing.T) {
	tests := []struct {
		name      string
		toX       float64
		wantStart float64
		wantDur   float64
		wantTrim  float64
	}{
		{name: "trim in", toX: 40, wantStart: 4, wantDur: 6, wantTrim: 3},
		{name: "extend into source", toX: 15, wantStart: 1.5, wantDur: 8.5, wantTrim: 0.5},
		{name: "source exhausted", toX: -200, wantStart: 1, wantDur: 9, wantTrim: 0},
		{name: "duration floor", toX: 900, wantStart: 9.9, wantDur: 0.1, wantTrim: 8.9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.m.PointerDown(20, Target{ClipID: "c1", Edge: viewport.EdgeLeft})
			f.m.PointerMove(tc.toX)
			f.m.PointerUp(tc.toX)

			c := f.clip(t, "c1")
			if !approx(c.StartTime, tc.wantStart) || !approx(c.Duration, tc.wantDur) || !approx(c.TrimStart, tc.wantTrim) {
				t.Fatalf("clip = start %v dur %v trim %v; want %v %v %v",
					c.StartTime, c.Duration, c.TrimStart, tc.wantStart, tc.wantDur, tc.wantTrim)
			}
		})
	}
}

func TestGesture_RemovedClipIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.m.PointerDown(50, Target{ClipID: "c1"})
	f.m.PointerMove(90)
	f.m.Frame()
	if err := f.tl.RemoveClip("c1"); err != nil {
		t.Fatal(err)
	}
	f.m.PointerMove(120)
	f.m.Frame()
	f.m.PointerUp(120)

	if f.history.commits != 0 {
		t.Errorf("commits = %d, want 0", f.history.commits)
	}
	if f.tl.ClipCount() != 0 {
		t.Errorf("ClipCount() = %d, want 0", f.tl.ClipCount())
	}
}

func TestPointerDown_MissingClipStaysIdle(t *testing.T) {
	f := newFixture(t)
	f.m.PointerDown(50, Target{ClipID: "ghost"})
	if f.m.State() != StateIdle {
		t.Fatalf("State() = %s, want idle", f.m.State())
	}
}

func TestCancel_RestoresAnchor(t *testing.T) {
	f := newFixture(t)
	before := f.clip(t, "c1")

	f.m.PointerDown(20, Target{ClipID: "c1", Edge: viewport.EdgeLeft})
	f.m.PointerMove(60)
	f.m.Frame()
	f.m.Cancel()

	after := f.clip(t, "c1")
	if after.StartTime != before.StartTime || after.Duration != before.Duration || after.TrimStart != before.TrimStart {
		t.Fatalf("clip after cancel = %+v, want %+v", after, before)
	}
	if f.history.commits != 0 {
		t.Errorf("commits = %d, want 0", f.history.commits)
	}
	if f.m.State() != StateIdle {
		t.Errorf("State() = %s, want idle", f.m.State())
	}
}

func TestClickSeeks(t *testing.T) {
	tests := []struct {
		name  string
		downX float64
		upX   float64
		want  []float64
	}{
		{name: "inside", downX: 45, upX: 46, want: []float64{4.6}},
		{name: "past end clamps", downX: 900, upX: 900, want: []float64{10}},
		{name: "before zero clamps", downX: -30, upX: -30, want: []float64{0}},
		{name: "drag is not a click", downX: 10, upX: 40, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.m.PointerDown(tc.downX, Target{})
			f.m.PointerMove(tc.upX)
			f.m.PointerUp(tc.upX)

			if len(f.cursor.seeks) != len(tc.want) {
				t.Fatalf("seeks = %v, want %v", f.cursor.seeks, tc.want)
			}
			for i := range tc.want {
				if !approx(f.cursor.seeks[i], tc.want[i]) {
					t.Errorf("seek[%d] = %v, want %v", i, f.cursor.seeks[i], tc.want[i])
				}
			}
		})
	}
}

func TestDrop_AudioOnVideoTrackCreatesAudioTrack(t *testing.T) {
	f := newFixture(t)
	f.tl.AddMediaItem(media.Item{ID: "a1", Kind: media.KindAudio, Duration: 12})

	res, err := f.m.Drop("a1", 35, Target{TrackID: "t1"})
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if !res.CreatedTrack || res.TrackID == "t1" {
		t.Fatalf("Drop() = %+v, want a new track", res)
	}

	track, ok := f.tl.Track(res.TrackID)
	if !ok || track.Kind != timeline.TrackAudio || track.Name != "Audio 1" {
		t.Fatalf("new track = %+v, want Audio 1 of kind audio", track)
	}
	c := f.clip(t, res.ClipID)
	if !approx(c.StartTime, 3.5) || c.Duration != 12 || c.Volume != 1 {
		t.Errorf("clip = %+v, want start 3.5 duration 12 volume 1", c)
	}
	if len(f.tl.ClipsOn("t1")) != 1 {
		t.Error("audio clip placed on video track")
	}
	if f.history.commits != 1 {
		t.Errorf("commits = %d, want 1", f.history.commits)
	}
}

func TestDrop_Placement(t *testing.T) {
	tests := []struct {
		name        string
		media       media.Item
		x           float64
		target      Target
		lockT1      bool
		wantTrack   string
		wantStart   float64
		wantDur     float64
		wantCreated bool
	}{
		{
			name:      "compatible track",
			media:     media.Item{ID: "v2", Kind: media.KindVideo, Duration: 30},
			x:         120,
			target:    Target{TrackID: "t1"},
			wantTrack: "t1", wantStart: 12, wantDur: 30,
		},
		{
			name:      "image on video track gets still duration",
			media:     media.Item{ID: "img", Kind: media.KindImage},
			x:         -50,
			target:    Target{TrackID: "t1"},
			wantTrack: "t1", wantStart: 0, wantDur: 5,
		},
		{
			name:        "locked track",
			media:       media.Item{ID: "v2", Kind: media.KindVideo, Duration: 30},
			x:           120,
			target:      Target{TrackID: "t1"},
			lockT1:      true,
			wantStart:   12,
			wantDur:     30,
			wantCreated: true,
		},
		{
			name:        "empty area",
			media:       media.Item{ID: "img", Kind: media.KindImage},
			x:           300,
			wantStart:   0,
			wantDur:     5,
			wantCreated: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.tl.AddMediaItem(tc.media)
			if tc.lockT1 {
				locked := true
				f.tl.UpdateTrack("t1", timeline.TrackPatch{Locked: &locked})
			}

			res, err := f.m.Drop(tc.media.ID, tc.x, tc.target)
			if err != nil {
				t.Fatalf("Drop() error = %v", err)
			}
			if res.CreatedTrack != tc.wantCreated {
				t.Errorf("CreatedTrack = %v, want %v", res.CreatedTrack, tc.wantCreated)
			}
			if tc.wantTrack != "" && res.TrackID != tc.wantTrack {
				t.Errorf("TrackID = %s, want %s", res.TrackID, tc.wantTrack)
			}
			c := f.clip(t, res.ClipID)
			if !approx(c.StartTime, tc.wantStart) || c.Duration != tc.wantDur {
				t.Errorf("clip = %+v, want start %v dur %v", c, tc.wantStart, tc.wantDur)
			}
			if created, _ := f.tl.Track(res.TrackID); tc.wantCreated && created.Kind != timeline.TrackVideo {
				t.Errorf("created track kind = %s, want video", created.Kind)
			}
		})
	}
}

func TestDrop_UnknownMedia(t *testing.T) {
	f := newFixture(t)
	before := f.tl.Snapshot()

	_, err := f.m.Drop("nope", 10, Target{TrackID: "t1"})
	if !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("Drop() error = %v, want media.ErrNotFound", err)
	}
	if len(f.tl.Tracks()) != len(before.Tracks) || f.history.commits != 0 {
		t.Fatal("failed drop changed state or committed")
	}
}

func TestResizeRight_StopsAtSourceEnd(t *testing.T) {
	f := newFixture(t)

	// c1 starts 1s into a 60s source, so it can grow to 59s.
	f.m.PointerDown(99, Target{ClipID: "c1", Edge: viewport.EdgeRight})
	f.m.PointerMove(99 + 1000)
	f.m.Frame()
	f.m.PointerUp(99 + 1000)

	c := f.clip(t, "c1")
	if !approx(c.Duration, 59) {
		t.Fatalf("Duration = %v, want 59", c.Duration)
	}
	if f.history.commits != 1 {
		t.Errorf("commits = %d, want 1", f.history.commits)
	}

	l, r, err := f.tl.SplitClip("c1", 30)
	if err != nil {
		t.Fatalf("SplitClip() after extend error = %v", err)
	}
	if a := f.clip(t, l); !approx(a.TrimEnd, 31) {
		t.Errorf("left TrimEnd = %v, want 31", a.TrimEnd)
	}
	if b := f.clip(t, r); !approx(b.TrimStart, 29) {
		t.Errorf("right TrimStart = %v, want 29", b.TrimStart)
	}
}

func TestPointerDown_ResolvesTrackTarget(t *testing.T) {
	// c1 covers 20px to 100px at 10 px/s.
	tests := []struct {
		name      string
		x         float64
		wantState State
		wantEdge  viewport.Edge
	}{
		{name: "body", x: 50, wantState: StateDragging},
		{name: "left handle", x: 21, wantState: StateResizing, wantEdge: viewport.EdgeLeft},
		{name: "right handle", x: 98, wantState: StateResizing, wantEdge: viewport.EdgeRight},
		{name: "empty row", x: 150, wantState: StateIdle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.m.PointerDown(tc.x, Target{TrackID: "t1"})

			g := f.m.Gesture()
			if g.State != tc.wantState || g.Edge != tc.wantEdge {
				t.Fatalf("Gesture() = %+v, want state %s edge %q", g, tc.wantState, tc.wantEdge)
			}
			if tc.wantState != StateIdle && g.ClipID != "c1" {
				t.Errorf("ClipID = %q, want c1", g.ClipID)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	f := newFixture(t)

	explicit := Target{ClipID: "c1", TrackID: "t1"}
	if got := f.m.Resolve(98, explicit); got != explicit {
		t.Errorf("Resolve() rewrote an explicit target: %+v", got)
	}
	if got := f.m.Resolve(50, Target{TrackID: "nope"}); got.ClipID != "" {
		t.Errorf("Resolve() on missing track = %+v", got)
	}
	if got := f.m.Resolve(50, Target{}); got != (Target{}) {
		t.Errorf("Resolve() on empty target = %+v", got)
	}
}
