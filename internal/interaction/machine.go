// Package interaction turns pointer gestures into timeline edits.
//
// A Machine is driven from a single goroutine. Pointer moves are coalesced:
// only the latest position is kept and it is applied on the next Frame.
package interaction

import (
	"log/slog"
	"math"

	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/clipforge/clipforge-agent/internal/viewport"
)

type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging_clip"
	StateResizing State = "resizing_clip"
)

// Target describes what is under the pointer. A zero Target is empty
// timeline space or the ruler.
type Target struct {
	ClipID  string        `json:"clip_id,omitempty"`
	Edge    viewport.Edge `json:"edge,omitempty"`
	TrackID string        `json:"track_id,omitempty"`
}

// Cursor receives seeks and selection changes.
type Cursor interface {
	Seek(t float64) float64
	SelectClips(ids ...string)
}

// Committer is told to checkpoint history once per completed edit.
type Committer interface {
	Commit()
}

type Config struct {
	MinDuration     float64
	MoveThresholdPx float64
	StillDuration   float64
	// HandlePx is the width of the resize handle at each clip edge when a
	// target is resolved from a track row.
	HandlePx float64
}

func DefaultConfig() Config {
	return Config{
		MinDuration:     0.1,
		MoveThresholdPx: 2,
		StillDuration:   5,
		HandlePx:        8,
	}
}

type anchor struct {
	x           float64
	startTime   float64
	duration    float64
	trimStart   float64
	maxDuration float64
}

// Gesture is a read-only view of the machine state.
type Gesture struct {
	State  State         `json:"state"`
	ClipID string        `json:"clip_id,omitempty"`
	Edge   viewport.Edge `json:"edge,omitempty"`
}

type Machine struct {
	cfg     Config
	tl      *timeline.Timeline
	vp      *viewport.Viewport
	cursor  Cursor
	history Committer
	logger  *slog.Logger

	state  State
	clipID string
	edge   viewport.Edge
	anchor anchor
	moved  bool

	pendingX   float64
	hasPending bool

	seeking bool
	seekX   float64
}

func New(cfg Config, tl *timeline.Timeline, vp *viewport.Viewport, cursor Cursor, history Committer, logger *slog.Logger) *Machine {
	d := DefaultConfig()
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = d.MinDuration
	}
	if cfg.MoveThresholdPx < 0 {
		cfg.MoveThresholdPx = d.MoveThresholdPx
	}
	if cfg.StillDuration <= 0 {
		cfg.StillDuration = d.StillDuration
	}
	if cfg.HandlePx < 0 {
		cfg.HandlePx = d.HandlePx
	}
	return &Machine{
		cfg:     cfg,
		tl:      tl,
		vp:      vp,
		cursor:  cursor,
		history: history,
		logger:  logger,
		state:   StateIdle,
	}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Gesture() Gesture {
	return Gesture{State: m.state, ClipID: m.clipID, Edge: m.edge}
}

// PointerDown starts a gesture. A clip body starts a drag, a clip edge
// starts a resize, anything else arms a click-to-seek. A target naming only
// a track is resolved against that track's clips. Ignored while a gesture
// is already active.
func (m *Machine) PointerDown(x float64, target Target) {
	if m.state != StateIdle || !finite(x) {
		return
	}
	m.seeking = false
	target = m.Resolve(x, target)

	if target.ClipID == "" {
		m.seeking = true
		m.seekX = x
		return
	}

	clip, ok := m.tl.Clip(target.ClipID)
	if !ok {
		return
	}

	m.clipID = clip.ID
	m.edge = target.Edge
	m.anchor = anchor{
		x:           x,
		startTime:   clip.StartTime,
		duration:    clip.Duration,
		trimStart:   clip.TrimStart,
		maxDuration: m.tl.MaxDuration(clip),
	}
	m.moved = false
	m.hasPending = false
	if target.Edge == viewport.EdgeLeft || target.Edge == viewport.EdgeRight {
		m.state = StateResizing
	} else {
		m.edge = viewport.EdgeNone
		m.state = StateDragging
	}

	if m.cursor != nil {
		m.cursor.SelectClips(clip.ID)
	}
}

// PointerMove records the latest pointer position. Nothing is applied until
// the next Frame.
func (m *Machine) PointerMove(x float64) {
	if !finite(x) {
		return
	}
	if m.state == StateIdle {
		if m.seeking && math.Abs(x-m.seekX) > m.cfg.MoveThresholdPx {
			m.seeking = false
		}
		return
	}
	if math.Abs(x-m.anchor.x) > m.cfg.MoveThresholdPx {
		m.moved = true
	}
	m.pendingX = x
	m.hasPending = true
}

// Frame applies the pending pointer position, if any, and reports whether
// an update was attempted.
func (m *Machine) Frame() bool {
	if m.state == StateIdle || !m.hasPending {
		return false
	}
	m.hasPending = false
	m.apply(m.pendingX)
	return true
}

// PointerUp ends the gesture. A drag or resize that moved past the
// threshold and changed the clip commits history once. A click on empty
// space seeks.
func (m *Machine) PointerUp(x float64) {
	if m.state == StateIdle {
		if m.seeking && finite(x) && math.Abs(x-m.seekX) <= m.cfg.MoveThresholdPx {
			m.seek(x)
		}
		m.seeking = false
		return
	}

	m.PointerMove(x)
	m.Frame()

	if m.moved && m.changed() && m.history != nil {
		m.history.Commit()
	}
	m.reset()
}

// Cancel aborts the active gesture and puts the clip back where it was at
// pointer-down. No history is committed.
func (m *Machine) Cancel() {
	m.seeking = false
	if m.state == StateIdle {
		return
	}
	err := m.tl.UpdateClip(m.clipID, timeline.ClipPatch{
		StartTime: timeline.Float(m.anchor.startTime),
		Duration:  timeline.Float(m.anchor.duration),
		TrimStart: timeline.Float(m.anchor.trimStart),
	})
	if err != nil && m.logger != nil {
		m.logger.Debug("gesture cancel ignored", "clip_id", m.clipID, "error", err)
	}
	m.reset()
}

func (m *Machine) apply(x float64) {
	dt := viewport.PixelToTime(x-m.anchor.x, m.vp.Zoom())
	a := m.anchor

	var p timeline.ClipPatch
	switch {
	case m.state == StateDragging:
		p.StartTime = timeline.Float(math.Max(0, a.startTime+dt))

	case m.edge == viewport.EdgeLeft:
		// The source offset cannot go below zero and the left edge cannot
		// pass the duration floor.
		dt = math.Max(dt, -a.trimStart)
		dt = math.Min(dt, math.Max(0, a.duration-m.cfg.MinDuration))
		p.StartTime = timeline.Float(math.Max(0, a.startTime+dt))
		p.Duration = timeline.Float(math.Max(m.cfg.MinDuration, a.duration-dt))
		p.TrimStart = timeline.Float(a.trimStart + dt)

	case m.edge == viewport.EdgeRight:
		// The right edge stops where the source runs out.
		d := math.Max(m.cfg.MinDuration, a.duration+dt)
		p.Duration = timeline.Float(math.Min(d, math.Max(a.maxDuration, a.duration)))
	}

	if err := m.tl.UpdateClip(m.clipID, p); err != nil && m.logger != nil {
		m.logger.Debug("gesture update ignored", "clip_id", m.clipID, "error", err)
	}
}

// Resolve fills in the clip and edge under x when target names a track row
// but no clip. Targets that already name a clip, or name nothing, are
// returned unchanged.
func (m *Machine) Resolve(x float64, target Target) Target {
	if target.ClipID != "" || target.TrackID == "" || !finite(x) {
		return target
	}
	track, ok := m.tl.Track(target.TrackID)
	if !ok {
		return target
	}
	spans := make([]viewport.Span, len(track.Clips))
	for i, c := range track.Clips {
		spans[i] = viewport.Span{ID: c.ID, Start: c.StartTime, Duration: c.Duration}
	}
	if hit, ok := m.vp.HitTest(spans, x, m.cfg.HandlePx); ok {
		target.ClipID = hit.ID
		target.Edge = hit.Edge
	}
	return target
}

func (m *Machine) changed() bool {
	c, ok := m.tl.Clip(m.clipID)
	if !ok {
		return false
	}
	return c.StartTime != m.anchor.startTime ||
		c.Duration != m.anchor.duration ||
		c.TrimStart != m.anchor.trimStart
}

func (m *Machine) seek(x float64) {
	t := math.Max(0, m.vp.ToTime(x))
	t = math.Min(t, m.tl.Duration())
	if m.cursor != nil {
		m.cursor.Seek(t)
	}
}

func (m *Machine) reset() {
	m.state = StateIdle
	m.clipID = ""
	m.edge = viewport.EdgeNone
	m.anchor = anchor{}
	m.moved = false
	m.hasPending = false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
