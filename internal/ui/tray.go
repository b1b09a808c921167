package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getlantern/systray"

	"github.com/clipforge/clipforge-agent/internal/engine"
)

//go:embed icon.png
var iconBytes []byte

const defaultRefresh = time.Second

// Engine runs a closure against the project on the engine goroutine.
type Engine interface {
	Do(ctx context.Context, fn func(p *engine.Project) error) error
}

type Tray struct {
	engine  Engine
	logger  *slog.Logger
	refresh time.Duration

	statusItem *systray.MenuItem
	timeItem   *systray.MenuItem
	mediaItem  *systray.MenuItem
	playItem   *systray.MenuItem

	mu sync.Mutex

	onQuit func()
	stop   chan struct{}
}

type TrayConfig struct {
	Engine  Engine
	Logger  *slog.Logger
	Refresh time.Duration
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	refresh := cfg.Refresh
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	return &Tray{
		engine:  cfg.Engine,
		logger:  cfg.Logger,
		refresh: refresh,
		onQuit:  cfg.OnQuit,
		stop:    make(chan struct{}),
	}
}

// Run blocks on the systray event loop.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("ClipForge")
	systray.SetTooltip("ClipForge Agent")

	t.statusItem = systray.AddMenuItem("Empty timeline", "Timeline summary")
	t.statusItem.Disable()

	t.timeItem = systray.AddMenuItem("Playhead 0:00", "Playhead position")
	t.timeItem.Disable()

	t.mediaItem = systray.AddMenuItem("No media", "Imported media")
	t.mediaItem.Disable()

	systray.AddSeparator()

	t.playItem = systray.AddMenuItem("Play", "Toggle playback")
	rewindItem := systray.AddMenuItem("Rewind", "Move the playhead to the start")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit ClipForge Agent")

	go t.poll()

	go func() {
		for {
			select {
			case <-t.playItem.ClickedCh:
				t.togglePlayback()
			case <-rewindItem.ClickedCh:
				t.rewind()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.stop)
	t.logger.Info("system tray exiting")
}

func (t *Tray) poll() {
	ticker := time.NewTicker(t.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.update()
		}
	}
}

type trayState struct {
	duration float64
	tracks   int
	clips    int
	playhead float64
	playing  bool
	media    int
	bytes    int64
}

func (t *Tray) snapshot() (trayState, error) {
	var st trayState
	ctx, cancel := context.WithTimeout(context.Background(), t.refresh)
	defer cancel()
	err := t.engine.Do(ctx, func(p *engine.Project) error {
		st = trayState{
			duration: p.Timeline.Duration(),
			tracks:   len(p.Timeline.Tracks()),
			clips:    p.Timeline.ClipCount(),
			playhead: p.Player.CurrentTime(),
			playing:  p.Player.Playing(),
		}
		for _, item := range p.Timeline.Media() {
			st.media++
			st.bytes += item.Size
		}
		return nil
	})
	return st, err
}

func (t *Tray) update() {
	st, err := t.snapshot()
	if err != nil {
		t.logger.Debug("tray refresh failed", "error", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusItem.SetTitle(summary(st.duration, st.tracks, st.clips))
	t.timeItem.SetTitle("Playhead " + clock(st.playhead))
	t.mediaItem.SetTitle(mediaLine(st.media, st.bytes))
	if st.playing {
		t.playItem.SetTitle("Pause")
	} else {
		t.playItem.SetTitle("Play")
	}
}

func (t *Tray) togglePlayback() {
	err := t.engine.Do(context.Background(), func(p *engine.Project) error {
		p.Player.Toggle()
		return nil
	})
	if err != nil {
		t.logger.Error("failed to toggle playback", "error", err)
		return
	}
	t.update()
}

func (t *Tray) rewind() {
	err := t.engine.Do(context.Background(), func(p *engine.Project) error {
		p.Player.Seek(0)
		return nil
	})
	if err != nil {
		t.logger.Error("failed to rewind", "error", err)
		return
	}
	t.update()
}

func (t *Tray) Quit() {
	systray.Quit()
}

func summary(duration float64, tracks, clips int) string {
	if clips == 0 {
		return fmt.Sprintf("Empty timeline · %s", plural(tracks, "track"))
	}
	return fmt.Sprintf("%s · %s · %s", clock(duration), plural(tracks, "track"), plural(clips, "clip"))
}

// clock formats seconds as m:ss, or h:mm:ss from one hour up.
func clock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func mediaLine(n int, size int64) string {
	if n == 0 {
		return "No media"
	}
	if size < 0 {
		size = 0
	}
	return fmt.Sprintf("%s · %s", plural(n, "media file"), humanize.Bytes(uint64(size)))
}
