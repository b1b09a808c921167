// Package engine runs the editing model on a single goroutine.
//
// All access to the timeline, the viewport, the gesture machine and the
// playback coordinator goes through Do or Post. Closures run one at a time
// in submission order, interleaved with frame ticks. A closure must not call
// Do on the same engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipforge/clipforge-agent/internal/interaction"
	"github.com/clipforge/clipforge-agent/internal/playback"
	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/clipforge/clipforge-agent/internal/viewport"
)

var (
	ErrStopped = errors.New("engine stopped")
	ErrPanic   = errors.New("engine operation panicked")
)

const (
	DefaultFrameRate = 60
	queueSize        = 256
)

// Project is the state handed to submitted closures.
type Project struct {
	Timeline *timeline.Timeline
	Viewport *viewport.Viewport
	Gestures *interaction.Machine
	Player   *playback.Coordinator
}

type Options struct {
	Timeline    *timeline.Timeline
	Viewport    viewport.Config
	Interaction interaction.Config
	History     interaction.Committer
	FrameRate   int
	Logger      *slog.Logger
}

type Engine struct {
	project *Project
	logger  *slog.Logger
	frame   time.Duration

	ops  chan func()
	done chan struct{}
}

func New(opts Options) *Engine {
	tl := opts.Timeline
	if tl == nil {
		tl = timeline.New(nil)
	}
	rate := opts.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}

	vp := viewport.New(opts.Viewport)
	player := playback.NewCoordinator(tl, opts.Logger)
	machine := interaction.New(opts.Interaction, tl, vp, player, opts.History, opts.Logger)

	return &Engine{
		project: &Project{
			Timeline: tl,
			Viewport: vp,
			Gestures: machine,
			Player:   player,
		},
		logger: opts.Logger,
		frame:  time.Second / time.Duration(rate),
		ops:    make(chan func(), queueSize),
		done:   make(chan struct{}),
	}
}

// Run processes submitted closures and frame ticks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.project.Player.Close()

	ticker := time.NewTicker(e.frame)
	defer ticker.Stop()
	last := time.Now()

	if e.logger != nil {
		e.logger.Info("engine started", "frame_interval", e.frame.String())
	}

	for {
		select {
		case <-ctx.Done():
			if e.logger != nil {
				e.logger.Info("engine stopped")
			}
			return nil
		case op := <-e.ops:
			e.exec(op)
		case now := <-ticker.C:
			e.exec(func() {
				e.project.Gestures.Frame()
				e.project.Player.Advance(now.Sub(last).Seconds())
			})
			last = now
		}
	}
}

// Do runs fn on the engine goroutine and waits for its result.
func (e *Engine) Do(ctx context.Context, fn func(p *Project) error) error {
	errc := make(chan error, 1)
	op := func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
			errc <- err
		}()
		err = fn(e.project)
	}

	select {
	case e.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

// Post queues fn without waiting for it to run. It is dropped once the
// engine has stopped.
func (e *Engine) Post(fn func(p *Project)) {
	select {
	case e.ops <- func() { fn(e.project) }:
	case <-e.done:
	}
}

func (e *Engine) exec(op func()) {
	defer func() {
		if r := recover(); r != nil && e.logger != nil {
			e.logger.Error("engine operation panicked", "panic", fmt.Sprint(r))
		}
	}()
	op()
}
