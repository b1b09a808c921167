// Package history checkpoints the timeline after each completed edit and
// restores earlier checkpoints.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/store"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

var ErrNotFound = errors.New("snapshot not found")

const (
	DefaultListLimit = 50
	queueSize        = 64
)

type SnapshotStore interface {
	AppendSnapshot(ctx context.Context, s *store.Snapshot) (int64, error)
	GetSnapshot(ctx context.Context, seq int64) (*store.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*store.Snapshot, error)
}

// Doer runs a closure on the engine goroutine.
type Doer interface {
	Do(ctx context.Context, fn func(p *engine.Project) error) error
}

// Recorder captures timeline snapshots on Commit and appends them to the
// store from a single writer goroutine, so checkpoints land in commit order.
//
// Commit must be called from the goroutine that owns the timeline.
type Recorder struct {
	tl     *timeline.Timeline
	store  SnapshotStore
	logger *slog.Logger

	queue chan *store.Snapshot
	wg    sync.WaitGroup
	once  sync.Once
}

func NewRecorder(tl *timeline.Timeline, s SnapshotStore, logger *slog.Logger) *Recorder {
	if logger != nil {
		logger = logging.WithComponent(logger, "history")
	}
	r := &Recorder{
		tl:     tl,
		store:  s,
		logger: logger,
		queue:  make(chan *store.Snapshot, queueSize),
	}
	r.wg.Add(1)
	go r.write()
	return r
}

// Commit checkpoints the current timeline. When the writer falls too far
// behind the checkpoint is dropped and logged.
func (r *Recorder) Commit() {
	snap := r.tl.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		r.warn("encode snapshot failed", err)
		return
	}

	entry := &store.Snapshot{
		Duration:  snap.Duration,
		ClipCount: r.tl.ClipCount(),
		Data:      data,
	}
	select {
	case r.queue <- entry:
	default:
		r.warn("history queue full, dropping checkpoint", nil)
	}
}

func (r *Recorder) write() {
	defer r.wg.Done()
	for entry := range r.queue {
		seq, err := r.store.AppendSnapshot(context.Background(), entry)
		if err != nil {
			r.warn("append snapshot failed", err)
			continue
		}
		if r.logger != nil {
			r.logger.Debug("checkpoint saved", "seq", seq, "duration", entry.Duration, "clips", entry.ClipCount)
		}
	}
}

// Close flushes queued checkpoints and stops the writer. Commit must not be
// called afterwards.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
		r.wg.Wait()
	})
}

// List returns up to limit checkpoints, newest first. Data is not loaded.
func (r *Recorder) List(ctx context.Context, limit int) ([]*store.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	list, err := r.store.ListSnapshots(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if list == nil {
		list = []*store.Snapshot{}
	}
	return list, nil
}

// Load decodes checkpoint seq.
func (r *Recorder) Load(ctx context.Context, seq int64) (timeline.Snapshot, error) {
	entry, err := r.store.GetSnapshot(ctx, seq)
	if err != nil {
		return timeline.Snapshot{}, fmt.Errorf("get snapshot %d: %w", seq, err)
	}
	if entry == nil {
		return timeline.Snapshot{}, ErrNotFound
	}
	var snap timeline.Snapshot
	if err := json.Unmarshal(entry.Data, &snap); err != nil {
		return timeline.Snapshot{}, fmt.Errorf("decode snapshot %d: %w", seq, err)
	}
	return snap, nil
}

// Latest decodes the newest checkpoint. The bool is false when there is no
// history yet.
func (r *Recorder) Latest(ctx context.Context) (timeline.Snapshot, bool, error) {
	list, err := r.store.ListSnapshots(ctx, 1)
	if err != nil {
		return timeline.Snapshot{}, false, fmt.Errorf("list snapshots: %w", err)
	}
	if len(list) == 0 {
		return timeline.Snapshot{}, false, nil
	}
	snap, err := r.Load(ctx, list[0].Seq)
	if err != nil {
		return timeline.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Restore replaces the project with checkpoint seq on the engine goroutine
// and records the restored state as a new checkpoint.
func (r *Recorder) Restore(ctx context.Context, e Doer, seq int64) error {
	snap, err := r.Load(ctx, seq)
	if err != nil {
		return err
	}
	return e.Do(ctx, func(p *engine.Project) error {
		if err := p.Timeline.Restore(snap); err != nil {
			return fmt.Errorf("restore snapshot %d: %w", seq, err)
		}
		r.Commit()
		if r.logger != nil {
			r.logger.Info("restored checkpoint", "seq", seq, "duration", p.Timeline.Duration())
		}
		return nil
	})
}

func (r *Recorder) warn(msg string, err error) {
	if r.logger == nil {
		return
	}
	if err != nil {
		r.logger.Warn(msg, "error", err)
		return
	}
	r.logger.Warn(msg)
}
