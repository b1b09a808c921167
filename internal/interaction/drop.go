package interaction

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

type DropResult struct {
	ClipID       string  `json:"clip_id"`
	TrackID      string  `json:"track_id"`
	StartTime    float64 `json:"start_time"`
	CreatedTrack bool    `json:"created_track"`
}

// Drop places a media item on the timeline. Over a track row the clip lands
// at the pointer time, on that track when the media fits it and on a new
// track of the media's kind otherwise. Over empty space a new track is
// created and the clip starts at zero.
func (m *Machine) Drop(mediaID string, x float64, target Target) (DropResult, error) {
	item, ok := m.tl.MediaItem(mediaID)
	if !ok {
		return DropResult{}, media.ErrNotFound
	}

	var res DropResult
	if track, ok := m.tl.Track(target.TrackID); ok {
		if finite(x) {
			res.StartTime = math.Max(0, m.vp.ToTime(x))
		}
		if !track.Locked && timeline.Compatible(item.Kind, track.Kind) {
			res.TrackID = track.ID
		}
	}

	if res.TrackID == "" {
		kind := timeline.TrackKindFor(item.Kind)
		res.TrackID = "track-" + uuid.NewString()
		err := m.tl.AddTrack(timeline.Track{
			ID:      res.TrackID,
			Kind:    kind,
			Name:    m.tl.DefaultTrackName(kind),
			Visible: true,
		})
		if err != nil {
			return DropResult{}, fmt.Errorf("create track: %w", err)
		}
		res.CreatedTrack = true
	}

	duration := item.Duration
	if !item.Bounded() {
		duration = m.cfg.StillDuration
	}

	res.ClipID = "clip-" + uuid.NewString()
	err := m.tl.AddClip(timeline.Clip{
		ID:          res.ClipID,
		MediaItemID: item.ID,
		TrackID:     res.TrackID,
		StartTime:   res.StartTime,
		Duration:    duration,
		Volume:      1,
	})
	if err != nil {
		return DropResult{}, fmt.Errorf("place clip: %w", err)
	}

	if m.logger != nil {
		m.logger.Debug("media dropped", "media_id", item.ID, "clip_id", res.ClipID, "track_id", res.TrackID)
	}
	if m.history != nil {
		m.history.Commit()
	}
	return res, nil
}
