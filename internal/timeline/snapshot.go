package timeline

import (
	"fmt"

	"github.com/clipforge/clipforge-agent/internal/media"
)

// Snapshot is a deep copy of the whole project state.
type Snapshot struct {
	Media    []media.Item `json:"media"`
	Tracks   []Track      `json:"tracks"`
	Duration float64      `json:"duration"`
}

func (tl *Timeline) Snapshot() Snapshot {
	return Snapshot{
		Media:    tl.catalog.List(),
		Tracks:   tl.Tracks(),
		Duration: tl.duration,
	}
}

// Restore replaces the project with s. The stored duration in s is ignored
// and recomputed from the clips. On error the current state is kept.
func (tl *Timeline) Restore(s Snapshot) error {
	catalog := media.NewCatalog()
	for _, item := range s.Media {
		if err := catalog.Add(item); err != nil {
			return fmt.Errorf("restore media %q: %w", item.ID, err)
		}
	}

	staged := New(catalog)
	for _, t := range s.Tracks {
		if err := staged.AddTrack(t); err != nil {
			return fmt.Errorf("restore track %q: %w", t.ID, err)
		}
	}
	for _, t := range s.Tracks {
		for _, c := range t.Clips {
			clip := *c
			clip.TrackID = t.ID
			if err := staged.addRestored(clip); err != nil {
				return fmt.Errorf("restore clip %q: %w", c.ID, err)
			}
		}
	}

	tl.catalog = staged.catalog
	tl.tracks = staged.tracks
	tl.commit(Change{Kind: ChangeRestored})
	return nil
}

// addRestored bypasses the lock check: a snapshot may hold clips on tracks
// that were locked after the clips were placed.
func (tl *Timeline) addRestored(c Clip) error {
	t := tl.track(c.TrackID)
	if t == nil {
		return ErrTrackNotFound
	}
	if c.ID == "" {
		return ErrInvalidClip
	}
	if owner, _ := tl.locate(c.ID); owner != nil {
		return ErrDuplicateClip
	}
	if err := tl.validate(&c); err != nil {
		return err
	}
	t.Clips = append(t.Clips, c.clone())
	return nil
}
