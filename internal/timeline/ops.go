package timeline

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge-agent/internal/media"
)

// trimTolerance absorbs float drift when trims are derived from pixel deltas.
const trimTolerance = 1e-9

func (tl *Timeline) AddMediaItem(item media.Item) error {
	if err := tl.catalog.Add(item); err != nil {
		return err
	}
	tl.commit(Change{Kind: ChangeMediaAdded, ID: item.ID})
	return nil
}

// RemoveMediaItem drops the item and every clip referencing it, locked
// tracks included.
func (tl *Timeline) RemoveMediaItem(id string) error {
	if _, ok := tl.catalog.Get(id); !ok {
		return media.ErrNotFound
	}

	var removed []string
	for _, t := range tl.tracks {
		kept := t.Clips[:0]
		for _, c := range t.Clips {
			if c.MediaItemID == id {
				removed = append(removed, c.ID)
				continue
			}
			kept = append(kept, c)
		}
		clear(t.Clips[len(kept):])
		t.Clips = kept
	}

	if err := tl.catalog.Remove(id); err != nil {
		return err
	}
	tl.commit(Change{Kind: ChangeMediaRemoved, ID: id, Removed: removed})
	return nil
}

func (tl *Timeline) AttachThumbnail(id, handle string) error {
	if err := tl.catalog.AttachThumbnail(id, handle); err != nil {
		return err
	}
	tl.commit(Change{Kind: ChangeMediaUpdated, ID: id})
	return nil
}

// AddTrack appends an empty track. Clips passed along with the track are
// ignored; they must be added through AddClip.
func (tl *Timeline) AddTrack(t Track) error {
	if t.ID == "" || !t.Kind.Valid() {
		return ErrInvalidTrack
	}
	if tl.track(t.ID) != nil {
		return ErrDuplicateTrack
	}
	if t.Name == "" {
		t.Name = tl.DefaultTrackName(t.Kind)
	}
	t.Clips = nil
	tl.tracks = append(tl.tracks, &t)
	tl.commit(Change{Kind: ChangeTrackAdded, ID: t.ID})
	return nil
}

func (tl *Timeline) RemoveTrack(id string) error {
	for i, t := range tl.tracks {
		if t.ID != id {
			continue
		}
		removed := make([]string, len(t.Clips))
		for j, c := range t.Clips {
			removed[j] = c.ID
		}
		tl.tracks = append(tl.tracks[:i], tl.tracks[i+1:]...)
		tl.commit(Change{Kind: ChangeTrackRemoved, ID: id, Removed: removed})
		return nil
	}
	return ErrTrackNotFound
}

func (tl *Timeline) UpdateTrack(id string, p TrackPatch) error {
	t := tl.track(id)
	if t == nil {
		return ErrTrackNotFound
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Locked != nil {
		t.Locked = *p.Locked
	}
	if p.Visible != nil {
		t.Visible = *p.Visible
	}
	tl.commit(Change{Kind: ChangeTrackUpdated, ID: id})
	return nil
}

// AddClip appends c to its track. It does not apply the placement policy;
// callers pick a compatible track first.
func (tl *Timeline) AddClip(c Clip) error {
	t := tl.track(c.TrackID)
	if t == nil {
		return ErrTrackNotFound
	}
	if t.Locked {
		return ErrTrackLocked
	}
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidClip)
	}
	if owner, _ := tl.locate(c.ID); owner != nil {
		return ErrDuplicateClip
	}
	if err := tl.validate(&c); err != nil {
		return err
	}

	t.Clips = append(t.Clips, c.clone())
	tl.commit(Change{Kind: ChangeClipAdded, ID: c.ID, TrackID: t.ID})
	return nil
}

func (tl *Timeline) RemoveClip(id string) error {
	t, i := tl.locate(id)
	if t == nil {
		return ErrClipNotFound
	}
	if t.Locked {
		return ErrTrackLocked
	}
	t.Clips = slices.Delete(t.Clips, i, i+1)
	tl.commit(Change{Kind: ChangeClipRemoved, ID: id, TrackID: t.ID, Removed: []string{id}})
	return nil
}

// UpdateClip merges p into the clip. A patch that would leave the clip
// invalid is rejected as a whole.
func (tl *Timeline) UpdateClip(id string, p ClipPatch) error {
	_, err := tl.PatchClip(id, p)
	return err
}

// PatchClip is UpdateClip that also reports whether the clip changed. A
// patch that leaves every field as it was notifies no subscribers.
func (tl *Timeline) PatchClip(id string, p ClipPatch) (bool, error) {
	t, i := tl.locate(id)
	if t == nil {
		return false, ErrClipNotFound
	}
	if t.Locked {
		return false, ErrTrackLocked
	}

	current := t.Clips[i]
	next := current.clone()
	p.apply(next)
	if err := tl.validate(next); err != nil {
		return false, err
	}
	if sameClip(current, next) {
		return false, nil
	}

	t.Clips[i] = next
	tl.commit(Change{Kind: ChangeClipUpdated, ID: id, TrackID: t.ID})
	return true, nil
}

// MoveClip reassigns a clip to another track, appending it to that track's
// sequence.
func (tl *Timeline) MoveClip(id, trackID string) error {
	from, i := tl.locate(id)
	if from == nil {
		return ErrClipNotFound
	}
	to := tl.track(trackID)
	if to == nil {
		return ErrTrackNotFound
	}
	if from == to {
		return nil
	}
	if from.Locked || to.Locked {
		return ErrTrackLocked
	}

	c := from.Clips[i]
	from.Clips = slices.Delete(from.Clips, i, i+1)
	c.TrackID = to.ID
	to.Clips = append(to.Clips, c)
	tl.commit(Change{Kind: ChangeClipMoved, ID: id, TrackID: to.ID})
	return nil
}

// SplitClip replaces the clip with two clips that partition its span at t.
// t must lie strictly inside the clip; boundaries are rejected so neither
// half can have zero length.
func (tl *Timeline) SplitClip(id string, at float64) (string, string, error) {
	t, i := tl.locate(id)
	if t == nil {
		return "", "", ErrClipNotFound
	}
	if t.Locked {
		return "", "", ErrTrackLocked
	}

	orig := t.Clips[i]
	rel := at - orig.StartTime
	if !finite(at) || rel <= 0 || rel >= orig.Duration {
		return "", "", ErrSplitOutOfRange
	}

	left := orig.clone()
	left.ID = tl.splitID(id, 1, "")
	left.Duration = rel
	left.TrimEnd = orig.TrimEnd + (orig.Duration - rel)

	right := orig.clone()
	right.ID = tl.splitID(id, 2, left.ID)
	right.StartTime = at
	right.Duration = orig.Duration - rel
	right.TrimStart = orig.TrimStart + rel

	if err := tl.validate(left); err != nil {
		return "", "", err
	}
	if err := tl.validate(right); err != nil {
		return "", "", err
	}

	clips := slices.Delete(t.Clips, i, i+1)
	clips = append(clips, left, right)
	sort.SliceStable(clips, func(a, b int) bool {
		return clips[a].StartTime < clips[b].StartTime
	})
	t.Clips = clips

	tl.commit(Change{
		Kind:    ChangeClipSplit,
		ID:      id,
		TrackID: t.ID,
		Created: []string{left.ID, right.ID},
		Removed: []string{id},
	})
	return left.ID, right.ID, nil
}

func (tl *Timeline) splitID(id string, n int, taken string) string {
	candidate := fmt.Sprintf("%s-%d", id, n)
	if owner, _ := tl.locate(candidate); owner == nil && candidate != taken {
		return candidate
	}
	return "clip-" + uuid.NewString()
}

func (tl *Timeline) validate(c *Clip) error {
	if !finite(c.StartTime, c.Duration, c.TrimStart, c.TrimEnd, c.Volume) {
		return fmt.Errorf("%w: non-finite field", ErrInvalidClip)
	}
	switch {
	case c.StartTime < 0:
		return fmt.Errorf("%w: start time must be >= 0", ErrInvalidClip)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be > 0", ErrInvalidClip)
	case c.TrimStart < 0 || c.TrimEnd < 0:
		return fmt.Errorf("%w: trims must be >= 0", ErrInvalidClip)
	case c.Volume < 0 || c.Volume > 1:
		return fmt.Errorf("%w: volume must be within [0, 1]", ErrInvalidClip)
	}
	if item, ok := tl.catalog.Get(c.MediaItemID); ok && item.Bounded() {
		if c.TrimStart+c.TrimEnd > item.Duration+trimTolerance {
			return fmt.Errorf("%w: trims exceed source duration", ErrInvalidClip)
		}
		if c.TrimStart+c.Duration+c.TrimEnd > item.Duration+trimTolerance {
			return fmt.Errorf("%w: clip runs past the end of its source", ErrInvalidClip)
		}
	}
	return nil
}

// MaxDuration is the longest c may be with its current trims. Clips on
// stills, unprobed media and missing media are unbounded.
func (tl *Timeline) MaxDuration(c Clip) float64 {
	item, ok := tl.catalog.Get(c.MediaItemID)
	if !ok || !item.Bounded() {
		return math.Inf(1)
	}
	return math.Max(0, item.Duration-c.TrimStart-c.TrimEnd)
}

func sameClip(a, b *Clip) bool {
	return a.StartTime == b.StartTime &&
		a.Duration == b.Duration &&
		a.TrimStart == b.TrimStart &&
		a.TrimEnd == b.TrimEnd &&
		a.Volume == b.Volume &&
		slices.Equal(a.Effects, b.Effects)
}
