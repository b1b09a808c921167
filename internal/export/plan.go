package export

import (
	"sort"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Plan lists every clip on the visible tracks of s, grouped by track in
// track order and sorted by record time within a track. Clips whose media
// item is missing are kept with Resolved false.
func Plan(s timeline.Snapshot) []Segment {
	items := make(map[string]media.Item, len(s.Media))
	for _, item := range s.Media {
		items[item.ID] = item
	}

	segments := make([]Segment, 0)
	for _, t := range s.Tracks {
		if !t.Visible {
			continue
		}
		start := len(segments)
		for _, c := range t.Clips {
			seg := Segment{
				TrackID:   t.ID,
				TrackKind: t.Kind,
				TrackName: t.Name,
				ClipID:    c.ID,
				ClipName:  c.ID,
				MediaID:   c.MediaItemID,
				SourceIn:  c.TrimStart,
				SourceOut: c.TrimStart + c.Duration,
				RecordIn:  c.StartTime,
				RecordOut: c.End(),
				Volume:    c.Volume,
				Effects:   append([]string(nil), c.Effects...),
			}
			if item, ok := items[c.MediaItemID]; ok {
				seg.ClipName = item.Name
				seg.SourcePath = item.Path
				seg.Resolved = true
			}
			segments = append(segments, seg)
		}
		track := segments[start:]
		sort.SliceStable(track, func(i, j int) bool {
			return track[i].RecordIn < track[j].RecordIn
		})
	}
	return segments
}

// Unresolved returns the clip ids of segments without a source file.
func Unresolved(segments []Segment) []string {
	ids := make([]string, 0)
	for _, s := range segments {
		if !s.Resolved {
			ids = append(ids, s.ClipID)
		}
	}
	return ids
}
