package api

import (
	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/ingest"
	"github.com/clipforge/clipforge-agent/internal/interaction"
	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/playback"
	"github.com/clipforge/clipforge-agent/internal/store"
	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/clipforge/clipforge-agent/internal/viewport"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string              `json:"state"`
	Duration      float64             `json:"duration"`
	DurationLabel string              `json:"duration_label"`
	MediaCount    int                 `json:"media_count"`
	TrackCount    int                 `json:"track_count"`
	ClipCount     int                 `json:"clip_count"`
	Zoom          float64             `json:"zoom"`
	Gesture       interaction.Gesture `json:"gesture"`
	Playback      playback.Status     `json:"playback"`
	Tools         *ingest.Tools       `json:"tools,omitempty"`
}

type ProjectResponse struct {
	Media         []media.Item     `json:"media"`
	Tracks        []timeline.Track `json:"tracks"`
	Duration      float64          `json:"duration"`
	DurationLabel string           `json:"duration_label"`
}

type MediaResponse struct {
	media.Item
	SizeLabel string `json:"size_label"`
}

type MediaListResponse struct {
	Media []MediaResponse `json:"media"`
}

type IngestRequest struct {
	Path string `json:"path"`
}

type IngestResponse struct {
	Media   MediaResponse `json:"media"`
	Warning string        `json:"warning,omitempty"`
}

type CreateTrackRequest struct {
	ID   string             `json:"id,omitempty"`
	Kind timeline.TrackKind `json:"kind"`
	Name string             `json:"name,omitempty"`
}

type CreateClipRequest struct {
	ID          string   `json:"id,omitempty"`
	MediaItemID string   `json:"media_item_id"`
	TrackID     string   `json:"track_id"`
	StartTime   float64  `json:"start_time"`
	Duration    float64  `json:"duration"`
	TrimStart   float64  `json:"trim_start"`
	TrimEnd     float64  `json:"trim_end"`
	Volume      *float64 `json:"volume,omitempty"`
	Effects     []string `json:"effects,omitempty"`
}

type SplitRequest struct {
	Time float64 `json:"time"`
}

type SplitResponse struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MoveRequest struct {
	TrackID string `json:"track_id"`
}

type PointerRequest struct {
	Phase  string             `json:"phase"`
	X      float64            `json:"x"`
	Target interaction.Target `json:"target"`
}

type PointerResponse struct {
	Gesture  interaction.Gesture `json:"gesture"`
	Playback playback.Status     `json:"playback"`
}

type DropRequest struct {
	MediaID string             `json:"media_id"`
	X       float64            `json:"x"`
	Target  interaction.Target `json:"target"`
}

type ViewportResponse struct {
	Zoom           float64         `json:"zoom"`
	SliderPosition float64         `json:"slider_position"`
	TickInterval   float64         `json:"tick_interval"`
	VisibleLabel   string          `json:"visible_label"`
	Marks          []viewport.Mark `json:"marks"`
}

type ZoomRequest struct {
	Action string  `json:"action"`
	Value  float64 `json:"value"`
}

type PlaybackRequest struct {
	Action string  `json:"action"`
	Time   float64 `json:"time"`
}

type ActiveResponse struct {
	Found  bool             `json:"found"`
	Active *playback.Active `json:"active,omitempty"`
}

type SelectionRequest struct {
	Clips   []string `json:"clips"`
	TrackID string   `json:"track_id,omitempty"`
	MediaID string   `json:"media_id,omitempty"`
}

type DeleteSelectionResponse struct {
	Removed []string `json:"removed"`
}

type PlanResponse struct {
	Segments   []export.Segment `json:"segments"`
	Unresolved []string         `json:"unresolved"`
}

type HistoryResponse struct {
	Snapshots []*store.Snapshot `json:"snapshots"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func MediaToResponse(item media.Item) MediaResponse {
	return MediaResponse{Item: item, SizeLabel: item.SizeLabel()}
}

func snapshotToProject(s timeline.Snapshot) ProjectResponse {
	if s.Media == nil {
		s.Media = []media.Item{}
	}
	if s.Tracks == nil {
		s.Tracks = []timeline.Track{}
	}
	return ProjectResponse{
		Media:         s.Media,
		Tracks:        s.Tracks,
		Duration:      s.Duration,
		DurationLabel: viewport.FormatTime(s.Duration),
	}
}
