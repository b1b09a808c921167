package export

import "github.com/clipforge/clipforge-agent/internal/timeline"

// Segment is one clip as the external encoder needs it: which part of which
// source file plays where on the output timeline. Times are in seconds.
type Segment struct {
	TrackID    string             `json:"track_id"`
	TrackKind  timeline.TrackKind `json:"track_kind"`
	TrackName  string             `json:"track_name"`
	ClipID     string             `json:"clip_id"`
	ClipName   string             `json:"clip_name"`
	MediaID    string             `json:"media_id"`
	SourcePath string             `json:"source_path,omitempty"`
	SourceIn   float64            `json:"source_in"`
	SourceOut  float64            `json:"source_out"`
	RecordIn   float64            `json:"record_in"`
	RecordOut  float64            `json:"record_out"`
	Volume     float64            `json:"volume"`
	Effects    []string           `json:"effects,omitempty"`
	Resolved   bool               `json:"resolved"`
}

type ExportRequest struct {
	ProjectName string  `json:"project_name"`
	Format      string  `json:"format"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
}

type ExportResponse struct {
	Status          string   `json:"status"`
	Format          string   `json:"format"`
	OutputPath      string   `json:"output_path"`
	ClipCount       int      `json:"clip_count"`
	UnresolvedClips []string `json:"unresolved_clips"`
}
