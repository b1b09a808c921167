package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const DefaultFFprobe = "ffprobe"

type Metadata struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
}

type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// FFprobe reads media metadata with the ffprobe binary. Results are cached
// when a cache is configured.
type FFprobe struct {
	bin   string
	cache *Cache
}

func NewFFprobe(bin string, cache *Cache) *FFprobe {
	if bin == "" {
		bin = DefaultFFprobe
	}
	return &FFprobe{bin: bin, cache: cache}
}

func (p *FFprobe) Probe(ctx context.Context, path string) (*Metadata, error) {
	var key string
	if p.cache != nil {
		if k, err := sourceKey(bucketProbe, path); err == nil {
			key = k
			if data, err := p.cache.Read(key); err == nil {
				var meta Metadata
				if err := json.Unmarshal(data, &meta); err == nil {
					return &meta, nil
				}
			}
		}
	}

	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	meta, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if data, err := json.Marshal(meta); err == nil {
			_ = p.cache.Write(key, data)
		}
	}
	return meta, nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

func parseProbeOutput(data []byte) (*Metadata, error) {
	var ff ffprobeOutput
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	meta := &Metadata{}
	if d, err := strconv.ParseFloat(ff.Format.Duration, 64); err == nil && d > 0 {
		meta.Duration = d
	}

	for _, s := range ff.Streams {
		switch s.CodecType {
		case "video":
			if meta.VideoCodec != "" {
				continue
			}
			meta.VideoCodec = s.CodecName
			meta.Width = s.Width
			meta.Height = s.Height
			meta.FrameRate = parseFrameRate(s.RFrameRate)
		case "audio":
			if meta.AudioCodec == "" {
				meta.AudioCodec = s.CodecName
			}
		default:
			continue
		}
		if meta.Duration == 0 {
			if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
				meta.Duration = d
			}
		}
	}
	return meta, nil
}

func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0
	}
	n, _ := strconv.ParseFloat(num, 64)
	d, _ := strconv.ParseFloat(den, 64)
	if d == 0 {
		return 0
	}
	return n / d
}
