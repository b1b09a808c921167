// Package viewport maps between timeline seconds and pixel positions and
// owns the zoom level (pixels per second).
package viewport

import (
	"fmt"
	"math"
)

type Config struct {
	MinZoom        float64 `json:"min_zoom"`
	MaxZoom        float64 `json:"max_zoom"`
	DefaultZoom    float64 `json:"default_zoom"`
	StepRatio      float64 `json:"step_ratio"`
	ScaleInFactor  float64 `json:"scale_in_factor"`
	ScaleOutFactor float64 `json:"scale_out_factor"`
}

func DefaultConfig() Config {
	return Config{
		MinZoom:        10,
		MaxZoom:        200,
		DefaultZoom:    50,
		StepRatio:      1.25,
		ScaleInFactor:  1.03,
		ScaleOutFactor: 0.97,
	}
}

func TimeToPixel(t, zoom float64) float64 {
	return t * zoom
}

func PixelToTime(p, zoom float64) float64 {
	if zoom <= 0 {
		return 0
	}
	return p / zoom
}

// Viewport is not safe for concurrent use.
type Viewport struct {
	cfg  Config
	zoom float64
}

func New(cfg Config) *Viewport {
	d := DefaultConfig()
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = d.MinZoom
	}
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = max(d.MaxZoom, cfg.MinZoom)
	}
	if cfg.StepRatio <= 1 {
		cfg.StepRatio = d.StepRatio
	}
	if cfg.ScaleInFactor <= 1 {
		cfg.ScaleInFactor = d.ScaleInFactor
	}
	if cfg.ScaleOutFactor <= 0 || cfg.ScaleOutFactor >= 1 {
		cfg.ScaleOutFactor = d.ScaleOutFactor
	}
	if cfg.DefaultZoom == 0 {
		cfg.DefaultZoom = d.DefaultZoom
	}

	v := &Viewport{cfg: cfg}
	v.SetZoom(cfg.DefaultZoom)
	return v
}

func (v *Viewport) Config() Config {
	return v.cfg
}

func (v *Viewport) Zoom() float64 {
	return v.zoom
}

// SetZoom clamps z into the configured range and returns the applied zoom.
func (v *Viewport) SetZoom(z float64) float64 {
	if math.IsNaN(z) {
		return v.zoom
	}
	v.zoom = math.Max(v.cfg.MinZoom, math.Min(z, v.cfg.MaxZoom))
	return v.zoom
}

func (v *Viewport) ZoomIn() float64 {
	return v.SetZoom(v.zoom * v.cfg.StepRatio)
}

func (v *Viewport) ZoomOut() float64 {
	return v.SetZoom(v.zoom / v.cfg.StepRatio)
}

// Scale applies one tick of a continuous scale gesture. A negative deltaY
// (scrolling up) zooms in. Zero is ignored.
func (v *Viewport) Scale(deltaY float64) float64 {
	switch {
	case deltaY < 0:
		return v.SetZoom(v.zoom * v.cfg.ScaleInFactor)
	case deltaY > 0:
		return v.SetZoom(v.zoom * v.cfg.ScaleOutFactor)
	}
	return v.zoom
}

// SliderPosition reports the zoom as a percentage of the configured range.
func (v *Viewport) SliderPosition() float64 {
	span := v.cfg.MaxZoom - v.cfg.MinZoom
	if span <= 0 {
		return 0
	}
	return (v.zoom - v.cfg.MinZoom) / span * 100
}

func (v *Viewport) SetSliderPosition(pct float64) float64 {
	pct = math.Max(0, math.Min(pct, 100))
	return v.SetZoom(v.cfg.MinZoom + pct/100*(v.cfg.MaxZoom-v.cfg.MinZoom))
}

func (v *Viewport) ToPixel(t float64) float64 {
	return TimeToPixel(t, v.zoom)
}

func (v *Viewport) ToTime(p float64) float64 {
	return PixelToTime(p, v.zoom)
}

// TickInterval returns the ruler spacing in seconds for the current zoom.
func (v *Viewport) TickInterval() float64 {
	switch {
	case v.zoom > 50:
		return 1
	case v.zoom > 25:
		return 5
	default:
		return 10
	}
}

type Mark struct {
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// MaxRulerMarks bounds the ruler. Longer spans get a wider step, a whole
// multiple of TickInterval.
const MaxRulerMarks = 2000

// RulerMarks lays out ticks from 0 through span seconds inclusive.
func (v *Viewport) RulerMarks(span float64) []Mark {
	if span < 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		span = 0
	}
	step := v.TickInterval()
	if count := math.Floor(span / step); count >= MaxRulerMarks {
		step *= math.Ceil(count / (MaxRulerMarks - 1))
	}
	n := min(int(math.Floor(span/step))+1, MaxRulerMarks)
	marks := make([]Mark, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * step
		marks = append(marks, Mark{Time: t, Position: v.ToPixel(t), Label: FormatTime(t)})
	}
	return marks
}

// VisibleSeconds is the span of time shown in widthPx pixels.
func (v *Viewport) VisibleSeconds(widthPx float64) float64 {
	if widthPx <= 0 {
		return 0
	}
	return v.ToTime(widthPx)
}

func (v *Viewport) VisibleLabel(widthPx float64) string {
	secs := v.VisibleSeconds(widthPx)
	if secs < 60 {
		n := int(math.Round(secs))
		if n == 1 {
			return "1 second visible"
		}
		return fmt.Sprintf("%d seconds visible", n)
	}
	mins := secs / 60
	if mins < 10 {
		return fmt.Sprintf("%.1f minutes visible", mins)
	}
	return fmt.Sprintf("%d minutes visible", int(math.Round(mins)))
}

// FormatTime renders whole seconds as m:ss.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
