package viewport

import (
	"math"
	"testing"
)

func TestPixelToTime(t *testing.T) {
	if got := PixelToTime(250, 50); got != 5 {
		t.Errorf("PixelToTime(250, 50) = %v, want 5", got)
	}
	if got := PixelToTime(250, 0); got != 0 {
		t.Errorf("PixelToTime(250, 0) = %v, want 0", got)
	}
	for _, sec := range []float64{0, 0.1, 3.3, 97.25} {
		back := PixelToTime(TimeToPixel(sec, 37), 37)
		if math.Abs(back-sec) > 1e-9 {
			t.Errorf("round trip %v -> %v", sec, back)
		}
	}
}

func TestZoomClamps(t *testing.T) {
	v := New(DefaultConfig())
	if v.Zoom() != 50 {
		t.Fatalf("default Zoom() = %v, want 50", v.Zoom())
	}

	tests := []struct {
		in, want float64
	}{
		{in: 5, want: 10},
		{in: 500, want: 200},
		{in: 75, want: 75},
	}
	for _, tc := range tests {
		if got := v.SetZoom(tc.in); got != tc.want {
			t.Errorf("SetZoom(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if got := v.SetZoom(math.NaN()); got != 75 {
		t.Errorf("SetZoom(NaN) = %v, want unchanged 75", got)
	}
}

func TestZoomSteps(t *testing.T) {
	v := New(DefaultConfig())

	if got := v.ZoomIn(); got != 62.5 {
		t.Errorf("ZoomIn() = %v, want 62.5", got)
	}
	if got := v.ZoomOut(); got != 50 {
		t.Errorf("ZoomOut() = %v, want 50", got)
	}
	for i := 0; i < 50; i++ {
		v.ZoomIn()
	}
	if v.Zoom() != 200 {
		t.Errorf("Zoom() after repeated ZoomIn = %v, want 200", v.Zoom())
	}
}

func TestScaleIsProportional(t *testing.T) {
	v := New(DefaultConfig())

	v.SetZoom(20)
	v.Scale(-1)
	if math.Abs(v.Zoom()-20.6) > 1e-9 {
		t.Errorf("Scale(-1) at 20 = %v, want 20.6", v.Zoom())
	}

	v.SetZoom(100)
	v.Scale(3)
	if math.Abs(v.Zoom()-97) > 1e-9 {
		t.Errorf("Scale(3) at 100 = %v, want 97", v.Zoom())
	}

	v.Scale(0)
	if math.Abs(v.Zoom()-97) > 1e-9 {
		t.Errorf("Scale(0) changed zoom to %v", v.Zoom())
	}
}

func TestSlider(t *testing.T) {
	v := New(DefaultConfig())

	v.SetZoom(105)
	if got := v.SliderPosition(); got != 50 {
		t.Errorf("SliderPosition() = %v, want 50", got)
	}
	if got := v.SetSliderPosition(0); got != 10 {
		t.Errorf("SetSliderPosition(0) = %v, want 10", got)
	}
	if got := v.SetSliderPosition(140); got != 200 {
		t.Errorf("SetSliderPosition(140) = %v, want 200", got)
	}
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		zoom float64
		want float64
	}{
		{zoom: 200, want: 1},
		{zoom: 50.5, want: 1},
		{zoom: 50, want: 5},
		{zoom: 26, want: 5},
		{zoom: 25, want: 10},
		{zoom: 10, want: 10},
	}
	v := New(DefaultConfig())
	for _, tc := range tests {
		v.SetZoom(tc.zoom)
		if got := v.TickInterval(); got != tc.want {
			t.Errorf("TickInterval() at zoom %v = %v, want %v", tc.zoom, got, tc.want)
		}
	}
}

func TestRulerMarks(t *testing.T) {
	v := New(DefaultConfig())
	v.SetZoom(30)

	marks := v.RulerMarks(100)
	if len(marks) != 21 {
		t.Fatalf("len(marks) = %d, want 21", len(marks))
	}
	last := marks[len(marks)-1]
	if last.Time != 100 || last.Position != 3000 || last.Label != "1:40" {
		t.Errorf("last mark = %+v, want 100s at 3000px labelled 1:40", last)
	}
	if got := v.RulerMarks(-5); len(got) != 1 || got[0].Label != "0:00" {
		t.Errorf("RulerMarks(-5) = %+v, want single 0:00 mark", got)
	}
}

func TestRulerMarks_HugeSpanIsBounded(t *testing.T) {
	v := New(DefaultConfig())
	v.SetZoom(10)

	for _, span := range []float64{1e8, 1e12} {
		marks := v.RulerMarks(span)
		if len(marks) < 2 || len(marks) > MaxRulerMarks {
			t.Fatalf("RulerMarks(%g) = %d marks, want 2..%d", span, len(marks), MaxRulerMarks)
		}
		step := marks[1].Time - marks[0].Time
		if math.Mod(step, v.TickInterval()) != 0 {
			t.Errorf("RulerMarks(%g) step = %v, not a multiple of %v", span, step, v.TickInterval())
		}
		if last := marks[len(marks)-1].Time; last > span || last+step <= span {
			t.Errorf("RulerMarks(%g) last mark %v with step %v does not reach the span", span, last, step)
		}
	}
	if n := len(v.RulerMarks(math.MaxFloat64)); n == 0 || n > MaxRulerMarks {
		t.Errorf("RulerMarks(MaxFloat64) = %d marks", n)
	}

	// Spans that fit keep the zoom's own interval.
	if got := v.RulerMarks(float64(MaxRulerMarks-1) * 10); len(got) != MaxRulerMarks || got[1].Time != 10 {
		t.Errorf("RulerMarks at the limit = %d marks, step %v", len(got), got[1].Time)
	}
}

func TestVisibleLabel(t *testing.T) {
	v := New(DefaultConfig())
	v.SetZoom(10)

	tests := []struct {
		width float64
		want  string
	}{
		{width: 0, want: "0 seconds visible"},
		{width: 10, want: "1 second visible"},
		{width: 450, want: "45 seconds visible"},
		{width: 1500, want: "2.5 minutes visible"},
		{width: 7200, want: "12 minutes visible"},
	}
	for _, tc := range tests {
		if got := v.VisibleLabel(tc.width); got != tc.want {
			t.Errorf("VisibleLabel(%v) = %q, want %q", tc.width, got, tc.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := map[float64]string{
		0:     "0:00",
		9.9:   "0:09",
		61:    "1:01",
		600.5: "10:00",
		-3:    "0:00",
	}
	for in, want := range tests {
		if got := FormatTime(in); got != want {
			t.Errorf("FormatTime(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestHitTest(t *testing.T) {
	v := New(DefaultConfig())
	v.SetZoom(10)
	spans := []Span{
		{ID: "a", Start: 0, Duration: 10},
		{ID: "b", Start: 5, Duration: 10},
		{ID: "tiny", Start: 20, Duration: 0.4},
	}

	tests := []struct {
		name string
		x    float64
		want Hit
	}{
		{name: "left handle", x: 2, want: Hit{ID: "a", Edge: EdgeLeft}},
		{name: "body", x: 50, want: Hit{ID: "a"}},
		{name: "overlap first wins", x: 70, want: Hit{ID: "a"}},
		{name: "right handle", x: 97, want: Hit{ID: "a", Edge: EdgeRight}},
		{name: "second clip body", x: 120, want: Hit{ID: "b"}},
		{name: "end exclusive", x: 150},
		{name: "narrow left half", x: 201, want: Hit{ID: "tiny", Edge: EdgeLeft}},
		{name: "narrow right half", x: 203, want: Hit{ID: "tiny", Edge: EdgeRight}},
		{name: "empty", x: 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := v.HitTest(spans, tc.x, 5)
			wantOK := tc.want.ID != ""
			if ok != wantOK || got != tc.want {
				t.Fatalf("HitTest(%v) = %+v, %v; want %+v, %v", tc.x, got, ok, tc.want, wantOK)
			}
		})
	}
}
