package viewport

type Edge string

const (
	EdgeNone  Edge = ""
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

func (e Edge) Valid() bool {
	switch e {
	case EdgeNone, EdgeLeft, EdgeRight:
		return true
	}
	return false
}

// Span is a clip's placement on one track row.
type Span struct {
	ID       string
	Start    float64
	Duration float64
}

type Hit struct {
	ID   string `json:"id"`
	Edge Edge   `json:"edge,omitempty"`
}

// HitTest finds the span under pixel x. Edge handles are handlePx wide and
// sit inside the span; on spans narrower than two handles each handle gets
// half the width. The first matching span wins.
func (v *Viewport) HitTest(spans []Span, x, handlePx float64) (Hit, bool) {
	for _, s := range spans {
		left := v.ToPixel(s.Start)
		right := v.ToPixel(s.Start + s.Duration)
		if x < left || x >= right {
			continue
		}

		h := min(max(handlePx, 0), (right-left)/2)
		switch {
		case x < left+h:
			return Hit{ID: s.ID, Edge: EdgeLeft}, true
		case x >= right-h:
			return Hit{ID: s.ID, Edge: EdgeRight}, true
		}
		return Hit{ID: s.ID}, true
	}
	return Hit{}, false
}
