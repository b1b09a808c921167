package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/interaction"
	"github.com/clipforge/clipforge-agent/internal/viewport"
)

const defaultViewportWidth = 1000

// pointerHandler feeds one pointer event into the gesture machine. Moves are
// applied on the next frame tick, so the returned gesture may trail the
// pointer by one frame.
func pointerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if math.IsNaN(req.X) || math.IsInf(req.X, 0) {
			WriteError(w, http.StatusBadRequest, "x must be finite", "BAD_REQUEST")
			return
		}

		var resp PointerResponse
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			m := p.Gestures
			switch req.Phase {
			case "down":
				m.PointerDown(req.X, req.Target)
			case "move":
				m.PointerMove(req.X)
			case "up":
				m.PointerUp(req.X)
			case "cancel":
				m.Cancel()
			default:
				return fmt.Errorf("%w: unknown phase %q", errBadRequest, req.Phase)
			}
			resp = PointerResponse{Gesture: m.Gesture(), Playback: p.Player.Status()}
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func dropHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DropRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.MediaID == "" {
			WriteError(w, http.StatusBadRequest, "media_id is required", "BAD_REQUEST")
			return
		}

		var result interaction.DropResult
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			var err error
			result, err = p.Gestures.Drop(req.MediaID, req.X, req.Target)
			return err
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, result)
	}
}

func viewportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		width, ok := queryFloat(w, r, "width", defaultViewportWidth)
		if !ok {
			return
		}

		var resp ViewportResponse
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			resp = describeViewport(p, width)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func zoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		width, ok := queryFloat(w, r, "width", defaultViewportWidth)
		if !ok {
			return
		}
		var req ZoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var resp ViewportResponse
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			vp := p.Viewport
			switch req.Action {
			case "in":
				vp.ZoomIn()
			case "out":
				vp.ZoomOut()
			case "scale":
				vp.Scale(req.Value)
			case "set":
				vp.SetZoom(req.Value)
			case "slider":
				vp.SetSliderPosition(req.Value)
			default:
				return fmt.Errorf("%w: unknown zoom action %q", errBadRequest, req.Action)
			}
			resp = describeViewport(p, width)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// describeViewport lays the ruler out over the project or the visible width,
// whichever is longer.
func describeViewport(p *engine.Project, width float64) ViewportResponse {
	vp := p.Viewport
	span := math.Max(p.Timeline.Duration(), vp.VisibleSeconds(width))
	marks := vp.RulerMarks(span)
	if marks == nil {
		marks = []viewport.Mark{}
	}
	return ViewportResponse{
		Zoom:           vp.Zoom(),
		SliderPosition: vp.SliderPosition(),
		TickInterval:   vp.TickInterval(),
		VisibleLabel:   vp.VisibleLabel(width),
		Marks:          marks,
	}
}

func queryFloat(w http.ResponseWriter, r *http.Request, name string, fallback float64) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		WriteError(w, http.StatusBadRequest, "invalid "+name, "BAD_REQUEST")
		return 0, false
	}
	return v, true
}
