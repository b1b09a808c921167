package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/playback"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func playbackStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status playback.Status
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			status = p.Player.Status()
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, status)
	}
}

func playbackControlHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlaybackRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var status playback.Status
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			player := p.Player
			switch req.Action {
			case "play":
				player.Play()
			case "pause":
				player.Pause()
			case "toggle":
				player.Toggle()
			case "seek":
				player.Seek(req.Time)
			default:
				return fmt.Errorf("%w: unknown playback action %q", errBadRequest, req.Action)
			}
			status = player.Status()
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, status)
	}
}

// activeClipHandler reports what the player shows at ?time= (default: the
// playhead) on the first visible track of ?kind= (default: video).
func activeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := timeline.TrackKind(r.URL.Query().Get("kind"))
		if kind == "" {
			kind = timeline.TrackVideo
		}
		if !kind.Valid() {
			WriteError(w, http.StatusBadRequest, "invalid kind", "BAD_REQUEST")
			return
		}
		at, ok := queryFloat(w, r, "time", -1)
		if !ok {
			return
		}

		var resp ActiveResponse
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			t := at
			if t < 0 {
				t = p.Player.CurrentTime()
			}
			if active, found := p.Player.ActiveClipAt(t, kind); found {
				resp = ActiveResponse{Found: true, Active: &active}
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func selectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var sel playback.Selection
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			player := p.Player
			player.ClearSelection()
			player.SelectClips(req.Clips...)
			player.SelectTrack(req.TrackID)
			player.SelectMedia(req.MediaID)
			sel = player.Selection()
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, sel)
	}
}

// deleteSelectionHandler removes every selected clip as one edit. Clips on
// locked tracks stay.
func deleteSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := DeleteSelectionResponse{Removed: []string{}}
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			for _, id := range p.Player.Selection().Clips {
				err := p.Timeline.RemoveClip(id)
				switch {
				case err == nil:
					resp.Removed = append(resp.Removed, id)
				case errors.Is(err, timeline.ErrClipNotFound), errors.Is(err, timeline.ErrTrackLocked):
				default:
					return err
				}
			}
			if len(resp.Removed) > 0 {
				commit(cfg)
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
