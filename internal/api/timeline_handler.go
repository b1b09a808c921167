package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func createTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTrackRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ID == "" {
			req.ID = "track-" + uuid.NewString()
		}

		var track timeline.Track
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			err := p.Timeline.AddTrack(timeline.Track{ID: req.ID, Kind: req.Kind, Name: req.Name, Visible: true})
			if err != nil {
				return err
			}
			track, _ = p.Timeline.Track(req.ID)
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, track)
	}
}

func updateTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.TrackPatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		var track timeline.Track
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			if err := p.Timeline.UpdateTrack(id, patch); err != nil {
				return err
			}
			track, _ = p.Timeline.Track(id)
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, track)
	}
}

func deleteTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			if err := p.Timeline.RemoveTrack(id); err != nil {
				return err
			}
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		clip := timeline.Clip{
			ID:          req.ID,
			MediaItemID: req.MediaItemID,
			TrackID:     req.TrackID,
			StartTime:   req.StartTime,
			Duration:    req.Duration,
			TrimStart:   req.TrimStart,
			TrimEnd:     req.TrimEnd,
			Volume:      1,
			Effects:     req.Effects,
		}
		if clip.ID == "" {
			clip.ID = "clip-" + uuid.NewString()
		}
		if req.Volume != nil {
			clip.Volume = *req.Volume
		}

		var created timeline.Clip
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			if err := p.Timeline.AddClip(clip); err != nil {
				return err
			}
			created, _ = p.Timeline.Clip(clip.ID)
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.ClipPatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		var clip timeline.Clip
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			changed, err := p.Timeline.PatchClip(id, patch)
			if err != nil {
				return err
			}
			clip, _ = p.Timeline.Clip(id)
			if changed {
				commit(cfg)
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, clip)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			if err := p.Timeline.RemoveClip(id); err != nil {
				return err
			}
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SplitRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var resp SplitResponse
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			left, right, err := p.Timeline.SplitClip(id, req.Time)
			if err != nil {
				return err
			}
			resp = SplitResponse{Left: left, Right: right}
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req MoveRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var clip timeline.Clip
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			if err := p.Timeline.MoveClip(id, req.TrackID); err != nil {
				return err
			}
			clip, _ = p.Timeline.Clip(id)
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, clip)
	}
}
