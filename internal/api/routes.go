package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/interaction"
	"github.com/clipforge/clipforge-agent/internal/viewport"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(BodyLimitMiddleware(maxBodyBytes))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/project", projectHandler(cfg))

		r.Route("/media", func(r chi.Router) {
			r.Get("/", listMediaHandler(cfg))
			r.Post("/", ingestMediaHandler(cfg))
			r.Delete("/{id}", deleteMediaHandler(cfg))
			r.Get("/{id}/thumbnail", thumbnailHandler(cfg))
			r.Get("/{id}/source", sourceHandler(cfg))
		})

		r.Post("/tracks", createTrackHandler(cfg))
		r.Patch("/tracks/{id}", updateTrackHandler(cfg))
		r.Delete("/tracks/{id}", deleteTrackHandler(cfg))

		r.Post("/clips", createClipHandler(cfg))
		r.Patch("/clips/{id}", updateClipHandler(cfg))
		r.Delete("/clips/{id}", deleteClipHandler(cfg))
		r.Post("/clips/{id}/split", splitClipHandler(cfg))
		r.Post("/clips/{id}/move", moveClipHandler(cfg))

		r.Post("/gestures/pointer", pointerHandler(cfg))
		r.Post("/gestures/drop", dropHandler(cfg))

		r.Get("/viewport", viewportHandler(cfg))
		r.Post("/viewport/zoom", zoomHandler(cfg))

		r.Get("/playback", playbackStatusHandler(cfg))
		r.Post("/playback", playbackControlHandler(cfg))
		r.Get("/playback/active", activeClipHandler(cfg))
		r.Put("/selection", selectionHandler(cfg))
		r.Post("/selection/delete", deleteSelectionHandler(cfg))

		r.Get("/export/plan", exportPlanHandler(cfg))
		r.Post("/export/edl", exportEDLHandler(cfg))

		r.Get("/history", listHistoryHandler(cfg))
		r.Post("/history/{seq}/restore", restoreHistoryHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  version,
			UptimeS:  int64(time.Since(cfg.StartTime).Seconds()),
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp StatusResponse
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			tl := p.Timeline
			resp = StatusResponse{
				State:         "idle",
				Duration:      tl.Duration(),
				DurationLabel: viewport.FormatTime(tl.Duration()),
				MediaCount:    len(tl.Media()),
				TrackCount:    len(tl.Tracks()),
				ClipCount:     tl.ClipCount(),
				Zoom:          p.Viewport.Zoom(),
				Gesture:       p.Gestures.Gesture(),
				Playback:      p.Player.Status(),
			}
			if resp.Playback.Playing {
				resp.State = "playing"
			}
			if g := resp.Gesture.State; g != interaction.StateIdle {
				resp.State = string(g)
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if cfg.Tools != nil {
			resp.Tools = cfg.Tools.Peek()
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func projectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp ProjectResponse
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			resp = snapshotToProject(p.Timeline.Snapshot())
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// commit checkpoints history after an edit. It runs inside an engine
// closure.
func commit(cfg ServerConfig) {
	if cfg.History != nil {
		cfg.History.Commit()
	}
}
