package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/ingest"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/media"
)

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []media.Item
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			items = p.Timeline.Media()
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := MediaListResponse{Media: make([]MediaResponse, len(items))}
		for i, item := range items {
			resp.Media[i] = MediaToResponse(item)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func ingestMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IngestRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		item, err := cfg.Ingest.Ingest(r.Context(), req.Path)
		var lookupErr *ingest.LookupError
		switch {
		case errors.As(err, &lookupErr):
			WriteJSON(w, http.StatusCreated, IngestResponse{Media: MediaToResponse(item), Warning: lookupErr.Error()})
		case err != nil:
			writeDomainError(w, err)
		default:
			WriteJSON(w, http.StatusCreated, IngestResponse{Media: MediaToResponse(item)})
		}
	}
}

// deleteMediaHandler removes the item and every clip that uses it.
func deleteMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
			if err := p.Timeline.RemoveMediaItem(id); err != nil {
				return err
			}
			commit(cfg)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if err := cfg.Repository.DeleteMedia(r.Context(), id); err != nil {
			logging.WithMediaID(cfg.Logger, id).Warn("failed to delete stored media", "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func lookupMedia(cfg ServerConfig, r *http.Request) (media.Item, error) {
	id := chi.URLParam(r, "id")
	var item media.Item
	err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
		found, ok := p.Timeline.MediaItem(id)
		if !ok {
			return media.ErrNotFound
		}
		item = found
		return nil
	})
	return item, err
}

func thumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := lookupMedia(cfg, r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if item.Thumbnail == "" || cfg.Thumbnails == nil {
			WriteError(w, http.StatusNotFound, "thumbnail not available", "NOT_FOUND")
			return
		}

		data, err := cfg.Thumbnails.Read(item.Thumbnail)
		if err != nil {
			logging.WithMediaID(cfg.Logger, item.ID).Warn("thumbnail read failed", "error", err)
			WriteError(w, http.StatusNotFound, "thumbnail not available", "NOT_FOUND")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "private, max-age=86400")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func sourceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := lookupMedia(cfg, r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if err := cfg.Sources.ServeFile(w, r, item.Path); err != nil {
			logging.WithMediaID(cfg.Logger, item.ID).Error("source streaming error",
				"error", err, "path", logging.SanitizePath(item.Path))
		}
	}
}
