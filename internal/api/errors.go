package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/history"
	"github.com/clipforge/clipforge-agent/internal/ingest"
	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

var errBadRequest = errors.New("bad request")

// writeDomainError maps model and engine errors onto HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeline.ErrTrackNotFound),
		errors.Is(err, timeline.ErrClipNotFound),
		errors.Is(err, media.ErrNotFound),
		errors.Is(err, history.ErrNotFound),
		errors.Is(err, fs.ErrNotExist):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, timeline.ErrTrackLocked):
		WriteError(w, http.StatusConflict, err.Error(), "TRACK_LOCKED")
	case errors.Is(err, timeline.ErrDuplicateClip),
		errors.Is(err, timeline.ErrDuplicateTrack),
		errors.Is(err, media.ErrDuplicate):
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, timeline.ErrInvalidClip),
		errors.Is(err, timeline.ErrInvalidTrack),
		errors.Is(err, timeline.ErrSplitOutOfRange),
		errors.Is(err, media.ErrInvalid),
		errors.Is(err, ingest.ErrUnsupported),
		errors.Is(err, ingest.ErrNotFile):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "INVALID")
	case errors.Is(err, export.ErrInvalidOutputDir), errors.Is(err, errBadRequest):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, export.ErrNothingToExport):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "UNRESOLVABLE_CLIPS")
	case errors.Is(err, engine.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "engine unavailable", "UNAVAILABLE")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request body too large", "TOO_LARGE")
			return false
		}
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}
