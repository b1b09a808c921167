package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func listHistoryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				WriteError(w, http.StatusBadRequest, "invalid limit", "BAD_REQUEST")
				return
			}
			limit = n
		}

		snapshots, err := cfg.History.List(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list history", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Snapshots: snapshots})
	}
}

func restoreHistoryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, err := strconv.ParseInt(chi.URLParam(r, "seq"), 10, 64)
		if err != nil || seq <= 0 {
			WriteError(w, http.StatusBadRequest, "invalid snapshot sequence", "BAD_REQUEST")
			return
		}

		if err := cfg.History.Restore(r.Context(), cfg.Engine, seq); err != nil {
			writeDomainError(w, err)
			return
		}
		projectHandler(cfg)(w, r)
	}
}
