package api

import (
	"net/http"
	"strings"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func planSegments(cfg ServerConfig, r *http.Request) ([]export.Segment, error) {
	var snap timeline.Snapshot
	err := cfg.Engine.Do(r.Context(), func(p *engine.Project) error {
		snap = p.Timeline.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return export.Plan(snap), nil
}

func exportPlanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segments, err := planSegments(cfg, r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, PlanResponse{Segments: segments, Unresolved: export.Unresolved(segments)})
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Format != "" && strings.ToLower(req.Format) != "edl" {
			WriteError(w, http.StatusBadRequest, "format must be edl", "BAD_REQUEST")
			return
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		segments, err := planSegments(cfg, r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		outputPath, err := export.WriteEDL(req.OutputDir, req.ProjectName, segments, req.FrameRate)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		unresolved := export.Unresolved(segments)
		cfg.Logger.Info("exported edl", "path", logging.SanitizePath(outputPath), "clips", len(segments)-len(unresolved), "unresolved", len(unresolved))
		WriteJSON(w, http.StatusOK, export.ExportResponse{
			Status:          "ok",
			Format:          "edl",
			OutputPath:      outputPath,
			ClipCount:       len(segments) - len(unresolved),
			UnresolvedClips: unresolved,
		})
	}
}
