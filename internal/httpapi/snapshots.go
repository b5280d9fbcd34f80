package httpapi

import (
	"net/http"

	"hydrantmap/internal/hydrant"
)

func (s *Server) handleSnapshotsGet(w http.ResponseWriter, r *http.Request) {
	switch action := r.URL.Query().Get("action"); action {
	case "", "list":
		snapshots, err := s.svc.ListSnapshots()
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if snapshots == nil {
			snapshots = []*hydrant.SnapshotInfo{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})

	case "preview":
		preview, err := s.svc.PreviewSnapshot(r.URL.Query().Get("date"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, preview)

	case "backups":
		backups, err := s.svc.ListBackups()
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if backups == nil {
			backups = []*hydrant.BackupInfo{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"backups": backups})

	default:
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown action "+action)
	}
}

type snapshotRequest struct {
	Date         string `json:"date"`
	BackupImages *bool  `json:"backup_images"`
}

func (s *Server) handleSnapshotsPost(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.Date == "" {
		req.Date = r.URL.Query().Get("date")
	}

	switch action := r.URL.Query().Get("action"); action {
	case "create":
		s.createSnapshot(w, r, req)
	case "restore":
		result, err := s.svc.RestoreSnapshot(req.Date, actor(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown action "+action)
	}
}

// createSnapshot takes a manual snapshot. Without an explicit
// backup_images flag the configured default applies.
func (s *Server) createSnapshot(w http.ResponseWriter, r *http.Request, req snapshotRequest) {
	settings, err := s.svc.SnapshotSettings()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	images := settings.BackupImages
	if req.BackupImages != nil {
		images = *req.BackupImages
	}

	info, err := s.svc.CreateSnapshot(actor(r), images)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if s.opts.AfterSnapshot != nil {
		s.opts.AfterSnapshot(info)
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleSnapshotsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSnapshot(r.URL.Query().Get("date")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.SnapshotSettings()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": settings})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Snapshots *hydrant.SnapshotSettings `json:"snapshots"`
	}{}
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.Snapshots == nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "snapshots block is required")
		return
	}
	if err := s.svc.UpdateSnapshotSettings(*req.Snapshots); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": req.Snapshots})
}
