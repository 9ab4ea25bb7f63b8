package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/johiruljahid/nsultan/internal/backup"
	"github.com/johiruljahid/nsultan/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

// NewBackupHandler serves backup history and manual runs. mgr may be nil when
// backups are not configured.
func NewBackupHandler(mgr *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: mgr, backups: bs, logger: logger}
}

// List handles GET /api/admin/backups.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.backups.List(50)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}

	resp := map[string]any{
		"enabled": h.manager != nil,
		"backups": list,
	}
	if h.manager != nil {
		resp["status"] = h.manager.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Run handles POST /api/admin/backups.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	rec, err := h.manager.Run(r.Context())
	switch {
	case errors.Is(err, backup.ErrRunning):
		writeError(w, http.StatusConflict, "a backup is already running")
	case err != nil:
		h.logger.Error("manual backup", "error", err)
		writeError(w, http.StatusBadGateway, "backup failed")
	default:
		writeJSON(w, http.StatusCreated, rec)
	}
}
