package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/johiruljahid/nsultan/internal/media"
)

type UploadHandler struct {
	media  *media.Store
	logger *slog.Logger
}

// NewUploadHandler serves image uploads. ms may be nil, in which case every
// upload answers 503.
func NewUploadHandler(ms *media.Store, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{media: ms, logger: logger}
}

// Upload handles POST /api/admin/uploads (multipart: file, folder).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image must be 5 MiB or smaller")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "menu"
	}

	obj, err := h.media.Upload(r.Context(), folder, file)
	switch {
	case errors.Is(err, media.ErrUnknownFolder):
		writeError(w, http.StatusBadRequest, "folder must be menu or gallery")
	case errors.Is(err, media.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "image must be 5 MiB or smaller")
	case errors.Is(err, media.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, "only jpeg, png, gif and webp images are accepted")
	case err != nil:
		h.logger.Error("upload image", "error", err)
		writeError(w, http.StatusBadGateway, "failed to store image")
	default:
		h.logger.Info("image uploaded", "key", obj.Key, "size", obj.Size)
		writeJSON(w, http.StatusCreated, obj)
	}
}
