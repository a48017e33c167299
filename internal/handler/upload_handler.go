package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"go.uber.org/zap"
)

type UploadHandler struct {
	svc *service.UploadService
	log *zap.Logger
}

func NewUploadHandler(svc *service.UploadService, log *zap.Logger) *UploadHandler {
	return &UploadHandler{svc: svc, log: log}
}

// Download serves the bytes behind an upload locator. Files are always
// delivered as attachments and never rendered by the browser.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	u, data, err := h.svc.Open(r.Context(), chi.URLParam(r, "uploadKey"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", u.ContentType)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": u.FileName})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'")
	w.Write(data)
}
