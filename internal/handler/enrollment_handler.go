package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"go.uber.org/zap"
)

const multipartMemory = 8 << 20

// EnrollmentHandler exposes the public wizard. Every response carries the
// step view; refused moves also carry an error message.
type EnrollmentHandler struct {
	svc     *service.EnrollmentService
	maxBody int64
	log     *zap.Logger
}

func NewEnrollmentHandler(svc *service.EnrollmentService, maxUploadMB int, log *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		svc:     svc,
		maxBody: int64(maxUploadMB)<<20 + multipartMemory,
		log:     log,
	}
}

type stepResponse struct {
	*service.StepView
	Error string `json:"error,omitempty"`
}

func (h *EnrollmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Start(r.Context())
	h.respond(w, http.StatusCreated, view, err)
}

func (h *EnrollmentHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), chi.URLParam(r, "sessionId"))
	h.respond(w, http.StatusOK, view, err)
}

func (h *EnrollmentHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]any `json:"answers"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.svc.Answer(r.Context(), chi.URLParam(r, "sessionId"), req.Answers)
	h.respond(w, http.StatusOK, view, err)
}

// Next accepts an optional answers body so a client can save and advance in
// one call.
func (h *EnrollmentHandler) Next(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]any `json:"answers"`
	}
	if err := readJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.svc.Next(r.Context(), chi.URLParam(r, "sessionId"), req.Answers)
	h.respond(w, http.StatusOK, view, err)
}

func (h *EnrollmentHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Back)
}

func (h *EnrollmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Confirm)
}

func (h *EnrollmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Cancel)
}

func (h *EnrollmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, service.ErrUploadTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	view, err := h.svc.Upload(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "questionId"), service.FileInput{
		Name: header.Filename,
		Body: file,
	})
	h.respond(w, http.StatusOK, view, err)
}

func (h *EnrollmentHandler) simple(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*service.StepView, error)) {
	view, err := fn(r.Context(), chi.URLParam(r, "sessionId"))
	h.respond(w, http.StatusOK, view, err)
}

func (h *EnrollmentHandler) respond(w http.ResponseWriter, status int, view *service.StepView, err error) {
	if err == nil {
		writeJSON(w, status, stepResponse{StepView: view})
		return
	}
	if view == nil {
		writeServiceError(w, h.log, err)
		return
	}
	status = statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn("enrollment: step failed", zap.String("session", view.SessionID), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, stepResponse{StepView: view, Error: errorMessage(status, err)})
}
