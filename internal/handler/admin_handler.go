package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"go.uber.org/zap"
)

// AdminHandler serves the configuration editors: messages, programs and the
// three question sections.
type AdminHandler struct {
	svc *service.ConfigService
	log *zap.Logger
}

func NewAdminHandler(svc *service.ConfigService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

func (h *AdminHandler) SetMessages(w http.ResponseWriter, r *http.Request) {
	var req service.MessagesUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msgs, err := h.svc.SetMessages(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *AdminHandler) Programs(w http.ResponseWriter, r *http.Request) {
	programs, err := h.svc.Programs(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": programs})
}

func (h *AdminHandler) SetPrograms(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Programs []string `json:"programs"`
	}
	if err := readJSON(r, &req); err != nil || req.Programs == nil {
		writeError(w, http.StatusBadRequest, "programs list is required")
		return
	}
	programs, err := h.svc.SetPrograms(r.Context(), req.Programs)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": programs})
}

func (h *AdminHandler) QuestionTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types":          models.QuestionTypes(),
		"fileExtensions": models.FileExtensions,
	})
}

func (h *AdminHandler) Section(w http.ResponseWriter, r *http.Request) {
	key, ok := sectionKey(w, r)
	if !ok {
		return
	}
	qs, err := h.svc.Section(r.Context(), key)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": key, "questions": qs})
}

func (h *AdminHandler) ReplaceSection(w http.ResponseWriter, r *http.Request) {
	key, ok := sectionKey(w, r)
	if !ok {
		return
	}
	var req struct {
		Questions []models.Question `json:"questions"`
	}
	if err := readJSON(r, &req); err != nil || req.Questions == nil {
		writeError(w, http.StatusBadRequest, "questions list is required")
		return
	}
	qs, err := h.svc.ReplaceSection(r.Context(), key, req.Questions)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": key, "questions": qs})
}

func (h *AdminHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	key, ok := sectionKey(w, r)
	if !ok {
		return
	}
	var q models.Question
	if err := readJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	added, err := h.svc.AddQuestion(r.Context(), key, q)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *AdminHandler) EditQuestion(w http.ResponseWriter, r *http.Request) {
	key, ok := sectionKey(w, r)
	if !ok {
		return
	}
	var q models.Question
	if err := readJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	edited, err := h.svc.EditQuestion(r.Context(), key, chi.URLParam(r, "questionId"), q)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, edited)
}

func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	key, ok := sectionKey(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "questionId")
	if err := h.svc.DeleteQuestion(r.Context(), key, id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *AdminHandler) MoveQuestion(w http.ResponseWriter, r *http.Request) {
	key, ok := sectionKey(w, r)
	if !ok {
		return
	}
	var req struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := readJSON(r, &req); err != nil || req.From == nil || req.To == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	qs, err := h.svc.MoveQuestion(r.Context(), key, *req.From, *req.To)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": key, "questions": qs})
}

func sectionKey(w http.ResponseWriter, r *http.Request) (models.SectionKey, bool) {
	key, err := models.ParseSectionKey(chi.URLParam(r, "section"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return key, true
}
