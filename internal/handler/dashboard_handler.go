package handler

import (
	"net/http"

	"github.com/parisxmas/OxiEnroll/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	configSvc *service.ConfigService
	subSvc    *service.SubmissionService
	log       *zap.Logger
}

func NewDashboardHandler(configSvc *service.ConfigService, subSvc *service.SubmissionService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{configSvc: configSvc, subSvc: subSvc, log: log}
}

// Dashboard returns the editable messages and submission counts.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.configSvc.Messages(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	counts, err := h.subSvc.Counts(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"openingMessage": msgs.OpeningMessage,
		"closingMessage": msgs.ClosingMessage,
		"submissions":    counts,
	})
}
