package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/parisxmas/OxiEnroll/internal/repository"
	"github.com/parisxmas/OxiEnroll/internal/section"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"github.com/parisxmas/OxiEnroll/internal/wizard"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

var errEmptyBody = errors.New("empty body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrConfigUnavailable),
		errors.Is(err, wizard.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrStepIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrSubmissionFailed):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUploadType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, section.ErrImmutableQuestion),
		errors.Is(err, wizard.ErrPromptPending),
		errors.Is(err, wizard.ErrNoPrompt),
		errors.Is(err, wizard.ErrFinished):
		return http.StatusConflict
	case errors.Is(err, section.ErrInvalidSection),
		errors.Is(err, section.ErrPositionOutOfRange),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUploadRejected):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, section.ErrQuestionNotFound),
		errors.Is(err, wizard.ErrSessionNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// errorMessage hides the detail of unexpected failures from clients.
func errorMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusServiceUnavailable:
		if errors.Is(err, wizard.ErrTooManySessions) {
			return wizard.ErrTooManySessions.Error()
		}
		return service.ErrConfigUnavailable.Error()
	}
	return err.Error()
}

func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, errorMessage(status, err))
}
