package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parisxmas/OxiEnroll/internal/repository"
	"github.com/parisxmas/OxiEnroll/internal/section"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"github.com/parisxmas/OxiEnroll/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrConfigUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: dial tcp", service.ErrConfigUnavailable), http.StatusServiceUnavailable},
		{wizard.ErrTooManySessions, http.StatusServiceUnavailable},
		{service.ErrStepIncomplete, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: reset", wizard.ErrSubmissionFailed), http.StatusBadGateway},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrUploadTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrUploadType, http.StatusUnsupportedMediaType},
		{section.ErrImmutableQuestion, http.StatusConflict},
		{wizard.ErrPromptPending, http.StatusConflict},
		{wizard.ErrFinished, http.StatusConflict},
		{fmt.Errorf("%w: dup", section.ErrInvalidSection), http.StatusBadRequest},
		{section.ErrPositionOutOfRange, http.StatusBadRequest},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{repository.ErrNotFound, http.StatusNotFound},
		{wizard.ErrSessionNotFound, http.StatusNotFound},
		{section.ErrQuestionNotFound, http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, zap.NewNop(), errors.New("secret dsn leaked"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeServiceError(rec, zap.NewNop(), fmt.Errorf("%w: connection refused", service.ErrConfigUnavailable))
	assert.JSONEq(t, `{"error":"configuration unavailable"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeServiceError(rec, zap.NewNop(), wizard.ErrTooManySessions)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"too many open enrollment sessions"}`, rec.Body.String())
}

func TestReadJSON(t *testing.T) {
	var v map[string]any
	err := readJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &v)
	assert.ErrorIs(t, err, errEmptyBody)

	require.NoError(t, readJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)), &v))
	assert.Equal(t, 1.0, v["a"])
}
