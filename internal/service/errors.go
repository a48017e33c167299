package service

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrConfigUnavailable  = errors.New("configuration unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStepIncomplete     = errors.New("step incomplete")
	ErrUploadRejected     = errors.New("upload rejected")

	ErrUploadTooLarge = fmt.Errorf("%w: file too large", ErrUploadRejected)
	ErrUploadType     = fmt.Errorf("%w: file type not allowed", ErrUploadRejected)
)

// text strips markup from admin-entered strings. Entities produced by the
// sanitizer are decoded again since values are stored as plain text.
type text struct {
	policy *bluemonday.Policy
}

func newText() text {
	return text{policy: bluemonday.StrictPolicy()}
}

func (t text) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(t.policy.Sanitize(s)))
}

func (t text) cleanAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = t.clean(s)
	}
	return out
}
