// Package apperr holds the sentinel errors shared across layers.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrConnectivity means the remote note service was unreachable or answered with a failure status.
	ErrConnectivity = errors.New("connectivity error")
	// ErrValidation means the input was rejected before any backend call.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration means a required credential or setting is missing.
	ErrConfiguration = errors.New("configuration error")

	ErrEmptyResponse     = errors.New("empty response from extraction service")
	ErrMalformedResponse = errors.New("malformed response from extraction service")
)

// UserMessage renders err for display. Extraction failures get a hint
// distinct from configuration failures.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case errors.Is(err, ErrConfiguration):
		return msg + " (set GEMINI_API_KEY in the environment or a .env file)"
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, ErrMalformedResponse):
		return "AI analysis failed: " + msg + "; your input was kept"
	case errors.Is(err, ErrConnectivity):
		return strings.TrimPrefix(msg, ErrConnectivity.Error()+": ")
	}
	return msg
}
