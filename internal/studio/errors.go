package studio

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lexiqai/speech-studio/internal/credentials"
	"github.com/lexiqai/speech-studio/internal/generation"
	"github.com/lexiqai/speech-studio/internal/resilience"
	"github.com/lexiqai/speech-studio/internal/tts"
)

// errBadRequest marks caller input errors
var errBadRequest = errors.New("bad request")

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }
func (e *badRequestError) Unwrap() error { return errBadRequest }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// StatusFor maps a pipeline error to an HTTP status code
func StatusFor(err error) int {
	var classified *resilience.ClassifiedError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, generation.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, credentials.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, generation.ErrNoCredentials), errors.Is(err, credentials.ErrEmptyPool):
		return http.StatusPreconditionFailed
	case errors.Is(err, tts.ErrExhaustedPool):
		return http.StatusServiceUnavailable
	case errors.Is(err, tts.ErrMalformedResponse), errors.As(err, &classified):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorResponse{Error: err.Error()})
}
