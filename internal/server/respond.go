package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/cantus/internal/shared"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps sentinel errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status of err. Messages of unexpected errors stay in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"err", err,
		)
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
