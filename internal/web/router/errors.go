package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

var (
	// ErrBadRequest marks errors caused by the request itself
	ErrBadRequest = errors.New("bad request")

	// ErrBackendUnavailable is returned when a route needs a database the
	// server was started without
	ErrBackendUnavailable = errors.New("backend not configured")
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error  ErrorDetail `json:"error"`
	Status int         `json:"status"`
	Path   string      `json:"path,omitempty"`
	Method string      `json:"method,omitempty"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}

// statusFor maps an error to its HTTP status and error code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, schema.ErrResourceNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		rt.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		message = "An unexpected error occurred"
	}

	writeJSON(w, status, ErrorResponse{
		Error:  ErrorDetail{Code: code, Message: message},
		Status: status,
		Path:   r.URL.Path,
		Method: r.Method,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error: ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "The requested route was not found",
		},
		Status: http.StatusNotFound,
		Path:   r.URL.Path,
		Method: r.Method,
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error: ErrorDetail{
			Code:    "METHOD_NOT_ALLOWED",
			Message: fmt.Sprintf("Method %s is not allowed for this route", r.Method),
		},
		Status: http.StatusMethodNotAllowed,
		Path:   r.URL.Path,
		Method: r.Method,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
