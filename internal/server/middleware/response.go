package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the failure body shared by every JSON error the service
// writes.
type ErrorResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Code      string         `json:"code,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Path      string         `json:"path,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, statusCode int, body ErrorResponse) {
	body.Success = false
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeFailure is the short-circuit response used by stages in this package
// (avoids importing internal/errors, which imports this package).
func writeFailure(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	WriteError(w, statusCode, ErrorResponse{
		Message:   message,
		Code:      code,
		RequestID: GetRequestID(r.Context()),
	})
}
