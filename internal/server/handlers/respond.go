package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/tuan28064/Hono-demo/internal/errors"
	"github.com/tuan28064/Hono-demo/internal/observability"
	"github.com/tuan28064/Hono-demo/internal/server/middleware"
)

// HandlerFunc is an HTTP handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts a HandlerFunc to net/http. Returned errors go through the
// centralized error responder: envelopes keep their code, anything else
// becomes a 500 carrying the error's own message. An error returned after
// the response has started is logged and dropped.
func Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w = middleware.TrackWrites(w)
		err := fn(w, r)
		if err == nil {
			return
		}
		if middleware.Started(w) {
			if logger := observability.ServerLogger; logger != nil {
				logger.Warn("Handler failed after response started",
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetRequestID(r.Context())),
					zap.Error(err))
			}
			return
		}
		respondWithError(w, r, err)
	}
}

// Response is the success envelope of the user and product API.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

func ok(data any) Response {
	return Response{Success: true, Data: data}
}

func okList(data any, total int) Response {
	return Response{Success: true, Data: data, Total: &total}
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// parseID reads a numeric path id. Anything that is not a positive integer
// names no record, so it is reported as not found.
func parseID(r *http.Request, raw, notFound string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.WrapNotFound(r.Context(), err, notFound)
	}
	return id, nil
}
