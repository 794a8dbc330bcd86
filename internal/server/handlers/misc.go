package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tuan28064/Hono-demo/internal/metrics"
	"github.com/tuan28064/Hono-demo/internal/server/middleware"
)

// APIVersion is the version reported by the root endpoint.
const APIVersion = "1.0.0"

// ErrDemoFault is raised by GET /error.
var ErrDemoFault = errors.New("this is a test error")

// Service serves the informational endpoints: root metadata, greeting,
// status, the deliberate fault, and the rate limited demo route.
type Service struct {
	name      string
	apiPrefix string
	startedAt time.Time
}

// NewService returns the informational handlers. startedAt anchors uptime.
func NewService(name, apiPrefix string, startedAt time.Time) *Service {
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	return &Service{name: name, apiPrefix: apiPrefix, startedAt: startedAt}
}

// IndexResponse is the root endpoint payload.
type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	RequestID string            `json:"requestId,omitempty"`
	Endpoints map[string]string `json:"endpoints"`
}

// Index handles GET /.
func (s *Service) Index(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, IndexResponse{
		Message:   "Welcome to " + s.name,
		Version:   APIVersion,
		RequestID: middleware.GetRequestID(r.Context()),
		Endpoints: map[string]string{
			"users":     "/users",
			"user":      "/users/{id}",
			"hello":     "/hello/{name}",
			"search":    "/search?q=keyword",
			"products":  "/products",
			"status":    s.apiPrefix + "/status",
			"protected": "/protected/profile",
			"limited":   "/limited",
		},
	})
}

// Hello handles GET /hello/{name}.
func (s *Service) Hello(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Hello, " + chi.URLParam(r, "name") + "!",
		"timestamp": timestamp(),
	})
}

// Fail handles GET /error by returning a plain fault.
func (s *Service) Fail(w http.ResponseWriter, r *http.Request) error {
	return ErrDemoFault
}

// StatusResponse is the GET /status payload. Uptime is in seconds.
type StatusResponse struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
}

// Status handles GET /status.
func (s *Service) Status(w http.ResponseWriter, r *http.Request) error {
	uptime := time.Since(s.startedAt)
	metrics.SetServerUptime(int64(uptime.Seconds()))

	return writeJSON(w, http.StatusOK, StatusResponse{
		Status:    "ok",
		Uptime:    math.Round(uptime.Seconds()*1000) / 1000,
		Timestamp: timestamp(),
	})
}

// Limited handles GET /limited; the rate gate in front of it does the work.
func (s *Service) Limited(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{
		"message":   "this route allows a limited number of requests per window",
		"requestId": middleware.GetRequestID(r.Context()),
	})
}
