package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CORSOptions configures the CORS stage.
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	// AllowedHeaders empty means echo Access-Control-Request-Headers.
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

var defaultCORSMethods = []string{"GET", "HEAD", "PUT", "POST", "DELETE", "PATCH"}

// CORS sets cross-origin headers and answers preflight requests with 204.
func CORS(opts CORSOptions) Stage {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := slices.Contains(origins, "*")

	methods := opts.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	allowMethods := strings.Join(methods, ",")

	exposed := opts.ExposedHeaders
	if len(exposed) == 0 {
		exposed = []string{RequestIDHeader}
	}
	exposeHeaders := strings.Join(exposed, ",")

	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		h := w.Header()
		origin := r.Header.Get("Origin")

		switch {
		case wildcard:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}

		if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Access-Control-Allow-Methods", allowMethods)
		if len(opts.AllowedHeaders) > 0 {
			h.Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ","))
		} else if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			h.Set("Access-Control-Allow-Headers", requested)
			h.Add("Vary", "Access-Control-Request-Headers")
		}
		if opts.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(int(opts.MaxAge.Seconds())))
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
