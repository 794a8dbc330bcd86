package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/observability"
)

// AccessLog logs one line per request once the inner chain has returned.
func AccessLog() Stage {
	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		start := time.Now()
		wrapped := wrapWriter(w)

		next.ServeHTTP(wrapped, r)

		logger := observability.ServerLogger
		if logger == nil {
			return
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes", wrapped.bytesWritten),
			zap.String("remote_addr", r.RemoteAddr),
		}
		if requestID := GetRequestID(r.Context()); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if r.Context().Err() != nil {
			fields = append(fields, zap.Bool("canceled", true))
		}

		logger.Info("HTTP request completed", fields...)
	})
}
