package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestID header key
const RequestIDHeader = "X-Request-ID"

// requestIDContextKey is a custom type to avoid context key collisions
type requestIDContextKey string

const RequestIDContextKey requestIDContextKey = "request_id"

// RequestID reuses an inbound X-Request-ID or generates a UUID, then exposes
// it on the response, in the context, and in the request's Values bag.
func RequestID() Stage {
	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ValuesFrom(r.Context()).Set(ValueRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context key, the Values bag,
// or chi's request id, in that order.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return requestID
	}
	if requestID := ValuesFrom(ctx).String(ValueRequestID); requestID != "" {
		return requestID
	}
	return middleware.GetReqID(ctx)
}
