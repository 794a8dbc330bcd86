package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/auth"
	"github.com/tuan28064/Hono-demo/internal/metrics"
	"github.com/tuan28064/Hono-demo/internal/observability"
)

// AuthGate requires a credential in the Authorization header that the
// verifier accepts. The resolved principal is stored in the request context.
func AuthGate(verifier auth.Verifier) Stage {
	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		credential := r.Header.Get("Authorization")
		if credential == "" {
			rejectAuth(w, r, auth.ErrMissingCredential)
			return
		}

		principal, err := verifier.Verify(r.Context(), credential)
		if err != nil {
			rejectAuth(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func rejectAuth(w http.ResponseWriter, r *http.Request, err error) {
	reason := "invalid"
	message := auth.ErrInvalidCredential.Error()
	if errors.Is(err, auth.ErrMissingCredential) {
		reason = "missing"
		message = auth.ErrMissingCredential.Error()
	}

	metrics.RecordAuthFailure(reason)
	if logger := observability.ServerLogger; logger != nil {
		logger.Debug("Authentication rejected",
			zap.String("reason", reason),
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
	}

	writeFailure(w, r, http.StatusUnauthorized, "UNAUTHORIZED", message)
}
