package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/metrics"
	"github.com/tuan28064/Hono-demo/internal/observability"
)

// Recovery is the outer error boundary. A panic anywhere inside is logged
// with its stack and answered with 500 carrying the panic message and the
// request id when one was assigned. A panic after the response has started
// is only logged.
func Recovery() Stage {
	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		w = TrackWrites(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			message := fmt.Sprint(rec)
			if err, ok := rec.(error); ok {
				message = err.Error()
			}

			requestID := GetRequestID(r.Context())
			panicErr := errors.NewErrorEnvelope("INTERNAL_ERROR", message).
				WithCorrelationID(requestID)
			panicErr, _ = panicErr.WithSeverity(errors.SeverityCritical)

			metrics.RecordPanic()

			if logger := observability.ServerLogger; logger != nil {
				logger.Error("Recovered from panic",
					zap.String("error", panicErr.Message),
					zap.String("error_code", panicErr.Code),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestID),
					zap.String("stack_trace", string(debug.Stack())),
					zap.Bool("response_started", Started(w)),
				)
			}

			if Started(w) {
				return
			}

			WriteError(w, http.StatusInternalServerError, ErrorResponse{
				Message:   panicErr.Message,
				Code:      panicErr.Code,
				RequestID: requestID,
			})
		}()

		next.ServeHTTP(w, r)
	})
}
