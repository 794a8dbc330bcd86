package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	apperrors "github.com/tuan28064/Hono-demo/internal/errors"
	"github.com/tuan28064/Hono-demo/internal/observability"
)

var metricsProxyClient = &http.Client{
	Timeout: 5 * time.Second,
}

var hopByHopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"TE", "Trailer", "Transfer-Encoding", "Upgrade",
}

// MetricsHandler proxies the Prometheus exporter so /metrics can be scraped
// on the main listener. configuredPort is used when the exporter has not
// reported the port it bound.
func MetricsHandler(configuredPort int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if observability.PrometheusExporter == nil {
			HandleError(w, r, apperrors.NewServiceUnavailableError("Metrics exporter not initialized"))
			return
		}

		metricsPort := observability.GetMetricsPort()
		if metricsPort == 0 {
			metricsPort = configuredPort
		}
		if metricsPort == 0 {
			metricsPort = 9090
		}
		metricsURL := fmt.Sprintf("http://127.0.0.1:%d/metrics", metricsPort)

		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, metricsURL, nil)
		if err != nil {
			HandleError(w, r, proxyError(apperrors.CodeInternal, "Unable to construct metrics request", metricsURL, err))
			return
		}
		if accept := r.Header.Get("Accept"); accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := metricsProxyClient.Do(req)
		if err != nil {
			HandleError(w, r, proxyError(apperrors.CodeExternalService, "Prometheus exporter unavailable", metricsURL, err))
			return
		}
		defer func() {
			if err := resp.Body.Close(); err != nil && observability.ServerLogger != nil {
				observability.ServerLogger.Warn("Failed to close metrics response body", zap.Error(err))
			}
		}()

		copyProxyHeaders(w.Header(), resp.Header)
		if resp.Header.Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		}

		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Failed to write metrics response", zap.Error(err))
		}
	}
}

func proxyError(code, message, metricsURL string, err error) *errors.ErrorEnvelope {
	envelope, _ := errors.NewErrorEnvelope(code, message).
		WithContext(map[string]interface{}{
			"metrics_url":    metricsURL,
			"original_error": err.Error(),
		})
	return envelope
}

func copyProxyHeaders(dst, src http.Header) {
	for key, values := range src {
		if isHopByHop(key) {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func isHopByHop(key string) bool {
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(key, h) {
			return true
		}
	}
	return false
}
