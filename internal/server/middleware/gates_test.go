package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuan28064/Hono-demo/internal/auth"
	"github.com/tuan28064/Hono-demo/internal/ratelimit"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAuthGate(t *testing.T) {
	var principal *auth.Principal
	h := Chain(AuthGate(auth.NewStaticToken("test-token", nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"Missing", "", http.StatusUnauthorized, "missing authentication token"},
		{"Invalid", "Bearer wrong", http.StatusUnauthorized, "invalid authentication token"},
		{"WrongScheme", "Basic test-token", http.StatusUnauthorized, "invalid authentication token"},
		{"Valid", "Bearer test-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal = nil
			req := httptest.NewRequest(http.MethodGet, "/protected/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, principal)
				assert.Equal(t, "admin", principal.Username)
				return
			}

			assert.Nil(t, principal)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, "UNAUTHORIZED", body.Code)
		})
	}
}

func TestAuthGate_PluggableVerifier(t *testing.T) {
	v := auth.VerifierFunc(func(ctx context.Context, credential string) (*auth.Principal, error) {
		if credential == "Token xyz" {
			return &auth.Principal{ID: 9, Username: "svc"}, nil
		}
		return nil, auth.ErrInvalidCredential
	})

	h := Chain(AuthGate(v))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token xyz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func newLimitedHandler(limiter ratelimit.Limiter, limit int) http.Handler {
	return Chain(RateGate(limiter, RateGateConfig{
		Scope:   "limited",
		Limit:   limit,
		Window:  time.Minute,
		KeyFunc: ratelimit.DefaultKeyFunc("", true),
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func limitedRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.Header.Set("X-Forwarded-For", ip)
	return req
}

func TestRateGate_DeniesAfterLimit(t *testing.T) {
	h := newLimitedHandler(ratelimit.NewWindow(), 5)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, limitedRequest("1.2.3.4"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, limitedRequest("1.2.3.4"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, RateLimitedMessage, body.Message)

	// Another client keeps its own quota.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, limitedRequest("5.6.7.8"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingLimiter struct{}

func (failingLimiter) CheckAndRecord(context.Context, string, int, time.Duration) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis: connection refused")
}

func TestRateGate_FailsOpenOnLimiterError(t *testing.T) {
	h := newLimitedHandler(failingLimiter{}, 1)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, limitedRequest("1.2.3.4"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestThrottle(t *testing.T) {
	bucket := ratelimit.NewTokenBucket(0.001, 2)
	h := Chain(Throttle(bucket, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, limitedRequest("9.9.9.9"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, limitedRequest("9.9.9.9"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
