package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyFunc(t *testing.T) {
	tests := []struct {
		name       string
		keyHeader  string
		trustXFF   bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "PrefersHeaderWhenSet",
			keyHeader:  "X-Client",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Client": " client-123 "},
			want:       "client-123",
		},
		{
			name:       "UsesFirstForwardedForEntry",
			trustXFF:   true,
			remoteAddr: "10.0.0.9:5555",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"},
			want:       "1.2.3.4",
		},
		{
			name:       "IgnoresForwardedForWhenUntrusted",
			remoteAddr: "10.0.0.9:5555",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:       "10.0.0.9",
		},
		{
			name:       "FallsBackToRemoteHost",
			keyHeader:  "X-Client",
			trustXFF:   true,
			remoteAddr: "10.0.0.9:5555",
			want:       "10.0.0.9",
		},
		{
			name:       "KeepsRemoteAddrWithoutPort",
			remoteAddr: "pipe",
			want:       "pipe",
		},
		{
			name: "UnknownWhenNothingIdentifies",
			want: UnknownClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, DefaultKeyFunc(tt.keyHeader, tt.trustXFF)(r))
		})
	}
}
