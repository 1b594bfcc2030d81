package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/newsletter/pkg/clientip"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr", "203.0.113.7:5555", nil, true, "203.0.113.7"},
		{"remote addr without port", "203.0.113.7", nil, false, "203.0.113.7"},
		{"ipv6 remote", "[2001:db8::1]:443", nil, false, "2001:db8::1"},
		{"cloudflare header", "10.0.0.1:1", map[string]string{"CF-Connecting-IP": "198.51.100.2"}, true, "198.51.100.2"},
		{"forwarded list skips junk", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "junk, 198.51.100.3, 10.0.0.2"}, true, "198.51.100.3"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.4"}, true, "198.51.100.4"},
		{"cloudflare wins over forwarded", "10.0.0.1:1", map[string]string{"CF-Connecting-IP": "198.51.100.2", "X-Forwarded-For": "198.51.100.3"}, true, "198.51.100.2"},
		{"headers ignored without trust", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.3"}, false, "10.0.0.1"},
		{"mapped ipv4", "[::ffff:192.0.2.1]:80", nil, false, "192.0.2.1"},
		{"garbage", "not-an-ip", nil, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.FromRequest(r, tt.trustProxy))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.9")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "198.51.100.9", got)
}
