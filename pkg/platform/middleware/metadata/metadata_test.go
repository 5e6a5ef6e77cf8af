package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"registro/pkg/requestcontext"
)

func capture(m *Middleware, req *http.Request) (ip, ua string) {
	m.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return ip, ua
}

func TestClientIP(t *testing.T) {
	t.Run("uses peer address without trusted proxies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		req.Header.Set("X-Forwarded-For", "198.51.100.1")
		req.Header.Set("User-Agent", "Mozilla/5.0")

		ip, ua := capture(New(nil), req)
		assert.Equal(t, "203.0.113.7", ip)
		assert.Equal(t, "Mozilla/5.0", ua)
	})

	t.Run("honors forwarded header from trusted proxy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.5:443"
		req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.5")

		ip, _ := capture(New([]string{"10.0.0.0/8"}), req)
		assert.Equal(t, "198.51.100.1", ip)
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.5:443"
		req.Header.Set("X-Real-IP", "198.51.100.9")

		ip, _ := capture(New([]string{"10.0.0.0/8", "bogus"}), req)
		assert.Equal(t, "198.51.100.9", ip)
	})

	t.Run("handles IPv6 peers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "[2001:db8::1]:8080"

		ip, _ := capture(New(nil), req)
		assert.Equal(t, "2001:db8::1", ip)
	})

	t.Run("unknown for garbage peers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "garbage"

		ip, _ := capture(New(nil), req)
		assert.Equal(t, "unknown", ip)
	})
}
