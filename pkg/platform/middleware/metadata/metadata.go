// Package metadata resolves the client address and User-Agent of a request
// and stores them in the request context.
package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"registro/pkg/requestcontext"
)

// MaxForwardedHeaderLength guards against oversized X-Forwarded-For values.
const MaxForwardedHeaderLength = 500

// Middleware extracts client metadata, trusting forwarding headers only when
// the direct peer is inside one of the configured proxy prefixes.
type Middleware struct {
	trusted []netip.Prefix
}

// New parses trusted proxy CIDRs. Invalid entries are skipped.
func New(trustedCIDRs []string) *Middleware {
	m := &Middleware{}
	for _, cidr := range trustedCIDRs {
		if p, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err == nil {
			m.trusted = append(m.trusted, p)
		}
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) clientIP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)
	if !peer.IsValid() {
		return "unknown"
	}
	if !m.isTrusted(peer) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && len(xff) <= MaxForwardedHeaderLength {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
		return peer.String()
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}
	return peer.String()
}

func (m *Middleware) isTrusted(addr netip.Addr) bool {
	for _, p := range m.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteIP(remoteAddr string) netip.Addr {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}
