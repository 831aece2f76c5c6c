// Package network provides network-related utilities.
package network

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address from RemoteAddr with its port
// removed. Forwarding headers are not read here; behind a trusted proxy,
// chi's middleware.RealIP rewrites RemoteAddr from them first.
func ClientIP(r *http.Request) string {
	return stripPort(r.RemoteAddr)
}

// stripPort handles "1.2.3.4:80", "[::1]:80" and bare addresses.
func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
