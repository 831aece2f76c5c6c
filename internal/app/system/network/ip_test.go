package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

var clientIPTests = []struct {
	name       string
	remoteAddr string
	headers    map[string]string
	direct     string // no proxy in front
	proxied    string // behind RealIP
}{
	{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1", "192.0.2.1"},
	{"ipv6 remote addr", "[2001:db8::1]:443", nil, "2001:db8::1", "2001:db8::1"},
	{"bare remote addr", "192.0.2.9", nil, "192.0.2.9", "192.0.2.9"},
	{"forwarded chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "10.0.0.1", "203.0.113.5"},
	{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1", "198.51.100.7"},
}

func newRequest(remoteAddr string, headers map[string]string) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = remoteAddr
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	for _, tt := range clientIPTests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClientIP(newRequest(tt.remoteAddr, tt.headers)); got != tt.direct {
				t.Errorf("ClientIP() = %q, want %q", got, tt.direct)
			}
		})
	}
}

func TestClientIP_BehindRealIP(t *testing.T) {
	for _, tt := range clientIPTests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := chimw.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))
			h.ServeHTTP(httptest.NewRecorder(), newRequest(tt.remoteAddr, tt.headers))
			if got != tt.proxied {
				t.Errorf("ClientIP() = %q, want %q", got, tt.proxied)
			}
		})
	}
}
