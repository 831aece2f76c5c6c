// Package apicors provides CORS middleware for the bearer-token API.
//
// Tokens travel in the Authorization header rather than cookies, so
// credentials are never allowed and "*" is a safe default for public sites
// that have not pinned their front-end origins.
package apicors

import (
	"net/http"
	"strings"
)

const (
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, Accept"
	maxAge       = "86400" // 24 hours
)

// Middleware returns CORS middleware for the given origins. An empty list,
// or one containing "*", allows any origin.
//
// Usage in routes.go:
//
//	r.Use(apicors.Middleware(appCfg.CORSOrigins))
func Middleware(origins []string) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(origins))
	anyOrigin := len(origins) == 0
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			anyOrigin = true
		}
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if anyOrigin {
				h.Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); origin != "" {
				if _, allowed := originSet[origin]; allowed {
					h.Set("Access-Control-Allow-Origin", origin)
				}
				// If origin not allowed, don't set CORS headers (browser will block)
				h.Add("Vary", "Origin")
			}

			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ParseOrigins splits a comma-separated origin list from configuration.
func ParseOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
