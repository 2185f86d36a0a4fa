package server

import (
	"fmt"
	"net/http"
	"strings"
)

// cspDirective is one Content-Security-Policy directive.
type cspDirective struct {
	name   string
	values []string
}

// devCSP allows the inline live-reload client and its WebSocket connection.
var devCSP = []cspDirective{
	{"default-src", []string{"'self'"}},
	{"script-src", []string{"'self'", "'unsafe-inline'"}},
	{"style-src", []string{"'self'", "'unsafe-inline'"}},
	{"img-src", []string{"'self'", "data:", "https:"}},
	{"connect-src", []string{"'self'", "ws:", "wss:"}},
	{"font-src", []string{"'self'", "data:"}},
	{"object-src", []string{"'none'"}},
	{"frame-ancestors", []string{"'self'"}},
	{"base-uri", []string{"'self'"}},
}

func buildCSPHeader(directives []cspDirective) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		if len(d.values) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", d.name, strings.Join(d.values, " ")))
	}
	return strings.Join(parts, "; ")
}

// securityHeaders sets the response headers every dev server page carries.
func securityHeaders(next http.Handler) http.Handler {
	csp := buildCSPHeader(devCSP)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
