// Package middleware contains common middleware functions for HTTP handlers.
package middleware

import (
	"net/http"
	"slices"
)

// AnyOrigin allows requests from every origin.
const AnyOrigin = "*"

// CORS sets up CORS headers and decides which origins may open a socket.
type CORS struct {
	allowedOrigins []string
}

// NewCORS creates a new CORS middleware. An empty list allows any origin.
func NewCORS(allowedOrigins []string) *CORS {
	return &CORS{
		allowedOrigins: allowedOrigins,
	}
}

// Allowed reports whether the origin may connect. Requests without an Origin
// header do not come from a browser and are allowed.
func (c CORS) Allowed(origin string) bool {
	if origin == "" || len(c.allowedOrigins) == 0 {
		return true
	}
	return slices.Contains(c.allowedOrigins, AnyOrigin) || slices.Contains(c.allowedOrigins, origin)
}

// CheckOrigin is the origin check used by the websocket upgrader.
func (c CORS) CheckOrigin(r *http.Request) bool {
	return c.Allowed(r.Header.Get("Origin"))
}

// Intercept sets up CORS headers.
func (c CORS) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !c.Allowed(origin) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
