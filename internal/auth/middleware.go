// Package auth guards the MCP HTTP listener with a static bearer token.
//
// This token protects the MCP server itself. It is unrelated to the Harmonic
// API token, which never leaves the server.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// NewAuthMiddleware returns middleware requiring "Authorization: Bearer
// <token>" on every request. The prefix is case-sensitive and followed by a
// single space. An empty token disables the check.
//
// Rejected requests get 401 with a WWW-Authenticate challenge and never reach
// next.
func NewAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			provided, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || provided == "" || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="harmonic-mcp"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
