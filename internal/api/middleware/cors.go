package middleware

import (
	"net/url"

	"github.com/go-chi/cors"
)

// Origins is the browser origin allow-list shared by CORS and the sync
// WebSocket upgrade. Empty or "*" admits any origin.
type Origins []string

func (o Origins) any() bool {
	if len(o) == 0 {
		return true
	}
	for _, v := range o {
		if v == "*" {
			return true
		}
	}
	return false
}

// Allowed reports whether a browser at origin may talk to host. Requests
// without an Origin header do not come from a cross-site page and pass.
func (o Origins) Allowed(origin, host string) bool {
	if origin == "" || o.any() {
		return true
	}
	for _, v := range o {
		if v == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && host != "" && u.Host == host
}

// CORSOptions configures go-chi/cors for the caption API. Tokens travel in
// the Authorization header, or the token query parameter on the sync
// WebSocket, never in cookies, so credentials stay disabled.
func CORSOptions(origins Origins) cors.Options {
	allowed := []string(origins)
	if origins.any() {
		allowed = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// Retry-After lets the player back off the sample route
		ExposedHeaders:   []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}
