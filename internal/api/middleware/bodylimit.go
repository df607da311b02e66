package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxBodySize caps request bodies at maxBytes. A declared Content-Length
// over the cap is refused with 413 before the handler runs. A chunked body
// that runs past it makes the handler's decode fail with
// *http.MaxBytesError, which the handlers also answer with 413.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				json.NewEncoder(w).Encode(map[string]string{
					"error": fmt.Sprintf("request body exceeds %d bytes", maxBytes),
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
