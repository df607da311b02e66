package handlers

import (
	"net/http"

	"github.com/video-stream/captionsync/internal/db"
)

type HealthHandler struct {
	db *db.Database
}

func NewHealthHandler(database *db.Database) *HealthHandler {
	return &HealthHandler{db: database}
}

// Health reports whether the database answers
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DB().PingContext(r.Context()); err != nil {
		jsonError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}
