package handlers

import (
	"net/http"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/video-stream/captionsync/internal/api/middleware"
	"github.com/video-stream/captionsync/internal/auth"
	"github.com/video-stream/captionsync/internal/db"
	"github.com/video-stream/captionsync/internal/playback"
)

var startTime = time.Now()

type AdminHandler struct {
	db       *db.Database
	registry *playback.Registry
	limiters []*middleware.RateLimiter
	dataPath string
}

func NewAdminHandler(database *db.Database, registry *playback.Registry, dataPath string, limiters ...*middleware.RateLimiter) *AdminHandler {
	return &AdminHandler{db: database, registry: registry, limiters: limiters, dataPath: dataPath}
}

// ListUsers returns all users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers()
	if err != nil {
		jsonError(w, "failed to list users: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, users, http.StatusOK)
}

// CreateUser creates a new user
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}
	if !db.ValidRoles[req.Role] {
		jsonError(w, "role must be one of: admin, editor, viewer", http.StatusBadRequest)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, "failed to hash password", http.StatusInternalServerError)
		return
	}
	id, err := h.db.CreateUser(req.Username, hashed, req.Role)
	if err != nil {
		jsonError(w, "failed to create user (username may already exist)", http.StatusConflict)
		return
	}
	jsonResponse(w, map[string]interface{}{"id": id, "username": req.Username, "role": req.Role}, http.StatusCreated)
}

// UpdateUser changes a user's name, role or password
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.db.GetUserByID(id)
	if err != nil {
		dbError(w, "user", err)
		return
	}
	if req.Role != "" && !db.ValidRoles[req.Role] {
		jsonError(w, "role must be one of: admin, editor, viewer", http.StatusBadRequest)
		return
	}
	if existing.Role == "admin" && req.Role != "" && req.Role != "admin" && h.lastAdmin(w) {
		return
	}

	username, role := existing.Username, existing.Role
	if req.Username != "" {
		username = req.Username
	}
	if req.Role != "" {
		role = req.Role
	}
	if err := h.db.UpdateUser(id, username, role); err != nil {
		jsonError(w, "failed to update user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if req.Password != "" {
		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			jsonError(w, "failed to hash password", http.StatusInternalServerError)
			return
		}
		if err := h.db.UpdateUserPassword(id, hashed); err != nil {
			jsonError(w, "failed to update password", http.StatusInternalServerError)
			return
		}
	}

	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// DeleteUser removes a user
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	if claims := middleware.GetClaims(r); claims != nil && claims.UserID == id {
		jsonError(w, "cannot delete yourself", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUserByID(id)
	if err != nil {
		dbError(w, "user", err)
		return
	}
	if user.Role == "admin" && h.lastAdmin(w) {
		return
	}

	if err := h.db.DeleteUser(id); err != nil {
		jsonError(w, "failed to delete user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// lastAdmin writes an error and returns true when only one admin is left.
func (h *AdminHandler) lastAdmin(w http.ResponseWriter) bool {
	count, err := h.db.CountAdmins()
	if err != nil {
		jsonError(w, "failed to check admin count", http.StatusInternalServerError)
		return true
	}
	if count <= 1 {
		jsonError(w, "cannot remove the last admin", http.StatusBadRequest)
		return true
	}
	return false
}

// ListSessions returns all live synchronizer sessions
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.registry.List(), http.StatusOK)
}

// RateLimitStatus shows the buckets of every limiter
func (h *AdminHandler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	out := make([]middleware.RateLimitStatus, 0, len(h.limiters))
	for _, l := range h.limiters {
		out = append(out, l.Status())
	}
	jsonResponse(w, out, http.StatusOK)
}

// ClearRateLimit unblocks every client, of one limiter when ?name= is set
func (h *AdminHandler) ClearRateLimit(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	found := false
	for _, l := range h.limiters {
		if name == "" || l.Name() == name {
			l.Clear()
			found = true
		}
	}
	if !found {
		jsonError(w, "unknown limiter: "+name, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DashboardStats returns system stats for the admin dashboard
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	var diskTotal, diskFree, diskUsed uint64
	if h.dataPath != "" {
		var stat syscall.Statfs_t
		if err := syscall.Statfs(h.dataPath, &stat); err == nil {
			diskTotal = stat.Blocks * uint64(stat.Bsize)
			diskFree = stat.Bavail * uint64(stat.Bsize)
			diskUsed = diskTotal - diskFree
		}
	}

	var memStat runtime.MemStats
	runtime.ReadMemStats(&memStat)

	counts, err := h.db.Counts()
	if err != nil {
		jsonError(w, "failed to count records", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"storage": map[string]uint64{
			"total": diskTotal,
			"used":  diskUsed,
			"free":  diskFree,
		},
		"system": map[string]interface{}{
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"mem_alloc":      memStat.Alloc,
			"mem_sys":        memStat.Sys,
		},
		"records":       counts,
		"sync_sessions": h.registry.Len(),
	}, http.StatusOK)
}
