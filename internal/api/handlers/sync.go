package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/video-stream/captionsync/internal/api/middleware"
	"github.com/video-stream/captionsync/internal/playback"
	"github.com/video-stream/captionsync/internal/subtitle"
)

// SyncHandler serves server-held synchronizer sessions.
type SyncHandler struct {
	svc      *subtitle.Service
	registry *playback.Registry
	origins  middleware.Origins
}

func NewSyncHandler(svc *subtitle.Service, registry *playback.Registry, allowedOrigins middleware.Origins) *SyncHandler {
	return &SyncHandler{svc: svc, registry: registry, origins: allowedOrigins}
}

type createSessionRequest struct {
	BilingualID string   `json:"bilingual_id"`
	Tolerance   *float64 `json:"tolerance"`
}

// CreateSession starts a synchronizer over a stored bilingual track
func (h *SyncHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	track, err := h.svc.Track(req.BilingualID)
	if err != nil {
		dbError(w, "bilingual track", err)
		return
	}
	tolerance := h.svc.Engine().SyncTolerance
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}
	jsonResponse(w, h.registry.Create(req.BilingualID, track, tolerance), http.StatusCreated)
}

// GetSession returns a session snapshot
func (h *SyncHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		sessionError(w, err)
		return
	}
	jsonResponse(w, info, http.StatusOK)
}

type sampleRequest struct {
	Time *float64 `json:"time"`
}

// Sample advances a session to the reported playback time
func (h *SyncHandler) Sample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Time == nil {
		jsonError(w, "time is required", http.StatusBadRequest)
		return
	}
	if math.IsNaN(*req.Time) || math.IsInf(*req.Time, 0) {
		jsonError(w, "time must be finite", http.StatusBadRequest)
		return
	}
	sample, err := h.registry.Sample(chi.URLParam(r, "id"), *req.Time)
	if err != nil {
		sessionError(w, err)
		return
	}
	jsonResponse(w, sample, http.StatusOK)
}

// Reset clears a session's active cue
func (h *SyncHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Reset(chi.URLParam(r, "id")); err != nil {
		sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Seek returns the playback time for ?cue= and optional &word=
func (h *SyncHandler) Seek(w http.ResponseWriter, r *http.Request) {
	cue, err := strconv.Atoi(r.URL.Query().Get("cue"))
	if err != nil {
		jsonError(w, "cue must be an integer", http.StatusBadRequest)
		return
	}
	word := -1
	if v := r.URL.Query().Get("word"); v != "" {
		if word, err = strconv.Atoi(v); err != nil {
			jsonError(w, "word must be an integer", http.StatusBadRequest)
			return
		}
	}

	t, ok, err := h.registry.Seek(chi.URLParam(r, "id"), cue, word)
	if err != nil {
		sessionError(w, err)
		return
	}
	if !ok {
		jsonError(w, "cue or word out of range", http.StatusNotFound)
		return
	}
	jsonResponse(w, map[string]float64{"time": t}, http.StatusOK)
}

// DeleteSession ends a session
func (h *SyncHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(chi.URLParam(r, "id")); err != nil {
		sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, playback.ErrSessionNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
