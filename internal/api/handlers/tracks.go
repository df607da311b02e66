package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/db"
	"github.com/video-stream/captionsync/internal/job"
	"github.com/video-stream/captionsync/internal/storage"
	"github.com/video-stream/captionsync/internal/subtitle"
)

type TrackHandler struct {
	db        *db.Database
	svc       *subtitle.Service
	queue     *job.JobQueue
	mediaPath string
}

func NewTrackHandler(database *db.Database, svc *subtitle.Service, queue *job.JobQueue, mediaPath string) *TrackHandler {
	return &TrackHandler{db: database, svc: svc, queue: queue, mediaPath: mediaPath}
}

type createTrackRequest struct {
	VideoID  string           `json:"video_id"`
	Language string           `json:"language"`
	Cues     []caption.RawCue `json:"cues"`
	Content  string           `json:"content"` // VTT/SRT text, used when cues is empty
	Offset   float64          `json:"offset"`
	Options  json.RawMessage  `json:"options"`
}

// CreateTrack cleans an uploaded caption stream and stores it
func (h *TrackHandler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var req createTrackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VideoID == "" || req.Language == "" {
		jsonError(w, "video_id and language are required", http.StatusBadRequest)
		return
	}

	opts, err := h.svc.Engine().Dedupe.Overlay(req.Options)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	raw := req.Cues
	if len(raw) == 0 {
		raw = caption.ParseVTT(req.Content)
	}

	track, stats, err := h.svc.ImportCues(req.VideoID, req.Language, subtitle.SourceUpload, raw, req.Offset, opts)
	if errors.Is(err, subtitle.ErrNoCues) {
		jsonError(w, "no usable cues in upload", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		jsonError(w, "failed to store track: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"track": track,
		"stats": stats,
	}, http.StatusCreated)
}

// ListTracks returns track summaries, optionally filtered by ?video_id=
func (h *TrackHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.db.ListCaptionTracks(r.URL.Query().Get("video_id"))
	if err != nil {
		jsonError(w, "failed to list tracks", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, tracks, http.StatusOK)
}

// GetTrack returns a track with its cues
func (h *TrackHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	track, err := h.db.GetCaptionTrack(chi.URLParam(r, "id"))
	if err != nil {
		dbError(w, "track", err)
		return
	}
	jsonResponse(w, track, http.StatusOK)
}

// GetTrackVTT renders a track as WebVTT
func (h *TrackHandler) GetTrackVTT(w http.ResponseWriter, r *http.Request) {
	track, err := h.db.GetCaptionTrack(chi.URLParam(r, "id"))
	if err != nil {
		dbError(w, "track", err)
		return
	}
	writeVTT(w, caption.FormatVTT(track.Cues))
}

// DeleteTrack removes a track
func (h *TrackHandler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteCaptionTrack(chi.URLParam(r, "id")); err != nil {
		dbError(w, "track", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	VideoID  string          `json:"video_id"`
	Language string          `json:"language"`
	Offset   float64         `json:"offset"`
	Options  json.RawMessage `json:"options"`
}

// ImportTrack queues an import job for a caption file under the media root
func (h *TrackHandler) ImportTrack(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	fullPath, err := storage.ResolvePath(h.mediaPath, path)
	if err != nil {
		jsonError(w, "invalid path", http.StatusBadRequest)
		return
	}
	if !storage.IsSubtitleFile(fullPath) {
		jsonError(w, "not a VTT or SRT file", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	// body is optional
	var req importRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	if _, err := caption.DefaultDedupeOptions().Overlay(req.Options); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, err := h.queue.Enqueue(job.JobImport, path, job.ImportParams{
		VideoID:  req.VideoID,
		Language: req.Language,
		Offset:   req.Offset,
		Source:   subtitle.SourceImport,
		Dedupe:   req.Options,
	})
	if err != nil {
		jsonError(w, "failed to queue import: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}

// ListMediaSubtitles lists the caption files next to a video
func (h *TrackHandler) ListMediaSubtitles(w http.ResponseWriter, r *http.Request) {
	entries, err := storage.ListSubtitles(h.mediaPath, extractPath(r))
	if errors.Is(err, os.ErrPermission) {
		jsonError(w, "invalid path", http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, "directory not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, entries, http.StatusOK)
}

// SearchMedia finds caption files under the media root by name
func (h *TrackHandler) SearchMedia(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		jsonError(w, "missing query", http.StatusBadRequest)
		return
	}
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	results, err := storage.Search(h.mediaPath, q, limit)
	if err != nil {
		jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, results, http.StatusOK)
}

// extractPath returns the wildcard part of the route
func extractPath(r *http.Request) string {
	return strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}

func dbError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, what+" not found", http.StatusNotFound)
		return
	}
	jsonError(w, "failed to load "+what, http.StatusInternalServerError)
}

func writeVTT(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
