package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/db"
	"github.com/video-stream/captionsync/internal/job"
	"github.com/video-stream/captionsync/internal/subtitle"
)

type BilingualHandler struct {
	db    *db.Database
	svc   *subtitle.Service
	queue *job.JobQueue
}

func NewBilingualHandler(database *db.Database, svc *subtitle.Service, queue *job.JobQueue) *BilingualHandler {
	return &BilingualHandler{db: database, svc: svc, queue: queue}
}

// CreateBilingual queues an alignment job for two stored tracks
func (h *BilingualHandler) CreateBilingual(w http.ResponseWriter, r *http.Request) {
	var params job.BilingualParams
	if !decodeJSON(w, r, &params) {
		return
	}
	if params.PrimaryTrackID == "" || params.SecondaryTrackID == "" {
		jsonError(w, "primary_track_id and secondary_track_id are required", http.StatusBadRequest)
		return
	}
	if _, err := caption.ParseAlignMode(params.Mode); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, id := range []string{params.PrimaryTrackID, params.SecondaryTrackID} {
		if _, err := h.db.GetCaptionTrack(id); err != nil {
			dbError(w, "track "+id, err)
			return
		}
	}

	j, err := h.queue.Enqueue(job.JobBilingual, "", params)
	if err != nil {
		jsonError(w, "failed to queue alignment: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}

// ListBilingual returns bilingual track summaries, optionally filtered by ?video_id=
func (h *BilingualHandler) ListBilingual(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.db.ListBilingualTracks(r.URL.Query().Get("video_id"))
	if err != nil {
		jsonError(w, "failed to list bilingual tracks", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, tracks, http.StatusOK)
}

// GetBilingual returns a bilingual track with its cues
func (h *BilingualHandler) GetBilingual(w http.ResponseWriter, r *http.Request) {
	bt, err := h.db.GetBilingualTrack(chi.URLParam(r, "id"))
	if err != nil {
		dbError(w, "bilingual track", err)
		return
	}
	jsonResponse(w, bt, http.StatusOK)
}

// GetBilingualVTT renders a bilingual track as two-line WebVTT
func (h *BilingualHandler) GetBilingualVTT(w http.ResponseWriter, r *http.Request) {
	bt, err := h.db.GetBilingualTrack(chi.URLParam(r, "id"))
	if err != nil {
		dbError(w, "bilingual track", err)
		return
	}
	writeVTT(w, caption.FormatBilingualVTT(bt.Cues))
}

// DeleteBilingual removes a bilingual track
func (h *BilingualHandler) DeleteBilingual(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteBilingualTrack(id); err != nil {
		dbError(w, "bilingual track", err)
		return
	}
	h.svc.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}
