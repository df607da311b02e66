package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/config"
)

// CaptionHandler exposes the stateless caption pipeline.
type CaptionHandler struct {
	engine func() config.Engine
}

func NewCaptionHandler(engine func() config.Engine) *CaptionHandler {
	return &CaptionHandler{engine: engine}
}

type normalizeRequest struct {
	Text  string   `json:"text"`
	Texts []string `json:"texts"`
}

// Normalize returns the comparison form of one or many texts.
func (h *CaptionHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		out[i] = caption.Normalize(t)
	}
	jsonResponse(w, map[string]interface{}{
		"normalized": caption.Normalize(req.Text),
		"texts":      out,
	}, http.StatusOK)
}

type similarityRequest struct {
	A         string  `json:"a"`
	B         string  `json:"b"`
	Threshold float64 `json:"threshold"`
}

// Similarity scores two texts.
func (h *CaptionHandler) Similarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = h.engine().Dedupe.MinSimilarity
	}
	jsonResponse(w, map[string]interface{}{
		"score":          caption.Jaccard(req.A, req.B),
		"threshold":      threshold,
		"near_duplicate": caption.IsNearDuplicate(req.A, req.B, threshold),
	}, http.StatusOK)
}

type dedupeRequest struct {
	Cues    []caption.RawCue `json:"cues"`
	Content string           `json:"content"` // VTT/SRT text, used when cues is empty
	Offset  float64          `json:"offset"`
	Options json.RawMessage  `json:"options"` // overlays engine settings
}

type dedupeResponse struct {
	Cues  []caption.Cue       `json:"cues"`
	Stats caption.DedupeStats `json:"stats"`
}

// Dedupe cleans one language stream.
func (h *CaptionHandler) Dedupe(w http.ResponseWriter, r *http.Request) {
	var req dedupeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts, err := h.engine().Dedupe.Overlay(req.Options)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cues, stats := caption.Clean(req.raw(), req.Offset, opts)
	jsonResponse(w, dedupeResponse{Cues: nonNilCues(cues), Stats: stats}, http.StatusOK)
}

func (req dedupeRequest) raw() []caption.RawCue {
	if len(req.Cues) == 0 && req.Content != "" {
		return caption.ParseVTT(req.Content)
	}
	return req.Cues
}

type alignRequest struct {
	Primary   []caption.Cue `json:"primary"`
	Secondary []caption.Cue `json:"secondary"`
	Mode      string        `json:"mode"`
	Tolerance float64       `json:"tolerance"`
}

// Align pairs two already cleaned streams.
func (h *CaptionHandler) Align(w http.ResponseWriter, r *http.Request) {
	var req alignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := caption.ParseAlignMode(req.Mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !sortedByStart(req.Primary) || !sortedByStart(req.Secondary) {
		jsonError(w, "cues must be sorted by start; run dedupe first", http.StatusBadRequest)
		return
	}
	tolerance := req.Tolerance
	if tolerance <= 0 {
		tolerance = h.engine().AlignTolerance
	}
	out := caption.AlignWith(mode, req.Primary, req.Secondary, tolerance)
	jsonResponse(w, map[string]interface{}{"cues": nonNilBilingual(out)}, http.StatusOK)
}

type bilingualRequest struct {
	Primary   dedupeRequest `json:"primary"`
	Secondary dedupeRequest `json:"secondary"`
	Mode      string        `json:"mode"`
	Tolerance float64       `json:"tolerance"`
}

// Bilingual runs the whole pipeline on two raw streams in one call.
func (h *CaptionHandler) Bilingual(w http.ResponseWriter, r *http.Request) {
	var req bilingualRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := caption.ParseAlignMode(req.Mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	tolerance := req.Tolerance
	if tolerance <= 0 {
		tolerance = h.engine().AlignTolerance
	}

	base := h.engine().Dedupe
	pOpts, err := base.Overlay(req.Primary.Options)
	if err != nil {
		jsonError(w, "primary: "+err.Error(), http.StatusBadRequest)
		return
	}
	sOpts, err := base.Overlay(req.Secondary.Options)
	if err != nil {
		jsonError(w, "secondary: "+err.Error(), http.StatusBadRequest)
		return
	}

	primary, pStats := caption.Clean(req.Primary.raw(), req.Primary.Offset, pOpts)
	secondary, sStats := caption.Clean(req.Secondary.raw(), req.Secondary.Offset, sOpts)
	out := caption.AlignWith(mode, primary, secondary, tolerance)

	jsonResponse(w, map[string]interface{}{
		"cues":            nonNilBilingual(out),
		"primary_stats":   pStats,
		"secondary_stats": sStats,
	}, http.StatusOK)
}

func sortedByStart(cues []caption.Cue) bool {
	for i := 1; i < len(cues); i++ {
		if cues[i].Start < cues[i-1].Start {
			return false
		}
	}
	return true
}

func nonNilCues(c []caption.Cue) []caption.Cue {
	if c == nil {
		return []caption.Cue{}
	}
	return c
}

func nonNilBilingual(c []caption.BilingualCue) []caption.BilingualCue {
	if c == nil {
		return []caption.BilingualCue{}
	}
	return c
}
