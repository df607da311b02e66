package models

import (
	"time"

	"github.com/video-stream/captionsync/internal/caption"
)

// CaptionTrack is one cleaned, single-language cue sequence for a video.
// Cues is omitted in listings.
type CaptionTrack struct {
	ID        string        `json:"id"`
	VideoID   string        `json:"video_id"`
	Language  string        `json:"language"`
	Source    string        `json:"source"` // upload, import:<path>, inbox:<path>
	CueCount  int           `json:"cue_count"`
	Cues      []caption.Cue `json:"cues,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// BilingualTrack is the aligned pairing of two caption tracks.
type BilingualTrack struct {
	ID               string                 `json:"id"`
	VideoID          string                 `json:"video_id"`
	PrimaryLang      string                 `json:"primary_lang"`
	SecondaryLang    string                 `json:"secondary_lang"`
	PrimaryTrackID   string                 `json:"primary_track_id"`
	SecondaryTrackID string                 `json:"secondary_track_id"`
	CueCount         int                    `json:"cue_count"`
	Matched          int                    `json:"matched"`
	Cues             []caption.BilingualCue `json:"cues,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}
