package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/video-stream/captionsync/internal/caption"
)

// JobType represents the kind of job
type JobType string

const (
	JobImport    JobType = "import"
	JobBilingual JobType = "bilingual"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job represents a queued task (caption import or bilingual alignment)
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	FilePath    string          `json:"file_path"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// ImportParams are parameters for an import job. The job's FilePath is the
// subtitle file, relative to the media root or absolute inside the inbox.
type ImportParams struct {
	VideoID  string          `json:"video_id"`
	Language string          `json:"language"`
	Offset   float64         `json:"offset"`           // chunk offset in seconds, added once
	Source   string          `json:"source"`           // "import" or "inbox"
	Dedupe   json.RawMessage `json:"dedupe,omitempty"` // overlays engine settings
}

// BilingualParams are parameters for a bilingual alignment job
type BilingualParams struct {
	PrimaryTrackID   string  `json:"primary_track_id"`
	SecondaryTrackID string  `json:"secondary_track_id"`
	Mode             string  `json:"mode"`                // "sequential" (default) or "overlap"
	Tolerance        float64 `json:"tolerance,omitempty"` // 0 uses engine settings
}

// ImportResult is the output of a successful import
type ImportResult struct {
	TrackID  string              `json:"track_id"`
	Stats    caption.DedupeStats `json:"stats"`
	Duration float64             `json:"duration"` // processing time in seconds
}

// BilingualResult is the output of a successful alignment
type BilingualResult struct {
	BilingualID string  `json:"bilingual_id"`
	CueCount    int     `json:"cue_count"`
	Matched     int     `json:"matched"`
	Duration    float64 `json:"duration"`
}

// JobHandler processes a job and returns a JSON-serializable result.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) (interface{}, error)
