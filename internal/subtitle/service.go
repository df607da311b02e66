// Package subtitle turns caption files and stored tracks into cleaned and
// aligned tracks. Its handlers run on the job queue.
package subtitle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/config"
	"github.com/video-stream/captionsync/internal/db"
	"github.com/video-stream/captionsync/internal/db/models"
	"github.com/video-stream/captionsync/internal/job"
	"github.com/video-stream/captionsync/internal/storage"
)

// Import sources.
const (
	SourceUpload = "upload"
	SourceImport = "import"
	SourceInbox  = "inbox"
)

var ErrNoCues = errors.New("no caption cues found")

// Service processes caption import and bilingual alignment.
type Service struct {
	db        *db.Database
	mediaPath string
	inboxPath string
	engine    func() config.Engine

	mu     sync.Mutex
	tracks map[string]*caption.Track
}

// NewService creates the service. engine is consulted on every job so
// settings changes apply without a restart.
func NewService(database *db.Database, mediaPath, inboxPath string, engine func() config.Engine) *Service {
	return &Service{
		db:        database,
		mediaPath: mediaPath,
		inboxPath: inboxPath,
		engine:    engine,
		tracks:    make(map[string]*caption.Track),
	}
}

// Register installs the job handlers on q.
func (s *Service) Register(q *job.JobQueue) {
	q.RegisterHandler(job.JobImport, s.HandleImport)
	q.RegisterHandler(job.JobBilingual, s.HandleBilingual)
}

// Engine returns the current engine tunables.
func (s *Service) Engine() config.Engine {
	return s.engine()
}

// HandleImport reads a caption file, cleans it and stores it as a track.
func (s *Service) HandleImport(ctx context.Context, j *job.Job, updateProgress func(float64)) (interface{}, error) {
	started := time.Now()
	var params job.ImportParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	path, err := s.resolve(params.Source, j.FilePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read caption file: %w", err)
	}
	updateProgress(0.2)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if params.VideoID == "" || params.Language == "" {
		videoID, lang, _ := storage.ParseCaptionName(path)
		if params.VideoID == "" {
			params.VideoID = videoID
		}
		if params.Language == "" {
			params.Language = lang
		}
	}
	opts, err := s.engine().Dedupe.Overlay(params.Dedupe)
	if err != nil {
		return nil, err
	}

	source := params.Source
	if source == "" {
		source = SourceImport
	}
	track, stats, err := s.ImportContent(params.VideoID, params.Language, source+":"+j.FilePath, string(data), params.Offset, opts)
	if err != nil {
		return nil, err
	}
	updateProgress(1.0)

	return job.ImportResult{
		TrackID:  track.ID,
		Stats:    stats,
		Duration: time.Since(started).Seconds(),
	}, nil
}

// ImportContent parses VTT/SRT text, cleans it and stores the result.
func (s *Service) ImportContent(videoID, lang, source, content string, offset float64, opts caption.DedupeOptions) (*models.CaptionTrack, caption.DedupeStats, error) {
	raw := caption.ParseVTT(content)
	if len(raw) == 0 {
		return nil, caption.DedupeStats{}, ErrNoCues
	}
	return s.ImportCues(videoID, lang, source, raw, offset, opts)
}

// ImportCues cleans raw cue records and stores the result.
func (s *Service) ImportCues(videoID, lang, source string, raw []caption.RawCue, offset float64, opts caption.DedupeOptions) (*models.CaptionTrack, caption.DedupeStats, error) {
	if videoID == "" || lang == "" {
		return nil, caption.DedupeStats{}, fmt.Errorf("video id and language are required")
	}
	cues, stats := caption.Clean(raw, offset, opts)
	if len(cues) == 0 {
		return nil, stats, ErrNoCues
	}

	track := &models.CaptionTrack{
		VideoID:  videoID,
		Language: lang,
		Source:   source,
		Cues:     cues,
	}
	if err := s.db.CreateCaptionTrack(track); err != nil {
		return nil, stats, err
	}
	log.Printf("[caption] stored track %s (%s/%s): %d raw -> %d cues, %d dropped, %d merged, %d repeats kept",
		track.ID, videoID, lang, stats.Input, stats.Output, stats.Dropped, stats.Merged, stats.Repeats)
	return track, stats, nil
}

// HandleBilingual aligns two stored tracks and stores the bilingual track.
func (s *Service) HandleBilingual(ctx context.Context, j *job.Job, updateProgress func(float64)) (interface{}, error) {
	started := time.Now()
	var params job.BilingualParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bt, err := s.BuildBilingual(params.PrimaryTrackID, params.SecondaryTrackID, params.Mode, params.Tolerance)
	if err != nil {
		return nil, err
	}
	updateProgress(1.0)

	return job.BilingualResult{
		BilingualID: bt.ID,
		CueCount:    bt.CueCount,
		Matched:     bt.Matched,
		Duration:    time.Since(started).Seconds(),
	}, nil
}

// BuildBilingual loads two tracks, aligns the secondary onto the primary
// and stores the result. A zero tolerance uses the engine setting.
func (s *Service) BuildBilingual(primaryID, secondaryID, mode string, tolerance float64) (*models.BilingualTrack, error) {
	alignMode, err := caption.ParseAlignMode(mode)
	if err != nil {
		return nil, err
	}
	if tolerance <= 0 {
		tolerance = s.engine().AlignTolerance
	}

	primary, err := s.db.GetCaptionTrack(primaryID)
	if err != nil {
		return nil, fmt.Errorf("load primary track %s: %w", primaryID, err)
	}
	secondary, err := s.db.GetCaptionTrack(secondaryID)
	if err != nil {
		return nil, fmt.Errorf("load secondary track %s: %w", secondaryID, err)
	}

	cues := caption.AlignWith(alignMode, primary.Cues, secondary.Cues, tolerance)
	bt := &models.BilingualTrack{
		VideoID:          primary.VideoID,
		PrimaryLang:      primary.Language,
		SecondaryLang:    secondary.Language,
		PrimaryTrackID:   primary.ID,
		SecondaryTrackID: secondary.ID,
		Cues:             cues,
	}
	if err := s.db.CreateBilingualTrack(bt); err != nil {
		return nil, err
	}
	log.Printf("[caption] aligned %s onto %s (%s): %d/%d cues matched",
		secondary.Language, primary.Language, alignMode, bt.Matched, bt.CueCount)
	return bt, nil
}

// Track returns the playback track of a stored bilingual track. Stored
// bilingual tracks never change, so built tracks are cached.
func (s *Service) Track(bilingualID string) (*caption.Track, error) {
	s.mu.Lock()
	t, ok := s.tracks[bilingualID]
	s.mu.Unlock()
	if ok {
		return t, nil
	}

	bt, err := s.db.GetBilingualTrack(bilingualID)
	if err != nil {
		return nil, err
	}
	t = caption.NewTrack(bt.Cues)

	s.mu.Lock()
	s.tracks[bilingualID] = t
	s.mu.Unlock()
	return t, nil
}

// Forget drops a cached playback track.
func (s *Service) Forget(bilingualID string) {
	s.mu.Lock()
	delete(s.tracks, bilingualID)
	s.mu.Unlock()
}

// resolve maps a job file path to a file on disk. Inbox paths are relative
// to the inbox, everything else to the media root.
func (s *Service) resolve(source, rel string) (string, error) {
	base := s.mediaPath
	if source == SourceInbox {
		base = s.inboxPath
	}
	path, err := storage.ResolvePath(base, rel)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	if !storage.IsSubtitleFile(path) {
		return "", fmt.Errorf("unsupported caption file: %s", filepath.Base(path))
	}
	return path, nil
}

// InboxImporter returns a storage.InboxFunc that queues an import job for
// every settled inbox file.
func (s *Service) InboxImporter(q *job.JobQueue) storage.InboxFunc {
	return func(path, videoID, lang string) {
		rel, err := filepath.Rel(s.inboxPath, path)
		if err != nil {
			log.Printf("[watch] skipping %s: %v", path, err)
			return
		}
		j, err := q.Enqueue(job.JobImport, rel, job.ImportParams{
			VideoID:  videoID,
			Language: lang,
			Source:   SourceInbox,
		})
		if err != nil {
			log.Printf("[watch] failed to queue import of %s: %v", rel, err)
			return
		}
		log.Printf("[watch] queued import job %s for %s", j.ID, rel)
	}
}
