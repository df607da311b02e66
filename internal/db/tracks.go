package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/db/models"
)

// CreateCaptionTrack stores a cleaned cue sequence and fills in ID and
// CreatedAt.
func (d *Database) CreateCaptionTrack(t *models.CaptionTrack) error {
	cues := t.Cues
	if cues == nil {
		cues = []caption.Cue{}
	}
	data, err := json.Marshal(cues)
	if err != nil {
		return fmt.Errorf("marshal cues: %w", err)
	}
	t.ID = uuid.New().String()
	t.CueCount = len(cues)
	t.CreatedAt = time.Now().UTC()

	_, err = d.db.Exec(`
		INSERT INTO caption_tracks (id, video_id, language, source, cue_count, cues, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.VideoID, t.Language, t.Source, t.CueCount, string(data), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert caption track: %w", err)
	}
	return nil
}

// GetCaptionTrack loads a track including its cues.
func (d *Database) GetCaptionTrack(id string) (*models.CaptionTrack, error) {
	t := &models.CaptionTrack{}
	var data string
	err := d.db.QueryRow(`
		SELECT id, video_id, language, source, cue_count, cues, created_at
		FROM caption_tracks WHERE id = ?`, id,
	).Scan(&t.ID, &t.VideoID, &t.Language, &t.Source, &t.CueCount, &data, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &t.Cues); err != nil {
		return nil, fmt.Errorf("decode cues of track %s: %w", id, err)
	}
	return t, nil
}

// ListCaptionTracks returns track summaries (no cues), newest first. An
// empty videoID lists every track.
func (d *Database) ListCaptionTracks(videoID string) ([]*models.CaptionTrack, error) {
	query := "SELECT id, video_id, language, source, cue_count, created_at FROM caption_tracks"
	var args []interface{}
	if videoID != "" {
		query += " WHERE video_id = ?"
		args = append(args, videoID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []*models.CaptionTrack{}
	for rows.Next() {
		t := &models.CaptionTrack{}
		if err := rows.Scan(&t.ID, &t.VideoID, &t.Language, &t.Source, &t.CueCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// DeleteCaptionTrack removes a track. Bilingual tracks built from it are
// kept; they carry their own copy of the cues.
func (d *Database) DeleteCaptionTrack(id string) error {
	res, err := d.db.Exec("DELETE FROM caption_tracks WHERE id = ?", id)
	return affected(res, err)
}

// CreateBilingualTrack stores an aligned sequence and fills in ID, counts and
// CreatedAt.
func (d *Database) CreateBilingualTrack(t *models.BilingualTrack) error {
	cues := t.Cues
	if cues == nil {
		cues = []caption.BilingualCue{}
	}
	data, err := json.Marshal(cues)
	if err != nil {
		return fmt.Errorf("marshal cues: %w", err)
	}
	t.ID = uuid.New().String()
	t.CueCount = len(cues)
	t.Matched = 0
	for _, c := range cues {
		if c.Secondary != "" {
			t.Matched++
		}
	}
	t.CreatedAt = time.Now().UTC()

	_, err = d.db.Exec(`
		INSERT INTO bilingual_tracks (id, video_id, primary_lang, secondary_lang,
			primary_track_id, secondary_track_id, cue_count, matched, cues, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.VideoID, t.PrimaryLang, t.SecondaryLang, t.PrimaryTrackID, t.SecondaryTrackID,
		t.CueCount, t.Matched, string(data), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bilingual track: %w", err)
	}
	return nil
}

// GetBilingualTrack loads an aligned track including its cues.
func (d *Database) GetBilingualTrack(id string) (*models.BilingualTrack, error) {
	t := &models.BilingualTrack{}
	var data string
	err := d.db.QueryRow(`
		SELECT id, video_id, primary_lang, secondary_lang, primary_track_id, secondary_track_id,
			cue_count, matched, cues, created_at
		FROM bilingual_tracks WHERE id = ?`, id,
	).Scan(&t.ID, &t.VideoID, &t.PrimaryLang, &t.SecondaryLang, &t.PrimaryTrackID, &t.SecondaryTrackID,
		&t.CueCount, &t.Matched, &data, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &t.Cues); err != nil {
		return nil, fmt.Errorf("decode cues of bilingual track %s: %w", id, err)
	}
	return t, nil
}

// ListBilingualTracks returns summaries (no cues), newest first.
func (d *Database) ListBilingualTracks(videoID string) ([]*models.BilingualTrack, error) {
	query := `SELECT id, video_id, primary_lang, secondary_lang, primary_track_id, secondary_track_id,
		cue_count, matched, created_at FROM bilingual_tracks`
	var args []interface{}
	if videoID != "" {
		query += " WHERE video_id = ?"
		args = append(args, videoID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []*models.BilingualTrack{}
	for rows.Next() {
		t := &models.BilingualTrack{}
		if err := rows.Scan(&t.ID, &t.VideoID, &t.PrimaryLang, &t.SecondaryLang, &t.PrimaryTrackID,
			&t.SecondaryTrackID, &t.CueCount, &t.Matched, &t.CreatedAt); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (d *Database) DeleteBilingualTrack(id string) error {
	res, err := d.db.Exec("DELETE FROM bilingual_tracks WHERE id = ?", id)
	return affected(res, err)
}

// affected maps a statement that touched no rows to ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
