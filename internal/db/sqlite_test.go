package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/video-stream/captionsync/internal/auth"
	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/db/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestEnsureAdmin(t *testing.T) {
	d := openTestDB(t)
	if err := d.EnsureAdmin("admin", "pw"); err != nil {
		t.Fatal(err)
	}
	// second call is a no-op
	if err := d.EnsureAdmin("other", "pw2"); err != nil {
		t.Fatal(err)
	}

	u, err := d.GetUserByUsername("admin")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != "admin" || !auth.CheckPassword("pw", u.Password) {
		t.Errorf("unexpected admin: %+v", u)
	}
	if _, err := d.GetUserByUsername("other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if byID, err := d.GetUserByID(u.ID); err != nil || byID.Username != "admin" {
		t.Errorf("GetUserByID = %+v, %v", byID, err)
	}
}

func TestSettings(t *testing.T) {
	d := openTestDB(t)
	if got := d.GetSetting("sync_tolerance", "0.1"); got != "0.1" {
		t.Errorf("default = %q", got)
	}
	if err := d.SetSetting("sync_tolerance", "0.2"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSetting("sync_tolerance", "0.3"); err != nil {
		t.Fatal(err)
	}
	all, err := d.GetAllSettings()
	if err != nil || all["sync_tolerance"] != "0.3" {
		t.Errorf("GetAllSettings = %v, %v", all, err)
	}
	if err := d.DeleteSetting("sync_tolerance"); err != nil {
		t.Fatal(err)
	}
	if got := d.GetSetting("sync_tolerance", "0.1"); got != "0.1" {
		t.Errorf("after delete = %q", got)
	}
}

func TestCaptionTrackCRUD(t *testing.T) {
	d := openTestDB(t)
	track := &models.CaptionTrack{
		VideoID:  "vid-1",
		Language: "en",
		Source:   "upload",
		Cues: []caption.Cue{
			{Start: 0, End: 1, Text: "hello", Words: []caption.WordTiming{{Text: "hello", Start: 0, End: 1}}},
			{Start: 1, End: 2, Text: "world"},
		},
	}
	if err := d.CreateCaptionTrack(track); err != nil {
		t.Fatal(err)
	}
	if track.ID == "" || track.CueCount != 2 {
		t.Fatalf("not filled in: %+v", track)
	}

	got, err := d.GetCaptionTrack(track.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Cues) != 2 || got.Cues[0].Words[0].Text != "hello" || got.Language != "en" {
		t.Errorf("round trip = %+v", got)
	}

	other := &models.CaptionTrack{VideoID: "vid-2", Language: "es"}
	if err := d.CreateCaptionTrack(other); err != nil {
		t.Fatal(err)
	}
	list, err := d.ListCaptionTracks("vid-1")
	if err != nil || len(list) != 1 || list[0].Cues != nil {
		t.Errorf("ListCaptionTracks(vid-1) = %+v, %v", list, err)
	}
	if all, _ := d.ListCaptionTracks(""); len(all) != 2 {
		t.Errorf("expected 2 tracks, got %d", len(all))
	}

	if err := d.DeleteCaptionTrack(track.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetCaptionTrack(track.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := d.DeleteCaptionTrack(track.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestBilingualTrackCRUD(t *testing.T) {
	d := openTestDB(t)
	bt := &models.BilingualTrack{
		VideoID:          "vid-1",
		PrimaryLang:      "en",
		SecondaryLang:    "es",
		PrimaryTrackID:   "p",
		SecondaryTrackID: "s",
		Cues: []caption.BilingualCue{
			{Start: 0, End: 1, Primary: "Hello", Secondary: "Hola"},
			{Start: 1, End: 2, Primary: "Alone"},
		},
	}
	if err := d.CreateBilingualTrack(bt); err != nil {
		t.Fatal(err)
	}
	if bt.CueCount != 2 || bt.Matched != 1 {
		t.Errorf("counts = %d, %d", bt.CueCount, bt.Matched)
	}

	got, err := d.GetBilingualTrack(bt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cues[0].Secondary != "Hola" || got.SecondaryLang != "es" {
		t.Errorf("round trip = %+v", got)
	}
	if list, _ := d.ListBilingualTracks("vid-1"); len(list) != 1 {
		t.Errorf("ListBilingualTracks = %+v", list)
	}
	if err := d.DeleteBilingualTrack(bt.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetBilingualTrack(bt.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserManagement(t *testing.T) {
	d := openTestDB(t)
	if err := d.EnsureAdmin("admin", "pw"); err != nil {
		t.Fatal(err)
	}
	hash, err := auth.HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	id, err := d.CreateUser("ed", hash, "editor")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CreateUser("ed", hash, "viewer"); err == nil {
		t.Error("expected duplicate username to fail")
	}

	users, err := d.ListUsers()
	if err != nil || len(users) != 2 {
		t.Fatalf("ListUsers = %d, %v", len(users), err)
	}
	if n, _ := d.CountAdmins(); n != 1 {
		t.Errorf("CountAdmins = %d", n)
	}

	if err := d.UpdateUser(id, "eddie", "admin"); err != nil {
		t.Fatal(err)
	}
	if n, _ := d.CountAdmins(); n != 2 {
		t.Errorf("CountAdmins after promote = %d", n)
	}
	if err := d.UpdateUserPassword(id, "x"); err != nil {
		t.Fatal(err)
	}
	u, err := d.GetUserByUsername("eddie")
	if err != nil || u.Password != "x" {
		t.Errorf("GetUserByUsername = %+v, %v", u, err)
	}

	if err := d.DeleteUser(id); err != nil {
		t.Fatal(err)
	}
	if err := d.DeleteUser(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
	if err := d.UpdateUser(id, "ghost", "viewer"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing = %v", err)
	}

	c, err := d.Counts()
	if err != nil || c.Users != 1 || c.CaptionTracks != 0 {
		t.Errorf("Counts = %+v, %v", c, err)
	}
}
