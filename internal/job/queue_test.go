package job

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/video-stream/captionsync/internal/db"
)

func newTestQueue(t *testing.T) *JobQueue {
	t.Helper()
	d, err := db.NewSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatal(err)
	}
	q := NewJobQueue(d.DB())
	q.Start()
	t.Cleanup(func() {
		q.Stop()
		d.Close()
	})
	return q
}

func waitStatus(t *testing.T, q *JobQueue, id string, want JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := q.GetJob(id)
		if err != nil {
			t.Fatal(err)
		}
		if j.Status == want {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	j, _ := q.GetJob(id)
	t.Fatalf("job %s stuck in %q (error %q); want %q", id, j.Status, j.Error, want)
	return nil
}

func TestJobCompletesWithResult(t *testing.T) {
	q := newTestQueue(t)
	q.RegisterHandler(JobImport, func(ctx context.Context, j *Job, progress func(float64)) (interface{}, error) {
		var p ImportParams
		if err := json.Unmarshal(j.Params, &p); err != nil {
			return nil, err
		}
		progress(0.5)
		return ImportResult{TrackID: "track-" + p.Language}, nil
	})

	j, err := q.Enqueue(JobImport, "movie.en.vtt", ImportParams{VideoID: "movie", Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	done := waitStatus(t, q, j.ID, StatusCompleted)

	var res ImportResult
	if err := json.Unmarshal(done.Result, &res); err != nil {
		t.Fatalf("result %s: %v", done.Result, err)
	}
	if res.TrackID != "track-en" || done.Progress != 1 || done.CompletedAt == nil {
		t.Errorf("unexpected job: %+v", done)
	}
}

func TestJobFailAndRetry(t *testing.T) {
	q := newTestQueue(t)
	var calls atomic.Int32
	q.RegisterHandler(JobBilingual, func(ctx context.Context, j *Job, _ func(float64)) (interface{}, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("primary track missing")
		}
		return BilingualResult{BilingualID: "b"}, nil
	})

	j, err := q.Enqueue(JobBilingual, "", BilingualParams{PrimaryTrackID: "p", SecondaryTrackID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	failed := waitStatus(t, q, j.ID, StatusFailed)
	if failed.Error != "primary track missing" {
		t.Errorf("error = %q", failed.Error)
	}

	if err := q.RetryJob(j.ID); err != nil {
		t.Fatal(err)
	}
	done := waitStatus(t, q, j.ID, StatusCompleted)
	if done.Error != "" {
		t.Errorf("retry should clear the error, got %q", done.Error)
	}

	if err := q.RetryJob(j.ID); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("retry of completed job = %v", err)
	}
	if err := q.RetryJob("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("retry of unknown job = %v", err)
	}
}

func TestJobCancel(t *testing.T) {
	q := newTestQueue(t)
	started := make(chan struct{})
	q.RegisterHandler(JobImport, func(ctx context.Context, j *Job, _ func(float64)) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	j, err := q.Enqueue(JobImport, "a.en.vtt", ImportParams{})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never started")
	}
	if err := q.CancelJob(j.ID); err != nil {
		t.Fatal(err)
	}
	waitStatus(t, q, j.ID, StatusCancelled)
}

func TestJobWithoutHandlerFails(t *testing.T) {
	q := newTestQueue(t)
	j, err := q.Enqueue(JobType("transcode"), "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	failed := waitStatus(t, q, j.ID, StatusFailed)
	if failed.Error == "" {
		t.Error("expected an error message")
	}
	if _, err := q.GetJob("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob(missing) = %v", err)
	}
}
