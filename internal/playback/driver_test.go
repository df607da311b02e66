package playback

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDriveForwardsSamplesUntilSinkFails(t *testing.T) {
	s := New(twoCueTrack(), 0.1)

	var clock atomic.Int64
	src := func() float64 { return float64(clock.Add(1)) * 0.25 }

	var got []Sample
	stop := errors.New("stop")
	sink := func(sm Sample) error {
		got = append(got, sm)
		if len(got) == 3 {
			return stop
		}
		return nil
	}

	err := Drive(context.Background(), s, src, time.Millisecond, sink)
	if !errors.Is(err, stop) {
		t.Fatalf("Drive returned %v; want sink error", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	// times 0.25, 0.5, 0.75
	if got[0].CueIndex != 0 || got[0].WordIndex != 0 || got[2].WordIndex != 1 {
		t.Errorf("unexpected samples: %+v", got)
	}
}

func TestDriveStopsOnCancel(t *testing.T) {
	s := New(twoCueTrack(), 0.1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Drive(ctx, s, func() float64 { return 0.5 }, time.Millisecond, func(Sample) error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Drive returned %v; want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Drive did not stop after cancel")
	}
}

func TestOnChange(t *testing.T) {
	var forwarded []Sample
	sink := OnChange(func(sm Sample) error {
		forwarded = append(forwarded, sm)
		return nil
	})

	for _, sm := range []Sample{
		NoSample,
		NoSample,
		{CueIndex: 0, WordIndex: 0, Progress: 0.1},
		{CueIndex: 0, WordIndex: 0, Progress: 0.6},
		{CueIndex: 0, WordIndex: 1, Progress: 0.2},
		NoSample,
	} {
		if err := sink(sm); err != nil {
			t.Fatal(err)
		}
	}
	if len(forwarded) != 4 {
		t.Fatalf("expected 4 forwarded samples, got %d: %+v", len(forwarded), forwarded)
	}
	if forwarded[0] != NoSample || forwarded[3] != NoSample {
		t.Errorf("unexpected forwarded samples: %+v", forwarded)
	}
}
