package playback

import (
	"context"
	"time"
)

// DefaultTickInterval is the sampling period used when Drive is given a
// non-positive interval.
const DefaultTickInterval = 50 * time.Millisecond

// TimeSource reports the current playback position in seconds.
type TimeSource func() float64

// Sink receives samples. Returning an error stops Drive.
type Sink func(Sample) error

// Drive samples src every interval and hands each result to sink until ctx
// is cancelled or sink fails. The synchronizer is owned by the calling
// goroutine for the duration of the call.
func Drive(ctx context.Context, s *Synchronizer, src TimeSource, interval time.Duration, sink Sink) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := sink(s.Sample(src())); err != nil {
				return err
			}
		}
	}
}

// OnChange wraps sink so it only sees samples whose cue or word index
// differs from the previously forwarded one.
func OnChange(sink Sink) Sink {
	last := Sample{CueIndex: -2, WordIndex: -2}
	return func(sm Sample) error {
		if sm.CueIndex == last.CueIndex && sm.WordIndex == last.WordIndex {
			return nil
		}
		last = sm
		return sink(sm)
	}
}
