package playback

import (
	"math"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/video-stream/captionsync/internal/caption"
)

func twoCueTrack() *caption.Track {
	return caption.NewTrack([]caption.BilingualCue{
		{Start: 0, End: 1, Primary: "one two", Secondary: "uno dos"},
		{Start: 1, End: 2, Primary: "three four", Secondary: "tres cuatro"},
	})
}

func TestSampleHysteresis(t *testing.T) {
	s := New(twoCueTrack(), 0.1)

	steps := []struct {
		t    float64
		want int
	}{
		{0.5, 0},
		{0.98, 0},
		{1.02, 0}, // inside cue 1, but cue 0's band still holds
		{0.99, 0},
		{1.02, 0},
		{1.15, 1}, // left cue 0's band
		{1.05, 1},
		{0.95, 1}, // cue 1's band reaches back to 0.9
		{0.85, 0},
	}
	for i, step := range steps {
		got := s.Sample(step.t)
		if got.CueIndex != step.want {
			t.Fatalf("step %d: Sample(%v).CueIndex = %d; want %d", i, step.t, got.CueIndex, step.want)
		}
		if st := s.State(); st.LastActiveIndex != step.want || st.LastSampledTime != step.t {
			t.Fatalf("step %d: state = %+v", i, st)
		}
	}
}

func TestSampleWordProgress(t *testing.T) {
	s := New(twoCueTrack(), 0.1)

	got := s.Sample(0.25)
	if got.CueIndex != 0 || got.WordIndex != 0 || math.Abs(got.Progress-0.5) > 1e-9 {
		t.Fatalf("Sample(0.25) = %+v", got)
	}
	got = s.Sample(0.75)
	if got.WordIndex != 1 || math.Abs(got.Progress-0.5) > 1e-9 {
		t.Fatalf("Sample(0.75) = %+v", got)
	}
	// held past the cue end: last word, progress clamped
	got = s.Sample(1.02)
	if got.CueIndex != 0 || got.WordIndex != 1 || got.Progress != 1 {
		t.Fatalf("Sample(1.02) = %+v", got)
	}
}

func TestSampleZeroLengthWord(t *testing.T) {
	track := caption.NewTrack([]caption.BilingualCue{{
		Start: 0, End: 2, Primary: "a b c",
		Words: []caption.WordTiming{
			{Text: "a", Start: 0, End: 1},
			{Text: "b", Start: 1, End: 1},
			{Text: "c", Start: 1.5, End: 2},
		},
	}})
	got := New(track, 0.1).Sample(1.05)
	if got.WordIndex != 1 {
		t.Fatalf("expected zero-length word to match within tolerance, got %+v", got)
	}
	if got.Progress != 0 || math.IsNaN(got.Progress) {
		t.Fatalf("zero-length word progress = %v; want 0", got.Progress)
	}
}

func TestSampleGapsAndBounds(t *testing.T) {
	track := caption.NewTrack([]caption.BilingualCue{
		{Start: 0, End: 1, Primary: "first"},
		{Start: 2, End: 3, Primary: "second"},
	})
	s := New(track, DefaultTolerance)

	cases := []struct {
		t    float64
		want int
	}{
		{-0.5, -1},
		{-0.05, -1},
		{0, 0},
		{1.05, 0},
		{1.5, -1},
		{1.95, 1},
		{3.05, 1},
		{3.5, -1},
	}
	for _, tc := range cases {
		s.Reset()
		got := s.Sample(tc.t)
		if got.CueIndex != tc.want {
			t.Errorf("Sample(%v).CueIndex = %d; want %d", tc.t, got.CueIndex, tc.want)
		}
		if got.CueIndex == -1 && got.WordIndex != -1 {
			t.Errorf("Sample(%v) has word %d without a cue", tc.t, got.WordIndex)
		}
	}
}

func TestSampleOverlappingCues(t *testing.T) {
	track := caption.NewTrack([]caption.BilingualCue{
		{Start: 0, End: 5, Primary: "long"},
		{Start: 1, End: 2, Primary: "short"},
	})
	s := New(track, 0)
	if got := s.Sample(3); got.CueIndex != 0 {
		t.Fatalf("long predecessor should still cover t=3, got %+v", got)
	}
	s.Reset()
	if got := s.Sample(1.5); got.CueIndex != 1 {
		t.Fatalf("latest-starting cue should win inside the overlap, got %+v", got)
	}
}

func TestSampleEmptyTrack(t *testing.T) {
	for _, track := range []*caption.Track{nil, caption.NewTrack(nil)} {
		s := New(track, DefaultTolerance)
		if got := s.Sample(1); got != NoSample {
			t.Errorf("Sample on empty track = %+v", got)
		}
	}
}

func TestSampleNonFinite(t *testing.T) {
	if caption.DebugAssertions {
		t.Skip("non-finite time panics in debug builds")
	}
	s := New(twoCueTrack(), 0.1)
	s.Sample(0.5)
	if got := s.Sample(math.NaN()); got != NoSample {
		t.Fatalf("Sample(NaN) = %+v", got)
	}
	if st := s.State(); st.LastActiveIndex != -1 {
		t.Fatalf("state after NaN = %+v", st)
	}
}

// randomTrack lays out n non-overlapping cues with uneven durations and
// gaps, the shape Dedupe leaves behind.
func randomTrack(rng *rand.Rand, n int) []caption.BilingualCue {
	cues := make([]caption.BilingualCue, n)
	at := rng.Float64() * 2
	for i := range cues {
		dur := caption.MinCueDuration + rng.Float64()*2.8
		cues[i] = caption.BilingualCue{Start: at, End: at + dur, Primary: "w"}
		at += dur
		if rng.Intn(3) > 0 {
			at += rng.Float64() * 2
		}
	}
	return cues
}

func TestSampleLogarithmicSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 3, 17, 1000, 5000} {
		cues := randomTrack(rng, n)
		s := New(caption.NewTrack(cues), DefaultTolerance)
		limit := bits.Len(uint(n)) + 1
		span := cues[n-1].End + 1

		for range 2000 {
			at := rng.Float64() * span
			s.Reset()
			got := s.Sample(at)

			if c := s.LastComparisons(); c > limit {
				t.Fatalf("n=%d: search used %d comparisons; limit %d", n, c, limit)
			}

			// linear scan for the cue containing at
			want := -1
			for k, c := range cues {
				if at >= c.Start && at < c.End {
					want = k
					break
				}
			}
			switch {
			case want >= 0 && got.CueIndex != want:
				t.Fatalf("n=%d: Sample(%v).CueIndex = %d; want %d", n, at, got.CueIndex, want)
			case want < 0 && got.CueIndex >= 0:
				c := cues[got.CueIndex]
				if at < c.Start-DefaultTolerance || at >= c.End+DefaultTolerance {
					t.Fatalf("n=%d: Sample(%v) in a gap picked cue %d [%v, %v) outside tolerance", n, at, got.CueIndex, c.Start, c.End)
				}
			}
		}
	}
}

func TestInstallResetsState(t *testing.T) {
	s := New(twoCueTrack(), 0.1)
	s.Sample(1.5)
	s.Install(caption.NewTrack([]caption.BilingualCue{{Start: 10, End: 11, Primary: "new"}}))
	if st := s.State(); st.LastActiveIndex != -1 {
		t.Fatalf("state after Install = %+v", st)
	}
	if got := s.Sample(10.5); got.CueIndex != 0 {
		t.Fatalf("Sample after Install = %+v", got)
	}
}

func TestSeekTime(t *testing.T) {
	s := New(twoCueTrack(), 0.1)
	if ts, ok := s.SeekTime(1, -1); !ok || ts != 1 {
		t.Errorf("SeekTime(1, -1) = %v, %v", ts, ok)
	}
	if ts, ok := s.SeekTime(0, 1); !ok || ts != 0.5 {
		t.Errorf("SeekTime(0, 1) = %v, %v", ts, ok)
	}
	if _, ok := s.SeekTime(2, -1); ok {
		t.Error("SeekTime out of range should report false")
	}
}

func TestNewDefaultsTolerance(t *testing.T) {
	if got := New(nil, -1).Tolerance(); got != DefaultTolerance {
		t.Errorf("Tolerance() = %v; want %v", got, DefaultTolerance)
	}
	if got := New(nil, 0).Tolerance(); got != 0 {
		t.Errorf("zero tolerance should be kept, got %v", got)
	}
}
