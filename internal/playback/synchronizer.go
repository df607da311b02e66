// Package playback turns a playback clock into highlight positions over a
// bilingual caption track.
package playback

import (
	"math"

	"github.com/video-stream/captionsync/internal/caption"
)

// DefaultTolerance absorbs jitter between the time source and cue
// boundaries, in seconds.
const DefaultTolerance = 0.1

// Sample is the result of one synchronization tick. CueIndex and WordIndex
// are -1 when nothing is active.
type Sample struct {
	CueIndex  int     `json:"cue_index"`
	WordIndex int     `json:"word_index"`
	Progress  float64 `json:"progress"`
}

// NoSample is the "nothing active" result.
var NoSample = Sample{CueIndex: -1, WordIndex: -1}

// SyncState is the only state kept between ticks.
type SyncState struct {
	LastActiveIndex int     `json:"last_active_index"`
	LastSampledTime float64 `json:"last_sampled_time"`
}

// Synchronizer maps playback time to the active cue and word. It is not
// safe for concurrent use; give every playback view its own Synchronizer
// over a shared Track.
type Synchronizer struct {
	track       *caption.Track
	tolerance   float64
	state       SyncState
	comparisons int
}

// New creates a synchronizer over track. A negative or NaN tolerance
// selects DefaultTolerance.
func New(track *caption.Track, tolerance float64) *Synchronizer {
	if tolerance < 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		tolerance = DefaultTolerance
	}
	s := &Synchronizer{track: track, tolerance: tolerance}
	s.Reset()
	return s
}

// Install replaces the cue sequence. Indices are positional, so the state
// is reset.
func (s *Synchronizer) Install(track *caption.Track) {
	s.track = track
	s.Reset()
}

// Reset forgets the active cue.
func (s *Synchronizer) Reset() {
	s.state = SyncState{LastActiveIndex: -1}
}

// State returns a copy of the current state.
func (s *Synchronizer) State() SyncState {
	return s.state
}

// Track returns the installed track.
func (s *Synchronizer) Track() *caption.Track {
	return s.track
}

// Tolerance returns the containment tolerance in seconds.
func (s *Synchronizer) Tolerance() float64 {
	return s.tolerance
}

// LastComparisons is the number of binary-search comparisons the last Sample
// spent locating the cue.
func (s *Synchronizer) LastComparisons() int {
	return s.comparisons
}

// Sample advances the synchronizer to time t. Every call is self-contained:
// t may jump backwards or forwards arbitrarily. Negative time yields
// NoSample; non-finite time is a caller bug.
func (s *Synchronizer) Sample(t float64) Sample {
	s.comparisons = 0

	if math.IsNaN(t) || math.IsInf(t, 0) {
		if caption.DebugAssertions {
			panic("playback: Sample called with non-finite time")
		}
		s.Reset()
		return NoSample
	}
	s.state.LastSampledTime = t

	n := s.track.Len()
	if t < 0 || n == 0 {
		s.state.LastActiveIndex = -1
		return NoSample
	}

	candidate := locate(n, s.track.Bounds, t, s.tolerance, &s.comparisons)
	active := s.hold(candidate, t)
	s.state.LastActiveIndex = active
	if active < 0 {
		return NoSample
	}

	word, p := s.locateWord(active, t)
	return Sample{CueIndex: active, WordIndex: word, Progress: p}
}

// hold keeps the previously active cue while t is still inside its
// tolerance band, so a clock oscillating around a boundary cannot flip the
// highlight back and forth every tick.
func (s *Synchronizer) hold(candidate int, t float64) int {
	prev := s.state.LastActiveIndex
	if candidate == prev || prev < 0 || prev >= s.track.Len() {
		return candidate
	}
	start, end := s.track.Bounds(prev)
	if inBand(t, start, end, s.tolerance) {
		return prev
	}
	return candidate
}

func (s *Synchronizer) locateWord(cue int, t float64) (int, float64) {
	var comparisons int
	bounds := func(k int) (float64, float64) { return s.track.WordBounds(cue, k) }
	w := locate(s.track.WordCount(cue), bounds, t, s.tolerance, &comparisons)
	if w < 0 {
		return -1, 0
	}
	start, end := bounds(w)
	return w, progress(t, start, end)
}

// SeekTime returns the time a player should seek to for cue, or for one of
// its words when word >= 0.
func (s *Synchronizer) SeekTime(cue, word int) (float64, bool) {
	if word < 0 {
		return s.track.CueStart(cue)
	}
	return s.track.WordStart(cue, word)
}
