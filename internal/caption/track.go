package caption

import (
	"math"
	"sort"
)

// Track is an immutable bilingual cue sequence sorted by start, with word
// timings resolved per cue. It is safe to share between goroutines; every
// accessor returns copies.
type Track struct {
	cues  []BilingualCue
	words [][]WordTiming
}

// NewTrack copies cues, drops entries that break the cue invariant
// (non-finite times, negative start, end <= start) and stable-sorts the
// rest by start.
func NewTrack(cues []BilingualCue) *Track {
	kept := make([]BilingualCue, 0, len(cues))
	for _, c := range cues {
		if math.IsNaN(c.Start) || math.IsNaN(c.End) || math.IsInf(c.Start, 0) || math.IsInf(c.End, 0) {
			continue
		}
		if c.Start < 0 || c.End <= c.Start {
			continue
		}
		c.Words = cloneWords(c.Words)
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	words := make([][]WordTiming, len(kept))
	for i, c := range kept {
		words[i] = WordsFor(c)
	}
	return &Track{cues: kept, words: words}
}

// Len returns the number of cues. A nil track is empty.
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.cues)
}

// Cue returns a copy of cue i.
func (t *Track) Cue(i int) (BilingualCue, bool) {
	if i < 0 || i >= t.Len() {
		return BilingualCue{}, false
	}
	c := t.cues[i]
	c.Words = cloneWords(c.Words)
	return c, true
}

// Cues returns a copy of the whole sequence.
func (t *Track) Cues() []BilingualCue {
	out := make([]BilingualCue, t.Len())
	for i := range out {
		out[i], _ = t.Cue(i)
	}
	return out
}

// Words returns a copy of the resolved word timings of cue i.
func (t *Track) Words(i int) []WordTiming {
	if i < 0 || i >= t.Len() {
		return nil
	}
	return cloneWords(t.words[i])
}

// CueStart is the seek target for cue i.
func (t *Track) CueStart(i int) (float64, bool) {
	if i < 0 || i >= t.Len() {
		return 0, false
	}
	return t.cues[i].Start, true
}

// WordStart is the seek target for word w of cue i.
func (t *Track) WordStart(i, w int) (float64, bool) {
	if i < 0 || i >= t.Len() || w < 0 || w >= len(t.words[i]) {
		return 0, false
	}
	return t.words[i][w].Start, true
}

// Bounds exposes cue i's interval without copying its words. Used by the
// synchronizer's hot path.
func (t *Track) Bounds(i int) (start, end float64) {
	c := &t.cues[i]
	return c.Start, c.End
}

// WordBounds exposes the interval of word w of cue i.
func (t *Track) WordBounds(i, w int) (start, end float64) {
	wt := &t.words[i][w]
	return wt.Start, wt.End
}

// WordCount returns how many word timings cue i has.
func (t *Track) WordCount(i int) int {
	if i < 0 || i >= t.Len() {
		return 0
	}
	return len(t.words[i])
}
