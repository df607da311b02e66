package caption

import (
	"math"
	"testing"
)

func TestSynthesizeWords(t *testing.T) {
	words := SynthesizeWords("one two three four", 10, 12)
	if len(words) != 4 {
		t.Fatalf("expected 4 words, got %d", len(words))
	}
	for i, w := range words {
		wantStart := 10 + 0.5*float64(i)
		if math.Abs(w.Start-wantStart) > 1e-9 || math.Abs(w.End-(wantStart+0.5)) > 1e-9 {
			t.Errorf("word %d = %+v; want [%v, %v]", i, w, wantStart, wantStart+0.5)
		}
	}
	if words[3].End != 12 {
		t.Errorf("last word must end at cue end, got %v", words[3].End)
	}

	if got := SynthesizeWords("   ", 0, 1); got != nil {
		t.Errorf("expected no words for blank text, got %+v", got)
	}
	zero := SynthesizeWords("a b", 3, 3)
	for _, w := range zero {
		if w.Start != 3 || w.End != 3 {
			t.Errorf("zero-length cue word = %+v", w)
		}
	}
}

func TestWordsForPrefersValidRealTiming(t *testing.T) {
	real := []WordTiming{{Text: "hi", Start: 0, End: 0.3}, {Text: "there", Start: 0.3, End: 1}}
	got := WordsFor(BilingualCue{Start: 0, End: 1, Primary: "hi there", Words: real})
	if got[0].End != 0.3 {
		t.Errorf("expected real timing, got %+v", got)
	}

	broken := []WordTiming{{Text: "hi", Start: 0.5, End: 0.3}}
	got = WordsFor(BilingualCue{Start: 0, End: 1, Primary: "hi there", Words: broken})
	if len(got) != 2 || got[0].End != 0.5 {
		t.Errorf("expected synthesized timing, got %+v", got)
	}
}

func TestNewTrack(t *testing.T) {
	track := NewTrack([]BilingualCue{
		{Start: 5, End: 6, Primary: "late"},
		{Start: 0, End: 1, Primary: "early"},
		{Start: 2, End: 2, Primary: "degenerate"},
		{Start: math.NaN(), End: 3, Primary: "nan"},
		{Start: -1, End: 3, Primary: "negative"},
	})
	if track.Len() != 2 {
		t.Fatalf("expected 2 cues, got %d", track.Len())
	}
	first, _ := track.Cue(0)
	if first.Primary != "early" {
		t.Errorf("track not sorted: first = %+v", first)
	}
	if start, ok := track.CueStart(1); !ok || start != 5 {
		t.Errorf("CueStart(1) = %v, %v", start, ok)
	}
	if start, ok := track.WordStart(0, 0); !ok || start != 0 {
		t.Errorf("WordStart(0, 0) = %v, %v", start, ok)
	}
	if _, ok := track.WordStart(0, 5); ok {
		t.Error("WordStart out of range should report false")
	}
	if _, ok := track.Cue(-1); ok {
		t.Error("Cue(-1) should report false")
	}

	words := track.Words(0)
	words[0].Text = "mutated"
	if track.Words(0)[0].Text == "mutated" {
		t.Error("Words must return a copy")
	}

	var empty *Track
	if empty.Len() != 0 {
		t.Error("nil track should be empty")
	}
}
