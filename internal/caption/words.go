package caption

import (
	"math"
	"strings"
)

// SynthesizeWords divides [start, end) evenly across the whitespace tokens
// of text. A zero-length interval gives every word start == end.
func SynthesizeWords(text string, start, end float64) []WordTiming {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	if end < start {
		end = start
	}
	step := (end - start) / float64(len(fields))
	words := make([]WordTiming, len(fields))
	for i, f := range fields {
		ws := start + step*float64(i)
		we := ws + step
		if i == len(fields)-1 {
			we = end
		}
		words[i] = WordTiming{Text: f, Start: ws, End: we}
	}
	return words
}

// validWords reports whether real word timings can be used as-is: non-empty,
// sorted, each word non-inverted and inside the cue (with a little slack for
// rounding in upstream data).
func validWords(words []WordTiming, start, end float64) bool {
	const slack = 0.05
	if len(words) == 0 {
		return false
	}
	prev := math.Inf(-1)
	for _, w := range words {
		if w.End < w.Start || w.Start < prev {
			return false
		}
		if w.Start < start-slack || w.End > end+slack {
			return false
		}
		prev = w.Start
	}
	return true
}

// WordsFor returns the cue's real word timings when they are usable and
// synthesized ones otherwise.
func WordsFor(c BilingualCue) []WordTiming {
	if validWords(c.Words, c.Start, c.End) {
		return cloneWords(c.Words)
	}
	return SynthesizeWords(c.Primary, c.Start, c.End)
}
