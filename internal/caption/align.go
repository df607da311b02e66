package caption

import (
	"math"
	"sort"
)

// DefaultAlignTolerance is the start-time distance within which a
// secondary cue aligns to a primary cue.
const DefaultAlignTolerance = 0.5

// AlignSequential maps each primary cue to the first secondary cue whose
// start lies within tolerance of the primary start. Both streams must be
// sorted by start; the secondary cursor only moves forward. The result has
// exactly len(primary) entries; unmatched cues get an empty Secondary.
func AlignSequential(primary, secondary []Cue, tolerance float64) []BilingualCue {
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = DefaultAlignTolerance
	}
	primary = ensureSorted(primary, "AlignSequential primary")
	secondary = ensureSorted(secondary, "AlignSequential secondary")

	out := make([]BilingualCue, 0, len(primary))
	j := 0
	for _, p := range primary {
		bc := newBilingual(p)
		for k := j; k < len(secondary); k++ {
			s := secondary[k]
			if s.Start > p.Start+tolerance {
				break
			}
			if math.Abs(s.Start-p.Start) <= tolerance {
				bc.Secondary = s.Text
				j = k + 1
				break
			}
			// s starts too early for this primary cue and, primaries being
			// sorted, for every later one too
			j = k + 1
		}
		out = append(out, bc)
	}
	return out
}

// Align maps each primary cue to the secondary cue it overlaps the most in
// time. Ties go to the earlier secondary cue. A secondary cue may serve
// several primary cues. Use it when the streams segment speech very
// differently; AlignSequential is the stricter default.
func Align(primary, secondary []Cue) []BilingualCue {
	primary = ensureSorted(primary, "Align primary")
	secondary = ensureSorted(secondary, "Align secondary")

	out := make([]BilingualCue, 0, len(primary))
	for _, p := range primary {
		bc := newBilingual(p)
		// first secondary cue starting at or after p.End cannot overlap p
		hi := sort.Search(len(secondary), func(i int) bool {
			return secondary[i].Start >= p.End
		})
		best, bestOverlap := -1, 0.0
		for k := 0; k < hi; k++ {
			ov := overlap(p, secondary[k])
			if ov > bestOverlap {
				best, bestOverlap = k, ov
			}
		}
		if best >= 0 {
			bc.Secondary = secondary[best].Text
		}
		out = append(out, bc)
	}
	return out
}

func newBilingual(p Cue) BilingualCue {
	return BilingualCue{
		Start:   p.Start,
		End:     p.End,
		Primary: p.Text,
		Words:   cloneWords(p.Words),
	}
}

func overlap(a, b Cue) float64 {
	return math.Min(a.End, b.End) - math.Max(a.Start, b.Start)
}

// ensureSorted returns cues unchanged when sorted by start. Unsorted input
// breaks the caller contract: it panics in debug builds and is repaired
// with a sorted copy otherwise.
func ensureSorted(cues []Cue, what string) []Cue {
	less := func(i, j int) bool { return cues[i].Start < cues[j].Start }
	if sort.SliceIsSorted(cues, less) {
		return cues
	}
	if DebugAssertions {
		panic("caption: " + what + " is not sorted by start")
	}
	sorted := cloneCues(cues)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return sorted
}
