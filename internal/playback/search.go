package playback

import (
	"math"
	"sort"
)

// boundsFunc returns the [start, end) interval of element k of a
// start-sorted sequence.
type boundsFunc func(k int) (start, end float64)

// locate finds the element whose interval contains t. Exact containment
// wins; otherwise the nearest neighbour whose interval widened by tol on
// both sides contains t. Returns -1 when nothing qualifies. count is
// incremented once per binary-search comparison.
func locate(n int, bounds boundsFunc, t, tol float64, count *int) int {
	if n == 0 {
		return -1
	}

	// last element starting at or before t
	i := sort.Search(n, func(k int) bool {
		*count++
		start, _ := bounds(k)
		return start > t
	}) - 1

	if i >= 0 {
		if start, end := bounds(i); t >= start && t < end {
			return i
		}
		// overlapping neighbours: a long predecessor may still cover t
		if i > 0 {
			if start, end := bounds(i - 1); t >= start && t < end {
				return i - 1
			}
		}
	}

	best, bestDist := -1, math.Inf(1)
	for _, k := range [2]int{i, i + 1} {
		if k < 0 || k >= n {
			continue
		}
		start, end := bounds(k)
		if !inBand(t, start, end, tol) {
			continue
		}
		if d := distance(t, start, end); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// inBand reports whether t lies in [start-tol, end+tol).
func inBand(t, start, end, tol float64) bool {
	return t >= start-tol && t < end+tol
}

func distance(t, start, end float64) float64 {
	switch {
	case t < start:
		return start - t
	case t >= end:
		return t - end
	default:
		return 0
	}
}

// progress is the clamped fractional position of t in [start, end).
// Zero-length intervals report 0.
func progress(t, start, end float64) float64 {
	d := end - start
	if d <= 0 {
		return 0
	}
	p := (t - start) / d
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
