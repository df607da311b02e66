package caption

import "fmt"

// AlignMode selects the cross-language alignment strategy.
type AlignMode string

const (
	AlignModeSequential AlignMode = "sequential"
	AlignModeOverlap    AlignMode = "overlap"
)

// ParseAlignMode accepts "", "sequential" and "overlap". The empty string
// selects sequential.
func ParseAlignMode(s string) (AlignMode, error) {
	switch AlignMode(s) {
	case "", AlignModeSequential:
		return AlignModeSequential, nil
	case AlignModeOverlap:
		return AlignModeOverlap, nil
	}
	return "", fmt.Errorf("unknown align mode %q", s)
}

// Clean runs the single-language half of the pipeline: parse with the chunk
// offset applied once, then dedupe.
func Clean(raw []RawCue, offset float64, opts DedupeOptions) ([]Cue, DedupeStats) {
	return DedupeWithStats(ParseCues(raw, offset), opts)
}

// AlignWith dispatches to the aligner selected by mode. tolerance is only
// used by the sequential aligner.
func AlignWith(mode AlignMode, primary, secondary []Cue, tolerance float64) []BilingualCue {
	if mode == AlignModeOverlap {
		return Align(primary, secondary)
	}
	return AlignSequential(primary, secondary, tolerance)
}
