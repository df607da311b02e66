package caption

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// MinCueDuration is the noise floor below which cues are dropped as
// unreliable micro-cues.
const MinCueDuration = 0.2

// DedupeOptions tunes the merge scan. All values are in seconds except
// MinSimilarity, a Jaccard threshold.
type DedupeOptions struct {
	OverlapEps    float64 `json:"overlap_eps"`
	MaxJoinGap    float64 `json:"max_join_gap"`
	MinRepeatGap  float64 `json:"min_repeat_gap"`
	MinSimilarity float64 `json:"min_similarity"`
}

// DefaultDedupeOptions returns the tuned defaults.
func DefaultDedupeOptions() DedupeOptions {
	return DedupeOptions{
		OverlapEps:    0.05,
		MaxJoinGap:    1.0,
		MinRepeatGap:  3.0,
		MinSimilarity: DefaultSimilarityThreshold,
	}
}

// Overlay returns o with the fields present in raw, a JSON object,
// replaced. Fields raw leaves out keep their value from o. Empty or null
// raw returns o unchanged.
func (o DedupeOptions) Overlay(raw json.RawMessage) (DedupeOptions, error) {
	if len(raw) == 0 {
		return o, nil
	}
	out := o
	if err := json.Unmarshal(raw, &out); err != nil {
		return o, fmt.Errorf("dedupe options: %w", err)
	}
	if err := out.Validate(); err != nil {
		return o, err
	}
	return out, nil
}

// Validate rejects negative windows and thresholds outside [0, 1].
func (o DedupeOptions) Validate() error {
	if o.OverlapEps < 0 || o.MaxJoinGap < 0 || o.MinRepeatGap < 0 {
		return errors.New("dedupe options: windows must not be negative")
	}
	if o.MinSimilarity < 0 || o.MinSimilarity > 1 {
		return errors.New("dedupe options: min_similarity must be within [0, 1]")
	}
	return nil
}

// DedupeStats counts what a Dedupe run did, for logging.
type DedupeStats struct {
	Input   int `json:"input"`
	Dropped int `json:"dropped"`
	Merged  int `json:"merged"`
	Repeats int `json:"repeats"`
	Output  int `json:"output"`
	Passes  int `json:"passes"`
}

// Dedupe merges overlapping and near-duplicate cues while keeping
// intentional repeats. The input slice is not modified.
func Dedupe(cues []Cue, opts DedupeOptions) []Cue {
	out, _ := DedupeWithStats(cues, opts)
	return out
}

// DedupeWithStats is Dedupe plus counters.
func DedupeWithStats(cues []Cue, opts DedupeOptions) ([]Cue, DedupeStats) {
	stats := DedupeStats{Input: len(cues)}

	valid := make([]Cue, 0, len(cues))
	for _, c := range cues {
		if !isValidCue(c) {
			stats.Dropped++
			continue
		}
		c.Words = cloneWords(c.Words)
		valid = append(valid, c)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Start < valid[j].Start
	})

	// A merge can replace prev's text, which may make it mergeable with the
	// cue before it. Re-scan until a pass changes nothing.
	result := valid
	for {
		var merged, repeats int
		result, merged, repeats = mergePass(result, opts)
		stats.Passes++
		stats.Merged += merged
		if stats.Passes == 1 {
			stats.Repeats = repeats
		}
		if merged == 0 {
			break
		}
	}

	stats.Output = len(result)
	return result, stats
}

func isValidCue(c Cue) bool {
	if c.Start < 0 || c.End <= c.Start {
		return false
	}
	if c.End-c.Start < MinCueDuration {
		return false
	}
	return Normalize(c.Text) != ""
}

// mergePass is the single left-to-right scan. The incoming cue is compared
// with the last kept cue only; that is sufficient because the input is
// sorted by start.
func mergePass(sorted []Cue, opts DedupeOptions) (result []Cue, merged, repeats int) {
	if DebugAssertions && !sort.SliceIsSorted(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start }) {
		panic("caption: mergePass requires cues sorted by start")
	}

	result = make([]Cue, 0, len(sorted))
	for _, cur := range sorted {
		if len(result) == 0 {
			result = append(result, cur)
			continue
		}
		prev := &result[len(result)-1]

		switch decide(*prev, cur, opts) {
		case actionMerge:
			mergeInto(prev, cur)
			merged++
		case actionRepeat:
			result = append(result, cur)
			repeats++
		default:
			result = append(result, cur)
		}
	}
	return result, merged, repeats
}

type mergeAction int

const (
	actionAppend mergeAction = iota
	actionMerge
	actionRepeat
)

// decide applies the merge policy in order: merge when close in time and
// same or similar text, then intentional repeat on a far gap, otherwise a
// distinct cue.
func decide(prev, cur Cue, opts DedupeOptions) mergeAction {
	gap := cur.Start - prev.End
	isOverlapping := cur.Start <= prev.End+opts.OverlapEps
	isCloseGap := gap <= opts.MaxJoinGap
	isFarGap := gap >= opts.MinRepeatGap

	if isOverlapping || isCloseGap {
		if Normalize(prev.Text) == Normalize(cur.Text) || IsNearDuplicate(prev.Text, cur.Text, opts.MinSimilarity) {
			return actionMerge
		}
	}
	if isFarGap && Normalize(prev.Text) == Normalize(cur.Text) {
		return actionRepeat
	}
	return actionAppend
}

// mergeInto extends prev to cover cur and keeps the longer text. On a tie
// prev keeps its own text. Word timings travel with the text they belong to.
func mergeInto(prev *Cue, cur Cue) {
	if cur.End > prev.End {
		prev.End = cur.End
	}
	if textLen(cur.Text) > textLen(prev.Text) {
		prev.Text = cur.Text
		prev.Words = cur.Words
	}
}

func textLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
