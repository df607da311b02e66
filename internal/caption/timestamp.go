package caption

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseTimestamp converts a heterogeneous timestamp into seconds. Numbers
// are returned unchanged; strings may be "[[HH:]MM:]SS[.mmm]" (',' also
// accepted before the fraction) or any float literal. Unparseable, NaN and
// infinite values yield 0 so a single bad record never aborts a batch.
func ParseTimestamp(value any) float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		f = parseTimestampString(string(v))
	case string:
		f = parseTimestampString(v)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseTimestampString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if secs, ok := parseClock(s); ok {
		return secs
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseClock handles SS[.mmm], MM:SS[.mmm] and HH:MM:SS[.mmm].
func parseClock(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}

	last := parts[len(parts)-1]
	whole, frac, hasFrac := strings.Cut(strings.Replace(last, ",", ".", 1), ".")
	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return 0, false
	}
	sec, _ := strconv.Atoi(whole)

	ms := 0
	if hasFrac {
		// "5" means 500ms and "12345" is cut to "123"
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		ms, _ = strconv.Atoi(frac)
	}

	total := float64(sec) + float64(ms)/1000.0
	mult := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		if !isDigits(parts[i]) {
			return 0, false
		}
		n, _ := strconv.Atoi(parts[i])
		total += float64(n) * mult
		mult *= 60
	}
	return total, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseCues converts raw upstream records into cues, adding the chunk
// offset once to every timestamp. Negative results clamp to 0. No record
// is dropped here; Dedupe filters invalid cues.
func ParseCues(raw []RawCue, offset float64) []Cue {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		offset = 0
	}
	cues := make([]Cue, 0, len(raw))
	for _, r := range raw {
		c := Cue{
			Start: clampZero(ParseTimestamp(r.Start) + offset),
			End:   clampZero(ParseTimestamp(r.End) + offset),
			Text:  r.Text,
		}
		if len(r.Words) > 0 {
			c.Words = make([]WordTiming, 0, len(r.Words))
			for _, w := range r.Words {
				c.Words = append(c.Words, WordTiming{
					Text:  w.Text,
					Start: clampZero(ParseTimestamp(w.Start) + offset),
					End:   clampZero(ParseTimestamp(w.End) + offset),
				})
			}
		}
		cues = append(cues, c)
	}
	return cues
}

func clampZero(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
