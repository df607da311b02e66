package caption

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// start --> end, optionally followed by cue settings ("align:start position:0%")
	timingRe = regexp.MustCompile(`^(\S+)\s*-->\s*(\S+)`)
	// <00:00:01.500> inline word timestamps in auto-generated captions
	inlineTimeRe = regexp.MustCompile(`<(\d{1,2}:)?\d{1,2}:\d{2}[.,]\d{1,3}>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
)

// ParseVTT parses WebVTT or SRT content into raw cues. Timestamps are kept
// as strings so they flow through ParseTimestamp like any other upstream
// record. Inline word timestamps become word timings; other markup is
// stripped.
func ParseVTT(content string) []RawCue {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var cues []RawCue
	var current *RawCue
	var text []string
	skipBlock := false

	flush := func() {
		if current != nil {
			body := strings.Join(text, "\n")
			current.Text, current.Words = parseCueBody(body, current.Start.(string), current.End.(string))
			if strings.TrimSpace(current.Text) != "" {
				cues = append(cues, *current)
			}
		}
		current = nil
		text = text[:0]
	}

	for _, raw := range lines {
		line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))

		if line == "" {
			flush()
			skipBlock = false
			continue
		}
		if skipBlock {
			continue
		}
		if current == nil && (strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") ||
			line == "STYLE" || line == "REGION" || strings.HasPrefix(line, "Kind:") || strings.HasPrefix(line, "Language:")) {
			if strings.HasPrefix(line, "NOTE") || line == "STYLE" || line == "REGION" {
				skipBlock = true
			}
			continue
		}

		if m := timingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &RawCue{Start: m[1], End: m[2]}
			continue
		}

		// cue identifiers (SRT counters or named VTT ids) precede the timing line
		if current == nil {
			continue
		}
		text = append(text, line)
	}
	flush()
	return cues
}

// parseCueBody strips markup from a cue body and extracts inline word
// timings. Without inline timestamps it returns no words.
func parseCueBody(body, start, end string) (string, []RawWord) {
	locs := inlineTimeRe.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return cleanCueText(body), nil
	}

	// segment i runs from its timestamp (or the cue start) to the next one
	type segment struct {
		text  string
		start string
	}
	segs := []segment{{text: body[:locs[0][0]], start: start}}
	for i, loc := range locs {
		ts := strings.Trim(body[loc[0]:loc[1]], "<>")
		next := len(body)
		if i+1 < len(locs) {
			next = locs[i+1][0]
		}
		segs = append(segs, segment{text: body[loc[1]:next], start: ts})
	}

	var words []RawWord
	var parts []string
	for i, seg := range segs {
		txt := cleanCueText(seg.text)
		if txt == "" {
			continue
		}
		segEnd := end
		if i+1 < len(segs) {
			segEnd = segs[i+1].start
		}
		words = append(words, RawWord{Text: txt, Start: seg.start, End: segEnd})
		parts = append(parts, txt)
	}
	return strings.Join(parts, " "), words
}

func cleanCueText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&nbsp;", " ").Replace(s)
	return collapseSpaces(s)
}

// FormatVTT renders cues as WebVTT.
func FormatVTT(cues []Cue) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, c := range cues {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s --> %s\n", FormatTimestamp(c.Start), FormatTimestamp(c.End))
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// FormatBilingualVTT renders bilingual cues as WebVTT with the secondary
// text on its own line under the primary text.
func FormatBilingualVTT(cues []BilingualCue) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, c := range cues {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s --> %s\n", FormatTimestamp(c.Start), FormatTimestamp(c.End))
		sb.WriteString(c.Primary)
		if c.Secondary != "" {
			sb.WriteString("\n")
			sb.WriteString(c.Secondary)
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// FormatTimestamp formats seconds as HH:MM:SS.mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(seconds*1000 + 0.5)
	h := totalMs / 3600000
	totalMs %= 3600000
	m := totalMs / 60000
	totalMs %= 60000
	s := totalMs / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
