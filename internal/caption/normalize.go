package caption

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces = regexp.MustCompile(`\s+`)
	// [Music], [Applause], (laughs), (inaudible)...
	reFillerMarkers = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

	quoteReplacer = strings.NewReplacer(
		"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'",
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`,
	)
	musicReplacer = strings.NewReplacer("♪", "", "♫", "", "♬", "", "¶", "")
)

// terminalPunct are the marks whose repeated runs collapse to one.
const terminalPunct = ".!?…。！？"

// Normalize canonicalizes caption text for comparison. It never fails;
// empty input yields empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := norm.NFC.String(text)
	s = collapseSpaces(s)
	s = strings.ToLower(s)
	s = quoteReplacer.Replace(s)
	s = reFillerMarkers.ReplaceAllString(s, " ")
	s = musicReplacer.Replace(s)
	s = collapseTerminalPunct(s)
	// removals above can leave double or edge spaces behind
	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// collapseTerminalPunct turns runs of the same terminal mark into a single
// one: "!!!" -> "!", "..." -> ".". Mixed runs like "?!" are left alone.
func collapseTerminalPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev && strings.ContainsRune(terminalPunct, r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
