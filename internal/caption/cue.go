package caption

// Cue is a single caption entry with timing in seconds.
type Cue struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Text  string       `json:"text"`
	Words []WordTiming `json:"words,omitempty"` // real word-level timing, when the source has it
}

// Duration returns End - Start.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// BilingualCue pairs a cleaned primary-language cue with its aligned
// secondary-language text. Secondary is empty when nothing aligned.
type BilingualCue struct {
	Start     float64      `json:"start"`
	End       float64      `json:"end"`
	Primary   string       `json:"primary"`
	Secondary string       `json:"secondary"`
	Words     []WordTiming `json:"words,omitempty"`
}

// WordTiming is the sub-unit highlighted inside an active cue.
type WordTiming struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// RawCue is an upstream caption record. Start and End may be JSON numbers
// (seconds) or strings ("HH:MM:SS.mmm", "12.5").
type RawCue struct {
	Start any       `json:"start"`
	End   any       `json:"end"`
	Text  string    `json:"text"`
	Words []RawWord `json:"words,omitempty"`
}

// RawWord is an upstream word timing record.
type RawWord struct {
	Text  string `json:"text"`
	Start any    `json:"start"`
	End   any    `json:"end"`
}

func cloneWords(words []WordTiming) []WordTiming {
	if len(words) == 0 {
		return nil
	}
	out := make([]WordTiming, len(words))
	copy(out, words)
	return out
}

func cloneCues(cues []Cue) []Cue {
	out := make([]Cue, len(cues))
	for i, c := range cues {
		c.Words = cloneWords(c.Words)
		out[i] = c
	}
	return out
}
