package caption

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestDedupeMergesOverlappingDuplicates(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 2, Text: "Hello world"},
		{Start: 1.5, End: 3, Text: "Hello world"},
		{Start: 4, End: 6, Text: "Goodbye"},
	}
	got := Dedupe(in, DefaultDedupeOptions())
	want := []Cue{
		{Start: 0, End: 3, Text: "Hello world"},
		{Start: 4, End: 6, Text: "Goodbye"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Dedupe() = %+v; want %+v", got, want)
	}
}

func TestDedupeKeepsIntentionalRepeat(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 2, Text: "Hello world"},
		{Start: 5, End: 7, Text: "Hello world"},
	}
	got, stats := DedupeWithStats(in, DefaultDedupeOptions())
	if len(got) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(got), got)
	}
	if got[0].End != 2 || got[1].Start != 5 {
		t.Errorf("repeat cues were modified: %+v", got)
	}
	if stats.Repeats != 1 {
		t.Errorf("stats.Repeats = %d; want 1", stats.Repeats)
	}
}

func TestDedupeMergesNearDuplicate(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 2, Text: "This is a test"},
		{Start: 1.5, End: 3, Text: "This is a test."},
	}
	got := Dedupe(in, DefaultDedupeOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 cue, got %d: %+v", len(got), got)
	}
	if got[0].Text != "This is a test." || got[0].End != 3 {
		t.Errorf("merged cue = %+v; want longer text and end 3", got[0])
	}
}

func TestDedupeKeepsDistinctCloseCues(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 1, Text: "How are you"},
		{Start: 1, End: 2, Text: "Fine thanks"},
	}
	got := Dedupe(in, DefaultDedupeOptions())
	if len(got) != 2 {
		t.Fatalf("distinct back-to-back cues were fused: %+v", got)
	}
}

func TestDedupeMergeTieKeepsPrevText(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 2, Text: "Hello World"},
		{Start: 1, End: 3, Text: "hello world"},
	}
	got := Dedupe(in, DefaultDedupeOptions())
	if len(got) != 1 || got[0].Text != "Hello World" {
		t.Fatalf("tie should keep prev text, got %+v", got)
	}
}

func TestDedupeFiltersInvalidCues(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 1, Text: "   "},
		{Start: 2, End: 2, Text: "zero length"},
		{Start: 3, End: 2, Text: "inverted"},
		{Start: 4, End: 4.1, Text: "micro cue"},
		{Start: 5, End: 6, Text: "[Music]"},
		{Start: -1, End: 1, Text: "negative"},
		{Start: 7, End: 8, Text: "kept"},
	}
	got, stats := DedupeWithStats(in, DefaultDedupeOptions())
	if len(got) != 1 || got[0].Text != "kept" {
		t.Fatalf("Dedupe() = %+v; want only the valid cue", got)
	}
	if stats.Dropped != 6 {
		t.Errorf("stats.Dropped = %d; want 6", stats.Dropped)
	}
}

func TestDedupeSortsStably(t *testing.T) {
	in := []Cue{
		{Start: 10, End: 11, Text: "c"},
		{Start: 0, End: 1, Text: "a"},
		{Start: 5, End: 6, Text: "b first"},
		{Start: 5, End: 6.5, Text: "totally different"},
	}
	got := Dedupe(in, DefaultDedupeOptions())
	texts := make([]string, len(got))
	for i, c := range got {
		texts[i] = c.Text
	}
	want := []string{"a", "b first", "totally different", "c"}
	if !reflect.DeepEqual(texts, want) {
		t.Fatalf("order = %v; want %v", texts, want)
	}
}

func TestDedupeDoesNotMutateInput(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 2, Text: "Hello world", Words: []WordTiming{{Text: "Hello", Start: 0, End: 1}}},
		{Start: 1.5, End: 3, Text: "Hello world"},
	}
	orig := cloneCues(in)
	out := Dedupe(in, DefaultDedupeOptions())
	if !reflect.DeepEqual(in, orig) {
		t.Fatalf("input mutated: %+v", in)
	}
	out[0].Words[0].Text = "changed"
	if in[0].Words[0].Text != "Hello" {
		t.Fatal("output shares word storage with input")
	}
}

func TestDedupeChainOfFragments(t *testing.T) {
	// auto-generated captions often repeat a line across several short,
	// overlapping windows
	in := []Cue{
		{Start: 0, End: 1.2, Text: "we choose to go"},
		{Start: 1.0, End: 2.4, Text: "we choose to go"},
		{Start: 2.3, End: 3.5, Text: "We choose to go."},
		{Start: 3.6, End: 5, Text: "to the moon"},
	}
	got := Dedupe(in, DefaultDedupeOptions())
	if len(got) != 2 {
		t.Fatalf("expected 2 cues, got %+v", got)
	}
	if got[0].Start != 0 || got[0].End != 3.5 || got[0].Text != "We choose to go." {
		t.Errorf("merged cue = %+v", got[0])
	}
}

func TestDedupeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	phrases := []string{"hello world", "Hello world!", "goodbye", "see you", "la la la", "see you."}
	for round := 0; round < 50; round++ {
		var in []Cue
		n := 5 + rng.Intn(40)
		for i := 0; i < n; i++ {
			start := rng.Float64() * 60
			in = append(in, Cue{
				Start: start,
				End:   start + 0.1 + rng.Float64()*3,
				Text:  phrases[rng.Intn(len(phrases))],
			})
		}

		once := Dedupe(in, DefaultDedupeOptions())
		twice := Dedupe(once, DefaultDedupeOptions())
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("round %d: dedupe not idempotent\nonce:  %+v\ntwice: %+v", round, once, twice)
		}
		if !sort.SliceIsSorted(once, func(i, j int) bool { return once[i].Start < once[j].Start }) {
			t.Fatalf("round %d: output not sorted", round)
		}
		for i, c := range once {
			if !isValidCue(c) {
				t.Fatalf("round %d: invalid output cue %d: %+v", round, i, c)
			}
			if i > 0 && decide(once[i-1], c, DefaultDedupeOptions()) == actionMerge {
				t.Fatalf("round %d: adjacent cues %d and %d still mergeable", round, i-1, i)
			}
		}
	}
}

func ExampleDedupe() {
	cues := Dedupe([]Cue{
		{Start: 0, End: 2, Text: "Hello world"},
		{Start: 1.5, End: 3, Text: "Hello world"},
		{Start: 4, End: 6, Text: "Goodbye"},
	}, DefaultDedupeOptions())
	for _, c := range cues {
		fmt.Printf("%.1f-%.1f %s\n", c.Start, c.End, c.Text)
	}
	// Output:
	// 0.0-3.0 Hello world
	// 4.0-6.0 Goodbye
}

func TestDedupeOptionsOverlay(t *testing.T) {
	base := DefaultDedupeOptions()
	tests := []struct {
		name    string
		raw     string
		want    DedupeOptions
		wantErr bool
	}{
		{"empty", "", base, false},
		{"null", "null", base, false},
		{"one field", `{"min_similarity":0.8}`, DedupeOptions{OverlapEps: 0.05, MaxJoinGap: 1, MinRepeatGap: 3, MinSimilarity: 0.8}, false},
		{"explicit zero", `{"max_join_gap":0}`, DedupeOptions{OverlapEps: 0.05, MaxJoinGap: 0, MinRepeatGap: 3, MinSimilarity: 0.92}, false},
		{"negative", `{"min_repeat_gap":-2}`, base, true},
		{"threshold above one", `{"min_similarity":1.5}`, base, true},
		{"not an object", `[1,2]`, base, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Overlay(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Overlay(%s) err = %v; wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Overlay(%s) = %+v; want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDedupeWithPartialOptionsKeepsJoinGap(t *testing.T) {
	in := []Cue{
		{Start: 0, End: 2, Text: "Hello world"},
		{Start: 2.5, End: 4, Text: "Hello world"},
	}
	opts, err := DefaultDedupeOptions().Overlay(json.RawMessage(`{"min_similarity":0.92}`))
	if err != nil {
		t.Fatal(err)
	}
	got := Dedupe(in, opts)
	want := []Cue{{Start: 0, End: 4, Text: "Hello world"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Dedupe() = %+v; want %+v", got, want)
	}
}
