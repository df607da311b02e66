// Command captionctl runs the caption pipeline on local files.
//
//	captionctl dedupe ep1.en.vtt --offset 30
//	captionctl align ep1.en.vtt ep1.es.srt --mode overlap
//	captionctl sample ep1.en.vtt ep1.es.srt --at 1.2 --at 3.5
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"

	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/playback"
)

type cleanArgs struct {
	Offset        float64 `arg:"--offset" help:"chunk offset in seconds, added to every timestamp"`
	MinSimilarity float64 `arg:"--min-similarity" help:"Jaccard threshold for near-duplicates" default:"0.92"`
	MaxJoinGap    float64 `arg:"--max-join-gap" help:"largest gap in seconds bridged when joining duplicates" default:"1"`
	MinRepeatGap  float64 `arg:"--min-repeat-gap" help:"gap in seconds after which identical text is an intentional repeat" default:"3"`
}

func (c cleanArgs) options() caption.DedupeOptions {
	opts := caption.DefaultDedupeOptions()
	opts.MinSimilarity = c.MinSimilarity
	opts.MaxJoinGap = c.MaxJoinGap
	opts.MinRepeatGap = c.MinRepeatGap
	return opts
}

type dedupeCmd struct {
	cleanArgs
	Input string `arg:"positional,required" help:"VTT or SRT file"`
	JSON  bool   `arg:"--json" help:"print cues and stats as JSON instead of WebVTT"`
}

type alignCmd struct {
	cleanArgs
	Primary   string  `arg:"positional,required"`
	Secondary string  `arg:"positional,required"`
	Mode      string  `arg:"--mode" help:"sequential or overlap" default:"sequential"`
	Tolerance float64 `arg:"--tolerance" help:"start-time tolerance for sequential alignment" default:"0.5"`
	JSON      bool    `arg:"--json" help:"print bilingual cues as JSON instead of WebVTT"`
}

type sampleCmd struct {
	alignCmd
	At            []float64 `arg:"--at,separate" help:"playback time to sample; repeatable"`
	SyncTolerance float64   `arg:"--sync-tolerance" default:"0.1"`
}

type args struct {
	Dedupe *dedupeCmd `arg:"subcommand:dedupe" help:"clean one caption stream"`
	Align  *alignCmd  `arg:"subcommand:align" help:"clean and align two caption streams"`
	Sample *sampleCmd `arg:"subcommand:sample" help:"run the synchronizer over an aligned pair"`
}

func (args) Description() string {
	return "captionsync: caption dedup, bilingual alignment and playback sync\n"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	var err error
	switch {
	case a.Dedupe != nil:
		err = runDedupe(*a.Dedupe, os.Stdout)
	case a.Align != nil:
		err = runAlign(*a.Align, os.Stdout)
	case a.Sample != nil:
		err = runSample(*a.Sample, os.Stdout)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func readCaptions(path string) ([]caption.RawCue, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt", ".srt":
	default:
		return nil, fmt.Errorf("unsupported extension: %s (only .vtt, .srt)", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw := caption.ParseVTT(string(data))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: no cues found", path)
	}
	return raw, nil
}

func clean(path string, c cleanArgs) ([]caption.Cue, caption.DedupeStats, error) {
	raw, err := readCaptions(path)
	if err != nil {
		return nil, caption.DedupeStats{}, err
	}
	cues, stats := caption.Clean(raw, c.Offset, c.options())
	return cues, stats, nil
}

func runDedupe(cmd dedupeCmd, w io.Writer) error {
	cues, stats, err := clean(cmd.Input, cmd.cleanArgs)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(w, map[string]interface{}{"cues": cues, "stats": stats})
	}
	fmt.Fprintf(os.Stderr, "%d cues in, %d out (%d dropped, %d merged, %d repeats kept)\n",
		stats.Input, stats.Output, stats.Dropped, stats.Merged, stats.Repeats)
	_, err = io.WriteString(w, caption.FormatVTT(cues))
	return err
}

func bilingual(cmd alignCmd) ([]caption.BilingualCue, error) {
	mode, err := caption.ParseAlignMode(cmd.Mode)
	if err != nil {
		return nil, err
	}
	primary, _, err := clean(cmd.Primary, cmd.cleanArgs)
	if err != nil {
		return nil, err
	}
	secondary, _, err := clean(cmd.Secondary, cmd.cleanArgs)
	if err != nil {
		return nil, err
	}
	return caption.AlignWith(mode, primary, secondary, cmd.Tolerance), nil
}

func runAlign(cmd alignCmd, w io.Writer) error {
	cues, err := bilingual(cmd)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(w, cues)
	}
	_, err = io.WriteString(w, caption.FormatBilingualVTT(cues))
	return err
}

func runSample(cmd sampleCmd, w io.Writer) error {
	if len(cmd.At) == 0 {
		return errors.New("at least one --at time is required")
	}
	cues, err := bilingual(cmd.alignCmd)
	if err != nil {
		return err
	}
	track := caption.NewTrack(cues)
	s := playback.New(track, cmd.SyncTolerance)
	for _, t := range cmd.At {
		sm := s.Sample(t)
		line := fmt.Sprintf("%s\tcue=%d word=%d progress=%.2f", caption.FormatTimestamp(t), sm.CueIndex, sm.WordIndex, sm.Progress)
		if c, ok := track.Cue(sm.CueIndex); ok {
			line += "\t" + c.Primary
			if c.Secondary != "" {
				line += " / " + c.Secondary
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
