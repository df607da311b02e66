package config

import (
	"log"
	"strconv"
	"time"
)

// Settings keys that override engine tunables at runtime.
const (
	KeyOverlapEps     = "dedupe_overlap_eps"
	KeyMaxJoinGap     = "dedupe_max_join_gap"
	KeyMinRepeatGap   = "dedupe_min_repeat_gap"
	KeyMinSimilarity  = "dedupe_min_similarity"
	KeyAlignTolerance = "align_tolerance"
	KeySyncTolerance  = "sync_tolerance"
	KeySyncTickMS     = "sync_tick_ms"
)

// SettingsReader looks up a stored setting, returning defaultVal when unset.
type SettingsReader interface {
	GetSetting(key, defaultVal string) string
}

// EngineSettings overlays stored settings on base. Unparseable or
// out-of-range values are ignored.
func EngineSettings(base Engine, s SettingsReader) Engine {
	e := base
	e.Dedupe.OverlapEps = settingFloat(s, KeyOverlapEps, e.Dedupe.OverlapEps)
	e.Dedupe.MaxJoinGap = settingFloat(s, KeyMaxJoinGap, e.Dedupe.MaxJoinGap)
	e.Dedupe.MinRepeatGap = settingFloat(s, KeyMinRepeatGap, e.Dedupe.MinRepeatGap)
	e.Dedupe.MinSimilarity = settingFloat(s, KeyMinSimilarity, e.Dedupe.MinSimilarity)
	if e.Dedupe.MinSimilarity > 1 {
		e.Dedupe.MinSimilarity = base.Dedupe.MinSimilarity
	}
	e.AlignTolerance = settingFloat(s, KeyAlignTolerance, e.AlignTolerance)
	e.SyncTolerance = settingFloat(s, KeySyncTolerance, e.SyncTolerance)
	if v := s.GetSetting(KeySyncTickMS, ""); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			e.SyncTick = time.Duration(ms) * time.Millisecond
		} else {
			log.Printf("[config] ignoring setting %s=%q", KeySyncTickMS, v)
		}
	}
	return e
}

func settingFloat(s SettingsReader, key string, fallback float64) float64 {
	v := s.GetSetting(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Printf("[config] ignoring setting %s=%q", key, v)
		return fallback
	}
	return f
}
