package config

import (
	"testing"
	"time"
)

func TestLoadEngineFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATA_PATH", "/tmp/cs")
	t.Setenv("DEDUPE_MIN_REPEAT_GAP", "4.5")
	t.Setenv("SYNC_TOLERANCE", "not-a-number")
	t.Setenv("SYNC_TICK_MS", "20")
	t.Setenv("CORS_ORIGINS", "http://a.example, ,http://b.example")
	t.Setenv("SYNC_SAMPLE_RATE_LIMIT", "0")

	cfg := Load()
	if cfg.DBPath != "/tmp/cs/captionsync.db" || cfg.InboxPath != "/tmp/cs/inbox" {
		t.Errorf("derived paths = %q, %q", cfg.DBPath, cfg.InboxPath)
	}
	if cfg.Engine.Dedupe.MinRepeatGap != 4.5 {
		t.Errorf("MinRepeatGap = %v", cfg.Engine.Dedupe.MinRepeatGap)
	}
	if cfg.Engine.SyncTolerance != DefaultEngine().SyncTolerance {
		t.Errorf("bad SYNC_TOLERANCE should fall back, got %v", cfg.Engine.SyncTolerance)
	}
	if cfg.Engine.SyncTick != 20*time.Millisecond {
		t.Errorf("SyncTick = %v", cfg.Engine.SyncTick)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.SampleRateLimit != 0 {
		t.Errorf("SYNC_SAMPLE_RATE_LIMIT=0 should disable the limiter, got %d", cfg.SampleRateLimit)
	}
}

type mapSettings map[string]string

func (m mapSettings) GetSetting(key, defaultVal string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return defaultVal
}

func TestEngineSettingsOverlay(t *testing.T) {
	base := DefaultEngine()
	got := EngineSettings(base, mapSettings{
		KeyMaxJoinGap:    "2",
		KeyMinSimilarity: "1.5",
		KeySyncTolerance: "-1",
		KeySyncTickMS:    "100",
		KeyOverlapEps:    "",
	})

	if got.Dedupe.MaxJoinGap != 2 {
		t.Errorf("MaxJoinGap = %v", got.Dedupe.MaxJoinGap)
	}
	if got.Dedupe.MinSimilarity != base.Dedupe.MinSimilarity {
		t.Errorf("similarity above 1 should be ignored, got %v", got.Dedupe.MinSimilarity)
	}
	if got.SyncTolerance != base.SyncTolerance {
		t.Errorf("negative tolerance should be ignored, got %v", got.SyncTolerance)
	}
	if got.SyncTick != 100*time.Millisecond {
		t.Errorf("SyncTick = %v", got.SyncTick)
	}
	if got.Dedupe.OverlapEps != base.Dedupe.OverlapEps {
		t.Errorf("OverlapEps = %v", got.Dedupe.OverlapEps)
	}
}
