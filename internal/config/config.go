package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/video-stream/captionsync/internal/caption"
	"github.com/video-stream/captionsync/internal/playback"
)

type Config struct {
	Port          int
	MediaPath     string
	DataPath      string
	DBPath        string
	InboxPath     string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	CORSOrigins   []string
	SessionTTL    time.Duration
	Engine        Engine

	// SampleRateLimit caps sync sample requests per user per minute; 0 disables
	SampleRateLimit int
}

// Engine holds the tunables of the caption pipeline and the synchronizer.
type Engine struct {
	Dedupe         caption.DedupeOptions `json:"dedupe"`
	AlignTolerance float64               `json:"align_tolerance"`
	SyncTolerance  float64               `json:"sync_tolerance"`
	SyncTick       time.Duration         `json:"sync_tick"`
}

// DefaultEngine returns the built-in engine tunables.
func DefaultEngine() Engine {
	return Engine{
		Dedupe:         caption.DefaultDedupeOptions(),
		AlignTolerance: caption.DefaultAlignTolerance,
		SyncTolerance:  playback.DefaultTolerance,
		SyncTick:       playback.DefaultTickInterval,
	}
}

func Load() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")

	// JWT secret: require explicit setting or generate random
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	engine := DefaultEngine()
	engine.Dedupe.OverlapEps = getFloat("DEDUPE_OVERLAP_EPS", engine.Dedupe.OverlapEps)
	engine.Dedupe.MaxJoinGap = getFloat("DEDUPE_MAX_JOIN_GAP", engine.Dedupe.MaxJoinGap)
	engine.Dedupe.MinRepeatGap = getFloat("DEDUPE_MIN_REPEAT_GAP", engine.Dedupe.MinRepeatGap)
	engine.Dedupe.MinSimilarity = getFloat("DEDUPE_MIN_SIMILARITY", engine.Dedupe.MinSimilarity)
	engine.AlignTolerance = getFloat("ALIGN_TOLERANCE", engine.AlignTolerance)
	engine.SyncTolerance = getFloat("SYNC_TOLERANCE", engine.SyncTolerance)
	if ms, err := strconv.Atoi(os.Getenv("SYNC_TICK_MS")); err == nil && ms > 0 {
		engine.SyncTick = time.Duration(ms) * time.Millisecond
	}

	sessionTTL := 30 * time.Minute
	if v, err := time.ParseDuration(os.Getenv("SYNC_SESSION_TTL")); err == nil {
		sessionTTL = v
	}

	sampleLimit := 1200
	if v, err := strconv.Atoi(os.Getenv("SYNC_SAMPLE_RATE_LIMIT")); err == nil && v >= 0 {
		sampleLimit = v
	}

	return &Config{
		Port:            port,
		MediaPath:       getEnv("MEDIA_PATH", "/media"),
		DataPath:        dataPath,
		DBPath:          getEnv("DB_PATH", dataPath+"/captionsync.db"),
		InboxPath:       getEnv("CAPTION_INBOX", dataPath+"/inbox"),
		JWTSecret:       jwtSecret,
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin"),
		CORSOrigins:     corsOrigins,
		SessionTTL:      sessionTTL,
		Engine:          engine,
		SampleRateLimit: sampleLimit,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return f
}
