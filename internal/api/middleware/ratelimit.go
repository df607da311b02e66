package middleware

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// KeyFunc picks the bucket a request counts against.
type KeyFunc func(r *http.Request) string

// ByClientIP keys on the address chi's RealIP middleware resolved.
func ByClientIP(r *http.Request) string {
	return r.RemoteAddr
}

// ByUser keys on the authenticated user so players behind one NAT do not
// share a budget. Anonymous requests fall back to the client address.
func ByUser(r *http.Request) string {
	if c := GetClaims(r); c != nil {
		return "user:" + strconv.FormatInt(c.UserID, 10)
	}
	return r.RemoteAddr
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window limiter. Expired buckets are swept inline
// at most once per window, so a limiter owns no goroutine.
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	key    KeyFunc
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*rateBucket
	nextSweep time.Time
}

// NewRateLimiter allows limit requests per window for each key. A limit of
// zero or less disables the limiter.
func NewRateLimiter(name string, limit int, window time.Duration, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ByClientIP
	}
	return &RateLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		key:     key,
		now:     time.Now,
		buckets: make(map[string]*rateBucket),
	}
}

func (rl *RateLimiter) Name() string { return rl.name }

// sweep drops expired buckets. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	for k, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, k)
		}
	}
	rl.nextSweep = now.Add(rl.window)
}

// take counts one request for key and reports whether it is within the
// limit, and if not, how long until the window resets.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &rateBucket{resetAt: now.Add(rl.window)}
		rl.buckets[key] = b
	}
	b.count++
	if b.count <= rl.limit {
		return true, 0
	}
	if b.count == rl.limit+1 {
		log.Printf("[ratelimit] %s: %s over %d per %s", rl.name, key, rl.limit, rl.window)
	}
	return false, b.resetAt.Sub(now)
}

// RateLimitEntry is one key's bucket.
type RateLimitEntry struct {
	Key     string    `json:"key"`
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// RateLimitStatus is returned by the admin API.
type RateLimitStatus struct {
	Name    string           `json:"name"`
	Limit   int              `json:"limit"`
	Window  string           `json:"window"`
	Entries []RateLimitEntry `json:"entries"`
}

// Status returns the live buckets.
func (rl *RateLimiter) Status() RateLimitStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entries := make([]RateLimitEntry, 0, len(rl.buckets))
	for k, b := range rl.buckets {
		if now.Before(b.resetAt) {
			entries = append(entries, RateLimitEntry{Key: k, Count: b.count, ResetAt: b.resetAt})
		}
	}
	return RateLimitStatus{
		Name:    rl.name,
		Limit:   rl.limit,
		Window:  rl.window.String(),
		Entries: entries,
	}
}

// Clear forgets every bucket.
func (rl *RateLimiter) Clear() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.buckets = make(map[string]*rateBucket)
}

// Handler enforces the limit. Rejected requests get 429 with Retry-After
// set to the whole seconds left in the caller's window.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(rl.key(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests, try again later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
