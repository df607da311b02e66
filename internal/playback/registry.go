package playback

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/video-stream/captionsync/internal/caption"
)

var ErrSessionNotFound = errors.New("sync session not found")

// session is a server-held synchronizer bound to one bilingual track.
type session struct {
	ID          string
	BilingualID string
	CreatedAt   time.Time
	LastSeen    time.Time
	CueCount    int
	Tolerance   float64

	mu     sync.Mutex
	syncer *Synchronizer
}

// SessionInfo is a snapshot of a sync session.
type SessionInfo struct {
	ID          string    `json:"id"`
	BilingualID string    `json:"bilingual_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
	CueCount    int       `json:"cue_count"`
	Tolerance   float64   `json:"tolerance"`
	State       SyncState `json:"state"`
}

// Registry holds sync sessions in memory. Sessions idle for longer than the
// TTL are removed by the janitor.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry. A non-positive ttl disables
// expiry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session over track.
func (r *Registry) Create(bilingualID string, track *caption.Track, tolerance float64) SessionInfo {
	now := r.now()
	s := &session{
		ID:          uuid.New().String(),
		BilingualID: bilingualID,
		CreatedAt:   now,
		LastSeen:    now,
		CueCount:    track.Len(),
		syncer:      New(track, tolerance),
	}
	s.Tolerance = s.syncer.Tolerance()
	info := s.info()

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	log.Printf("[sync] session %s created for %s (%d cues)", s.ID, bilingualID, s.CueCount)
	return info
}

func (r *Registry) get(id string) (*session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Get returns a snapshot of session id.
func (r *Registry) Get(id string) (SessionInfo, error) {
	s, err := r.get(id)
	if err != nil {
		return SessionInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info(), nil
}

// List returns snapshots of every live session.
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	all := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	out := make([]SessionInfo, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		out = append(out, s.info())
		s.mu.Unlock()
	}
	return out
}

// Sample advances session id to time t.
func (r *Registry) Sample(id string, t float64) (Sample, error) {
	s, err := r.get(id)
	if err != nil {
		return NoSample, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastSeen = r.now()
	return s.syncer.Sample(t), nil
}

// Reset clears session id's active cue.
func (r *Registry) Reset(id string) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastSeen = r.now()
	s.syncer.Reset()
	return nil
}

// Seek returns the seek target for cue (and word when word >= 0) in
// session id. ok is false when the indices are out of range.
func (r *Registry) Seek(id string, cue, word int) (t float64, ok bool, err error) {
	s, err := r.get(id)
	if err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastSeen = r.now()
	t, ok = s.syncer.SeekTime(cue, word)
	return t, ok, nil
}

// Install swaps the track of session id.
func (r *Registry) Install(id, bilingualID string, track *caption.Track) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncer.Install(track)
	s.BilingualID = bilingualID
	s.CueCount = track.Len()
	s.LastSeen = r.now()
	return nil
}

// Delete removes session id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now-ttl and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.LastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("[sync] expired %d idle sessions", n)
			}
		}
	}
}

// info must be called with s.mu held (or before s is published).
func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:          s.ID,
		BilingualID: s.BilingualID,
		CreatedAt:   s.CreatedAt,
		LastSeen:    s.LastSeen,
		CueCount:    s.CueCount,
		Tolerance:   s.Tolerance,
		State:       s.syncer.State(),
	}
}
