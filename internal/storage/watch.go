package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must go without new write events before it
// is handed to the callback.
const settleDelay = 500 * time.Millisecond

// InboxFunc is called once per settled caption file.
type InboxFunc func(path, videoID, lang string)

// Watcher hands caption files dropped into a directory to a callback.
type Watcher struct {
	dir    string
	onFile InboxFunc
	delay  time.Duration

	mu      sync.Mutex
	pending map[string]pendingFile
	seq     uint64
}

// pendingFile is a settle timer and the schedule call that armed it.
type pendingFile struct {
	timer *time.Timer
	gen   uint64
}

func NewWatcher(dir string, onFile InboxFunc) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}
	return &Watcher{
		dir:     dir,
		onFile:  onFile,
		delay:   settleDelay,
		pending: make(map[string]pendingFile),
	}, nil
}

// Run watches the inbox until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			log.Printf("[watch] failed to close watcher: %v", err)
		}
	}()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	log.Printf("[watch] watching caption inbox %s", w.dir)

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			videoID, lang, ok := ParseCaptionName(event.Name)
			if !ok {
				continue
			}
			w.schedule(event.Name, videoID, lang)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] watcher error: %v", err)
		}
	}
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path, videoID, lang string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	w.seq++
	gen := w.seq
	w.pending[path] = pendingFile{
		gen:   gen,
		timer: time.AfterFunc(w.delay, func() { w.settle(path, videoID, lang, gen) }),
	}
}

// settle dispatches path if gen is still its latest schedule. A timer that
// fired while a newer event was re-arming the path loses here, so one file
// yields one callback.
func (w *Watcher) settle(path, videoID, lang string, gen uint64) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok || p.gen != gen {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return
	}
	log.Printf("[watch] new caption file %s (video=%s lang=%s)", filepath.Base(path), videoID, lang)
	w.onFile(path, videoID, lang)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}
